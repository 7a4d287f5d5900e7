package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/affirmpost-backend/internal/data/repos"
	"github.com/yungbote/affirmpost-backend/internal/pkg/logger"
)

// PostsHandler serves the post-history log. Only mounted when the history
// database is configured.
type PostsHandler struct {
	log     *logger.Logger
	history repos.PostRecordRepo
}

func NewPostsHandler(log *logger.Logger, history repos.PostRecordRepo) (*PostsHandler, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if history == nil {
		return nil, fmt.Errorf("post record repo required")
	}
	return &PostsHandler{
		log:     log.With("handler", "PostsHandler"),
		history: history,
	}, nil
}

func (h *PostsHandler) ListRecent(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			RespondError(c, http.StatusBadRequest, fmt.Errorf("limit must be an integer in [1,500]"))
			return
		}
		limit = parsed
	}
	records, err := h.history.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.log.Error("post history read failed", "error", err)
		RespondError(c, http.StatusInternalServerError, fmt.Errorf("could not read post history"))
		return
	}
	RespondOK(c, gin.H{"posts": records})
}
