package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/affirmpost-backend/internal/pkg/logger"
	"github.com/yungbote/affirmpost-backend/internal/services"
)

type GenerateHandler struct {
	log            *logger.Logger
	pipeline       services.PipelineService
	defaultProfile string
}

func NewGenerateHandler(log *logger.Logger, pipeline services.PipelineService, defaultProfile string) (*GenerateHandler, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if pipeline == nil {
		return nil, fmt.Errorf("pipeline service required")
	}
	if defaultProfile == "" {
		defaultProfile = "classic"
	}
	return &GenerateHandler{
		log:            log.With("handler", "GenerateHandler"),
		pipeline:       pipeline,
		defaultProfile: defaultProfile,
	}, nil
}

type generateRequest struct {
	Profile string `json:"profile"`
}

type generateResponse struct {
	Status          string   `json:"status"`
	Profile         string   `json:"profile"`
	Theme           string   `json:"theme"`
	Affirmations    []string `json:"affirmations"`
	Caption         string   `json:"caption"`
	FacebookPosted  *bool    `json:"facebook_posted,omitempty"`
	InstagramPosted bool     `json:"instagram_posted"`
	InstagramState  string   `json:"instagram_state"`
}

// Generate runs the whole pipeline synchronously and answers when the last
// publish attempt settles. Callers should set generous client timeouts: a
// reel that exhausts its poll budget holds the request for minutes.
func (h *GenerateHandler) Generate(c *gin.Context) {
	req := generateRequest{}
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
	}
	profileName := req.Profile
	if profileName == "" {
		profileName = c.Query("profile")
	}
	if profileName == "" {
		profileName = h.defaultProfile
	}

	result, err := h.pipeline.Run(c.Request.Context(), profileName)
	if err != nil {
		h.log.Error("pipeline run failed", "profile", profileName, "error", err)
		RespondError(c, http.StatusInternalServerError, err)
		return
	}

	resp := generateResponse{
		Status:          "success",
		Profile:         result.Profile,
		Theme:           result.Theme,
		Affirmations:    result.Phrases,
		Caption:         result.Caption,
		InstagramPosted: result.Instagram.OK(),
		InstagramState:  string(result.Instagram.State),
	}
	if result.Facebook != nil {
		posted := result.Facebook.OK()
		resp.FacebookPosted = &posted
	}
	if !result.Success() {
		resp.Status = "partial_failure"
	}
	RespondOK(c, resp)
}
