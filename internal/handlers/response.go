package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error responses keep the {"status":"error","message":...} shape the
// trigger endpoint has always returned.
type ErrorEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func RespondError(c *gin.Context, status int, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{Status: "error", Message: msg})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
