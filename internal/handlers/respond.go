// Package handlers exposes the HTTP API over the services.
package handlers

import (
	"net/http"

	apperrors "github.com/Trueleap/contentflow/internal/errors"
	"github.com/Trueleap/contentflow/internal/logger"
	"github.com/Trueleap/contentflow/internal/models"
	"github.com/gin-gonic/gin"
)

// respondError writes err as {error} with the status of its AppError, or
// 500 for anything else.
func respondError(c *gin.Context, err error) {
	log := logger.FromContext(c.Request.Context())

	appErr, ok := apperrors.As(err)
	if !ok {
		log.Error("Unhandled error", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Internal server error"})
		return
	}

	status := apperrors.StatusOf(appErr)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", "code", appErr.Code, "error", err, "context", appErr.Context)
	} else {
		log.Info("Request rejected", "code", appErr.Code, "message", appErr.Message)
	}
	c.AbortWithStatusJSON(status, models.ErrorResponse{Error: appErr.Message})
}

// HealthCheck reports liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
