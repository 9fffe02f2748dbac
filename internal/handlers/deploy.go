package handlers

import (
	"context"
	"errors"
	"net/http"

	apperrors "github.com/Trueleap/contentflow/internal/errors"
	"github.com/Trueleap/contentflow/internal/models"
	"github.com/gin-gonic/gin"
)

// DeployLister lists recent deploys.
type DeployLister interface {
	Recent(ctx context.Context) ([]models.DeployRun, error)
}

// DeployHandler serves the deploy history endpoint.
type DeployHandler struct {
	history DeployLister
}

func NewDeployHandler(history DeployLister) *DeployHandler {
	return &DeployHandler{history: history}
}

// History is the GET /api/deploy/history endpoint. It always answers 200;
// an unconfigured token is reported in the error field.
func (h *DeployHandler) History(c *gin.Context) {
	runs, err := h.history.Recent(c.Request.Context())
	if runs == nil {
		runs = []models.DeployRun{}
	}

	resp := models.DeployHistoryResponse{Runs: runs}
	if err != nil {
		if errors.Is(err, apperrors.ErrGitHubNotConfigured) {
			resp.Error = apperrors.ErrGitHubNotConfigured.Message
		}
		resp.Runs = []models.DeployRun{}
	}
	c.JSON(http.StatusOK, resp)
}
