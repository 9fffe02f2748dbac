package handlers

import (
	"context"
	"net/http"

	apperrors "github.com/Trueleap/contentflow/internal/errors"
	"github.com/Trueleap/contentflow/internal/models"
	"github.com/gin-gonic/gin"
)

// PullRequestOpener opens review pull requests.
type PullRequestOpener interface {
	Configured() bool
	Create(ctx context.Context, branch string) (*models.PullRequest, error)
}

// AdminHandler serves the editor administration endpoints.
type AdminHandler struct {
	prs PullRequestOpener
}

func NewAdminHandler(prs PullRequestOpener) *AdminHandler {
	return &AdminHandler{prs: prs}
}

// CreatePR is the POST /api/admin/create-pr endpoint.
func (h *AdminHandler) CreatePR(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.AbortWithStatusJSON(http.StatusMethodNotAllowed, models.ErrorResponse{Error: "Method not allowed"})
		return
	}
	if !h.prs.Configured() {
		respondError(c, apperrors.ErrGitHubNotConfigured)
		return
	}

	var req models.CreatePRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.ErrInvalidJSON.WithError(err))
		return
	}

	pr, err := h.prs.Create(c.Request.Context(), req.Branch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.CreatePRResponse{OK: true, PRNumber: pr.Number})
}
