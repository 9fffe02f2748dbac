package services

import (
	"context"
	"time"

	"github.com/Trueleap/contentflow/internal/config"
	apperrors "github.com/Trueleap/contentflow/internal/errors"
	"github.com/Trueleap/contentflow/internal/logger"
	"github.com/Trueleap/contentflow/internal/models"
	"github.com/google/go-github/v80/github"
)

const deployHistoryLimit = 15

// DeployHistory lists recent site deploy workflow runs.
type DeployHistory struct {
	actions ActionsService
	owner   string
	repo    string
	event   string
}

// NewDeployHistory builds a lister from the GitHub settings.
func NewDeployHistory(cfg config.GitHubConfig) *DeployHistory {
	var actions ActionsService
	if client := NewGitHubClient(cfg.Token); client != nil {
		actions = client.Actions
	}
	return NewDeployHistoryWithService(actions, cfg.Owner(), cfg.Name(), cfg.DeployEvent)
}

// NewDeployHistoryWithService builds a lister over an existing service.
func NewDeployHistoryWithService(actions ActionsService, owner, repo, event string) *DeployHistory {
	if event == "" {
		event = "repository_dispatch"
	}
	return &DeployHistory{actions: actions, owner: owner, repo: repo, event: event}
}

// Recent returns the latest runs, newest first. A completed run reports its
// conclusion as status. Without a token it returns GitHubNotConfigured; a
// GitHub failure yields an empty list.
func (d *DeployHistory) Recent(ctx context.Context) ([]models.DeployRun, error) {
	if d.actions == nil {
		return []models.DeployRun{}, apperrors.ErrGitHubNotConfigured
	}

	opts := &github.ListWorkflowRunsOptions{
		Event:       d.event,
		ListOptions: github.ListOptions{PerPage: deployHistoryLimit},
	}
	result, _, err := d.actions.ListRepositoryWorkflowRuns(ctx, d.owner, d.repo, opts)
	if err != nil {
		logger.FromContext(ctx).Warn("Failed to list deploy runs", "error", err)
		return []models.DeployRun{}, nil
	}
	if result == nil {
		return []models.DeployRun{}, nil
	}

	runs := make([]models.DeployRun, 0, len(result.WorkflowRuns))
	for _, run := range result.WorkflowRuns {
		status := run.GetStatus()
		if status == "completed" {
			status = run.GetConclusion()
		}
		runs = append(runs, models.DeployRun{
			ID:        run.GetID(),
			Status:    status,
			CreatedAt: formatRunTime(run.GetCreatedAt()),
			URL:       run.GetHTMLURL(),
		})
	}
	return runs, nil
}

// formatRunTime returns "" for a run without a timestamp.
func formatRunTime(ts github.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}
