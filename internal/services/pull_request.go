package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/Trueleap/contentflow/internal/config"
	apperrors "github.com/Trueleap/contentflow/internal/errors"
	"github.com/Trueleap/contentflow/internal/logger"
	"github.com/Trueleap/contentflow/internal/models"
	"github.com/google/go-github/v80/github"
)

// PRCreator opens review pull requests for content branches.
type PRCreator struct {
	prs   PullRequestsService
	owner string
	repo  string
	base  string
}

// NewPRCreator builds a creator from the GitHub settings. Without a token
// every Create fails with GitHubNotConfigured.
func NewPRCreator(cfg config.GitHubConfig) *PRCreator {
	var prs PullRequestsService
	if client := NewGitHubClient(cfg.Token); client != nil {
		prs = client.PullRequests
	}
	return NewPRCreatorWithService(prs, cfg.Owner(), cfg.Name(), cfg.BaseBranch)
}

// NewPRCreatorWithService builds a creator over an existing service.
func NewPRCreatorWithService(prs PullRequestsService, owner, repo, base string) *PRCreator {
	if base == "" {
		base = "main"
	}
	return &PRCreator{prs: prs, owner: owner, repo: repo, base: base}
}

// Configured reports whether a GitHub token was supplied.
func (c *PRCreator) Configured() bool {
	return c.prs != nil
}

// Create opens a pull request from branch into the base branch. It refuses
// non-content branches before any GitHub call and reports an already open
// pull request for the same head as DuplicatePR. The duplicate check and
// the create are not atomic.
func (c *PRCreator) Create(ctx context.Context, branch string) (*models.PullRequest, error) {
	if c.prs == nil {
		return nil, apperrors.ErrGitHubNotConfigured
	}

	branch = strings.TrimSpace(branch)
	if branch == "" || !models.IsContentBranch(branch) {
		return nil, apperrors.ErrInvalidBranchName.WithContext("branch", branch)
	}

	log := logger.FromContext(ctx).With("branch", branch, "repo", c.owner+"/"+c.repo)

	if number, found := c.findOpen(ctx, branch); found {
		log.Info("Pull request already open for branch", "prNumber", number)
		return nil, apperrors.ErrDuplicatePR.
			WithMessage(fmt.Sprintf("PR #%d already exists for this branch", number)).
			WithContext("pr_number", number)
	}

	head := models.ContentBranch{Name: branch}
	newPR := &github.NewPullRequest{
		Title: github.Ptr("Content: " + head.ShortName()),
		Head:  github.Ptr(branch),
		Base:  github.Ptr(c.base),
		Body:  github.Ptr(fmt.Sprintf("Content update from branch `%s`.", branch)),
	}

	pr, _, err := c.prs.Create(ctx, c.owner, c.repo, newPR)
	if err != nil {
		log.Error("Failed to create pull request", "error", err)
		appErr := apperrors.ErrPRCreateFailed.WithError(err)
		if msg := githubErrorMessage(err); msg != "" {
			appErr = appErr.WithMessage(msg)
		}
		return nil, appErr
	}

	log.Info("Pull request created", "prNumber", pr.GetNumber())
	return &models.PullRequest{
		Number:     pr.GetNumber(),
		HeadBranch: branch,
		BaseBranch: c.base,
		Title:      newPR.GetTitle(),
		Body:       newPR.GetBody(),
		URL:        pr.GetHTMLURL(),
	}, nil
}

// findOpen looks for an open pull request with branch as head. A failed
// lookup is logged and treated as none found.
func (c *PRCreator) findOpen(ctx context.Context, branch string) (int, bool) {
	opts := &github.PullRequestListOptions{
		State: "open",
		Head:  c.owner + ":" + branch,
	}
	existing, resp, err := c.prs.List(ctx, c.owner, c.repo, opts)
	if err != nil {
		status := 0
		if resp != nil && resp.Response != nil {
			status = resp.StatusCode
		}
		logger.FromContext(ctx).Warn("Open pull request lookup failed; continuing", "error", err, "status", status)
		return 0, false
	}
	if len(existing) == 0 {
		return 0, false
	}
	return existing[0].GetNumber(), true
}
