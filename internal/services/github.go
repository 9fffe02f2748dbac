package services

import (
	"context"
	"errors"

	"github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
)

// PullRequestsService is the part of the GitHub pull request API in use.
type PullRequestsService interface {
	List(ctx context.Context, owner, repo string, opts *github.PullRequestListOptions) ([]*github.PullRequest, *github.Response, error)
	Create(ctx context.Context, owner, repo string, pull *github.NewPullRequest) (*github.PullRequest, *github.Response, error)
}

// ActionsService is the part of the GitHub Actions API in use.
type ActionsService interface {
	ListRepositoryWorkflowRuns(ctx context.Context, owner, repo string, opts *github.ListWorkflowRunsOptions) (*github.WorkflowRuns, *github.Response, error)
}

// NewGitHubClient returns a client authenticated with token. It returns nil
// for an empty token; callers treat that as GitHub not being configured.
func NewGitHubClient(token string) *github.Client {
	if token == "" {
		return nil
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return github.NewClient(oauth2.NewClient(context.Background(), ts))
}

// githubErrorMessage returns the message GitHub sent with a failed call.
func githubErrorMessage(err error) string {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) {
		return ghErr.Message
	}
	return ""
}
