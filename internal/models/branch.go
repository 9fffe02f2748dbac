package models

import "strings"

// ContentBranchPrefix marks a branch as an editable content branch.
const ContentBranchPrefix = "content/"

// ContentBranch is one in-progress CMS edit set.
type ContentBranch struct {
	Name string
}

// IsContentBranch reports whether name is a content branch.
func IsContentBranch(name string) bool {
	return strings.HasPrefix(name, ContentBranchPrefix)
}

// ShortName strips the content/ prefix.
func (b ContentBranch) ShortName() string {
	return strings.TrimPrefix(b.Name, ContentBranchPrefix)
}

// PullRequest is a review request opened for a content branch.
type PullRequest struct {
	Number     int
	HeadBranch string
	BaseBranch string
	Title      string
	Body       string
	URL        string
}
