// Package cms fronts the content editor: it proxies editor traffic, injects
// the editor-side scripts and keeps the main branch read-only.
package cms

import (
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/Trueleap/contentflow/internal/errors"
	"github.com/Trueleap/contentflow/internal/logger"
	"github.com/Trueleap/contentflow/internal/models"
	"github.com/gin-gonic/gin"
)

const (
	EditorPrefix = "/keystatic"
	APIPrefix    = "/api/keystatic"

	// TokenCookieName is the cookie the editor reads its GitHub token from.
	TokenCookieName = "keystatic-gh-access-token"
	tokenCookieAge  = 24 * 60 * 60
)

// ViewClass is the kind of page a request belongs to.
type ViewClass int

const (
	ViewNone ViewClass = iota
	ViewMain
	ViewFeature
)

func (v ViewClass) String() string {
	switch v {
	case ViewMain:
		return "main"
	case ViewFeature:
		return "feature"
	default:
		return "none"
	}
}

// ClassifyPath classifies an escaped URL path. Editor pages under
// /keystatic/branch/<name> are feature-branch views and return the
// unescaped branch name; every other editor page is a main-branch view.
func ClassifyPath(escapedPath string) (ViewClass, string) {
	if !hasPathPrefix(escapedPath, EditorPrefix) {
		return ViewNone, ""
	}

	rest := strings.TrimPrefix(escapedPath, EditorPrefix)
	if !strings.HasPrefix(rest, "/branch/") {
		return ViewMain, ""
	}

	segment, _, _ := strings.Cut(strings.TrimPrefix(rest, "/branch/"), "/")
	branch, err := url.PathUnescape(segment)
	if err != nil || branch == "" {
		return ViewMain, ""
	}
	return ViewFeature, branch
}

// ClassifyReferer classifies the page a request was made from.
func ClassifyReferer(referer string) (ViewClass, string) {
	if referer == "" {
		return ViewNone, ""
	}
	u, err := url.Parse(referer)
	if err != nil {
		return ViewNone, ""
	}
	return ClassifyPath(u.EscapedPath())
}

// IsCMSPath reports whether path belongs to the editor or its API.
func IsCMSPath(path string) bool {
	return hasPathPrefix(path, EditorPrefix) || hasPathPrefix(path, APIPrefix)
}

func hasPathPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// TokenCookie sets the editor token cookie on CMS requests that arrive
// without one. It is a no-op when token is empty.
func TokenCookie(token string, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" || !IsCMSPath(c.Request.URL.Path) {
			c.Next()
			return
		}
		if v, err := c.Cookie(TokenCookieName); err == nil && v != "" {
			c.Next()
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(TokenCookieName, token, tokenCookieAge, "/", "", secure, false)
		c.Next()
	}
}

// WriteGuard rejects state-changing editor API calls made from a
// main-branch view. Branch protection on the repository is the real
// authority; this only stops the editor UI from trying.
func WriteGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !hasPathPrefix(c.Request.URL.Path, APIPrefix) || isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}

		view, _ := ClassifyReferer(c.Request.Referer())
		if view != ViewMain {
			c.Next()
			return
		}

		err := apperrors.ErrMainBranchReadOnly.
			WithContext("path", c.Request.URL.Path).
			WithContext("method", c.Request.Method)
		logger.FromContext(c.Request.Context()).Warn("Blocked write from main-branch view", "path", c.Request.URL.Path, "method", c.Request.Method)
		c.AbortWithStatusJSON(err.Status, models.ErrorResponse{Error: err.Message})
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
