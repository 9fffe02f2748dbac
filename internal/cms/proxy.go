package cms

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// maxInjectBytes bounds the HTML documents the proxy will rewrite.
const maxInjectBytes = 8 << 20

type viewKey struct{}

// requestView is the classification of the inbound path. The outbound path
// may carry the upstream's base path, so it is not classified again.
type requestView struct {
	class  ViewClass
	branch string
}

func viewFromContext(ctx context.Context) requestView {
	v, _ := ctx.Value(viewKey{}).(requestView)
	return v
}

// NewProxy returns a reverse proxy to the editor upstream that injects the
// editor scripts into HTML pages.
func NewProxy(upstream *url.URL, scripts *Scripts) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(upstream)
			pr.SetXForwarded()
			pr.Out.Host = pr.In.Host
			view, branch := ClassifyPath(pr.In.URL.EscapedPath())
			if view != ViewNone {
				// Pages must come back uncompressed to be rewritten.
				pr.Out.Header.Del("Accept-Encoding")
			}
			pr.Out = pr.Out.WithContext(context.WithValue(pr.Out.Context(), viewKey{}, requestView{class: view, branch: branch}))
		},
		ModifyResponse: func(resp *http.Response) error {
			return injectResponse(resp, scripts)
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slog.Error("CMS upstream request failed", "path", r.URL.Path, "error", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = io.WriteString(w, `{"error":"CMS upstream unavailable"}`)
		},
	}
}

func injectResponse(resp *http.Response, scripts *Scripts) error {
	rv := viewFromContext(resp.Request.Context())
	view, branch := rv.class, rv.branch
	snippet := scripts.For(view)
	if snippet == "" {
		return nil
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		return nil
	}
	if enc := resp.Header.Get("Content-Encoding"); enc != "" && enc != "identity" {
		slog.Warn("Skipping script injection for encoded response", "path", resp.Request.URL.Path, "encoding", enc)
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxInjectBytes+1))
	if err != nil {
		return fmt.Errorf("failed to read CMS response: %w", err)
	}
	_ = resp.Body.Close()
	if len(body) > maxInjectBytes {
		return fmt.Errorf("CMS page larger than %d bytes", maxInjectBytes)
	}

	out := InjectScripts(body, snippet)
	resp.Body = io.NopCloser(bytes.NewReader(out))
	resp.ContentLength = int64(len(out))
	resp.Header.Set("Content-Length", strconv.Itoa(len(out)))
	resp.Header.Del("ETag")

	slog.Debug("Injected editor scripts", "path", resp.Request.URL.Path, "view", view.String(), "branch", branch)
	return nil
}

// Gateway serves a request through the editor proxy.
func Gateway(proxy http.Handler) gin.HandlerFunc {
	return gin.WrapH(proxy)
}
