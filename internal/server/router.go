package server

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/Trueleap/contentflow/internal/cms"
	"github.com/Trueleap/contentflow/internal/config"
	"github.com/Trueleap/contentflow/internal/handlers"
	"github.com/Trueleap/contentflow/internal/models"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter wires the API routes and, when an upstream is configured, the
// editor proxy.
func NewRouter(cfg *config.Config, deps *Dependencies) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger())

	if len(cfg.Server.CORSOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = cfg.Server.CORSOrigins
		corsConfig.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type"}
		corsConfig.AllowCredentials = true
		r.Use(cors.New(corsConfig))
	}

	jobs := handlers.NewJobsHandler(deps.Pipeline)
	admin := handlers.NewAdminHandler(deps.PRs)
	deploys := handlers.NewDeployHandler(deps.Deploys)

	r.GET("/healthz", handlers.HealthCheck)

	api := r.Group("/api")
	{
		api.POST("/jobs/extract-pdf", jobs.ExtractPDF)
		api.POST("/admin/create-pr", admin.CreatePR)
		api.GET("/deploy/history", deploys.History)
	}

	if cfg.CMS.Upstream == "" {
		r.NoRoute(notFound)
		return r, nil
	}

	upstream, err := url.Parse(cfg.CMS.Upstream)
	if err != nil {
		return nil, fmt.Errorf("invalid CMS upstream: %w", err)
	}

	token := ""
	if cfg.CMS.TokenCookie {
		token = cfg.GitHub.Token
	}

	// The editor owns everything under its prefixes, so it is served from
	// NoRoute instead of catch-all routes that would shadow /api.
	r.NoRoute(
		cmsOnly,
		cms.TokenCookie(token, cfg.IsProduction()),
		cms.WriteGuard(),
		cms.Gateway(cms.NewProxy(upstream, deps.Scripts)),
	)
	return r, nil
}

func cmsOnly(c *gin.Context) {
	if !cms.IsCMSPath(c.Request.URL.Path) {
		notFound(c)
		return
	}
	c.Next()
}

func notFound(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusNotFound, models.ErrorResponse{Error: "Not found"})
}

// NewFunctionRouter serves h on every path, for single-endpoint Cloud
// Functions where the platform owns routing.
func NewFunctionRouter(h gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger())
	r.NoRoute(h)
	return r
}
