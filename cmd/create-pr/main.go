package main

import (
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Trueleap/contentflow/internal/config"
	"github.com/Trueleap/contentflow/internal/handlers"
	"github.com/Trueleap/contentflow/internal/logger"
	"github.com/Trueleap/contentflow/internal/server"
	"github.com/Trueleap/contentflow/internal/services"
)

var (
	handler http.Handler
	once    sync.Once
	initErr error
)

func init() {
	logger.Initialize(os.Getenv("LOG_LEVEL"))

	functions.HTTP("CreatePR", createPR)
}

func main() {}

// createPR needs only the GitHub settings, so it skips the cloud clients.
func createPR(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		var cfg *config.Config
		cfg, initErr = config.Load(os.Getenv("CONFIG_FILE"))
		if initErr != nil {
			return
		}
		prs := services.NewPRCreator(cfg.GitHub)
		if !prs.Configured() {
			slog.Warn("GITHUB_TOKEN or GITHUB_REPO not set; create-pr will answer 500")
		}
		handler = server.NewFunctionRouter(handlers.NewAdminHandler(prs).CreatePR)
	})
	if initErr != nil {
		slog.Error("Critical: create-pr function initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	handler.ServeHTTP(w, r)
}
