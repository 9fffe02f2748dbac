package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Trueleap/contentflow/internal/config"
	"github.com/Trueleap/contentflow/internal/handlers"
	"github.com/Trueleap/contentflow/internal/logger"
	"github.com/Trueleap/contentflow/internal/server"
)

var (
	handler http.Handler
	once    sync.Once
	initErr error
)

func init() {
	logger.Initialize(os.Getenv("LOG_LEVEL"))

	functions.HTTP("ExtractPDF", extractPDF)
}

func main() {}

func extractPDF(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		var cfg *config.Config
		cfg, initErr = config.Load(os.Getenv("CONFIG_FILE"))
		if initErr != nil {
			return
		}
		var deps *server.Dependencies
		deps, initErr = server.BuildDependencies(context.Background(), cfg)
		if initErr != nil {
			return
		}
		handler = server.NewFunctionRouter(handlers.NewJobsHandler(deps.Pipeline).ExtractPDF)
	})
	if initErr != nil {
		slog.Error("Critical: extraction function initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	handler.ServeHTTP(w, r)
}
