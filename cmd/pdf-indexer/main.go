package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Trueleap/contentflow/internal/logger"
	"github.com/Trueleap/contentflow/internal/services"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

var (
	indexer *services.IndexerFunction
	once    sync.Once
	initErr error
)

func init() {
	logger.Initialize(os.Getenv("LOG_LEVEL"))

	functions.CloudEvent("IndexUploadedPDF", indexUploadedPDF)
}

func main() {}

// indexUploadedPDF is triggered by storage object finalize events on the
// upload bucket.
func indexUploadedPDF(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		indexer, initErr = services.NewIndexerFromEnv(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var gcsEvent services.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	// Process logs with object context; returning the error marks the
	// invocation failed so the platform retries it.
	return indexer.Process(ctx, gcsEvent)
}
