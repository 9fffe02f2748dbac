// Package server assembles the HTTP service from configuration.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Trueleap/contentflow/internal/cms"
	"github.com/Trueleap/contentflow/internal/config"
	"github.com/Trueleap/contentflow/internal/gcp"
	"github.com/Trueleap/contentflow/internal/services"
)

// Dependencies are the long-lived services shared by every request.
type Dependencies struct {
	Pipeline *services.ExtractionPipeline
	PRs      *services.PRCreator
	Deploys  *services.DeployHistory
	Scripts  *cms.Scripts

	closers []func() error
}

// BuildDependencies creates the cloud clients the configuration asks for.
// A missing bucket leaves extraction unconfigured rather than failing start-up.
func BuildDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	deps := &Dependencies{}
	ok := false
	defer func() {
		if !ok {
			_ = deps.Close()
		}
	}()

	var store services.ObjectStore
	if cfg.Storage.PDFBucket != "" {
		client, err := gcp.NewStorageClient(ctx, cfg.GCP.CredentialsFile)
		if err != nil {
			return nil, err
		}
		deps.closers = append(deps.closers, client.Close)
		store = services.NewGCSObjectStore(client, cfg.Storage.PDFBucket)
	} else {
		slog.Warn("PDF_BUCKET not set; PDF extraction is disabled")
	}

	var (
		extractor services.Extractor     = services.LocalExtractor{}
		fields    services.FieldInferrer = services.HeuristicFieldInferrer{}
	)
	if cfg.UsesVertex() {
		vertex, err := gcp.NewVertexClient(ctx, cfg.GCP.ProjectID, cfg.GCP.VertexAIRegion, cfg.GCP.VertexModel, cfg.GCP.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to create vertex client: %w", err)
		}
		deps.closers = append(deps.closers, vertex.Close)
		if cfg.Extraction.Extractor == config.ExtractorVertex {
			extractor = services.NewVertexExtractor(vertex)
		}
		if cfg.Extraction.FieldInference == config.FieldInferenceVertex {
			fields = services.NewVertexFieldInferrer(vertex)
		}
	}

	var registry services.DocumentRegistry
	if cfg.Registry.Collection != "" {
		client, err := gcp.NewFirestoreClient(ctx, cfg.GCP.ProjectID, cfg.GCP.CredentialsFile)
		if err != nil {
			return nil, err
		}
		deps.closers = append(deps.closers, client.Close)
		registry = services.NewFirestoreRegistry(client, cfg.Registry.Collection)
	}

	deps.Pipeline = services.NewExtractionPipeline(store, extractor, fields, registry, services.ExtractionConfig{
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
		Keys:           services.NewKeyGenerator(cfg.Storage.PDFPrefix),
	})
	deps.PRs = services.NewPRCreator(cfg.GitHub)
	deps.Deploys = services.NewDeployHistory(cfg.GitHub)

	scripts, err := cms.NewScripts(cms.DefaultScriptConfig())
	if err != nil {
		return nil, err
	}
	deps.Scripts = scripts

	slog.Info("Dependencies initialized.",
		"extractor", cfg.Extraction.Extractor,
		"fieldInference", cfg.Extraction.FieldInference,
		"registry", cfg.Registry.Collection != "",
		"github", deps.PRs.Configured(),
	)
	ok = true
	return deps, nil
}

// Close releases every client in reverse creation order.
func (d *Dependencies) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}
