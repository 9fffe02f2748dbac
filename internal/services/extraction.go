package services

import (
	"context"
	"time"

	apperrors "github.com/Trueleap/contentflow/internal/errors"
	"github.com/Trueleap/contentflow/internal/logger"
	"github.com/Trueleap/contentflow/internal/models"
)

// ExtractionConfig holds configuration for the extraction pipeline.
type ExtractionConfig struct {
	MaxUploadBytes int64
	Keys           KeyGenerator
	Now            func() time.Time
}

// ExtractionPipeline stores an uploaded PDF, converts it to markdown and
// infers job-posting fields from the result.
type ExtractionPipeline struct {
	store     ObjectStore
	extractor Extractor
	fields    FieldInferrer
	registry  DocumentRegistry
	config    ExtractionConfig
}

// NewExtractionPipeline creates a pipeline. store and extractor may be nil,
// in which case Process reports the missing dependency; fields and registry
// are optional.
func NewExtractionPipeline(store ObjectStore, extractor Extractor, fields FieldInferrer, registry DocumentRegistry, config ExtractionConfig) *ExtractionPipeline {
	if config.Now == nil {
		config.Now = time.Now
	}
	if fields == nil {
		fields = HeuristicFieldInferrer{}
	}
	return &ExtractionPipeline{
		store:     store,
		extractor: extractor,
		fields:    fields,
		registry:  registry,
		config:    config,
	}
}

// MaxUploadBytes returns the size ceiling enforced by Process.
func (p *ExtractionPipeline) MaxUploadBytes() int64 {
	return p.config.MaxUploadBytes
}

// Process runs the pipeline for one upload. Validation happens before any
// side effect. The PDF is stored before extraction and is kept when
// extraction fails.
func (p *ExtractionPipeline) Process(ctx context.Context, upload *Upload) (*models.ExtractionResult, error) {
	if upload == nil {
		return nil, apperrors.ErrNoFileProvided
	}
	if err := ValidateUpload(upload.ContentType, upload.Size(), p.config.MaxUploadBytes); err != nil {
		return nil, err
	}
	if p.store == nil {
		return nil, apperrors.ErrStorageNotConfigured
	}
	if p.extractor == nil {
		return nil, apperrors.ErrExtractorNotConfigured
	}

	key := p.config.Keys.NewPDFKey()
	ctx = logger.With(ctx, "pdfKey", key, "filename", upload.Filename)
	log := logger.FromContext(ctx)
	log.Info("Storing uploaded PDF.", "sizeBytes", upload.Size())

	metadata := map[string]string{"originalFilename": upload.Filename}
	if err := p.store.Put(ctx, key, upload.Data, PDFContentType, metadata); err != nil {
		log.Error("Failed to store PDF", "error", err)
		return nil, apperrors.ErrStorageWriteFailed.
			WithMessage("Failed to store PDF: " + err.Error()).
			WithError(err).
			WithContext("pdf_key", key)
	}

	p.record(ctx, key, upload)

	markdown, err := p.extractor.ToMarkdown(ctx, upload.Filename, upload.Data)
	if err != nil {
		log.Error("Extraction failed; stored PDF is kept", "error", err)
		return nil, apperrors.ErrExtractionFailed.
			WithMessage("AI extraction failed: " + err.Error()).
			WithError(err).
			WithContext("pdf_key", key)
	}

	fields, err := p.fields.Infer(ctx, markdown)
	if err != nil {
		log.Warn("Field inference failed; returning markdown only", "error", err)
		fields = models.JobFields{}
	}

	log.Info("Extraction complete.", "markdownLength", len(markdown), "fieldsFound", !fields.IsEmpty())
	return &models.ExtractionResult{
		Markdown: markdown,
		Fields:   fields,
		PDFKey:   key,
	}, nil
}

// record writes the registry entry. A registry failure never fails the upload.
func (p *ExtractionPipeline) record(ctx context.Context, key string, upload *Upload) {
	if p.registry == nil {
		return
	}
	doc := models.UploadedDocument{
		Key:              key,
		ContentType:      PDFContentType,
		SizeBytes:        upload.Size(),
		OriginalFilename: upload.Filename,
		CreatedAt:        p.config.Now(),
	}
	if err := p.registry.Record(ctx, doc); err != nil {
		logger.FromContext(ctx).Warn("Failed to record document in registry", "error", err)
	}
}
