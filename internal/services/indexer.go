package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/storage"
	"github.com/Trueleap/contentflow/internal/config"
	"github.com/Trueleap/contentflow/internal/gcp"
	"github.com/Trueleap/contentflow/internal/models"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/sync/errgroup"
)

const defaultIndexCollection = "documents"

// GCSEvent is the data payload of a storage object finalize CloudEvent.
type GCSEvent struct {
	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
}

// ObjectReader downloads stored objects.
type ObjectReader interface {
	ReadObject(ctx context.Context, bucket, object string) ([]byte, error)
}

type gcsObjectReader struct {
	client *storage.Client
}

func (r gcsObjectReader) ReadObject(ctx context.Context, bucket, object string) ([]byte, error) {
	return gcp.ReadObject(ctx, r.client, bucket, object)
}

// PDFAnalysis is the result of inspecting a stored PDF.
type PDFAnalysis struct {
	FileHash  string
	PageCount int
	// Invalid is set when pdfcpu rejects the document.
	Invalid error
}

// IndexerFunction records hash and page count for every PDF written under
// the upload prefix.
type IndexerFunction struct {
	reader ObjectReader
	index  DocumentIndex
	keys   KeyGenerator
	now    func() time.Time
}

// NewIndexer creates an indexer over the given dependencies.
func NewIndexer(reader ObjectReader, index DocumentIndex, prefix string) *IndexerFunction {
	return &IndexerFunction{
		reader: reader,
		index:  index,
		keys:   NewKeyGenerator(prefix),
		now:    time.Now,
	}
}

// NewIndexerFromEnv builds the indexer and its clients from the environment.
func NewIndexerFromEnv(ctx context.Context) (*IndexerFunction, error) {
	cfg, err := config.Load(gcp.GetEnv("CONFIG_FILE", ""))
	if err != nil {
		return nil, err
	}
	if cfg.GCP.ProjectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	collection := cfg.Registry.Collection
	if collection == "" {
		collection = defaultIndexCollection
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, cfg.GCP.ProjectID, cfg.GCP.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	storageClient, err := gcp.NewStorageClient(ctx, cfg.GCP.CredentialsFile)
	if err != nil {
		_ = firestoreClient.Close()
		return nil, err
	}

	f := NewIndexer(gcsObjectReader{client: storageClient}, NewFirestoreRegistry(firestoreClient, collection), cfg.Storage.PDFPrefix)
	slog.Info("PDF indexer initialized.", "collection", collection, "prefix", cfg.Storage.PDFPrefix)
	return f, nil
}

// Process indexes one finalized object. Objects outside the prefix are
// ignored. A PDF that pdfcpu rejects is recorded as INVALID, not returned as
// an error, so the event is not retried.
func (f *IndexerFunction) Process(ctx context.Context, e GCSEvent) error {
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)

	if !f.keys.HasPrefix(e.Name) {
		logCtx.Debug("Object outside upload prefix. Skipping.")
		return nil
	}
	logCtx.Info("Indexing uploaded PDF.")

	data, err := f.reader.ReadObject(ctx, e.Bucket, e.Name)
	if err != nil {
		logCtx.Error("Failed to download source PDF", "error", err)
		return err
	}

	analysis, err := AnalyzePDF(ctx, data)
	if err != nil {
		logCtx.Error("Failed to analyze PDF", "error", err)
		return err
	}
	logCtx = logCtx.With("fileHash", analysis.FileHash)

	docID := DocumentID(e.Name)
	fields := map[string]interface{}{
		"key":       e.Name,
		"sizeBytes": int64(len(data)),
		"fileHash":  analysis.FileHash,
		"indexedAt": f.now().UTC(),
	}
	if e.ContentType != "" {
		fields["contentType"] = e.ContentType
	}

	if analysis.Invalid != nil {
		logCtx.Warn("PDF failed validation.", "error", analysis.Invalid)
		fields["status"] = models.StatusInvalid
		fields["errorDetails"] = fmt.Sprintf("failed to validate PDF: %v", analysis.Invalid)
	} else {
		fields["status"] = models.StatusIndexed
		fields["pageCount"] = analysis.PageCount
	}

	if dup := f.findDuplicate(ctx, logCtx, docID, analysis.FileHash); dup != "" {
		fields["duplicateOf"] = dup
	}

	if err := f.index.Upsert(ctx, docID, fields); err != nil {
		logCtx.Error("Failed to write index record", "error", err)
		return err
	}
	logCtx.Info("PDF indexed.", "documentId", docID, "status", fields["status"], "pageCount", analysis.PageCount)
	return nil
}

// findDuplicate returns another document with the same hash, if any. Lookup
// failures only cost the duplicate hint.
func (f *IndexerFunction) findDuplicate(ctx context.Context, logCtx *slog.Logger, docID, fileHash string) string {
	ids, err := f.index.FindByHash(ctx, fileHash)
	if err != nil {
		logCtx.Warn("Duplicate lookup failed", "error", err)
		return ""
	}
	for _, id := range ids {
		if id != docID {
			logCtx.Info("Duplicate content detected.", "existingDocId", id)
			return id
		}
	}
	return ""
}

// AnalyzePDF hashes data and counts its pages concurrently. Validation
// failures are reported in PDFAnalysis.Invalid.
func AnalyzePDF(ctx context.Context, data []byte) (*PDFAnalysis, error) {
	var analysis PDFAnalysis
	eg, gctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		sum := sha256.Sum256(data)
		analysis.FileHash = hex.EncodeToString(sum[:])
		return nil
	})

	eg.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		conf := model.NewDefaultConfiguration()
		conf.ValidationMode = model.ValidationRelaxed
		pageCount, err := api.PageCount(bytes.NewReader(data), conf)
		if err != nil {
			analysis.Invalid = err
			return nil
		}
		analysis.PageCount = pageCount
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return &analysis, nil
}
