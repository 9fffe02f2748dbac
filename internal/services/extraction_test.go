package services

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/Trueleap/contentflow/internal/errors"
	"github.com/Trueleap/contentflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testKey = "job-pdfs/1718000000123-a1b2c3d4.pdf"

func testPipelineConfig() ExtractionConfig {
	return ExtractionConfig{
		MaxUploadBytes: 1024,
		Keys: KeyGenerator{
			Prefix: "job-pdfs",
			Now:    func() time.Time { return time.UnixMilli(1718000000123) },
			Suffix: func() string { return "a1b2c3d4" },
		},
		Now: func() time.Time { return time.Date(2024, 6, 10, 6, 13, 20, 0, time.UTC) },
	}
}

func pdfUpload() *Upload {
	return &Upload{Filename: "posting.pdf", ContentType: PDFContentType, Data: []byte("%PDF-1.4 posting")}
}

func TestExtractionPipeline_Success(t *testing.T) {
	ctx := context.Background()
	store := new(MockObjectStore)
	extractor := new(MockExtractor)
	fields := new(MockFieldInferrer)
	registry := new(MockRegistry)

	upload := pdfUpload()
	wantFields := models.JobFields{Title: "Field Officer", Location: "Kisumu"}

	store.On("Put", mock.Anything, testKey, upload.Data, PDFContentType, map[string]string{"originalFilename": "posting.pdf"}).Return(nil).Once()
	registry.On("Record", mock.Anything, mock.MatchedBy(func(doc models.UploadedDocument) bool {
		return doc.Key == testKey && doc.SizeBytes == upload.Size() && doc.Status == ""
	})).Return(nil).Once()
	extractor.On("ToMarkdown", mock.Anything, "posting.pdf", upload.Data).Return("# Field Officer", nil).Once()
	fields.On("Infer", mock.Anything, "# Field Officer").Return(wantFields, nil).Once()

	p := NewExtractionPipeline(store, extractor, fields, registry, testPipelineConfig())
	result, err := p.Process(ctx, upload)

	require.NoError(t, err)
	assert.Equal(t, testKey, result.PDFKey)
	assert.Equal(t, "# Field Officer", result.Markdown)
	assert.Equal(t, wantFields, result.Fields)
	mock.AssertExpectationsForObjects(t, store, extractor, fields, registry)
}

func TestExtractionPipeline_RejectsBeforeAnyWrite(t *testing.T) {
	tests := []struct {
		name    string
		upload  *Upload
		wantErr error
	}{
		{"no file", nil, apperrors.ErrNoFileProvided},
		{"wrong type", &Upload{Filename: "cv.docx", ContentType: "application/msword", Data: []byte("x")}, apperrors.ErrInvalidFileType},
		{"too large", &Upload{Filename: "big.pdf", ContentType: PDFContentType, Data: make([]byte, 1025)}, apperrors.ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockObjectStore)
			extractor := new(MockExtractor)
			p := NewExtractionPipeline(store, extractor, nil, nil, testPipelineConfig())

			_, err := p.Process(context.Background(), tt.upload)

			assert.ErrorIs(t, err, tt.wantErr)
			store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			extractor.AssertNotCalled(t, "ToMarkdown", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestExtractionPipeline_StorageFailure(t *testing.T) {
	store := new(MockObjectStore)
	extractor := new(MockExtractor)
	store.On("Put", mock.Anything, testKey, mock.Anything, PDFContentType, mock.Anything).Return(errors.New("bucket unavailable"))

	p := NewExtractionPipeline(store, extractor, nil, nil, testPipelineConfig())
	_, err := p.Process(context.Background(), pdfUpload())

	require.ErrorIs(t, err, apperrors.ErrStorageWriteFailed)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Contains(t, appErr.Message, "bucket unavailable")
	assert.Equal(t, 500, appErr.Status)
	extractor.AssertNotCalled(t, "ToMarkdown", mock.Anything, mock.Anything, mock.Anything)
}

func TestExtractionPipeline_ExtractionFailureKeepsStoredPDF(t *testing.T) {
	var order []string
	store := new(MockObjectStore)
	extractor := new(MockExtractor)
	store.On("Put", mock.Anything, testKey, mock.Anything, PDFContentType, mock.Anything).
		Run(func(mock.Arguments) { order = append(order, "put") }).Return(nil)
	extractor.On("ToMarkdown", mock.Anything, "posting.pdf", mock.Anything).
		Run(func(mock.Arguments) { order = append(order, "extract") }).Return("", errors.New("model overloaded"))

	p := NewExtractionPipeline(store, extractor, nil, nil, testPipelineConfig())
	_, err := p.Process(context.Background(), pdfUpload())

	require.ErrorIs(t, err, apperrors.ErrExtractionFailed)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "AI extraction failed: model overloaded", appErr.Message)
	assert.Equal(t, testKey, appErr.Context["pdf_key"])
	assert.Equal(t, []string{"put", "extract"}, order)
	store.AssertNumberOfCalls(t, "Put", 1)
}

func TestExtractionPipeline_DegradedDependencies(t *testing.T) {
	ctx := context.Background()

	t.Run("field inference error returns markdown", func(t *testing.T) {
		store := new(MockObjectStore)
		extractor := new(MockExtractor)
		fields := new(MockFieldInferrer)
		store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		extractor.On("ToMarkdown", mock.Anything, mock.Anything, mock.Anything).Return("# Driver", nil)
		fields.On("Infer", mock.Anything, "# Driver").Return(models.JobFields{Title: "ignored"}, errors.New("boom"))

		result, err := NewExtractionPipeline(store, extractor, fields, nil, testPipelineConfig()).Process(ctx, pdfUpload())
		require.NoError(t, err)
		assert.Equal(t, "# Driver", result.Markdown)
		assert.True(t, result.Fields.IsEmpty())
	})

	t.Run("registry error is not fatal", func(t *testing.T) {
		store := new(MockObjectStore)
		extractor := new(MockExtractor)
		registry := new(MockRegistry)
		store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		registry.On("Record", mock.Anything, mock.Anything).Return(errors.New("firestore down"))
		extractor.On("ToMarkdown", mock.Anything, mock.Anything, mock.Anything).Return("", nil)

		result, err := NewExtractionPipeline(store, extractor, nil, registry, testPipelineConfig()).Process(ctx, pdfUpload())
		require.NoError(t, err)
		assert.Empty(t, result.Markdown)
		assert.Equal(t, testKey, result.PDFKey)
	})

	t.Run("missing store", func(t *testing.T) {
		_, err := NewExtractionPipeline(nil, new(MockExtractor), nil, nil, testPipelineConfig()).Process(ctx, pdfUpload())
		assert.ErrorIs(t, err, apperrors.ErrStorageNotConfigured)
	})

	t.Run("missing extractor", func(t *testing.T) {
		store := new(MockObjectStore)
		_, err := NewExtractionPipeline(store, nil, nil, nil, testPipelineConfig()).Process(ctx, pdfUpload())
		assert.ErrorIs(t, err, apperrors.ErrExtractorNotConfigured)
		store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
