package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Trueleap/contentflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// minimalPDF builds a well-formed PDF with the given number of blank pages.
func minimalPDF(pages int) []byte {
	var buf bytes.Buffer
	var offsets []int
	obj := func(format string, args ...interface{}) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, format, args...)
	}

	buf.WriteString("%PDF-1.4\n")
	kids := make([]string, pages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	obj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	obj("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 612 792] >>\nendobj\n", strings.Join(kids, " "), pages)
	for i := 0; i < pages; i++ {
		obj("%d 0 obj\n<< /Type /Page /Parent 2 0 R /Resources << >> >>\nendobj\n", i+3)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func TestAnalyzePDF(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		data := minimalPDF(3)
		analysis, err := AnalyzePDF(context.Background(), data)
		require.NoError(t, err)
		assert.NoError(t, analysis.Invalid)
		assert.Equal(t, 3, analysis.PageCount)
		assert.Equal(t, sha256Hex(data), analysis.FileHash)
	})

	t.Run("not a pdf", func(t *testing.T) {
		data := []byte("definitely not a pdf")
		analysis, err := AnalyzePDF(context.Background(), data)
		require.NoError(t, err)
		assert.Error(t, analysis.Invalid)
		assert.Equal(t, sha256Hex(data), analysis.FileHash)
	})
}

func newTestIndexer(reader ObjectReader, index DocumentIndex) *IndexerFunction {
	f := NewIndexer(reader, index, "job-pdfs")
	f.now = func() time.Time { return time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC) }
	return f
}

func TestIndexerFunction_Process(t *testing.T) {
	ctx := context.Background()
	key := "job-pdfs/1718000000123-a1b2c3d4.pdf"
	docID := "job-pdfs__1718000000123-a1b2c3d4.pdf"
	event := GCSEvent{Bucket: "trueleap-uploads", Name: key, ContentType: PDFContentType}

	t.Run("indexes a valid pdf", func(t *testing.T) {
		data := minimalPDF(2)
		reader := new(MockObjectReader)
		index := new(MockDocumentIndex)
		reader.On("ReadObject", mock.Anything, "trueleap-uploads", key).Return(data, nil)
		index.On("FindByHash", mock.Anything, sha256Hex(data)).Return([]string{docID}, nil)
		index.On("Upsert", mock.Anything, docID, mock.MatchedBy(func(fields map[string]interface{}) bool {
			_, hasDup := fields["duplicateOf"]
			return fields["status"] == models.StatusIndexed &&
				fields["pageCount"] == 2 &&
				fields["fileHash"] == sha256Hex(data) &&
				!hasDup
		})).Return(nil).Once()

		require.NoError(t, newTestIndexer(reader, index).Process(ctx, event))
		index.AssertExpectations(t)
	})

	t.Run("records duplicate content", func(t *testing.T) {
		data := minimalPDF(1)
		reader := new(MockObjectReader)
		index := new(MockDocumentIndex)
		reader.On("ReadObject", mock.Anything, mock.Anything, key).Return(data, nil)
		index.On("FindByHash", mock.Anything, mock.Anything).Return([]string{docID, "job-pdfs__older.pdf"}, nil)
		index.On("Upsert", mock.Anything, docID, mock.MatchedBy(func(fields map[string]interface{}) bool {
			return fields["duplicateOf"] == "job-pdfs__older.pdf"
		})).Return(nil).Once()

		require.NoError(t, newTestIndexer(reader, index).Process(ctx, event))
		index.AssertExpectations(t)
	})

	t.Run("marks invalid pdf", func(t *testing.T) {
		reader := new(MockObjectReader)
		index := new(MockDocumentIndex)
		reader.On("ReadObject", mock.Anything, mock.Anything, key).Return([]byte("garbage"), nil)
		index.On("FindByHash", mock.Anything, mock.Anything).Return(nil, errors.New("index unavailable"))
		index.On("Upsert", mock.Anything, docID, mock.MatchedBy(func(fields map[string]interface{}) bool {
			details, _ := fields["errorDetails"].(string)
			_, hasPages := fields["pageCount"]
			return fields["status"] == models.StatusInvalid && details != "" && !hasPages
		})).Return(nil).Once()

		require.NoError(t, newTestIndexer(reader, index).Process(ctx, event))
		index.AssertExpectations(t)
	})

	t.Run("ignores objects outside prefix", func(t *testing.T) {
		reader := new(MockObjectReader)
		index := new(MockDocumentIndex)

		require.NoError(t, newTestIndexer(reader, index).Process(ctx, GCSEvent{Bucket: "b", Name: "images/logo.png"}))
		reader.AssertNotCalled(t, "ReadObject", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("download failure is returned", func(t *testing.T) {
		reader := new(MockObjectReader)
		reader.On("ReadObject", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("object not found"))

		err := newTestIndexer(reader, new(MockDocumentIndex)).Process(ctx, event)
		assert.Error(t, err)
	})

	t.Run("write failure is returned", func(t *testing.T) {
		reader := new(MockObjectReader)
		index := new(MockDocumentIndex)
		reader.On("ReadObject", mock.Anything, mock.Anything, mock.Anything).Return(minimalPDF(1), nil)
		index.On("FindByHash", mock.Anything, mock.Anything).Return([]string{}, nil)
		index.On("Upsert", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("permission denied"))

		err := newTestIndexer(reader, index).Process(ctx, event)
		assert.Error(t, err)
	})
}

func TestDocumentID(t *testing.T) {
	assert.Equal(t, "job-pdfs__1-abcdef12.pdf", DocumentID("job-pdfs/1-abcdef12.pdf"))
	assert.Equal(t, "plain.pdf", DocumentID("plain.pdf"))
}

func TestUploadFieldsLeaveStatusAlone(t *testing.T) {
	fields := uploadFields(models.UploadedDocument{
		Key:         "job-pdfs/1-abcdef12.pdf",
		ContentType: PDFContentType,
		SizeBytes:   10,
		CreatedAt:   time.Now(),
	})
	assert.NotContains(t, fields, "status")
	assert.NotContains(t, fields, "originalFilename")
	assert.Equal(t, int64(10), fields["sizeBytes"])
}
