package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/Trueleap/contentflow/internal/errors"
	"github.com/Trueleap/contentflow/internal/models"
	"github.com/Trueleap/contentflow/internal/services"
	"github.com/gin-gonic/gin"
)

// multipartOverhead is allowed on top of the file size for form framing.
const multipartOverhead = 1 << 20

// PDFProcessor runs the extraction pipeline.
type PDFProcessor interface {
	Process(ctx context.Context, upload *services.Upload) (*models.ExtractionResult, error)
	MaxUploadBytes() int64
}

// JobsHandler serves the job posting endpoints.
type JobsHandler struct {
	pipeline PDFProcessor
}

func NewJobsHandler(pipeline PDFProcessor) *JobsHandler {
	return &JobsHandler{pipeline: pipeline}
}

// ExtractPDF is the POST /api/jobs/extract-pdf endpoint.
func (h *JobsHandler) ExtractPDF(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.AbortWithStatusJSON(http.StatusMethodNotAllowed, models.ErrorResponse{Error: "Method not allowed"})
		return
	}

	maxBytes := h.pipeline.MaxUploadBytes()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)

	fh, err := c.FormFile("file")
	if err != nil {
		respondError(c, formFileError(err, maxBytes))
		return
	}

	upload, err := services.ReadUpload(fh, maxBytes)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.pipeline.Process(c.Request.Context(), upload)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := models.ExtractPDFResponse{
		OK:       true,
		Markdown: result.Markdown,
		PDFKey:   result.PDFKey,
	}
	if !result.Fields.IsEmpty() {
		fields := result.Fields
		resp.Fields = &fields
	}
	c.JSON(http.StatusOK, resp)
}

func formFileError(err error, maxBytes int64) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.ErrFileTooLarge.
			WithMessage(fmt.Sprintf("File exceeds %d MB limit", maxBytes/(1024*1024))).
			WithError(err)
	}
	return apperrors.ErrNoFileProvided.WithError(err)
}
