package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	apperrors "github.com/Trueleap/contentflow/internal/errors"
)

// PDFContentType is the only accepted upload type.
const PDFContentType = "application/pdf"

// Upload is a validated PDF upload held in memory.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Size returns the payload size in bytes.
func (u *Upload) Size() int64 {
	return int64(len(u.Data))
}

// ValidateUpload checks the declared type and size of an upload. It performs
// no I/O, so a rejected upload never reaches storage.
func ValidateUpload(contentType string, size, maxBytes int64) error {
	if contentType != PDFContentType {
		return apperrors.ErrInvalidFileType.
			WithMessage(fmt.Sprintf("Invalid file type: %s. Only PDF files are accepted.", contentType)).
			WithContext("content_type", contentType)
	}
	if size > maxBytes {
		return apperrors.ErrFileTooLarge.
			WithMessage(fmt.Sprintf("File exceeds %d MB limit", maxBytes/(1024*1024))).
			WithContext("size_bytes", size)
	}
	return nil
}

// ReadUpload validates a multipart file header and reads its content. The
// declared size is checked first; the read is capped at maxBytes+1 so a
// header that under-reports the size is still rejected.
func ReadUpload(fh *multipart.FileHeader, maxBytes int64) (*Upload, error) {
	if fh == nil {
		return nil, apperrors.ErrNoFileProvided
	}

	contentType := strings.TrimSpace(fh.Header.Get("Content-Type"))
	if err := ValidateUpload(contentType, fh.Size, maxBytes); err != nil {
		return nil, err
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	if err := ValidateUpload(contentType, int64(len(data)), maxBytes); err != nil {
		return nil, err
	}

	return &Upload{
		Filename:    fh.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}
