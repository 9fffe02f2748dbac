package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType defines the category of the error
type ErrorType string

const (
	TypeValidation    ErrorType = "VALIDATION"
	TypeStorage       ErrorType = "STORAGE"
	TypeAI            ErrorType = "AI"
	TypeVCS           ErrorType = "VCS"
	TypeCMS           ErrorType = "CMS"
	TypeConfiguration ErrorType = "CONFIGURATION"
)

// AppError is a domain error carrying the public message and HTTP status the
// handlers report for it.
type AppError struct {
	Type    ErrorType
	Code    string
	Message string
	Status  int
	Context map[string]interface{}
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s/%s: %s (%v)", e.Type, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s/%s: %s", e.Type, e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError with the same code, so derived errors still compare
// equal to the sentinel they were built from.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithError creates a new AppError with an underlying error
func (e *AppError) WithError(err error) *AppError {
	c := e.clone()
	c.Err = err
	return c
}

// WithMessage replaces the public message, keeping code and status.
func (e *AppError) WithMessage(msg string) *AppError {
	c := e.clone()
	c.Message = msg
	return c
}

// WithContext creates a new AppError with additional context
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	c := e.clone()
	ctx := make(map[string]interface{}, len(e.Context)+1)
	for k, v := range e.Context {
		ctx[k] = v
	}
	ctx[key] = value
	c.Context = ctx
	return c
}

func (e *AppError) clone() *AppError {
	return &AppError{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Status:  e.Status,
		Context: e.Context,
		Err:     e.Err,
	}
}

// NewAppError creates a new AppError
func NewAppError(t ErrorType, code string, status int, msg string) *AppError {
	return &AppError{
		Type:    t,
		Code:    code,
		Message: msg,
		Status:  status,
	}
}

// As returns the AppError in err's chain, if any.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// StatusOf reports the HTTP status for err, 500 for anything that is not an AppError.
func StatusOf(err error) int {
	if appErr, ok := As(err); ok && appErr.Status != 0 {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// Upload validation errors
var (
	ErrNoFileProvided = NewAppError(TypeValidation, "NoFileProvided", http.StatusBadRequest,
		"No file provided")

	ErrInvalidFileType = NewAppError(TypeValidation, "InvalidFileType", http.StatusBadRequest,
		"Only PDF files are accepted.")

	ErrFileTooLarge = NewAppError(TypeValidation, "FileTooLarge", http.StatusBadRequest,
		"File exceeds 20 MB limit")

	ErrInvalidJSON = NewAppError(TypeValidation, "InvalidJSON", http.StatusBadRequest,
		"Invalid JSON body")
)

// Storage and extraction errors
var (
	ErrStorageWriteFailed = NewAppError(TypeStorage, "StorageWriteFailed", http.StatusInternalServerError,
		"Failed to store PDF")

	ErrExtractionFailed = NewAppError(TypeAI, "ExtractionFailed", http.StatusInternalServerError,
		"AI extraction failed")
)

// VCS errors
var (
	ErrInvalidBranchName = NewAppError(TypeVCS, "InvalidBranchName", http.StatusBadRequest,
		"Must be a content/ branch")

	ErrDuplicatePR = NewAppError(TypeVCS, "DuplicatePR", http.StatusConflict,
		"PR already exists for this branch")

	ErrPRCreateFailed = NewAppError(TypeVCS, "PRCreateFailed", http.StatusBadGateway,
		"Failed to create PR")
)

// CMS errors
var (
	ErrMainBranchReadOnly = NewAppError(TypeCMS, "MainBranchReadOnly", http.StatusForbidden,
		"The main branch is read-only. Create a content branch to edit.")
)

// Configuration errors
var (
	ErrGitHubNotConfigured = NewAppError(TypeConfiguration, "GitHubNotConfigured", http.StatusInternalServerError,
		"GITHUB_TOKEN not configured")

	ErrStorageNotConfigured = NewAppError(TypeConfiguration, "StorageNotConfigured", http.StatusInternalServerError,
		"PDF bucket not configured")

	ErrExtractorNotConfigured = NewAppError(TypeConfiguration, "ExtractorNotConfigured", http.StatusInternalServerError,
		"AI extractor not configured")
)
