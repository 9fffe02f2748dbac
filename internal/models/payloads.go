package models

// These structs define the JSON payloads exchanged with the CMS admin UI.

// JobFields are the structured job-posting fields inferred from extracted
// markdown. Every field is optional.
type JobFields struct {
	Title      string `json:"title,omitempty"`
	Department string `json:"department,omitempty"`
	Type       string `json:"type,omitempty"`
	Location   string `json:"location,omitempty"`
	Summary    string `json:"summary,omitempty"`
}

// IsEmpty reports whether no field was inferred.
func (f JobFields) IsEmpty() bool {
	return f == JobFields{}
}

// ExtractionResult is the transient result of the extraction pipeline.
type ExtractionResult struct {
	Markdown string
	Fields   JobFields
	PDFKey   string
}

// ExtractPDFResponse is the output of POST /api/jobs/extract-pdf.
// Markdown is always present, even when empty.
type ExtractPDFResponse struct {
	OK       bool       `json:"ok"`
	Markdown string     `json:"markdown"`
	Fields   *JobFields `json:"fields,omitempty"`
	PDFKey   string     `json:"pdfKey"`
}

// CreatePRRequest is the input for POST /api/admin/create-pr.
type CreatePRRequest struct {
	Branch string `json:"branch"`
}

// CreatePRResponse is the output of POST /api/admin/create-pr.
type CreatePRResponse struct {
	OK       bool `json:"ok"`
	PRNumber int  `json:"prNumber"`
}

// DeployRun is one workflow run in the deploy history.
type DeployRun struct {
	ID        int64  `json:"id"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	URL       string `json:"url"`
}

// DeployHistoryResponse is the output of GET /api/deploy/history.
type DeployHistoryResponse struct {
	Runs  []DeployRun `json:"runs"`
	Error string      `json:"error,omitempty"`
}

// ErrorResponse is returned for any failed API request.
type ErrorResponse struct {
	Error string `json:"error"`
}
