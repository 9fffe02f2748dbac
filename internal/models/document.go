package models

import "time"

// Document statuses written by the indexer.
const (
	StatusIndexed = "INDEXED"
	StatusInvalid = "INVALID"
)

// UploadedDocument is the registry record for a stored PDF in Firestore.
// The blob itself is immutable once written; the indexer fills in the
// hash and page count afterwards.
type UploadedDocument struct {
	Key              string    `firestore:"key" json:"key"`
	ContentType      string    `firestore:"contentType" json:"contentType"`
	SizeBytes        int64     `firestore:"sizeBytes" json:"sizeBytes"`
	OriginalFilename string    `firestore:"originalFilename,omitempty" json:"originalFilename,omitempty"`
	CreatedAt        time.Time `firestore:"createdAt" json:"createdAt"`
	Status           string    `firestore:"status,omitempty" json:"status,omitempty"`
	FileHash         string    `firestore:"fileHash,omitempty" json:"fileHash,omitempty"`
	PageCount        int       `firestore:"pageCount,omitempty" json:"pageCount,omitempty"`
	DuplicateOf      string    `firestore:"duplicateOf,omitempty" json:"duplicateOf,omitempty"`
	ErrorDetails     string    `firestore:"errorDetails,omitempty" json:"errorDetails,omitempty"`
}
