package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/Trueleap/contentflow/internal/models"
)

// DocumentRegistry records stored PDFs. Writes merge, so the pipeline and
// the indexer can each fill in their own fields in any order.
type DocumentRegistry interface {
	Record(ctx context.Context, doc models.UploadedDocument) error
}

// DocumentIndex is the registry view the indexer needs.
type DocumentIndex interface {
	FindByHash(ctx context.Context, fileHash string) ([]string, error)
	Upsert(ctx context.Context, docID string, fields map[string]interface{}) error
}

// FirestoreRegistry stores one document per object key in a collection.
type FirestoreRegistry struct {
	client     *firestore.Client
	collection string
}

var (
	_ DocumentRegistry = (*FirestoreRegistry)(nil)
	_ DocumentIndex    = (*FirestoreRegistry)(nil)
)

// NewFirestoreRegistry creates a registry over collection.
func NewFirestoreRegistry(client *firestore.Client, collection string) *FirestoreRegistry {
	return &FirestoreRegistry{client: client, collection: collection}
}

// Record writes the upload-time fields of doc.
func (r *FirestoreRegistry) Record(ctx context.Context, doc models.UploadedDocument) error {
	return r.Upsert(ctx, DocumentID(doc.Key), uploadFields(doc))
}

// Upsert merges fields into the document with the given ID.
func (r *FirestoreRegistry) Upsert(ctx context.Context, docID string, fields map[string]interface{}) error {
	if _, err := r.client.Collection(r.collection).Doc(docID).Set(ctx, fields, firestore.MergeAll); err != nil {
		return fmt.Errorf("failed to write document %s: %w", docID, err)
	}
	return nil
}

// FindByHash returns the IDs of documents with the given file hash.
func (r *FirestoreRegistry) FindByHash(ctx context.Context, fileHash string) ([]string, error) {
	docs, err := r.client.Collection(r.collection).Where("fileHash", "==", fileHash).Limit(10).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query for duplicates: %w", err)
	}
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.Ref.ID)
	}
	return ids, nil
}

// DocumentID maps an object key to a Firestore document ID, which may not contain '/'.
func DocumentID(key string) string {
	return strings.ReplaceAll(key, "/", "__")
}

// uploadFields leaves status alone so a record that was already indexed is
// not moved back.
func uploadFields(doc models.UploadedDocument) map[string]interface{} {
	fields := map[string]interface{}{
		"key":         doc.Key,
		"contentType": doc.ContentType,
		"sizeBytes":   doc.SizeBytes,
		"createdAt":   doc.CreatedAt.UTC().Truncate(time.Millisecond),
	}
	if doc.OriginalFilename != "" {
		fields["originalFilename"] = doc.OriginalFilename
	}
	return fields
}
