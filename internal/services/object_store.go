package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/Trueleap/contentflow/internal/gcp"
	"github.com/google/uuid"
)

// ObjectStore persists raw blobs.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error
}

// GCSObjectStore writes objects to a single Cloud Storage bucket. Objects are
// never overwritten.
type GCSObjectStore struct {
	bucket     *storage.BucketHandle
	bucketName string
}

var _ ObjectStore = (*GCSObjectStore)(nil)

// NewGCSObjectStore creates a store for bucketName.
func NewGCSObjectStore(client *storage.Client, bucketName string) *GCSObjectStore {
	return &GCSObjectStore{
		bucket:     client.Bucket(bucketName),
		bucketName: bucketName,
	}
}

// Put writes data under key with the given content type and metadata.
func (s *GCSObjectStore) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	if err := gcp.WriteObjectIfAbsent(ctx, s.bucket, key, contentType, metadata, data); err != nil {
		return fmt.Errorf("gs://%s/%s: %w", s.bucketName, key, err)
	}
	return nil
}

// KeyGenerator builds collision-resistant object keys of the form
// <prefix>/<unix millis>-<8 hex chars>.pdf.
type KeyGenerator struct {
	Prefix string
	Now    func() time.Time
	Suffix func() string
}

// NewKeyGenerator returns a generator using the wall clock and UUIDv4 suffixes.
func NewKeyGenerator(prefix string) KeyGenerator {
	return KeyGenerator{
		Prefix: prefix,
		Now:    time.Now,
		Suffix: randomSuffix,
	}
}

// NewPDFKey returns a fresh key. Repeated calls never dedupe identical content.
func (g KeyGenerator) NewPDFKey() string {
	now, suffix := time.Now, randomSuffix
	if g.Now != nil {
		now = g.Now
	}
	if g.Suffix != nil {
		suffix = g.Suffix
	}

	name := fmt.Sprintf("%d-%s.pdf", now().UnixMilli(), suffix())
	prefix := strings.Trim(g.Prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// HasPrefix reports whether key was generated under this generator's prefix.
func (g KeyGenerator) HasPrefix(key string) bool {
	prefix := strings.Trim(g.Prefix, "/")
	if prefix == "" {
		return strings.HasSuffix(key, ".pdf")
	}
	return strings.HasPrefix(key, prefix+"/") && strings.HasSuffix(key, ".pdf")
}

// randomSuffix returns the first 8 hex characters of a UUIDv4.
func randomSuffix() string {
	return uuid.NewString()[:8]
}
