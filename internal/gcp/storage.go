package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// ErrObjectExists is returned when a DoesNotExist precondition fails.
var ErrObjectExists = errors.New("object already exists")

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// ClientOptions returns the client options shared by every GCP client.
// An empty credentialsFile means application default credentials.
func ClientOptions(credentialsFile string) []option.ClientOption {
	if credentialsFile == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(credentialsFile)}
}

// NewStorageClient creates a Cloud Storage client.
func NewStorageClient(ctx context.Context, credentialsFile string) (*storage.Client, error) {
	client, err := storage.NewClient(ctx, ClientOptions(credentialsFile)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return client, nil
}

// WriteObjectIfAbsent writes data to objectName only if it doesn't already exist.
// Unlike an idempotent pipeline step, a collision here is reported as ErrObjectExists.
func WriteObjectIfAbsent(ctx context.Context, bucket *storage.BucketHandle, objectName, contentType string, metadata map[string]string, data []byte) error {
	writer := bucket.Object(objectName).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = contentType
	writer.Metadata = metadata

	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		_ = writer.Close()
		if isPreconditionFailed(err) {
			return fmt.Errorf("%s: %w", objectName, ErrObjectExists)
		}
		slog.Error("Failed to copy content to GCS object", "object", objectName, "error", err)
		return fmt.Errorf("failed to write to GCS: %w", err)
	}

	// The precondition is usually only evaluated when the upload is finalized.
	if err := writer.Close(); err != nil {
		if isPreconditionFailed(err) {
			return fmt.Errorf("%s: %w", objectName, ErrObjectExists)
		}
		slog.Error("Failed to close GCS writer", "object", objectName, "error", err)
		return fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return nil
}

// ReadObject downloads an object fully into memory.
func ReadObject(ctx context.Context, client *storage.Client, bucket, object string) ([]byte, error) {
	reader, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get GCS object reader for gs://%s/%s: %w", bucket, object, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", bucket, object, err)
	}
	return data, nil
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}
