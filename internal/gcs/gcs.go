// Package gcs stores uploaded statement files in Google Cloud Storage.
package gcs

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// StorageService is an interface for statement file storage operations.
type StorageService interface {
	// Upload writes the content under the object name and returns the
	// object's gs:// URI.
	Upload(ctx context.Context, objectName string, content io.Reader) (string, error)
	Fetch(ctx context.Context, uri string) ([]byte, error)
	ExtractFilenameFromURI(uri string) string
}

// GCSStorageService is the concrete implementation of StorageService that
// interacts with Google Cloud Storage. It assumes Application Default
// Credentials are configured.
type GCSStorageService struct {
	bucketName string
}

// NewGCSStorageService creates a storage service writing into the given
// bucket.
func NewGCSStorageService(bucketName string) *GCSStorageService {
	return &GCSStorageService{bucketName: bucketName}
}

// Upload writes the content to the bucket under the object name.
func (s *GCSStorageService) Upload(ctx context.Context, objectName string, content io.Reader) (string, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("Upload: create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := client.Bucket(s.bucketName).Object(objectName).NewWriter(ctx)
	if _, err := io.Copy(w, content); err != nil {
		w.Close()
		return "", fmt.Errorf("Upload: copy content to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("Upload: finalize upload: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", s.bucketName, objectName), nil
}

// Fetch downloads the file bytes from the given gs:// URI.
func (s *GCSStorageService) Fetch(ctx context.Context, uri string) ([]byte, error) {
	bucketName, objectPath, err := splitURI(uri)
	if err != nil {
		return nil, fmt.Errorf("Fetch: %w", err)
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("Fetch: create storage client: %w", err)
	}
	defer client.Close()

	r, err := client.Bucket(bucketName).Object(objectPath).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("Fetch: open GCS object reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("Fetch: read GCS object: %w", err)
	}

	return data, nil
}

// ExtractFilenameFromURI returns the base filename of a gs:// URI,
// e.g. "gs://bucket/folder/file.csv" → "file.csv".
func (s *GCSStorageService) ExtractFilenameFromURI(uri string) string {
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}
	return path.Base(parts[1])
}

func splitURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}
