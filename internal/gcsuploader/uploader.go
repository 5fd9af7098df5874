// Package gcsuploader keeps raw statement archives in a GCS bucket.
package gcsuploader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// ArchivePrefix is the object prefix for raw statement archives.
const ArchivePrefix = "archives"

// ArchiveStore writes and reads archive objects in one bucket.
// It assumes Application Default Credentials are configured.
type ArchiveStore struct {
	client *storage.Client
	bucket string
}

// NewArchiveStore creates a store backed by its own storage client.
func NewArchiveStore(ctx context.Context, bucket string) (*ArchiveStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewArchiveStore: creating storage client: %w", err)
	}
	return NewArchiveStoreWithClient(client, bucket), nil
}

// NewArchiveStoreWithClient creates a store on an existing client.
func NewArchiveStoreWithClient(client *storage.Client, bucket string) *ArchiveStore {
	return &ArchiveStore{client: client, bucket: bucket}
}

// Close releases the storage client.
func (s *ArchiveStore) Close() error {
	return s.client.Close()
}

// ObjectName is the object path of an archive for an account on a given day.
func ObjectName(accountNumber string, at time.Time) string {
	return path.Join(ArchivePrefix, accountNumber, at.Format("2006-01-02")+".zip")
}

// Store uploads data under name and returns its gs:// URI.
func (s *ArchiveStore) Store(ctx context.Context, name string, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.ContentType = "application/zip"

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("Store: writing %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("Store: finalizing %s: %w", name, err)
	}

	return "gs://" + s.bucket + "/" + name, nil
}

// Fetch downloads the object behind a gs:// URI.
func (s *ArchiveStore) Fetch(ctx context.Context, gcsURI string) ([]byte, error) {
	bucket, object, err := ParseURI(gcsURI)
	if err != nil {
		return nil, err
	}

	rc, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("Fetch: opening %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading %s/%s: %w", bucket, object, err)
	}
	return data, nil
}

// ParseURI splits gs://bucket/path/to/object.
func ParseURI(gcsURI string) (bucket, object string, err error) {
	if !strings.HasPrefix(gcsURI, "gs://") {
		return "", "", fmt.Errorf("ParseURI: invalid GCS URI: %s", gcsURI)
	}

	parts := strings.SplitN(strings.TrimPrefix(gcsURI, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("ParseURI: invalid GCS URI (no object path): %s", gcsURI)
	}
	return parts[0], parts[1], nil
}

// IsURI reports whether s looks like a gs:// URI.
func IsURI(s string) bool {
	return strings.HasPrefix(s, "gs://")
}
