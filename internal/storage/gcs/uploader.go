// Package gcs writes index snapshots to a Google Cloud Storage bucket. It
// relies on Application Default Credentials.
package gcs

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

const uploadTimeout = 2 * time.Minute

type Uploader struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewUploader(ctx context.Context, bucket, prefix string) (*Uploader, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &Uploader{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}, nil
}

// ObjectName joins name under the configured prefix.
func (u *Uploader) ObjectName(name string) string {
	return ObjectName(u.prefix, name)
}

func ObjectName(prefix, name string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

func (u *Uploader) URI(name string) string {
	return fmt.Sprintf("gs://%s/%s", u.bucket, u.ObjectName(name))
}

// Upload writes data to <prefix>/<name> and returns the object URI.
func (u *Uploader) Upload(ctx context.Context, name string, data []byte, metadata map[string]string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	obj := u.client.Bucket(u.bucket).Object(u.ObjectName(name))

	w := obj.NewWriter(ctx)
	w.ContentType = "application/json"
	w.Metadata = metadata

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("copy snapshot to GCS writer: %w", err)
	}

	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload: %w", err)
	}

	return u.URI(name), nil
}

func (u *Uploader) Close() error {
	return u.client.Close()
}
