package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSUploader persists catalog documents into a Google Cloud Storage bucket.
// Credentials come from application default credentials.
type GCSUploader struct {
	client    *gcs.Client
	bucket    string
	cdnDomain string
}

// NewGCSUploader builds a client scoped to read-write bucket access. When
// cdnDomain is set, returned URLs point at the CDN instead of the bucket
// endpoint.
func NewGCSUploader(ctx context.Context, bucket, cdnDomain string) (*GCSUploader, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("storage: gcs bucket is required")
	}

	client, err := gcs.NewClient(ctx, option.WithScopes(gcs.ScopeReadWrite))
	if err != nil {
		return nil, fmt.Errorf("storage: create gcs client: %w", err)
	}

	return &GCSUploader{
		client:    client,
		bucket:    bucket,
		cdnDomain: strings.TrimSpace(cdnDomain),
	}, nil
}

// Upload writes the document under catalogs/<tenant>/<uuid>/<filename> and
// returns its public URL.
func (u *GCSUploader) Upload(ctx context.Context, in UploadInput) (string, error) {
	if err := in.validate(); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	key := objectKey(in.TenantID, in.Filename)
	w := u.client.Bucket(u.bucket).Object(key).NewWriter(ctx)
	w.ContentType = in.contentTypeOrDefault()
	if _, err := w.Write(in.Data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("storage: write gcs object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("storage: close gcs writer: %w", err)
	}

	return u.publicURL(key), nil
}

func (u *GCSUploader) publicURL(key string) string {
	if u.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", u.cdnDomain, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", u.bucket, key)
}

// Close releases the underlying client.
func (u *GCSUploader) Close() error {
	return u.client.Close()
}

var _ Uploader = (*GCSUploader)(nil)
