package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// UploadInput carries one document to be persisted durably.
type UploadInput struct {
	Data        []byte
	Filename    string
	ContentType string
	TenantID    string
}

// Uploader moves ephemeral artifact bytes into durable storage and returns a
// URL that stays valid after the artifact cache entry expires. Implementations
// either succeed with a usable URL or fail with an error; there is no partial
// success.
type Uploader interface {
	Upload(ctx context.Context, in UploadInput) (string, error)
}

func (in UploadInput) validate() error {
	if len(in.Data) == 0 {
		return errors.New("storage: upload data is required")
	}
	if strings.TrimSpace(in.TenantID) == "" {
		return errors.New("storage: tenant id is required")
	}
	if strings.TrimSpace(in.Filename) == "" {
		return errors.New("storage: filename is required")
	}
	return nil
}

func (in UploadInput) contentTypeOrDefault() string {
	if strings.TrimSpace(in.ContentType) == "" {
		return "application/octet-stream"
	}
	return in.ContentType
}

// objectKey builds a collision-free storage key. Every upload gets a fresh
// uuid segment so re-dispatching the same artifact never overwrites an
// earlier upload.
func objectKey(tenantID, filename string) string {
	return "catalogs/" + segment(tenantID) + "/" + uuid.NewString() + "/" + segment(filename)
}

// segment strips characters that would break a key into extra path parts.
func segment(s string) string {
	s = strings.TrimSpace(s)
	replacer := strings.NewReplacer("/", "-", "\\", "-", " ", "-", "..", "-")
	out := replacer.Replace(s)
	out = strings.Trim(out, "-.")
	if out == "" {
		return "unnamed"
	}
	return out
}
