package delivery

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"comercio/internal/domain"
	"comercio/internal/storage"
)

type stubStore struct {
	doc  *domain.Artifact
	err  error
	gets int
}

func (s *stubStore) Put(ctx context.Context, a *domain.Artifact) error { return nil }

func (s *stubStore) Get(ctx context.Context, tenantID, reference string) (*domain.Artifact, error) {
	s.gets++
	if s.err != nil {
		return nil, s.err
	}
	return s.doc, nil
}

func (s *stubStore) EvictExpired(ctx context.Context) (int, error) { return 0, nil }

func (s *stubStore) Close() error { return nil }

type stubUploader struct {
	url    string
	err    error
	inputs []storage.UploadInput
}

func (u *stubUploader) Upload(ctx context.Context, in storage.UploadInput) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	u.inputs = append(u.inputs, in)
	return u.url, nil
}

type stubEnqueuer struct {
	err  error
	jobs []domain.DeliveryJob
}

func (e *stubEnqueuer) Enqueue(ctx context.Context, job *domain.DeliveryJob) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	e.jobs = append(e.jobs, *job)
	return fmt.Sprintf("job-%d", len(e.jobs)), nil
}

func storedArtifact() *domain.Artifact {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	return &domain.Artifact{
		Reference:   "ref-1",
		TenantID:    "tenant-a",
		Payload:     []byte("%PDF-1.4 test"),
		Filename:    "catalogo-productos-20250610.pdf",
		ContentType: "application/pdf",
		SizeBytes:   13,
		CreatedAt:   now,
		ExpiresAt:   now.Add(30 * time.Minute),
	}
}

func TestDispatchEnqueuesJob(t *testing.T) {
	store := &stubStore{doc: storedArtifact()}
	uploader := &stubUploader{url: "https://files.example.com/catalogs/doc.pdf"}
	queue := &stubEnqueuer{}
	d := NewDispatcher(store, uploader, queue, DispatcherOptions{})

	res, err := d.Dispatch(context.Background(), DispatchRequest{
		TenantID:      "tenant-a",
		SessionID:     "session-7",
		Reference:     "ref-1",
		Recipient:     "+5491155550123",
		Caption:       "Nuestro catalogo",
		CorrelationID: "corr-7",
	})
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if res.JobID != "job-1" || res.Reference != "ref-1" {
		t.Fatalf("result = %+v", res)
	}

	if len(uploader.inputs) != 1 {
		t.Fatalf("upload calls = %d, want 1", len(uploader.inputs))
	}
	in := uploader.inputs[0]
	if string(in.Data) != "%PDF-1.4 test" || in.Filename != "catalogo-productos-20250610.pdf" {
		t.Fatalf("upload input = %+v", in)
	}
	if in.ContentType != "application/pdf" || in.TenantID != "tenant-a" {
		t.Fatalf("upload input = %+v", in)
	}

	if len(queue.jobs) != 1 {
		t.Fatalf("enqueued jobs = %d, want 1", len(queue.jobs))
	}
	job := queue.jobs[0]
	if job.TenantID != "tenant-a" || job.SessionID != "session-7" || job.Recipient != "+5491155550123" {
		t.Fatalf("job = %+v", job)
	}
	if job.MessageType != domain.MessageTypeMedia {
		t.Fatalf("message type = %q, want media", job.MessageType)
	}
	if job.Content.Text != "Nuestro catalogo" {
		t.Fatalf("caption = %q", job.Content.Text)
	}
	if job.Content.MediaURL != "https://files.example.com/catalogs/doc.pdf" {
		t.Fatalf("media url = %q", job.Content.MediaURL)
	}
	if job.Content.MediaType != domain.MediaTypeDocument {
		t.Fatalf("media type = %q, want document", job.Content.MediaType)
	}
	if job.CorrelationID != "corr-7" {
		t.Fatalf("correlation id = %q", job.CorrelationID)
	}
}

func TestDispatchDefaults(t *testing.T) {
	store := &stubStore{doc: storedArtifact()}
	uploader := &stubUploader{url: "https://files.example.com/catalogs/doc.pdf"}
	queue := &stubEnqueuer{}
	d := NewDispatcher(store, uploader, queue, DispatcherOptions{
		NewCorrelationID: func() string { return "corr-fixed" },
	})

	_, err := d.Dispatch(context.Background(), DispatchRequest{
		TenantID:  "tenant-a",
		Reference: "ref-1",
		Recipient: "+5491155550123",
	})
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}

	job := queue.jobs[0]
	if job.Content.Text != "Catalogo Productos" {
		t.Fatalf("default caption = %q, want Catalogo Productos", job.Content.Text)
	}
	if job.SessionID != "+5491155550123" {
		t.Fatalf("session id = %q, want the recipient", job.SessionID)
	}
	if job.CorrelationID != "corr-fixed" {
		t.Fatalf("correlation id = %q", job.CorrelationID)
	}
}

func TestDispatchUnknownReference(t *testing.T) {
	store := &stubStore{err: domain.ErrReferenceNotFound}
	uploader := &stubUploader{url: "https://files.example.com/x"}
	queue := &stubEnqueuer{}
	d := NewDispatcher(store, uploader, queue, DispatcherOptions{})

	_, err := d.Dispatch(context.Background(), DispatchRequest{
		TenantID:  "tenant-a",
		Reference: "ref-gone",
		Recipient: "+5491155550123",
	})
	if !errors.Is(err, domain.ErrReferenceNotFound) {
		t.Fatalf("err = %v, want ErrReferenceNotFound", err)
	}
	if len(uploader.inputs) != 0 {
		t.Fatalf("uploader was called for an unknown reference")
	}
	if len(queue.jobs) != 0 {
		t.Fatalf("a job was enqueued for an unknown reference")
	}
}

func TestDispatchUploadFailure(t *testing.T) {
	store := &stubStore{doc: storedArtifact()}
	uploader := &stubUploader{err: errors.New("bucket unavailable")}
	queue := &stubEnqueuer{}
	d := NewDispatcher(store, uploader, queue, DispatcherOptions{})

	_, err := d.Dispatch(context.Background(), DispatchRequest{
		TenantID:  "tenant-a",
		Reference: "ref-1",
		Recipient: "+5491155550123",
	})
	if !errors.Is(err, domain.ErrUploadFailed) {
		t.Fatalf("err = %v, want ErrUploadFailed", err)
	}
	if len(queue.jobs) != 0 {
		t.Fatalf("a job was enqueued without a durable url")
	}
}

func TestDispatchEnqueueFailure(t *testing.T) {
	store := &stubStore{doc: storedArtifact()}
	uploader := &stubUploader{url: "https://files.example.com/catalogs/doc.pdf"}
	queue := &stubEnqueuer{err: errors.New("database down")}
	d := NewDispatcher(store, uploader, queue, DispatcherOptions{})

	_, err := d.Dispatch(context.Background(), DispatchRequest{
		TenantID:  "tenant-a",
		Reference: "ref-1",
		Recipient: "+5491155550123",
	})
	if !errors.Is(err, domain.ErrEnqueueFailed) {
		t.Fatalf("err = %v, want ErrEnqueueFailed", err)
	}
}

func TestDispatchValidation(t *testing.T) {
	tests := []struct {
		name string
		req  DispatchRequest
	}{
		{name: "missing tenant", req: DispatchRequest{Reference: "ref-1", Recipient: "+54911"}},
		{name: "missing reference", req: DispatchRequest{TenantID: "tenant-a", Recipient: "+54911"}},
		{name: "missing recipient", req: DispatchRequest{TenantID: "tenant-a", Reference: "ref-1"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := &stubStore{doc: storedArtifact()}
			d := NewDispatcher(store, &stubUploader{}, &stubEnqueuer{}, DispatcherOptions{})
			if _, err := d.Dispatch(context.Background(), tc.req); err == nil {
				t.Fatalf("Dispatch expected error")
			}
			if store.gets != 0 {
				t.Fatalf("invalid request reached the store")
			}
		})
	}
}

func TestDispatchTwiceEnqueuesIndependentJobs(t *testing.T) {
	store := &stubStore{doc: storedArtifact()}
	uploader := &stubUploader{url: "https://files.example.com/catalogs/doc.pdf"}
	queue := &stubEnqueuer{}
	d := NewDispatcher(store, uploader, queue, DispatcherOptions{})

	req := DispatchRequest{TenantID: "tenant-a", Reference: "ref-1", Recipient: "+5491155550123"}
	first, err := d.Dispatch(context.Background(), req)
	if err != nil {
		t.Fatalf("first Dispatch returned error: %v", err)
	}
	second, err := d.Dispatch(context.Background(), req)
	if err != nil {
		t.Fatalf("second Dispatch returned error: %v", err)
	}
	if first.JobID == second.JobID {
		t.Fatalf("both dispatches produced job %q", first.JobID)
	}
	if len(queue.jobs) != 2 {
		t.Fatalf("enqueued jobs = %d, want 2", len(queue.jobs))
	}
}
