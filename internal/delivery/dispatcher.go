// Package delivery moves produced catalog artifacts to their recipients. The
// dispatcher resolves an artifact reference, uploads the bytes to durable
// storage and enqueues a delivery job; a worker executes queued jobs against
// the chat transport.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"comercio/internal/artifact"
	"comercio/internal/domain"
	"comercio/internal/infra"
	"comercio/internal/storage"
)

// Enqueuer persists one delivery job for asynchronous execution and returns
// its id.
type Enqueuer interface {
	Enqueue(ctx context.Context, job *domain.DeliveryJob) (string, error)
}

// DispatchRequest asks for one artifact to be delivered to one recipient.
type DispatchRequest struct {
	TenantID      string
	SessionID     string
	Reference     string
	Recipient     string
	Caption       string
	CorrelationID string
}

// DispatchResult reports the durably enqueued job.
type DispatchResult struct {
	JobID     string `json:"job_id"`
	Reference string `json:"reference"`
}

// DispatcherOptions tunes a Dispatcher. Zero values fall back to defaults.
type DispatcherOptions struct {
	NewCorrelationID func() string
	Logger           *infra.Logger
}

// Dispatcher runs the resolve, upload, enqueue sequence. Success means the
// job is durably queued; actual transport delivery happens later and is
// at-least-once.
type Dispatcher struct {
	store    artifact.Store
	uploader storage.Uploader
	queue    Enqueuer

	newCorrelationID func() string
	logger           *infra.Logger
}

func NewDispatcher(store artifact.Store, uploader storage.Uploader, queue Enqueuer, opts DispatcherOptions) *Dispatcher {
	newCorrelationID := opts.NewCorrelationID
	if newCorrelationID == nil {
		newCorrelationID = uuid.NewString
	}
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &Dispatcher{
		store:            store,
		uploader:         uploader,
		queue:            queue,
		newCorrelationID: newCorrelationID,
		logger:           logger,
	}
}

// Dispatch resolves the reference, uploads the document and enqueues the
// delivery job, strictly in that order. An unknown or expired reference fails
// before the uploader or the queue are touched. Dispatching the same
// reference twice enqueues two independent jobs.
func (d *Dispatcher) Dispatch(ctx context.Context, req DispatchRequest) (DispatchResult, error) {
	if req.TenantID == "" {
		return DispatchResult{}, errors.New("delivery: tenant id is required")
	}
	if req.Reference == "" {
		return DispatchResult{}, errors.New("delivery: reference is required")
	}
	if req.Recipient == "" {
		return DispatchResult{}, errors.New("delivery: recipient is required")
	}

	doc, err := d.store.Get(ctx, req.TenantID, req.Reference)
	if err != nil {
		return DispatchResult{}, err
	}

	url, err := d.uploader.Upload(ctx, storage.UploadInput{
		Data:        doc.Payload,
		Filename:    doc.Filename,
		ContentType: doc.ContentType,
		TenantID:    doc.TenantID,
	})
	if err != nil {
		return DispatchResult{}, fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}

	caption := req.Caption
	if caption == "" {
		caption = DefaultCaption(doc.Filename)
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = req.Recipient
	}
	correlationID := req.CorrelationID
	if correlationID == "" {
		correlationID = d.newCorrelationID()
	}

	job := &domain.DeliveryJob{
		TenantID:    req.TenantID,
		SessionID:   sessionID,
		Recipient:   req.Recipient,
		MessageType: domain.MessageTypeMedia,
		Content: domain.MediaContent{
			Text:      caption,
			MediaURL:  url,
			MediaType: domain.MediaTypeDocument,
		},
		CorrelationID: correlationID,
	}

	jobID, err := d.queue.Enqueue(ctx, job)
	if err != nil {
		return DispatchResult{}, fmt.Errorf("%w: %v", domain.ErrEnqueueFailed, err)
	}

	d.logger.Info().
		Str("tenant_id", req.TenantID).
		Str("reference", req.Reference).
		Str("job_id", jobID).
		Str("correlation_id", correlationID).
		Msg("delivery: job enqueued")

	return DispatchResult{JobID: jobID, Reference: req.Reference}, nil
}
