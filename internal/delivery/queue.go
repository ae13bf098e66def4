package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"comercio/internal/domain"
	"comercio/internal/infra"
	"comercio/internal/sqlinline"
)

const (
	// DefaultMaxAttempts bounds how often a job is tried before it is
	// dead-lettered.
	DefaultMaxAttempts = 3
	// DefaultBackoffBase is the delay before the second attempt; it doubles
	// for each attempt after that.
	DefaultBackoffBase = 2 * time.Second
	// DefaultPollInterval is how long the worker sleeps when the queue is
	// empty.
	DefaultPollInterval = 2 * time.Second
	// DefaultStalledAfter is the visibility timeout: RUNNING jobs untouched
	// for this long are assumed orphaned by a crashed worker and requeued.
	DefaultStalledAfter = 2 * time.Minute
)

// QueueOptions tunes a Queue. Zero values fall back to defaults.
type QueueOptions struct {
	MaxAttempts int
	BackoffBase time.Duration
	Logger      *infra.Logger
}

// Queue persists delivery jobs in Postgres. Delivery is at-least-once:
// consumers must tolerate duplicate execution of the same job.
type Queue struct {
	sql         infra.SQLExecutor
	maxAttempts int
	backoffBase time.Duration
	logger      *infra.Logger
}

func NewQueue(sql infra.SQLExecutor, opts QueueOptions) *Queue {
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	backoffBase := opts.BackoffBase
	if backoffBase <= 0 {
		backoffBase = DefaultBackoffBase
	}
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &Queue{
		sql:         sql,
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
		logger:      logger,
	}
}

// ClaimedJob is one job leased by a worker. Attempt already counts the
// current lease.
type ClaimedJob struct {
	ID          string
	Attempt     int
	MaxAttempts int
	Job         domain.DeliveryJob
}

// Enqueue inserts the job as QUEUED, runnable immediately.
func (q *Queue) Enqueue(ctx context.Context, job *domain.DeliveryJob) (string, error) {
	if job == nil {
		return "", errors.New("delivery: job is required")
	}
	if job.TenantID == "" {
		return "", errors.New("delivery: job tenant id is required")
	}
	if job.Recipient == "" {
		return "", errors.New("delivery: job recipient is required")
	}
	if job.Content.MediaURL == "" {
		return "", errors.New("delivery: job media url is required")
	}
	if job.MessageType == "" {
		job.MessageType = domain.MessageTypeMedia
	}
	if job.Content.MediaType == "" {
		job.Content.MediaType = domain.MediaTypeDocument
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("delivery: encode job payload: %w", err)
	}

	row := q.sql.QueryRow(ctx, sqlinline.QEnqueueDeliveryJob,
		job.TenantID, job.SessionID, job.Recipient, payload, job.CorrelationID, q.maxAttempts)
	var id string
	if err := row.Scan(&id); err != nil {
		return "", fmt.Errorf("delivery: insert job: %w", err)
	}
	return id, nil
}

// Claim leases the oldest runnable job and increments its attempt counter.
// It returns (nil, nil) when no job is runnable. A row whose payload no
// longer decodes is dead-lettered on the spot instead of being retried
// forever.
func (q *Queue) Claim(ctx context.Context) (*ClaimedJob, error) {
	row := q.sql.QueryRow(ctx, sqlinline.QClaimDeliveryJob)

	var (
		claim   ClaimedJob
		payload []byte
	)
	err := row.Scan(
		&claim.ID,
		&claim.Job.TenantID,
		&claim.Job.SessionID,
		&claim.Job.Recipient,
		&payload,
		&claim.Job.CorrelationID,
		&claim.Attempt,
		&claim.MaxAttempts,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("delivery: claim job: %w", err)
	}

	var decoded domain.DeliveryJob
	if err := json.Unmarshal(payload, &decoded); err != nil {
		q.logger.Error().Err(err).Str("job_id", claim.ID).Msg("delivery: job payload corrupt, dead-lettering")
		if failErr := q.MarkFailed(ctx, claim.ID, fmt.Errorf("payload corrupt: %v", err)); failErr != nil {
			return nil, failErr
		}
		return nil, nil
	}
	claim.Job = decoded
	return &claim, nil
}

// MarkSent acknowledges successful delivery.
func (q *Queue) MarkSent(ctx context.Context, id string) error {
	_, err := q.sql.Exec(ctx, sqlinline.QMarkDeliverySent, id)
	return err
}

// ScheduleRetry puts the job back in QUEUED with an exponential delay based
// on how many attempts have already run.
func (q *Queue) ScheduleRetry(ctx context.Context, id string, attempt int, cause error) error {
	delay := RetryDelay(q.backoffBase, attempt)
	_, err := q.sql.Exec(ctx, sqlinline.QScheduleDeliveryRetry, id, delay.Milliseconds(), causeText(cause))
	return err
}

// MarkFailed moves the job to the FAILED terminal state.
func (q *Queue) MarkFailed(ctx context.Context, id string, cause error) error {
	_, err := q.sql.Exec(ctx, sqlinline.QMarkDeliveryFailed, id, causeText(cause))
	return err
}

// Resolve records the outcome of one execution attempt: success acknowledges
// the job, failure either schedules a retry or dead-letters it once the
// attempt budget is spent.
func (q *Queue) Resolve(ctx context.Context, claim *ClaimedJob, sendErr error) error {
	if claim == nil {
		return errors.New("delivery: claim is required")
	}
	if sendErr == nil {
		return q.MarkSent(ctx, claim.ID)
	}

	if claim.Attempt >= claim.MaxAttempts {
		q.logger.Error().
			Err(sendErr).
			Str("job_id", claim.ID).
			Str("tenant_id", claim.Job.TenantID).
			Str("correlation_id", claim.Job.CorrelationID).
			Int("attempt", claim.Attempt).
			Msg("delivery: attempts exhausted, dead-lettering job")
		return q.MarkFailed(ctx, claim.ID, sendErr)
	}

	delay := RetryDelay(q.backoffBase, claim.Attempt)
	q.logger.Warn().
		Err(sendErr).
		Str("job_id", claim.ID).
		Int("attempt", claim.Attempt).
		Dur("retry_in", delay).
		Msg("delivery: attempt failed, retry scheduled")
	return q.ScheduleRetry(ctx, claim.ID, claim.Attempt, sendErr)
}

// RequeueStalled returns RUNNING jobs older than olderThan to QUEUED and
// reports how many were rescued.
func (q *Queue) RequeueStalled(ctx context.Context, olderThan time.Duration) (int, error) {
	if olderThan <= 0 {
		olderThan = DefaultStalledAfter
	}
	tag, err := q.sql.Exec(ctx, sqlinline.QRequeueStalledDeliveries, int64(olderThan.Seconds()))
	if err != nil {
		return 0, fmt.Errorf("delivery: requeue stalled jobs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// RetryDelay computes the wait before the next attempt after `attempt`
// failed tries: base, 2*base, 4*base and so on.
func RetryDelay(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = DefaultBackoffBase
	}
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 16 {
		attempt = 16
	}
	return base << (attempt - 1)
}

func causeText(cause error) string {
	if cause == nil {
		return ""
	}
	return cause.Error()
}

var _ Enqueuer = (*Queue)(nil)
