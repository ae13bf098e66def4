package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"comercio/internal/domain"
	"comercio/internal/sqlinline"
)

type sqlCall struct {
	query string
	args  []any
}

type stubRow struct {
	scan func(dest ...any) error
}

func (r stubRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

type stubSQL struct {
	rows    []func(dest ...any) error
	execTag pgconn.CommandTag
	execErr error

	queryCalls []sqlCall
	execCalls  []sqlCall
}

func (s *stubSQL) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.execCalls = append(s.execCalls, sqlCall{query: query, args: args})
	return s.execTag, s.execErr
}

func (s *stubSQL) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.queryCalls = append(s.queryCalls, sqlCall{query: query, args: args})
	if len(s.rows) == 0 {
		return stubRow{}
	}
	next := s.rows[0]
	s.rows = s.rows[1:]
	return stubRow{scan: next}
}

func (s *stubSQL) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("query not supported in stub")
}

func sampleJob() *domain.DeliveryJob {
	return &domain.DeliveryJob{
		TenantID:  "tenant-a",
		SessionID: "session-1",
		Recipient: "+5491155550123",
		Content: domain.MediaContent{
			Text:      "Catalogo Productos",
			MediaURL:  "https://files.example.com/catalogs/doc.pdf",
			MediaType: domain.MediaTypeDocument,
		},
		CorrelationID: "corr-1",
	}
}

func TestQueueEnqueueWirePayload(t *testing.T) {
	sql := &stubSQL{rows: []func(dest ...any) error{
		func(dest ...any) error {
			*(dest[0].(*string)) = "job-1"
			return nil
		},
	}}
	queue := NewQueue(sql, QueueOptions{})

	id, err := queue.Enqueue(context.Background(), sampleJob())
	if err != nil {
		t.Fatalf("Enqueue returned error: %v", err)
	}
	if id != "job-1" {
		t.Fatalf("id = %q, want job-1", id)
	}

	if len(sql.queryCalls) != 1 {
		t.Fatalf("query calls = %d, want 1", len(sql.queryCalls))
	}
	call := sql.queryCalls[0]
	if call.query != sqlinline.QEnqueueDeliveryJob {
		t.Fatalf("unexpected query: %q", call.query)
	}
	if got := call.args[5].(int); got != DefaultMaxAttempts {
		t.Fatalf("max attempts arg = %v, want %d", call.args[5], DefaultMaxAttempts)
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(call.args[3].([]byte), &payload); err != nil {
		t.Fatalf("payload is not valid json: %v", err)
	}
	for _, key := range []string{"tenantId", "sessionId", "recipient", "messageType", "content", "correlationId"} {
		if _, ok := payload[key]; !ok {
			t.Fatalf("payload missing key %q: %s", key, call.args[3])
		}
	}
	var content map[string]string
	if err := json.Unmarshal(payload["content"], &content); err != nil {
		t.Fatalf("content is not an object: %v", err)
	}
	if content["mediaUrl"] != "https://files.example.com/catalogs/doc.pdf" {
		t.Fatalf("content.mediaUrl = %q", content["mediaUrl"])
	}
	if content["mediaType"] != "document" {
		t.Fatalf("content.mediaType = %q, want document", content["mediaType"])
	}
	var messageType string
	if err := json.Unmarshal(payload["messageType"], &messageType); err != nil || messageType != "media" {
		t.Fatalf("messageType = %q, want media", messageType)
	}
}

func TestQueueEnqueueValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(j *domain.DeliveryJob)
	}{
		{name: "missing tenant", mutate: func(j *domain.DeliveryJob) { j.TenantID = "" }},
		{name: "missing recipient", mutate: func(j *domain.DeliveryJob) { j.Recipient = "" }},
		{name: "missing media url", mutate: func(j *domain.DeliveryJob) { j.Content.MediaURL = "" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sql := &stubSQL{}
			queue := NewQueue(sql, QueueOptions{})
			job := sampleJob()
			tc.mutate(job)
			if _, err := queue.Enqueue(context.Background(), job); err == nil {
				t.Fatalf("Enqueue expected error")
			}
			if len(sql.queryCalls) != 0 {
				t.Fatalf("invalid job reached the database")
			}
		})
	}
}

func TestQueueClaimEmpty(t *testing.T) {
	sql := &stubSQL{}
	queue := NewQueue(sql, QueueOptions{})

	claim, err := queue.Claim(context.Background())
	if err != nil {
		t.Fatalf("Claim returned error: %v", err)
	}
	if claim != nil {
		t.Fatalf("claim = %+v, want nil", claim)
	}
}

func TestQueueClaimDecodesJob(t *testing.T) {
	job := sampleJob()
	job.MessageType = domain.MessageTypeMedia
	payload, err := json.Marshal(job)
	if err != nil {
		t.Fatalf("marshal sample job: %v", err)
	}
	sql := &stubSQL{rows: []func(dest ...any) error{
		func(dest ...any) error {
			*(dest[0].(*string)) = "job-1"
			*(dest[1].(*string)) = "tenant-a"
			*(dest[2].(*string)) = "session-1"
			*(dest[3].(*string)) = "+5491155550123"
			*(dest[4].(*[]byte)) = payload
			*(dest[5].(*string)) = "corr-1"
			*(dest[6].(*int)) = 1
			*(dest[7].(*int)) = 3
			return nil
		},
	}}
	queue := NewQueue(sql, QueueOptions{})

	claim, err := queue.Claim(context.Background())
	if err != nil {
		t.Fatalf("Claim returned error: %v", err)
	}
	if claim == nil {
		t.Fatalf("claim is nil")
	}
	if claim.ID != "job-1" || claim.Attempt != 1 || claim.MaxAttempts != 3 {
		t.Fatalf("claim = %+v", claim)
	}
	if claim.Job.Content.MediaURL != "https://files.example.com/catalogs/doc.pdf" {
		t.Fatalf("claim media url = %q", claim.Job.Content.MediaURL)
	}
	if claim.Job.MessageType != domain.MessageTypeMedia {
		t.Fatalf("claim message type = %q", claim.Job.MessageType)
	}
}

func TestQueueClaimCorruptPayloadDeadLetters(t *testing.T) {
	sql := &stubSQL{rows: []func(dest ...any) error{
		func(dest ...any) error {
			*(dest[0].(*string)) = "job-1"
			*(dest[1].(*string)) = "tenant-a"
			*(dest[2].(*string)) = "session-1"
			*(dest[3].(*string)) = "+5491155550123"
			*(dest[4].(*[]byte)) = []byte("{not json")
			*(dest[5].(*string)) = "corr-1"
			*(dest[6].(*int)) = 1
			*(dest[7].(*int)) = 3
			return nil
		},
	}}
	queue := NewQueue(sql, QueueOptions{})

	claim, err := queue.Claim(context.Background())
	if err != nil {
		t.Fatalf("Claim returned error: %v", err)
	}
	if claim != nil {
		t.Fatalf("claim = %+v, want nil for corrupt job", claim)
	}
	if len(sql.execCalls) != 1 || sql.execCalls[0].query != sqlinline.QMarkDeliveryFailed {
		t.Fatalf("corrupt job was not dead-lettered: %+v", sql.execCalls)
	}
}

func TestQueueResolveSuccess(t *testing.T) {
	sql := &stubSQL{}
	queue := NewQueue(sql, QueueOptions{})

	claim := &ClaimedJob{ID: "job-1", Attempt: 1, MaxAttempts: 3, Job: *sampleJob()}
	if err := queue.Resolve(context.Background(), claim, nil); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(sql.execCalls) != 1 || sql.execCalls[0].query != sqlinline.QMarkDeliverySent {
		t.Fatalf("success did not mark sent: %+v", sql.execCalls)
	}
}

func TestQueueResolveSchedulesRetryWithBackoff(t *testing.T) {
	tests := []struct {
		attempt    int
		wantDelay  int64
		wantFailed bool
	}{
		{attempt: 1, wantDelay: 2000},
		{attempt: 2, wantDelay: 4000},
		{attempt: 3, wantFailed: true},
	}
	for _, tc := range tests {
		sql := &stubSQL{}
		queue := NewQueue(sql, QueueOptions{})
		claim := &ClaimedJob{ID: "job-1", Attempt: tc.attempt, MaxAttempts: 3, Job: *sampleJob()}

		if err := queue.Resolve(context.Background(), claim, errors.New("whatsapp http 503: unavailable")); err != nil {
			t.Fatalf("Resolve attempt %d returned error: %v", tc.attempt, err)
		}
		if len(sql.execCalls) != 1 {
			t.Fatalf("exec calls = %d, want 1", len(sql.execCalls))
		}
		call := sql.execCalls[0]
		if tc.wantFailed {
			if call.query != sqlinline.QMarkDeliveryFailed {
				t.Fatalf("attempt %d: query = %q, want dead-letter", tc.attempt, call.query)
			}
			if got := call.args[1].(string); got != "whatsapp http 503: unavailable" {
				t.Fatalf("last error = %q", got)
			}
			continue
		}
		if call.query != sqlinline.QScheduleDeliveryRetry {
			t.Fatalf("attempt %d: query = %q, want retry", tc.attempt, call.query)
		}
		if got := call.args[1].(int64); got != tc.wantDelay {
			t.Fatalf("attempt %d: delay = %d ms, want %d", tc.attempt, got, tc.wantDelay)
		}
	}
}

func TestQueueRequeueStalled(t *testing.T) {
	sql := &stubSQL{execTag: pgconn.NewCommandTag("UPDATE 2")}
	queue := NewQueue(sql, QueueOptions{})

	rescued, err := queue.RequeueStalled(context.Background(), 2*time.Minute)
	if err != nil {
		t.Fatalf("RequeueStalled returned error: %v", err)
	}
	if rescued != 2 {
		t.Fatalf("rescued = %d, want 2", rescued)
	}
	if len(sql.execCalls) != 1 || sql.execCalls[0].query != sqlinline.QRequeueStalledDeliveries {
		t.Fatalf("unexpected exec calls: %+v", sql.execCalls)
	}
	if got := sql.execCalls[0].args[0].(int64); got != 120 {
		t.Fatalf("stalled seconds arg = %d, want 120", got)
	}
}

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		base    time.Duration
		attempt int
		want    time.Duration
	}{
		{base: 2 * time.Second, attempt: 1, want: 2 * time.Second},
		{base: 2 * time.Second, attempt: 2, want: 4 * time.Second},
		{base: 2 * time.Second, attempt: 3, want: 8 * time.Second},
		{base: 0, attempt: 1, want: 2 * time.Second},
		{base: 2 * time.Second, attempt: 0, want: 2 * time.Second},
		{base: 500 * time.Millisecond, attempt: 4, want: 4 * time.Second},
	}
	for _, tc := range tests {
		if got := RetryDelay(tc.base, tc.attempt); got != tc.want {
			t.Fatalf("RetryDelay(%v, %d) = %v, want %v", tc.base, tc.attempt, got, tc.want)
		}
	}
}
