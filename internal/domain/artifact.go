package domain

import "time"

// Artifact is a generated binary document held transiently until it is
// dispatched or expires. Its payload and metadata are immutable after
// creation; callers must treat the byte slice as read-only.
type Artifact struct {
	Reference   string
	TenantID    string
	Payload     []byte
	Filename    string
	ContentType string
	SizeBytes   int64
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Expired reports whether the artifact's time-to-live has elapsed at the
// given instant.
func (a *Artifact) Expired(now time.Time) bool {
	return !now.Before(a.ExpiresAt)
}

// SizeKB returns the payload size rounded up to whole kilobytes, the unit
// surfaced to callers of the producer.
func (a *Artifact) SizeKB() int {
	return int((a.SizeBytes + 1023) / 1024)
}
