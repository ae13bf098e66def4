// Package artifact holds freshly generated catalog documents for a short
// window between generation and dispatch. Entries expire on a TTL and are
// never refreshed by reads.
package artifact

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"comercio/internal/domain"
	"comercio/internal/infra"
)

// Store is the handoff cache between catalog generation and delivery.
type Store interface {
	// Put registers a new artifact under its reference. References are
	// single-assignment: a second Put with the same reference fails with
	// domain.ErrDuplicateReference.
	Put(ctx context.Context, a *domain.Artifact) error
	// Get returns the artifact for reference when it belongs to tenantID and
	// has not expired. Absence, expiry and tenant mismatch are all reported
	// as domain.ErrReferenceNotFound. Reads do not extend the TTL.
	Get(ctx context.Context, tenantID, reference string) (*domain.Artifact, error)
	// EvictExpired drops entries whose deadline has passed and reports how
	// many were removed.
	EvictExpired(ctx context.Context) (int, error)
	// Close releases background resources held by the store.
	Close() error
}

const (
	DefaultTTL           = 30 * time.Minute
	DefaultSweepInterval = time.Minute
)

// MemoryOptions tunes a MemoryStore. Zero values fall back to defaults.
type MemoryOptions struct {
	TTL           time.Duration
	SweepInterval time.Duration
	Now           func() time.Time
	Logger        *infra.Logger
}

// MemoryStore keeps artifacts in process memory. A janitor goroutine sweeps
// expired entries on an interval instead of arming a timer per entry.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*domain.Artifact

	ttl    time.Duration
	now    func() time.Time
	logger *infra.Logger

	done      chan struct{}
	closeOnce sync.Once
}

func NewMemoryStore(opts MemoryOptions) *MemoryStore {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	sweep := opts.SweepInterval
	if sweep <= 0 {
		sweep = DefaultSweepInterval
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	s := &MemoryStore{
		entries: make(map[string]*domain.Artifact),
		ttl:     ttl,
		now:     now,
		logger:  logger,
		done:    make(chan struct{}),
	}
	go s.janitor(sweep)
	return s
}

func (s *MemoryStore) Put(ctx context.Context, a *domain.Artifact) error {
	if a == nil {
		return errors.New("artifact is required")
	}
	if a.Reference == "" {
		return errors.New("artifact reference is required")
	}
	if a.TenantID == "" {
		return errors.New("artifact tenant id is required")
	}

	entry := *a
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	if entry.ExpiresAt.IsZero() {
		entry.ExpiresAt = entry.CreatedAt.Add(s.ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[entry.Reference]; exists {
		return domain.ErrDuplicateReference
	}
	s.entries[entry.Reference] = &entry
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, tenantID, reference string) (*domain.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[reference]
	if !ok {
		return nil, domain.ErrReferenceNotFound
	}
	if entry.Expired(s.now()) {
		delete(s.entries, reference)
		return nil, domain.ErrReferenceNotFound
	}
	// Cross-tenant lookups are indistinguishable from unknown references.
	if entry.TenantID != tenantID {
		return nil, domain.ErrReferenceNotFound
	}

	out := *entry
	return &out, nil
}

func (s *MemoryStore) EvictExpired(ctx context.Context) (int, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for ref, entry := range s.entries {
		if entry.Expired(now) {
			delete(s.entries, ref)
			removed++
		}
	}
	return removed, nil
}

// Len reports how many entries are currently held, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	return nil
}

func (s *MemoryStore) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			removed, _ := s.EvictExpired(context.Background())
			if removed > 0 {
				s.logger.Debug().Int("removed", removed).Msg("artifact sweep evicted expired entries")
			}
		}
	}
}

var _ Store = (*MemoryStore)(nil)
