package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"comercio/internal/domain"
	"comercio/internal/infra"
)

// RedisOptions tunes a RedisStore. Zero values fall back to defaults.
type RedisOptions struct {
	TTL    time.Duration
	Logger *infra.Logger
}

// RedisStore keeps artifacts in Redis so several API replicas can share the
// handoff window. Expiry is delegated to Redis key TTLs, so EvictExpired has
// nothing to do here.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *infra.Logger
}

// NewRedisStore dials addr and verifies the connection before returning.
func NewRedisStore(addr string, opts RedisOptions) (*RedisStore, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return newRedisStoreWithClient(client, opts), nil
}

func newRedisStoreWithClient(client *redis.Client, opts RedisOptions) *RedisStore {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &RedisStore{client: client, ttl: ttl, logger: logger}
}

func redisKey(tenantID, reference string) string {
	return "artifact:" + tenantID + ":" + reference
}

func (s *RedisStore) Put(ctx context.Context, a *domain.Artifact) error {
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
	now := time.Now()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	if entry.ExpiresAt.IsZero() {
		entry.ExpiresAt = entry.CreatedAt.Add(s.ttl)
	}
	ttl := entry.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return fmt.Errorf("artifact already expired at %s", entry.ExpiresAt.Format(time.RFC3339))
	}

	raw, err := json.Marshal(&entry)
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}

	ok, err := s.client.SetNX(ctx, redisKey(entry.TenantID, entry.Reference), raw, ttl).Result()
	if err != nil {
		return fmt.Errorf("store artifact: %w", err)
	}
	if !ok {
		return domain.ErrDuplicateReference
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, tenantID, reference string) (*domain.Artifact, error) {
	raw, err := s.client.Get(ctx, redisKey(tenantID, reference)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrReferenceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load artifact: %w", err)
	}

	var entry domain.Artifact
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	// The tenant is part of the key, but a stored entry that disagrees with
	// its key must never leak across tenants.
	if entry.TenantID != tenantID {
		return nil, domain.ErrReferenceNotFound
	}
	return &entry, nil
}

// EvictExpired is a no-op: Redis expires keys server-side.
func (s *RedisStore) EvictExpired(ctx context.Context) (int, error) {
	return 0, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
