package verification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/tradelink-backend/pkg/redis"
)

// ErrNotFound is returned when no live record exists for an email.
var ErrNotFound = errors.New("verification record not found")

// Record is a pending verification. Hash is the Argon2id hash of the code.
type Record struct {
	Hash      string    `json:"hash"`
	Attempts  int       `json:"attempts"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store keeps verification records until they expire.
type Store interface {
	Put(ctx context.Context, email string, rec Record, ttl time.Duration) error
	Get(ctx context.Context, email string) (*Record, error)
	// Update rewrites a live record without extending its lifetime.
	Update(ctx context.Context, email string, rec Record) error
	Delete(ctx context.Context, email string) error
}

type redisClient interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Replace(ctx context.Context, key string, value any) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	VerificationKey(email string) string
}

// RedisStore keeps records in redis under namespaced keys with native TTLs.
type RedisStore struct {
	client redisClient
}

// NewRedisStore wraps a redis client.
func NewRedisStore(client redisClient) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Put(ctx context.Context, email string, rec Record, ttl time.Duration) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode verification record: %w", err)
	}
	return s.client.Set(ctx, s.client.VerificationKey(email), payload, ttl)
}

func (s *RedisStore) Get(ctx context.Context, email string) (*Record, error) {
	raw, err := s.client.Get(ctx, s.client.VerificationKey(email))
	if errors.Is(err, redis.ErrNil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("decode verification record: %w", err)
	}
	return &rec, nil
}

func (s *RedisStore) Update(ctx context.Context, email string, rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode verification record: %w", err)
	}
	return s.client.Replace(ctx, s.client.VerificationKey(email), payload)
}

func (s *RedisStore) Delete(ctx context.Context, email string) error {
	return s.client.Del(ctx, s.client.VerificationKey(email))
}

// MemoryStore is an in-process Store for single-instance deployments and
// tests. A background sweep drops expired records until Close is called.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]memoryEntry
	now     func() time.Time
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

type memoryEntry struct {
	rec      Record
	deadline time.Time
}

// NewMemoryStore starts a store sweeping expired records every interval.
func NewMemoryStore(interval time.Duration) *MemoryStore {
	if interval <= 0 {
		interval = time.Minute
	}
	s := &MemoryStore{
		records: map[string]memoryEntry{},
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.sweepLoop(interval)
	return s
}

func (s *MemoryStore) sweepLoop(interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

func (s *MemoryStore) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for key, entry := range s.records {
		if !now.Before(entry.deadline) {
			delete(s.records, key)
			removed++
		}
	}
	return removed
}

// Close stops the sweeper and waits for it to exit.
func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.stop) })
	<-s.done
	return nil
}

func (s *MemoryStore) Put(_ context.Context, email string, rec Record, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[memoryKey(email)] = memoryEntry{rec: rec, deadline: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, email string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.records[memoryKey(email)]
	if !ok || !s.now().Before(entry.deadline) {
		return nil, ErrNotFound
	}
	rec := entry.rec
	return &rec, nil
}

func (s *MemoryStore) Update(_ context.Context, email string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memoryKey(email)
	entry, ok := s.records[key]
	if !ok || !s.now().Before(entry.deadline) {
		return nil
	}
	entry.rec = rec
	s.records[key] = entry
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, memoryKey(email))
	return nil
}

func memoryKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
