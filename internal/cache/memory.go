package cache

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/viccon/sturdyc"
)

// MemoryConfig sizes the in-process store.
type MemoryConfig struct {
	Capacity           int
	Shards             int
	EvictionPercentage int
	// MaxTTL bounds how long sturdyc keeps any entry. Per-key TTLs shorter
	// than this are enforced on read.
	MaxTTL time.Duration
}

const (
	defaultMemoryCapacity   = 10000
	defaultMemoryShards     = 10
	defaultMemoryEviction   = 10
	defaultMemoryMaxTTL     = 24 * time.Hour
	memoryCounterValueBytes = 20
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryStore implements Store on top of a sharded sturdyc client. It is
// local to a single process.
type MemoryStore struct {
	client *sturdyc.Client[memoryEntry]
	mu     sync.Mutex
	now    func() time.Time
}

// NewMemoryStore constructs an in-memory Store, filling zero config fields
// with defaults.
func NewMemoryStore(cfg MemoryConfig) *MemoryStore {
	if cfg.Capacity <= 0 {
		cfg.Capacity = defaultMemoryCapacity
	}
	if cfg.Shards <= 0 {
		cfg.Shards = defaultMemoryShards
	}
	if cfg.Shards > cfg.Capacity {
		cfg.Shards = cfg.Capacity
	}
	if cfg.EvictionPercentage <= 0 || cfg.EvictionPercentage > 100 {
		cfg.EvictionPercentage = defaultMemoryEviction
	}
	if cfg.MaxTTL <= 0 {
		cfg.MaxTTL = defaultMemoryMaxTTL
	}

	return &MemoryStore{
		client: sturdyc.New[memoryEntry](cfg.Capacity, cfg.Shards, cfg.MaxTTL, cfg.EvictionPercentage),
		now:    time.Now,
	}
}

// IncrementWithTTL increments a counter. The window starts with the first
// increment and is not extended by later ones.
func (s *MemoryStore) IncrementWithTTL(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if window <= 0 {
		window = time.Minute
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry, ok := s.lookup(key, now)
	if !ok {
		entry = memoryEntry{expiresAt: now.Add(window)}
	}

	count, _ := strconv.ParseInt(string(entry.value), 10, 64)
	count++
	buf := make([]byte, 0, memoryCounterValueBytes)
	entry.value = strconv.AppendInt(buf, count, 10)
	s.client.Set(key, entry)

	return count, entry.expiresAt.Sub(now), nil
}

// Set stores a copy of value. A non-positive ttl keeps the entry until
// eviction.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.client.Set(key, entry)
	return nil
}

// Get returns a copy of the stored value.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	entry, ok := s.lookup(key, s.now())
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), entry.value...), true, nil
}

// Delete removes keys, ignoring missing ones.
func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		s.client.Delete(key)
	}
	return nil
}

// DeletePrefix removes every key starting with prefix.
func (s *MemoryStore) DeletePrefix(_ context.Context, prefix string) error {
	for _, key := range s.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			s.client.Delete(key)
		}
	}
	return nil
}

func (s *MemoryStore) lookup(key string, now time.Time) (memoryEntry, bool) {
	entry, ok := s.client.Get(key)
	if !ok {
		return memoryEntry{}, false
	}
	if entry.expired(now) {
		s.client.Delete(key)
		return memoryEntry{}, false
	}
	return entry, true
}
