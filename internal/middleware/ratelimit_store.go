package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/charlesng35/postboard/internal/cache"
)

// RateStore coordinates rate limiting counters for a specific key.
type RateStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int, ttl time.Duration, err error)
}

// storeRateStore keeps counters in any cache backend, so limits are shared
// across instances when the backend is redis or the database.
type storeRateStore struct {
	store cache.Store
}

// NewRateStore wraps a cache store in a RateStore implementation.
func NewRateStore(store cache.Store) (RateStore, error) {
	if store == nil {
		return nil, errors.New("rate store: cache store is required")
	}
	return &storeRateStore{store: store}, nil
}

func (s *storeRateStore) Increment(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	if window <= 0 {
		window = time.Minute
	}
	count, ttl, err := s.store.IncrementWithTTL(ctx, key, window)
	return int(count), ttl, err
}
