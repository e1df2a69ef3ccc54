package checks

import (
	"context"
	"errors"

	"github.com/charlesng35/postboard/internal/cache"
	"github.com/charlesng35/postboard/internal/monitoring"
)

const cacheProbeKey = "health:probe"

// Cache performs a read against the listing cache. A miss is healthy; only
// backend errors fail the probe.
func Cache(store cache.Store) monitoring.Probe {
	return func(ctx context.Context) error {
		if store == nil {
			return errors.New("cache not configured")
		}
		_, _, err := store.Get(ctx, cacheProbeKey)
		return err
	}
}
