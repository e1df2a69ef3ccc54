package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/postboard/pkg/logger"
)

const defaultPurgeSpec = "@every 10m"

// ExpiredPurger removes entries that expired at or before now.
type ExpiredPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type purgeTarget struct {
	name   string
	purger ExpiredPurger
}

// Cleaner periodically purges expired rows from database-backed stores such
// as the listing cache and rate-limit counters.
type Cleaner struct {
	targets  []purgeTarget
	cron     *cron.Cron
	now      func() time.Time
	log      *zap.Logger
	schedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for expiry comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithSchedule overrides the cron specification for the purge job.
func WithSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.schedule = spec
		}
	}
}

// WithTarget registers a store to purge. Nil purgers are ignored.
func WithTarget(name string, purger ExpiredPurger) Option {
	return func(cleaner *Cleaner) {
		if purger != nil {
			cleaner.targets = append(cleaner.targets, purgeTarget{name: name, purger: purger})
		}
	}
}

// NewCleaner constructs a Cleaner. Without targets Start is a no-op.
func NewCleaner(opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		now:      func() time.Time { return time.Now().UTC() },
		schedule: defaultPurgeSpec,
		log:      logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

// Enabled reports whether any purge target is registered.
func (c *Cleaner) Enabled() bool {
	return len(c.targets) > 0
}

// Start registers the purge job with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	if !c.Enabled() {
		return nil
	}

	if _, err := c.cron.AddFunc(c.schedule, func() {
		if err := c.RunOnce(context.Background()); err != nil {
			c.log.Warn("expired entry purge failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule purge %q: %w", c.schedule, err)
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce purges every target once. Failures do not stop later targets.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	now := c.now()
	var errs error
	for _, target := range c.targets {
		removed, err := target.purger.PurgeExpired(ctx, now)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("purge %s: %w", target.name, err))
			continue
		}
		if removed > 0 {
			c.log.Debug("purged expired entries", zap.String("target", target.name), zap.Int64("removed", removed))
		}
	}

	return errs
}
