package monitoring_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/postboard/internal/cache"
	"github.com/charlesng35/postboard/internal/database/testutil"
	"github.com/charlesng35/postboard/internal/monitoring"
	"github.com/charlesng35/postboard/internal/monitoring/checks"
)

func TestHealthManagerEvaluate(t *testing.T) {
	t.Parallel()

	manager := monitoring.NewHealthManager(time.Second)
	manager.Register("database", func(context.Context) error { return nil })
	manager.Register("cache", func(context.Context) error { return errors.New("connection refused") })
	manager.Register("", func(context.Context) error { return nil })
	manager.Register("nil", nil)

	report := manager.Evaluate(context.Background())
	require.False(t, report.Success)
	require.Equal(t, monitoring.StatusDown, report.Status)
	require.Len(t, report.Checks, 2)
	require.Equal(t, monitoring.StatusUp, report.Checks[0].Status)
	require.Equal(t, "connection refused", report.Checks[1].Details)
}

func TestHealthManagerTimeoutDegrades(t *testing.T) {
	t.Parallel()

	manager := monitoring.NewHealthManager(10 * time.Millisecond)
	manager.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	report := manager.Evaluate(context.Background())
	require.False(t, report.Success)
	require.Equal(t, monitoring.StatusDegraded, report.Status)
}

func TestHealthManagerRecoversPanics(t *testing.T) {
	t.Parallel()

	manager := monitoring.NewHealthManager(0)
	manager.Register("boom", func(context.Context) error { panic("kaboom") })

	report := manager.Evaluate(context.Background())
	require.Equal(t, monitoring.StatusDown, report.Status)
	require.Equal(t, "boom", report.Checks[0].Component)
	require.Contains(t, report.Checks[0].Details, "kaboom")
}

func TestHealthManagerWithoutProbes(t *testing.T) {
	t.Parallel()

	report := monitoring.NewHealthManager(0).Evaluate(context.Background())
	require.True(t, report.Success)
	require.Equal(t, monitoring.StatusUp, report.Status)
	require.Empty(t, report.Checks)
}

func TestDatabaseAndCacheChecks(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	require.NoError(t, checks.Database(db)(context.Background()))
	require.Error(t, checks.Database(nil)(context.Background()))

	require.NoError(t, checks.Cache(cache.NewDatabaseStore(db))(context.Background()))
	require.NoError(t, checks.Cache(cache.NewMemoryStore(cache.MemoryConfig{}))(context.Background()))
	require.Error(t, checks.Cache(nil)(context.Background()))
}
