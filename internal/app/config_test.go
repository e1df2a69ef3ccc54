package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/postboard/internal/auth"
	"github.com/charlesng35/postboard/internal/cache"
	"github.com/charlesng35/postboard/internal/database"
)

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join("testdata")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 5433, cfg.Database.Postgres.Port)
	require.Equal(t, "blog", cfg.Database.Postgres.Database)
	require.Equal(t, 3306, cfg.Database.MySQL.Port)

	require.Equal(t, CacheBackendRedis, cfg.Cache.Backend)
	require.Equal(t, 120*time.Second, cfg.Cache.TTL)
	require.Equal(t, "@hourly", cfg.Cache.CleanupSchedule)
	require.Equal(t, 500, cfg.Cache.Memory.Capacity)
	require.Equal(t, 10, cfg.Cache.Memory.Shards)
	require.Equal(t, "redis.example.com:6380", cfg.Cache.Redis.Address)
	require.Equal(t, 2, cfg.Cache.Redis.DB)
	require.Equal(t, 2*time.Second, cfg.Cache.Redis.Timeout)

	require.Equal(t, "jwt-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, "postboard-test", cfg.Auth.JWT.Issuer)
	require.Equal(t, 30*time.Minute, cfg.Auth.JWT.TTL)

	require.Equal(t, 3, cfg.RateLimit.LoginRequests)
	require.Equal(t, 30*time.Second, cfg.RateLimit.Window)

	require.True(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/internal/metrics", cfg.Monitoring.Prometheus.Endpoint)
	require.True(t, cfg.Monitoring.Health.Enabled)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "./data/postboard.sqlite", cfg.Database.Path)
	require.Equal(t, CacheBackendMemory, cfg.Cache.Backend)
	require.Equal(t, 300*time.Second, cfg.Cache.TTL)
	require.Equal(t, time.Hour, cfg.Auth.JWT.TTL)
	require.Empty(t, cfg.Auth.JWT.Secret)
	require.Equal(t, 10, cfg.RateLimit.LoginRequests)
	require.Equal(t, time.Minute, cfg.RateLimit.Window)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	t.Setenv("POSTBOARD_SERVER_PORT", "7070")
	t.Setenv("POSTBOARD_CACHE_BACKEND", "database")
	t.Setenv("POSTBOARD_AUTH_JWT_SECRET", "from-env")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, CacheBackendDatabase, cfg.Cache.Backend)
	require.Equal(t, "from-env", cfg.Auth.JWT.Secret)
}

func TestLoadConfigRejectsUnknownCacheBackend(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("cache:\n  backend: memcached\n"), 0o600))

	_, err := LoadConfig(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), `unsupported cache backend "memcached"`)
}

func TestLoadConfigMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [port\n"), 0o600))

	_, err := LoadConfig(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "config: read file")
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{
		Cache: CacheConfig{Backend: "memory", TTL: time.Minute},
		Monitoring: MonitoringConfig{
			Prometheus: PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
		},
	}
	require.NoError(t, cfg.Validate())

	cfg.Cache.TTL = 0
	require.Error(t, cfg.Validate())

	cfg.Cache.TTL = time.Minute
	cfg.Monitoring.Prometheus.Endpoint = "metrics"
	require.Error(t, cfg.Validate())

	cfg.Monitoring.Prometheus.Enabled = false
	require.NoError(t, cfg.Validate())
}

func TestAuthConfigAdapters(t *testing.T) {
	cfg := Config{
		Auth: AuthConfig{
			JWT: JWTSettings{
				Secret: "secret",
				Issuer: "issuer",
				TTL:    30 * time.Minute,
			},
		},
	}

	jwtCfg := cfg.Auth.JWTServiceConfig()
	require.Equal(t, auth.JWTConfig{
		Secret:         "secret",
		Issuer:         "issuer",
		AccessTokenTTL: 30 * time.Minute,
	}, jwtCfg)
}

func TestAuthConfigAdaptersFallback(t *testing.T) {
	var cfg AuthConfig

	jwtCfg := cfg.JWTServiceConfig()
	require.Equal(t, auth.DefaultAccessTokenTTL, jwtCfg.AccessTokenTTL)
}

func TestCacheConfigAdapters(t *testing.T) {
	cfg := CacheConfig{
		Backend: " Redis ",
		Memory:  MemoryCacheConfig{Capacity: 100, Shards: 4, EvictionPercentage: 20},
		Redis: RedisCacheConfig{
			Address:  " 127.0.0.1:6379 ",
			Username: " default ",
			Password: "pw",
			DB:       1,
			TLS:      true,
			Timeout:  3 * time.Second,
		},
	}

	require.Equal(t, CacheBackendRedis, cfg.BackendName())
	require.Equal(t, cache.RedisConfig{
		Address:  "127.0.0.1:6379",
		Username: "default",
		Password: "pw",
		DB:       1,
		TLS:      true,
		Timeout:  3 * time.Second,
	}, cfg.RedisClientConfig())
	require.Equal(t, cache.MemoryConfig{Capacity: 100, Shards: 4, EvictionPercentage: 20}, cfg.MemoryStoreConfig())

	require.Equal(t, CacheBackendMemory, CacheConfig{}.BackendName())
}

func TestDatabaseConnectionConfig(t *testing.T) {
	sqlite := DatabaseConfig{Path: " ./data/test.sqlite "}.ConnectionConfig()
	require.Equal(t, database.Config{Driver: "sqlite", Path: "./data/test.sqlite"}, sqlite)

	pg := DatabaseConfig{
		Driver: "PostgreSQL",
		Postgres: DBAuthConfig{
			Host:     "db",
			Port:     5433,
			Database: "blog",
			Username: "blogger",
			Password: "pw",
		},
	}.ConnectionConfig()
	require.Equal(t, "postgres", pg.Driver)
	require.Equal(t, "db", pg.Host)
	require.Equal(t, 5433, pg.Port)
	require.Equal(t, "blog", pg.Name)
	require.Equal(t, "blogger", pg.User)
	require.Equal(t, "pw", pg.Password)

	mysql := DatabaseConfig{Driver: "mysql", MySQL: DBAuthConfig{Host: "mysql", Port: 3306}}.ConnectionConfig()
	require.Equal(t, "mysql", mysql.Driver)
	require.Equal(t, "mysql", mysql.Host)

	unknown := DatabaseConfig{Driver: "oracle"}.ConnectionConfig()
	require.Equal(t, "oracle", unknown.Driver)
}
