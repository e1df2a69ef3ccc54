package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/postboard/internal/api"
	"github.com/charlesng35/postboard/internal/app"
	"github.com/charlesng35/postboard/internal/app/maintenance"
	iauth "github.com/charlesng35/postboard/internal/auth"
	"github.com/charlesng35/postboard/internal/cache"
	"github.com/charlesng35/postboard/internal/database"
	"github.com/charlesng35/postboard/internal/middleware"
	"github.com/charlesng35/postboard/internal/services"
	"github.com/charlesng35/postboard/pkg/logger"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB        *gorm.DB
	Cache     cache.Store
	Redis     *cache.RedisClient
	Cleaner   *maintenance.Cleaner
	RateStore middleware.RateStore
	Router    *gin.Engine
}

// bootstrapRuntime initialises the database, cache, services, and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			if shutdownErr := stack.Shutdown(context.Background()); shutdownErr != nil {
				log.Warn("partial bootstrap cleanup failed", zap.Error(shutdownErr))
			}
		}
	}()

	// enable gin debug mod
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}

	stack.Cache, err = stack.selectCache(cfg, log)
	if err != nil {
		return nil, err
	}

	if dbStore, ok := stack.Cache.(*cache.DatabaseStore); ok {
		stack.Cleaner = maintenance.NewCleaner(
			maintenance.WithTarget("cache_entries", dbStore),
			maintenance.WithSchedule(cfg.Cache.CleanupSchedule),
		)
		if err := stack.Cleaner.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	stack.RateStore, err = middleware.NewRateStore(stack.Cache)
	if err != nil {
		return nil, fmt.Errorf("initialise rate store: %w", err)
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	users, err := services.NewUserService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise user service: %w", err)
	}

	authSvc, err := iauth.NewService(users, jwtSvc)
	if err != nil {
		return nil, fmt.Errorf("initialise auth service: %w", err)
	}

	posts, err := services.NewPostService(stack.DB, services.WithListCache(stack.Cache, cfg.Cache.TTL))
	if err != nil {
		return nil, fmt.Errorf("initialise post service: %w", err)
	}

	stack.Router, err = api.NewRouter(api.Deps{
		DB:        stack.DB,
		Auth:      authSvc,
		Users:     users,
		Posts:     posts,
		Config:    cfg,
		Cache:     stack.Cache,
		RateStore: stack.RateStore,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// selectCache builds the configured listing cache. An unreachable Redis
// falls back to the database-backed store.
func (s *runtimeStack) selectCache(cfg *app.Config, log *zap.Logger) (cache.Store, error) {
	switch backend := cfg.Cache.BackendName(); backend {
	case app.CacheBackendMemory:
		log.Info("using in-memory cache")
		return cache.NewMemoryStore(cfg.Cache.MemoryStoreConfig()), nil
	case app.CacheBackendRedis:
		client, err := cache.NewRedisClient(cfg.Cache.RedisClientConfig())
		if err == nil {
			s.Redis = client
			log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
			return client, nil
		}
		log.Warn("redis unavailable; falling back to database-backed cache", zap.Error(err))
		return cache.NewDatabaseStore(s.DB), nil
	case app.CacheBackendDatabase:
		log.Info("using database-backed cache")
		return cache.NewDatabaseStore(s.DB), nil
	default:
		return nil, fmt.Errorf("unsupported cache backend %q", backend)
	}
}

// Shutdown stops background jobs and releases resources, reporting every failure.
func (s *runtimeStack) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}

	var errs error

	if s.Cleaner != nil {
		// Wait for an in-flight purge before the final pass.
		<-s.Cleaner.Stop().Done()
		if err := s.Cleaner.RunOnce(ctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("maintenance shutdown cleanup: %w", err))
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("redis shutdown: %w", err))
		}
	}

	if s.DB != nil {
		errs = multierr.Append(errs, closeDatabase(s.DB))
	}

	return errs
}

func initialiseDatabase(ctx context.Context, cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.ConnectionConfig()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.Ping(db.WithContext(ctx)); err != nil {
		_ = closeDatabase(db)
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := database.MigrateDatabase(db); err != nil {
		_ = closeDatabase(db)
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

func closeDatabase(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("obtain sql DB for closing: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
