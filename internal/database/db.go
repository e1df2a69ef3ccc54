package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config contains database connection options.
type Config struct {
	Driver string
	Path   string // SQLite database path when Driver == sqlite
	DSN    string // Optional DSN override

	Host     string
	Port     int
	Name     string
	User     string
	Password string
	Options  map[string]string

	// LogQueries routes gorm's SQL log through the global zap logger.
	LogQueries bool
}

// Dialect names returned by gorm dialectors.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
)

// Open initialises a gorm.DB using the provided configuration.
func Open(cfg Config) (*gorm.DB, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = DialectSQLite
	}

	switch driver {
	case DialectSQLite:
		return openSQLite(cfg)
	case DialectPostgres, "postgresql":
		return openPostgres(cfg)
	case DialectMySQL:
		return openMySQL(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Ping verifies the underlying connection pool can reach the database,
// honouring a context attached with db.WithContext.
func Ping(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	ctx := context.Background()
	if db.Statement != nil && db.Statement.Context != nil {
		ctx = db.Statement.Context
	}
	return sqlDB.PingContext(ctx)
}

// gormConfig is shared by every dialect. Timestamps are always written in UTC
// so created_at range comparisons behave the same on every engine. Constraint
// violations surface as gorm.ErrDuplicatedKey and gorm.ErrForeignKeyViolated.
func gormConfig(cfg Config) *gorm.Config {
	gcfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	}
	if cfg.LogQueries {
		gcfg.Logger = newQueryLogger()
	}
	return gcfg
}

// MigrateDatabase applies schema migrations during application start-up.
func MigrateDatabase(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}

	if err := AutoMigrate(db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	return nil
}
