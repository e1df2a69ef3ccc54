package checks

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/charlesng35/postboard/internal/database"
	"github.com/charlesng35/postboard/internal/monitoring"
)

// Database pings the primary database.
func Database(db *gorm.DB) monitoring.Probe {
	return func(ctx context.Context) error {
		if db == nil {
			return errors.New("database not configured")
		}
		return database.Ping(db.WithContext(ctx))
	}
}
