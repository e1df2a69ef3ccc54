package database

import (
	"gorm.io/gorm"

	"github.com/charlesng35/postboard/internal/models"
)

// AutoMigrate creates or updates the schema. Users are migrated before posts
// so the author foreign key can be created.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.CacheEntry{},
	)
}
