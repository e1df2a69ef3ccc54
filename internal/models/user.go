package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User is an account that can sign in and author posts.
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Email    string `gorm:"uniqueIndex;size:320;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	Posts []Post `gorm:"foreignKey:AuthorID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeSave keeps stored emails in their canonical form.
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = NormalizeEmail(u.Email)
	return nil
}

// NormalizeEmail trims and lower-cases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
