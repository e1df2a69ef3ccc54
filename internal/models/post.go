package models

import "time"

// Post is a blog entry owned by exactly one author.
type Post struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text;not null" json:"description"`

	AuthorID uint `gorm:"index;not null" json:"-"`
	Author   User `gorm:"foreignKey:AuthorID;constraint:OnUpdate:NO ACTION,OnDelete:NO ACTION" json:"author"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OwnedBy reports whether userID authored the post.
func (p *Post) OwnedBy(userID uint) bool {
	return p != nil && userID != 0 && p.AuthorID == userID
}
