package models

import (
	"time"

	"gorm.io/gorm"
)

// User is the local projection of an author identity. Credentials live with
// the external identity provider; only the id and display name are kept.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:64;not null" json:"username"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// All lists every model managed by AutoMigrate, parents first.
func All() []interface{} {
	return []interface{}{&User{}, &Category{}, &Tag{}, &Post{}, &Comment{}}
}
