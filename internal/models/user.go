package models

import (
	"time"
)

type User struct {
	ID    string `gorm:"primaryKey;size:64" json:"id"`
	Name  string `gorm:"not null;size:255" json:"name"`
	Email string `gorm:"size:255" json:"email"`
}

// UserContext is the standing brand brief the user keeps for generation:
// free-form notes plus reference links, one per line. Clients fold it into the
// prompt they send to the generator.
type UserContext struct {
	UserID    string    `gorm:"primaryKey;size:64" json:"-"`
	Notes     string    `gorm:"type:text" json:"notes"`
	Links     string    `gorm:"type:text" json:"links"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// UserImage is an image the user uploaded to seed video generation. URL is an
// opaque reference into the object store, not the binary itself.
type UserImage struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"not null;index;size:64" json:"-"`
	Name      string    `gorm:"not null;size:255" json:"name"`
	URL       string    `gorm:"type:text" json:"url"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
