package models

import "time"

// Account holds the credentials owned by the auth provider. Profile data
// the app reads (salon link, photo) lives in the "users" collection.
type Account struct {
	UID          string `gorm:"primaryKey;size:64" json:"uid"`
	Email        string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	DisplayName  string `gorm:"size:100" json:"display_name"`
	PhotoURL     string `gorm:"size:512" json:"photo_url"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
