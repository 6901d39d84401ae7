package model

import "time"

// User is an account record. PasswordHash never serializes: every view
// returned to a caller goes through JSON, so the tag is the exclusion.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
