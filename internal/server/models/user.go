// Package models holds the rows the server persists.
package models

import "time"

// User is the single principal type: an admin who owns posts.
// PasswordHash is a bcrypt hash and is never rendered.
type User struct {
	ID           string
	UserName     string
	PasswordHash string
	CreatedAt    time.Time
}
