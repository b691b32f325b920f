package models

import "time"

// Session keys server-side flash state by the id stored in the signed "sid" cookie.
type Session struct {
	ID        string
	ExpiresAt time.Time
}
