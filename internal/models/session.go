package models

import "time"

// Session is stored in Redis only, keyed by its ID; the TTL matches the
// refresh token lifetime so revoked or expired sessions disappear on
// their own.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
