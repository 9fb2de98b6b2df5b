package model

import (
	"time"
)

// Session is a server-side login. ID is the hex SHA-256 of the token handed to the client;
// the token itself is never stored.
type Session struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

// Principal is the authenticated caller of a request.
type Principal struct {
	User      *User
	SessionID string
}
