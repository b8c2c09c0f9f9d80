package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session is issued by the identity provider; this service only reads it.
type Session struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	Token     string    `db:"token"`
	ExpiresAt time.Time `db:"expires_at"`

	// joined from users
	UserEmail string `db:"email"`
	IsAdmin   bool   `db:"is_admin"`
}
