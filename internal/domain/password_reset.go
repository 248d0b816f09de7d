package domain

import (
	"time"

	"github.com/google/uuid"
)

// PasswordReset is one emailed reset code. The code itself is never stored;
// only its argon2 digest is, salted like a password.
type PasswordReset struct {
	ID        int64     `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	CodeHash  []byte    `db:"code_hash" json:"-"`
	CodeSalt  []byte    `db:"code_salt" json:"-"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	Consumed  bool      `db:"consumed" json:"consumed"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
