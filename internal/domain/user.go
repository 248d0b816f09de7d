package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	FullName     *string    `db:"full_name" json:"full_name,omitempty"`
	Phone        *string    `db:"phone" json:"phone,omitempty"`
	ImageURL     *string    `db:"user_image_url" json:"user_image_url,omitempty"`
	Role         Role       `db:"role" json:"role"`
	PasswordHash []byte     `db:"password_hash" json:"-"`
	PasswordSalt []byte     `db:"password_salt" json:"-"`
	Active       bool       `db:"is_active" json:"is_active"`
	JoinedAt     *time.Time `db:"joined_at" json:"joined_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}
