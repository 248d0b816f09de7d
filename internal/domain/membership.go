package domain

import (
	"time"

	"github.com/google/uuid"
)

type MembershipPlan struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Description  *string   `db:"description" json:"description,omitempty"`
	PriceCents   int64     `db:"price_cents" json:"price_cents"`
	DurationDays int       `db:"duration_days" json:"duration_days"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type MembershipStatus string

const (
	MembershipPending MembershipStatus = "pending"
	MembershipActive  MembershipStatus = "active"
	MembershipExpired MembershipStatus = "expired"
)

type Membership struct {
	ID        uuid.UUID        `db:"id" json:"id"`
	UserID    uuid.UUID        `db:"user_id" json:"user_id"`
	PlanID    uuid.UUID        `db:"plan_id" json:"plan_id"`
	Status    MembershipStatus `db:"status" json:"status"`
	StartsAt  *time.Time       `db:"starts_at" json:"starts_at,omitempty"`
	EndsAt    *time.Time       `db:"ends_at" json:"ends_at,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}
