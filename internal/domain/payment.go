package domain

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Payment tracks a gateway charge for a membership purchase. GatewayRef is
// the vendor transaction id used to correlate webhook callbacks.
type Payment struct {
	ID           uuid.UUID     `db:"id" json:"id"`
	UserID       uuid.UUID     `db:"user_id" json:"user_id"`
	MembershipID uuid.UUID     `db:"membership_id" json:"membership_id"`
	AmountCents  int64         `db:"amount_cents" json:"amount_cents"`
	Currency     string        `db:"currency" json:"currency"`
	Status       PaymentStatus `db:"status" json:"status"`
	GatewayRef   *string       `db:"gateway_ref" json:"gateway_ref,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}
