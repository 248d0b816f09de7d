package ports

import "errors"

// Sentinel errors surfaced by repositories whose conditional writes fail.
// Plain lookup misses keep returning the driver's not-found error
// (sql.ErrNoRows for the Postgres adapters).
var (
	ErrOpenRecordExists  = errors.New("attendance: open record already exists")
	ErrCapacityReached   = errors.New("booking: class occurrence is full")
	ErrDuplicateBooking  = errors.New("booking: already booked for this occurrence")
	ErrInsufficientStock = errors.New("inventory: stock cannot go negative")
	ErrPaymentSettled    = errors.New("payment: already settled")
)
