package domain

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingBooked    BookingStatus = "booked"
	BookingCancelled BookingStatus = "cancelled"
	BookingAttended  BookingStatus = "attended"
)

// Booking reserves a seat in one occurrence of a class (class + calendar day).
type Booking struct {
	ID        uuid.UUID     `db:"id" json:"id"`
	ClassID   uuid.UUID     `db:"class_id" json:"class_id"`
	UserID    uuid.UUID     `db:"user_id" json:"user_id"`
	ClassDay  string        `db:"class_day" json:"class_day"` // YYYY-MM-DD
	Status    BookingStatus `db:"status" json:"status"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}
