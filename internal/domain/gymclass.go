package domain

import (
	"time"

	"github.com/google/uuid"
)

// GymClass is a recurring class slot. Weekdays holds time.Weekday values
// (0 = Sunday) for the days the class runs.
type GymClass struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	TrainerID   uuid.UUID `db:"trainer_id" json:"trainer_id"`
	Capacity    int       `db:"capacity" json:"capacity"`
	Weekdays    []int64   `db:"-" json:"weekdays"`
	StartTime   string    `db:"start_time" json:"start_time"` // HH:MM, gym time
	EndTime     string    `db:"end_time" json:"end_time"`
	Active      bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

func (c *GymClass) RunsOn(day time.Weekday) bool {
	for _, wd := range c.Weekdays {
		if int64(day) == wd {
			return true
		}
	}
	return false
}
