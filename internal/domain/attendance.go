package domain

import (
	"time"

	"github.com/google/uuid"
)

type AttendanceMethod string

const (
	AttendanceMethodQR     AttendanceMethod = "qr"
	AttendanceMethodManual AttendanceMethod = "manual"
	AttendanceMethodForced AttendanceMethod = "forced"
)

// Attendance is one visit. Records are never deleted; check-out closes a
// record by setting CheckOutTime. At most one open record may exist per user.
type Attendance struct {
	ID           uuid.UUID        `db:"id" json:"id"`
	UserID       uuid.UUID        `db:"user_id" json:"user_id"`
	Day          string           `db:"day" json:"day"` // calendar day, YYYY-MM-DD in gym time
	CheckInTime  time.Time        `db:"check_in_time" json:"check_in_time"`
	CheckOutTime *time.Time       `db:"check_out_time" json:"check_out_time,omitempty"`
	Method       AttendanceMethod `db:"method" json:"method"`
	RecordedBy   *uuid.UUID       `db:"recorded_by" json:"recorded_by,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
}

func (a *Attendance) Open() bool {
	return a.CheckOutTime == nil
}

// AttendanceState is the per-user-day state exposed by the status endpoint.
type AttendanceState string

const (
	AttendanceStateNotCheckedIn AttendanceState = "NOT_CHECKED_IN"
	AttendanceStateCheckedIn    AttendanceState = "CHECKED_IN"
	AttendanceStateCheckedOut   AttendanceState = "CHECKED_OUT"
)

type AttendanceStats struct {
	From        string           `json:"from"`
	To          string           `json:"to"`
	Total       int64            `json:"total"`
	Open        int64            `json:"open"`
	Closed      int64            `json:"closed"`
	ByMethod    map[string]int64 `json:"by_method"`
	UniqueUsers int64            `json:"unique_users"`
}
