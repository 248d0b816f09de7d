package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gympoint/gympoint-backend/internal/domain"
)

// AttendanceCreate carries the fields for a new attendance record. The
// repository assigns the id.
type AttendanceCreate struct {
	UserID      uuid.UUID
	Day         string
	CheckInTime time.Time
	Method      domain.AttendanceMethod
	RecordedBy  *uuid.UUID
}

type AttendanceRepository interface {
	// CreateIfNoOpen inserts a new attendance record only if the user has no
	// open record. The check and the insert must be a single atomic
	// operation; a concurrent create for the same user must fail with
	// ErrOpenRecordExists rather than produce two open records.
	CreateIfNoOpen(ctx context.Context, rec AttendanceCreate) (*domain.Attendance, error)
	FindOpenByUser(ctx context.Context, userID uuid.UUID) (*domain.Attendance, error)
	CloseAttendance(ctx context.Context, id uuid.UUID, checkOutTime time.Time) (*domain.Attendance, error)
	ListOpen(ctx context.Context) ([]domain.Attendance, error)
	ListByDay(ctx context.Context, day string) ([]domain.Attendance, error)
	ListByUser(ctx context.Context, userID uuid.UUID, fromDay, toDay string, limit, offset int) ([]domain.Attendance, error)
	StatsByRange(ctx context.Context, fromDay, toDay string) (*domain.AttendanceStats, error)
	FindLatestByUserDay(ctx context.Context, userID uuid.UUID, day string) (*domain.Attendance, error)
}
