package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/gympoint/gympoint-backend/internal/domain"
	"github.com/gympoint/gympoint-backend/internal/repository/ports"
)

var (
	ErrAlreadyCheckedIn = errors.New("user already has an open attendance record")
	ErrNotCheckedIn     = errors.New("user has no open attendance record")
	ErrInvalidQR        = errors.New("check-in code is not valid")
	ErrExpiredQR        = errors.New("check-in code has expired")
	ErrReplayedQR       = errors.New("check-in code was already used")
	ErrForceNotAllowed  = errors.New("role may not force attendance changes")
	ErrInvalidDay       = errors.New("day must be formatted as YYYY-MM-DD")
)

const qrImageSize = 256

type CheckInQR struct {
	Token     string
	PNG       []byte
	ExpiresAt time.Time
}

// AttendanceService drives the per-user-day state machine
// NOT_CHECKED_IN -> CHECKED_IN -> CHECKED_OUT. The one-open-record invariant
// is enforced by the repository's conditional insert, not by read-then-write
// here; the replay guard makes each QR token consumable exactly once.
type AttendanceService struct {
	attendance ports.AttendanceRepository
	guard      ports.ReplayGuard
	tokens     *TokenManager

	loc *time.Location
	now func() time.Time
}

func NewAttendanceService(attendanceRepo ports.AttendanceRepository, guard ports.ReplayGuard, tokens *TokenManager, timezone string) (*AttendanceService, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load gym timezone %q: %w", timezone, err)
	}
	return &AttendanceService{
		attendance: attendanceRepo,
		guard:      guard,
		tokens:     tokens,
		loc:        loc,
		now:        time.Now,
	}, nil
}

func (s *AttendanceService) day(t time.Time) string {
	return t.In(s.loc).Format("2006-01-02")
}

// GenerateCheckInQR mints a short-lived single-use token and renders it as a
// PNG the client can display for the front-desk scanner.
func (s *AttendanceService) GenerateCheckInQR(ctx context.Context, userID uuid.UUID, role domain.Role) (*CheckInQR, error) {
	token, expiresAt, err := s.tokens.IssueCheckInQR(userID, role)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(token, qrcode.Medium, qrImageSize)
	if err != nil {
		return nil, err
	}
	return &CheckInQR{Token: token, PNG: png, ExpiresAt: expiresAt}, nil
}

// CheckIn consumes a scanned QR token. The token is burned before the record
// is created, so a token that reached the create step never works twice; a
// check-in rejected with ErrAlreadyCheckedIn needs a fresh code.
func (s *AttendanceService) CheckIn(ctx context.Context, token string) (*domain.Attendance, error) {
	claims, err := s.tokens.ParseKind(token, TokenKindQR)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, ErrExpiredQR
		}
		return nil, ErrInvalidQR
	}

	fresh, err := s.guard.Consume(ctx, claims.ID, claims.ExpiresAt.Time)
	if err != nil {
		return nil, err
	}
	if !fresh {
		return nil, ErrReplayedQR
	}

	now := s.now()
	record, err := s.attendance.CreateIfNoOpen(ctx, ports.AttendanceCreate{
		UserID:      claims.UserID,
		Day:         s.day(now),
		CheckInTime: now,
		Method:      domain.AttendanceMethodQR,
	})
	if err != nil {
		if errors.Is(err, ports.ErrOpenRecordExists) {
			return nil, ErrAlreadyCheckedIn
		}
		return nil, err
	}
	return record, nil
}

// ForceCheckIn lets staff or a manager check a member in without a code. If
// the member already has an open record it is closed at the force time and
// replaced by a fresh forced record, so a stale open session cannot block the
// override.
func (s *AttendanceService) ForceCheckIn(ctx context.Context, userID, actorID uuid.UUID, actorRole domain.Role) (*domain.Attendance, error) {
	if actorRole != domain.RoleStaff && actorRole != domain.RoleManager {
		return nil, ErrForceNotAllowed
	}

	now := s.now()
	create := ports.AttendanceCreate{
		UserID:      userID,
		Day:         s.day(now),
		CheckInTime: now,
		Method:      domain.AttendanceMethodForced,
		RecordedBy:  &actorID,
	}

	record, err := s.attendance.CreateIfNoOpen(ctx, create)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, ports.ErrOpenRecordExists) {
		return nil, err
	}

	open, err := s.attendance.FindOpenByUser(ctx, userID)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	if open != nil {
		if _, err := s.attendance.CloseAttendance(ctx, open.ID, now); err != nil && !isNotFound(err) {
			return nil, err
		}
	}

	record, err = s.attendance.CreateIfNoOpen(ctx, create)
	if err != nil {
		if errors.Is(err, ports.ErrOpenRecordExists) {
			// Lost the race against a concurrent check-in twice; give up
			// rather than loop.
			return nil, ErrAlreadyCheckedIn
		}
		return nil, err
	}
	return record, nil
}

// ManualEntry records a front-desk check-in for members without the app.
// Unlike ForceCheckIn it does not displace an open record.
func (s *AttendanceService) ManualEntry(ctx context.Context, userID, actorID uuid.UUID, actorRole domain.Role) (*domain.Attendance, error) {
	if actorRole != domain.RoleStaff && actorRole != domain.RoleManager {
		return nil, ErrForceNotAllowed
	}

	now := s.now()
	record, err := s.attendance.CreateIfNoOpen(ctx, ports.AttendanceCreate{
		UserID:      userID,
		Day:         s.day(now),
		CheckInTime: now,
		Method:      domain.AttendanceMethodManual,
		RecordedBy:  &actorID,
	})
	if err != nil {
		if errors.Is(err, ports.ErrOpenRecordExists) {
			return nil, ErrAlreadyCheckedIn
		}
		return nil, err
	}
	return record, nil
}

func (s *AttendanceService) CheckOut(ctx context.Context, userID uuid.UUID) (*domain.Attendance, error) {
	open, err := s.attendance.FindOpenByUser(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotCheckedIn
		}
		return nil, err
	}

	closed, err := s.attendance.CloseAttendance(ctx, open.ID, s.now())
	if err != nil {
		if isNotFound(err) {
			// Someone closed it between the read and the update.
			return nil, ErrNotCheckedIn
		}
		return nil, err
	}
	return closed, nil
}

func (s *AttendanceService) CurrentlyCheckedIn(ctx context.Context) ([]domain.Attendance, error) {
	return s.attendance.ListOpen(ctx)
}

func (s *AttendanceService) TodayAttendance(ctx context.Context) ([]domain.Attendance, error) {
	return s.attendance.ListByDay(ctx, s.day(s.now()))
}

func (s *AttendanceService) Stats(ctx context.Context, fromDay, toDay string) (*domain.AttendanceStats, error) {
	today := s.day(s.now())
	if fromDay == "" {
		fromDay = today
	}
	if toDay == "" {
		toDay = today
	}
	for _, day := range []string{fromDay, toDay} {
		if _, err := time.ParseInLocation("2006-01-02", day, s.loc); err != nil {
			return nil, fmt.Errorf("%w: got %q", ErrInvalidDay, day)
		}
	}
	if fromDay > toDay {
		fromDay, toDay = toDay, fromDay
	}
	return s.attendance.StatsByRange(ctx, fromDay, toDay)
}

func (s *AttendanceService) UserHistory(ctx context.Context, userID uuid.UUID, fromDay, toDay string, limit, offset int) ([]domain.Attendance, error) {
	today := s.day(s.now())
	if toDay == "" {
		toDay = today
	}
	if fromDay == "" {
		fromDay = s.day(s.now().AddDate(0, -1, 0))
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.attendance.ListByUser(ctx, userID, fromDay, toDay, limit, offset)
}

type AttendanceStatus struct {
	UserID uuid.UUID              `json:"user_id"`
	Day    string                 `json:"day"`
	State  domain.AttendanceState `json:"state"`
	Record *domain.Attendance     `json:"record,omitempty"`
}

// Status reports the state-machine position for the current calendar day. A
// new day resets the state to NOT_CHECKED_IN regardless of yesterday's
// records.
func (s *AttendanceService) Status(ctx context.Context, userID uuid.UUID) (*AttendanceStatus, error) {
	today := s.day(s.now())
	status := &AttendanceStatus{UserID: userID, Day: today, State: domain.AttendanceStateNotCheckedIn}

	open, err := s.attendance.FindOpenByUser(ctx, userID)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	if open != nil {
		status.State = domain.AttendanceStateCheckedIn
		status.Record = open
		return status, nil
	}

	latest, err := s.attendance.FindLatestByUserDay(ctx, userID, today)
	if err != nil {
		if isNotFound(err) {
			return status, nil
		}
		return nil, err
	}
	status.State = domain.AttendanceStateCheckedOut
	status.Record = latest
	return status, nil
}
