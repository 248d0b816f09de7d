package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gympoint/gympoint-backend/internal/domain"
	"github.com/gympoint/gympoint-backend/internal/repository/ports"
)

type fakeAttendanceRepo struct {
	createInputs []ports.AttendanceCreate
	createErrs   []error

	openResult *domain.Attendance
	openErr    error
	openList   []domain.Attendance

	closeIDs    []uuid.UUID
	closeResult *domain.Attendance
	closeErr    error

	latestResult *domain.Attendance
	latestErr    error

	statsFrom   string
	statsTo     string
	statsResult *domain.AttendanceStats

	historyFrom   string
	historyTo     string
	historyLimit  int
	historyOffset int
}

func (f *fakeAttendanceRepo) CreateIfNoOpen(_ context.Context, rec ports.AttendanceCreate) (*domain.Attendance, error) {
	f.createInputs = append(f.createInputs, rec)
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &domain.Attendance{
		ID:          uuid.New(),
		UserID:      rec.UserID,
		Day:         rec.Day,
		CheckInTime: rec.CheckInTime,
		Method:      rec.Method,
		RecordedBy:  rec.RecordedBy,
	}, nil
}

func (f *fakeAttendanceRepo) FindOpenByUser(_ context.Context, userID uuid.UUID) (*domain.Attendance, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.openResult, nil
}

func (f *fakeAttendanceRepo) CloseAttendance(_ context.Context, id uuid.UUID, checkOutTime time.Time) (*domain.Attendance, error) {
	f.closeIDs = append(f.closeIDs, id)
	if f.closeErr != nil {
		return nil, f.closeErr
	}
	if f.closeResult != nil {
		return f.closeResult, nil
	}
	return &domain.Attendance{ID: id, CheckOutTime: &checkOutTime}, nil
}

func (f *fakeAttendanceRepo) ListOpen(_ context.Context) ([]domain.Attendance, error) {
	return f.openList, nil
}

func (f *fakeAttendanceRepo) ListByDay(_ context.Context, _ string) ([]domain.Attendance, error) {
	return nil, nil
}

func (f *fakeAttendanceRepo) ListByUser(_ context.Context, _ uuid.UUID, fromDay, toDay string, limit, offset int) ([]domain.Attendance, error) {
	f.historyFrom = fromDay
	f.historyTo = toDay
	f.historyLimit = limit
	f.historyOffset = offset
	return nil, nil
}

func (f *fakeAttendanceRepo) StatsByRange(_ context.Context, fromDay, toDay string) (*domain.AttendanceStats, error) {
	f.statsFrom = fromDay
	f.statsTo = toDay
	if f.statsResult != nil {
		return f.statsResult, nil
	}
	return &domain.AttendanceStats{From: fromDay, To: toDay}, nil
}

func (f *fakeAttendanceRepo) FindLatestByUserDay(_ context.Context, _ uuid.UUID, _ string) (*domain.Attendance, error) {
	if f.latestErr != nil {
		return nil, f.latestErr
	}
	return f.latestResult, nil
}

type fakeReplayGuard struct {
	tokenIDs []string
	fresh    bool
	err      error
}

func (f *fakeReplayGuard) Consume(_ context.Context, tokenID string, _ time.Time) (bool, error) {
	f.tokenIDs = append(f.tokenIDs, tokenID)
	if f.err != nil {
		return false, f.err
	}
	return f.fresh, nil
}

func newTestAttendanceService(t *testing.T, repo *fakeAttendanceRepo, guard *fakeReplayGuard) *AttendanceService {
	t.Helper()
	svc, err := NewAttendanceService(repo, guard, newTestTokenManager(t), "UTC")
	if err != nil {
		t.Fatalf("NewAttendanceService: %v", err)
	}
	svc.now = func() time.Time { return time.Date(2026, 3, 2, 7, 30, 0, 0, time.UTC) }
	return svc
}

func TestCheckInConsumesTokenAndCreatesRecord(t *testing.T) {
	repo := &fakeAttendanceRepo{}
	guard := &fakeReplayGuard{fresh: true}
	svc := newTestAttendanceService(t, repo, guard)

	token, _, err := svc.tokens.IssueCheckInQR(uuid.New(), domain.RoleMember)
	if err != nil {
		t.Fatalf("IssueCheckInQR: %v", err)
	}

	record, err := svc.CheckIn(context.Background(), token)
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if record.Method != domain.AttendanceMethodQR {
		t.Errorf("method = %v, want %v", record.Method, domain.AttendanceMethodQR)
	}
	if record.Day != "2026-03-02" {
		t.Errorf("day = %q, want 2026-03-02", record.Day)
	}
	if len(guard.tokenIDs) != 1 || guard.tokenIDs[0] == "" {
		t.Fatalf("expected exactly one consumed token id, got %v", guard.tokenIDs)
	}
}

func TestCheckInRejectsReplayedToken(t *testing.T) {
	repo := &fakeAttendanceRepo{}
	guard := &fakeReplayGuard{fresh: false}
	svc := newTestAttendanceService(t, repo, guard)

	token, _, err := svc.tokens.IssueCheckInQR(uuid.New(), domain.RoleMember)
	if err != nil {
		t.Fatalf("IssueCheckInQR: %v", err)
	}

	if _, err := svc.CheckIn(context.Background(), token); !errors.Is(err, ErrReplayedQR) {
		t.Fatalf("expected ErrReplayedQR, got %v", err)
	}
	if len(repo.createInputs) != 0 {
		t.Fatal("a replayed token must not reach the repository")
	}
}

func TestCheckInExpiredToken(t *testing.T) {
	repo := &fakeAttendanceRepo{}
	guard := &fakeReplayGuard{fresh: true}
	svc := newTestAttendanceService(t, repo, guard)

	issuedAt := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	svc.tokens.now = func() time.Time { return issuedAt }
	token, _, err := svc.tokens.IssueCheckInQR(uuid.New(), domain.RoleMember)
	if err != nil {
		t.Fatalf("IssueCheckInQR: %v", err)
	}
	svc.tokens.now = func() time.Time { return issuedAt.Add(10 * time.Minute) }

	if _, err := svc.CheckIn(context.Background(), token); !errors.Is(err, ErrExpiredQR) {
		t.Fatalf("expected ErrExpiredQR, got %v", err)
	}
	if len(guard.tokenIDs) != 0 {
		t.Fatal("an expired token must not be consumed")
	}
}

func TestCheckInRejectsWrongTokenKind(t *testing.T) {
	svc := newTestAttendanceService(t, &fakeAttendanceRepo{}, &fakeReplayGuard{fresh: true})

	access, _, err := svc.tokens.IssueAccess(uuid.New(), uuid.New(), domain.RoleMember)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := svc.CheckIn(context.Background(), access); !errors.Is(err, ErrInvalidQR) {
		t.Fatalf("expected ErrInvalidQR for an access token, got %v", err)
	}
	if _, err := svc.CheckIn(context.Background(), "garbage"); !errors.Is(err, ErrInvalidQR) {
		t.Fatalf("expected ErrInvalidQR for garbage, got %v", err)
	}
}

func TestCheckInWhileAlreadyCheckedIn(t *testing.T) {
	repo := &fakeAttendanceRepo{createErrs: []error{ports.ErrOpenRecordExists}}
	guard := &fakeReplayGuard{fresh: true}
	svc := newTestAttendanceService(t, repo, guard)

	token, _, err := svc.tokens.IssueCheckInQR(uuid.New(), domain.RoleMember)
	if err != nil {
		t.Fatalf("IssueCheckInQR: %v", err)
	}

	if _, err := svc.CheckIn(context.Background(), token); !errors.Is(err, ErrAlreadyCheckedIn) {
		t.Fatalf("expected ErrAlreadyCheckedIn, got %v", err)
	}
	// The token is burned even when the check-in is rejected.
	if len(guard.tokenIDs) != 1 {
		t.Fatalf("expected the token to be consumed, got %d consumes", len(guard.tokenIDs))
	}
}

func TestCheckOutWithoutOpenRecord(t *testing.T) {
	repo := &fakeAttendanceRepo{openErr: sql.ErrNoRows}
	svc := newTestAttendanceService(t, repo, &fakeReplayGuard{})

	if _, err := svc.CheckOut(context.Background(), uuid.New()); !errors.Is(err, ErrNotCheckedIn) {
		t.Fatalf("expected ErrNotCheckedIn, got %v", err)
	}
	if len(repo.closeIDs) != 0 {
		t.Fatal("nothing should be closed without an open record")
	}
}

func TestCheckOutClosesOpenRecord(t *testing.T) {
	open := &domain.Attendance{ID: uuid.New(), UserID: uuid.New()}
	repo := &fakeAttendanceRepo{openResult: open}
	svc := newTestAttendanceService(t, repo, &fakeReplayGuard{})

	closed, err := svc.CheckOut(context.Background(), open.UserID)
	if err != nil {
		t.Fatalf("CheckOut: %v", err)
	}
	if closed.CheckOutTime == nil {
		t.Fatal("expected the record to carry a check-out time")
	}
	if len(repo.closeIDs) != 1 || repo.closeIDs[0] != open.ID {
		t.Fatalf("closed ids = %v, want [%v]", repo.closeIDs, open.ID)
	}
}

func TestForceCheckInRequiresDeskRole(t *testing.T) {
	repo := &fakeAttendanceRepo{}
	svc := newTestAttendanceService(t, repo, &fakeReplayGuard{})

	for _, role := range []domain.Role{domain.RoleMember, domain.RoleTrainer} {
		if _, err := svc.ForceCheckIn(context.Background(), uuid.New(), uuid.New(), role); !errors.Is(err, ErrForceNotAllowed) {
			t.Fatalf("role %v: expected ErrForceNotAllowed, got %v", role, err)
		}
	}
	if len(repo.createInputs) != 0 {
		t.Fatal("a forbidden actor must not reach the repository")
	}
}

func TestForceCheckInDisplacesOpenRecord(t *testing.T) {
	open := &domain.Attendance{ID: uuid.New(), UserID: uuid.New()}
	repo := &fakeAttendanceRepo{
		createErrs: []error{ports.ErrOpenRecordExists},
		openResult: open,
	}
	svc := newTestAttendanceService(t, repo, &fakeReplayGuard{})
	actor := uuid.New()

	record, err := svc.ForceCheckIn(context.Background(), open.UserID, actor, domain.RoleStaff)
	if err != nil {
		t.Fatalf("ForceCheckIn: %v", err)
	}
	if len(repo.closeIDs) != 1 || repo.closeIDs[0] != open.ID {
		t.Fatalf("expected the stale open record %v to be closed, got %v", open.ID, repo.closeIDs)
	}
	if record.Method != domain.AttendanceMethodForced {
		t.Errorf("method = %v, want %v", record.Method, domain.AttendanceMethodForced)
	}
	if record.RecordedBy == nil || *record.RecordedBy != actor {
		t.Errorf("recorded_by = %v, want %v", record.RecordedBy, actor)
	}
	if len(repo.createInputs) != 2 {
		t.Fatalf("expected a retry after displacement, got %d create calls", len(repo.createInputs))
	}
}

func TestForceCheckInGivesUpAfterOneRetry(t *testing.T) {
	repo := &fakeAttendanceRepo{
		createErrs: []error{ports.ErrOpenRecordExists, ports.ErrOpenRecordExists},
		openResult: &domain.Attendance{ID: uuid.New()},
	}
	svc := newTestAttendanceService(t, repo, &fakeReplayGuard{})

	if _, err := svc.ForceCheckIn(context.Background(), uuid.New(), uuid.New(), domain.RoleManager); !errors.Is(err, ErrAlreadyCheckedIn) {
		t.Fatalf("expected ErrAlreadyCheckedIn after losing the race twice, got %v", err)
	}
	if len(repo.createInputs) != 2 {
		t.Fatalf("expected exactly two create attempts, got %d", len(repo.createInputs))
	}
}

func TestManualEntryDoesNotDisplace(t *testing.T) {
	repo := &fakeAttendanceRepo{createErrs: []error{ports.ErrOpenRecordExists}}
	svc := newTestAttendanceService(t, repo, &fakeReplayGuard{})

	if _, err := svc.ManualEntry(context.Background(), uuid.New(), uuid.New(), domain.RoleStaff); !errors.Is(err, ErrAlreadyCheckedIn) {
		t.Fatalf("expected ErrAlreadyCheckedIn, got %v", err)
	}
	if len(repo.closeIDs) != 0 {
		t.Fatal("manual entry must not close an existing open record")
	}
	if len(repo.createInputs) != 1 || repo.createInputs[0].Method != domain.AttendanceMethodManual {
		t.Fatalf("create inputs = %+v, want one manual entry", repo.createInputs)
	}
}

func TestStatusTransitions(t *testing.T) {
	userID := uuid.New()

	t.Run("not checked in", func(t *testing.T) {
		repo := &fakeAttendanceRepo{openErr: sql.ErrNoRows, latestErr: sql.ErrNoRows}
		svc := newTestAttendanceService(t, repo, &fakeReplayGuard{})
		status, err := svc.Status(context.Background(), userID)
		if err != nil {
			t.Fatalf("Status: %v", err)
		}
		if status.State != domain.AttendanceStateNotCheckedIn {
			t.Fatalf("state = %v, want %v", status.State, domain.AttendanceStateNotCheckedIn)
		}
	})

	t.Run("checked in", func(t *testing.T) {
		open := &domain.Attendance{ID: uuid.New(), UserID: userID}
		repo := &fakeAttendanceRepo{openResult: open}
		svc := newTestAttendanceService(t, repo, &fakeReplayGuard{})
		status, err := svc.Status(context.Background(), userID)
		if err != nil {
			t.Fatalf("Status: %v", err)
		}
		if status.State != domain.AttendanceStateCheckedIn || status.Record != open {
			t.Fatalf("status = %+v, want CHECKED_IN with the open record", status)
		}
	})

	t.Run("checked out resets next day", func(t *testing.T) {
		closedAt := time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)
		closed := &domain.Attendance{ID: uuid.New(), UserID: userID, Day: "2026-03-02", CheckOutTime: &closedAt}
		repo := &fakeAttendanceRepo{openErr: sql.ErrNoRows, latestResult: closed}
		svc := newTestAttendanceService(t, repo, &fakeReplayGuard{})

		status, err := svc.Status(context.Background(), userID)
		if err != nil {
			t.Fatalf("Status: %v", err)
		}
		if status.State != domain.AttendanceStateCheckedOut {
			t.Fatalf("state = %v, want %v", status.State, domain.AttendanceStateCheckedOut)
		}

		// Same records, next calendar day: yesterday's visit no longer counts.
		repo.latestResult = nil
		repo.latestErr = sql.ErrNoRows
		svc.now = func() time.Time { return time.Date(2026, 3, 3, 6, 0, 0, 0, time.UTC) }
		status, err = svc.Status(context.Background(), userID)
		if err != nil {
			t.Fatalf("Status: %v", err)
		}
		if status.State != domain.AttendanceStateNotCheckedIn {
			t.Fatalf("state = %v, want a fresh day to reset to NOT_CHECKED_IN", status.State)
		}
	})
}

func TestStatsValidatesAndOrdersRange(t *testing.T) {
	repo := &fakeAttendanceRepo{}
	svc := newTestAttendanceService(t, repo, &fakeReplayGuard{})

	if _, err := svc.Stats(context.Background(), "03/02/2026", ""); !errors.Is(err, ErrInvalidDay) {
		t.Fatalf("expected ErrInvalidDay, got %v", err)
	}

	if _, err := svc.Stats(context.Background(), "2026-03-02", "2026-02-01"); err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if repo.statsFrom != "2026-02-01" || repo.statsTo != "2026-03-02" {
		t.Fatalf("range = %q..%q, want a reversed range to be swapped", repo.statsFrom, repo.statsTo)
	}

	if _, err := svc.Stats(context.Background(), "", ""); err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if repo.statsFrom != "2026-03-02" || repo.statsTo != "2026-03-02" {
		t.Fatalf("range = %q..%q, want both bounds to default to today", repo.statsFrom, repo.statsTo)
	}
}

func TestUserHistoryDefaults(t *testing.T) {
	repo := &fakeAttendanceRepo{}
	svc := newTestAttendanceService(t, repo, &fakeReplayGuard{})

	if _, err := svc.UserHistory(context.Background(), uuid.New(), "", "", 0, -3); err != nil {
		t.Fatalf("UserHistory: %v", err)
	}
	if repo.historyFrom != "2026-02-02" || repo.historyTo != "2026-03-02" {
		t.Fatalf("range = %q..%q, want the trailing month", repo.historyFrom, repo.historyTo)
	}
	if repo.historyLimit != 50 || repo.historyOffset != 0 {
		t.Fatalf("pagination = %d/%d, want defaults 50/0", repo.historyLimit, repo.historyOffset)
	}
}
