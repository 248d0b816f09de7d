package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gympoint/gympoint-backend/internal/domain"
)

type reportFixture struct {
	svc         *ReportService
	attendance  *fakeAttendanceRepo
	memberships *fakeMembershipRepo
	payments    *fakePaymentRepo
	users       *fakeUserRepo
	items       *fakeInventoryRepo
	classes     *fakeClassRepo
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()
	f := &reportFixture{
		attendance:  &fakeAttendanceRepo{},
		memberships: newFakeMembershipRepo(),
		payments:    newFakePaymentRepo(),
		users:       newFakeUserRepo(),
		items:       &fakeInventoryRepo{},
		classes:     newFakeClassRepo(),
	}
	svc, err := NewReportService(f.attendance, f.memberships, f.payments, f.users, f.items, f.classes, "UTC")
	if err != nil {
		t.Fatalf("NewReportService: %v", err)
	}
	svc.now = func() time.Time { return time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC) }
	f.svc = svc
	return f
}

func TestDashboardAggregates(t *testing.T) {
	f := newReportFixture(t)
	f.attendance.openList = []domain.Attendance{{ID: uuid.New()}, {ID: uuid.New()}}
	f.memberships.countActive = 42
	f.users.countByRole = 120
	f.payments.revenueCents = 250000
	f.items.lowStock = []domain.InventoryItem{{Name: "Chalk", Stock: 1, ReorderLevel: 5}}
	// 2026-03-02 is a Monday; only the Monday class should make today's list.
	f.classes.add(&domain.GymClass{Name: "HIIT", Weekdays: []int64{1}, Active: true})
	f.classes.add(&domain.GymClass{Name: "Spin", Weekdays: []int64{2}, Active: true})

	report, err := f.svc.Dashboard(context.Background(), "", "")
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if report.CurrentlyInGym != 2 {
		t.Errorf("currently in gym = %d, want 2", report.CurrentlyInGym)
	}
	if report.ActiveMemberships != 42 {
		t.Errorf("active memberships = %d, want 42", report.ActiveMemberships)
	}
	if report.TotalMembers != 120 {
		t.Errorf("total members = %d, want 120", report.TotalMembers)
	}
	if report.RevenueCents != 250000 {
		t.Errorf("revenue = %d, want 250000", report.RevenueCents)
	}
	if len(report.LowStockItems) != 1 {
		t.Errorf("low stock items = %d, want 1", len(report.LowStockItems))
	}
	if len(report.TodayClasses) != 1 || report.TodayClasses[0].Name != "HIIT" {
		t.Errorf("today's classes = %+v, want only the Monday class", report.TodayClasses)
	}
	if report.FromDay != "2026-01-31" || report.ToDay != "2026-03-02" {
		t.Errorf("range = %q..%q, want the trailing 30 days", report.FromDay, report.ToDay)
	}
	if f.memberships.expireCalls != 1 {
		t.Fatalf("expire calls = %d, want lapsed memberships expired before counting", f.memberships.expireCalls)
	}
}

func TestDashboardRejectsBadRange(t *testing.T) {
	f := newReportFixture(t)

	if _, err := f.svc.Dashboard(context.Background(), "last week", ""); !errors.Is(err, ErrInvalidDay) {
		t.Fatalf("expected ErrInvalidDay, got %v", err)
	}
}

func TestDashboardSwapsReversedRange(t *testing.T) {
	f := newReportFixture(t)

	report, err := f.svc.Dashboard(context.Background(), "2026-03-01", "2026-02-01")
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if report.FromDay != "2026-02-01" || report.ToDay != "2026-03-01" {
		t.Errorf("range = %q..%q, want a reversed range swapped", report.FromDay, report.ToDay)
	}
}
