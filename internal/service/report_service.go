package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gympoint/gympoint-backend/internal/domain"
	"github.com/gympoint/gympoint-backend/internal/repository/ports"
)

// DashboardReport aggregates the numbers the manager dashboard renders.
type DashboardReport struct {
	Day               string                  `json:"day"`
	FromDay           string                  `json:"from_day"`
	ToDay             string                  `json:"to_day"`
	Attendance        *domain.AttendanceStats `json:"attendance"`
	CurrentlyInGym    int                     `json:"currently_in_gym"`
	ActiveMemberships int64                   `json:"active_memberships"`
	TotalMembers      int64                   `json:"total_members"`
	RevenueCents      int64                   `json:"revenue_cents"`
	LowStockItems     []domain.InventoryItem  `json:"low_stock_items"`
	TodayClasses      []domain.GymClass       `json:"today_classes"`
}

type ReportService struct {
	attendance  ports.AttendanceRepository
	memberships ports.MembershipRepository
	payments    ports.PaymentRepository
	users       ports.UserRepository
	items       ports.InventoryRepository
	classes     ports.ClassRepository

	loc *time.Location
	now func() time.Time
}

func NewReportService(
	attendance ports.AttendanceRepository,
	memberships ports.MembershipRepository,
	payments ports.PaymentRepository,
	users ports.UserRepository,
	items ports.InventoryRepository,
	classes ports.ClassRepository,
	timezone string,
) (*ReportService, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &ReportService{
		attendance:  attendance,
		memberships: memberships,
		payments:    payments,
		users:       users,
		items:       items,
		classes:     classes,
		loc:         loc,
		now:         time.Now,
	}, nil
}

// Dashboard builds the aggregate report for a day range. Empty bounds default
// to the last 30 days ending today. Lapsed memberships are expired first so
// the active count reflects reality, not stale status rows.
func (s *ReportService) Dashboard(ctx context.Context, fromDay, toDay string) (*DashboardReport, error) {
	now := s.now()
	today := now.In(s.loc).Format("2006-01-02")
	if toDay == "" {
		toDay = today
	}
	if fromDay == "" {
		fromDay = now.In(s.loc).AddDate(0, 0, -30).Format("2006-01-02")
	}
	for _, day := range []string{fromDay, toDay} {
		if _, err := time.Parse("2006-01-02", day); err != nil {
			return nil, fmt.Errorf("%w: range days must be YYYY-MM-DD", ErrInvalidDay)
		}
	}
	if toDay < fromDay {
		fromDay, toDay = toDay, fromDay
	}

	if _, err := s.memberships.ExpireLapsed(ctx, now); err != nil {
		return nil, err
	}

	stats, err := s.attendance.StatsByRange(ctx, fromDay, toDay)
	if err != nil {
		return nil, err
	}
	open, err := s.attendance.ListOpen(ctx)
	if err != nil {
		return nil, err
	}
	activeMemberships, err := s.memberships.CountActive(ctx, now)
	if err != nil {
		return nil, err
	}
	totalMembers, err := s.users.CountByRole(ctx, domain.RoleMember)
	if err != nil {
		return nil, err
	}
	revenue, err := s.payments.RevenueCentsByRange(ctx, fromDay, toDay)
	if err != nil {
		return nil, err
	}
	lowStock, err := s.items.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}

	active, err := s.classes.List(ctx, true, 100, 0)
	if err != nil {
		return nil, err
	}
	weekday := now.In(s.loc).Weekday()
	todayClasses := make([]domain.GymClass, 0, len(active))
	for _, class := range active {
		if class.RunsOn(weekday) {
			todayClasses = append(todayClasses, class)
		}
	}

	return &DashboardReport{
		Day:               today,
		FromDay:           fromDay,
		ToDay:             toDay,
		Attendance:        stats,
		CurrentlyInGym:    len(open),
		ActiveMemberships: activeMemberships,
		TotalMembers:      totalMembers,
		RevenueCents:      revenue,
		LowStockItems:     lowStock,
		TodayClasses:      todayClasses,
	}, nil
}
