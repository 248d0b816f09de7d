package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gympoint/gympoint-backend/internal/domain"
	"github.com/gympoint/gympoint-backend/internal/repository/ports"
)

var (
	ErrClassValidation  = errors.New("class validation failed")
	ErrClassNotFound    = errors.New("class not found")
	ErrClassFull        = errors.New("class occurrence is full")
	ErrAlreadyBooked    = errors.New("already booked for this class occurrence")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrClassNotThatDay  = errors.New("class does not run on that day")
	ErrBookingInThePast = errors.New("cannot book a past occurrence")
)

type ClassInput struct {
	Name        string
	Description *string
	TrainerID   uuid.UUID
	Capacity    int
	Weekdays    []int64
	StartTime   string
	EndTime     string
}

type ClassService struct {
	classes  ports.ClassRepository
	bookings ports.BookingRepository
	users    ports.UserRepository

	loc *time.Location
	now func() time.Time
}

func NewClassService(classes ports.ClassRepository, bookings ports.BookingRepository, users ports.UserRepository, timezone string) (*ClassService, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load gym timezone %q: %w", timezone, err)
	}
	return &ClassService{
		classes:  classes,
		bookings: bookings,
		users:    users,
		loc:      loc,
		now:      time.Now,
	}, nil
}

func validateClassInput(input ClassInput) error {
	if input.Name == "" {
		return fmt.Errorf("%w: name is required", ErrClassValidation)
	}
	if input.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive", ErrClassValidation)
	}
	if len(input.Weekdays) == 0 {
		return fmt.Errorf("%w: at least one weekday is required", ErrClassValidation)
	}
	for _, wd := range input.Weekdays {
		if wd < 0 || wd > 6 {
			return fmt.Errorf("%w: weekday %d out of range", ErrClassValidation, wd)
		}
	}
	for _, hhmm := range []string{input.StartTime, input.EndTime} {
		if _, err := time.Parse("15:04", hhmm); err != nil {
			return fmt.Errorf("%w: time %q must be HH:MM", ErrClassValidation, hhmm)
		}
	}
	if input.StartTime >= input.EndTime {
		return fmt.Errorf("%w: start time must precede end time", ErrClassValidation)
	}
	return nil
}

func (s *ClassService) Create(ctx context.Context, input ClassInput) (*domain.GymClass, error) {
	if err := validateClassInput(input); err != nil {
		return nil, err
	}
	trainer, err := s.users.FindByID(ctx, input.TrainerID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: trainer not found", ErrClassValidation)
		}
		return nil, err
	}
	if trainer.Role != domain.RoleTrainer {
		return nil, fmt.Errorf("%w: user %s is not a trainer", ErrClassValidation, trainer.ID)
	}

	return s.classes.Create(ctx, &domain.GymClass{
		Name:        input.Name,
		Description: input.Description,
		TrainerID:   input.TrainerID,
		Capacity:    input.Capacity,
		Weekdays:    input.Weekdays,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
	})
}

func (s *ClassService) Update(ctx context.Context, id uuid.UUID, input ClassInput) (*domain.GymClass, error) {
	if err := validateClassInput(input); err != nil {
		return nil, err
	}
	existing, err := s.classes.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}

	existing.Name = input.Name
	existing.Description = input.Description
	existing.TrainerID = input.TrainerID
	existing.Capacity = input.Capacity
	existing.Weekdays = input.Weekdays
	existing.StartTime = input.StartTime
	existing.EndTime = input.EndTime
	return s.classes.Update(ctx, existing)
}

func (s *ClassService) Get(ctx context.Context, id uuid.UUID) (*domain.GymClass, error) {
	class, err := s.classes.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}
	return class, nil
}

func (s *ClassService) List(ctx context.Context, activeOnly bool, limit, offset int) ([]domain.GymClass, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.classes.List(ctx, activeOnly, limit, offset)
}

func (s *ClassService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.classes.Deactivate(ctx, id)
}

// Book reserves a seat for one occurrence (class + day). Capacity and
// duplicate protection live in the repository's conditional insert so two
// concurrent bookings for the last seat cannot both win.
func (s *ClassService) Book(ctx context.Context, classID, userID uuid.UUID, classDay string) (*domain.Booking, error) {
	class, err := s.Get(ctx, classID)
	if err != nil {
		return nil, err
	}
	if !class.Active {
		return nil, ErrClassNotFound
	}

	day, err := time.ParseInLocation("2006-01-02", classDay, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: day %q must be YYYY-MM-DD", ErrClassValidation, classDay)
	}
	if !class.RunsOn(day.Weekday()) {
		return nil, ErrClassNotThatDay
	}
	if classDay < s.now().In(s.loc).Format("2006-01-02") {
		return nil, ErrBookingInThePast
	}

	booking, err := s.bookings.CreateIfCapacity(ctx, classID, userID, classDay, class.Capacity)
	if err != nil {
		switch {
		case errors.Is(err, ports.ErrCapacityReached):
			return nil, ErrClassFull
		case errors.Is(err, ports.ErrDuplicateBooking):
			return nil, ErrAlreadyBooked
		default:
			return nil, err
		}
	}
	return booking, nil
}

func (s *ClassService) CancelBooking(ctx context.Context, bookingID, userID uuid.UUID) (*domain.Booking, error) {
	booking, err := s.bookings.Cancel(ctx, bookingID, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}

// MarkAttended records that a booked member actually showed up. Only bookings
// still in the booked state can transition.
func (s *ClassService) MarkAttended(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	if err := s.bookings.MarkAttended(ctx, bookingID); err != nil {
		if isNotFound(err) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}

func (s *ClassService) MyBookings(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.bookings.ListByUser(ctx, userID, limit, offset)
}

func (s *ClassService) Roster(ctx context.Context, classID uuid.UUID, classDay string) ([]domain.Booking, error) {
	if _, err := s.Get(ctx, classID); err != nil {
		return nil, err
	}
	if _, err := time.ParseInLocation("2006-01-02", classDay, s.loc); err != nil {
		return nil, fmt.Errorf("%w: day %q must be YYYY-MM-DD", ErrClassValidation, classDay)
	}
	return s.bookings.ListByClassDay(ctx, classID, classDay)
}
