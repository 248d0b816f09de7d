package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/gympoint/gympoint-backend/internal/domain"
)

type ClassRepository interface {
	Create(ctx context.Context, class *domain.GymClass) (*domain.GymClass, error)
	Update(ctx context.Context, class *domain.GymClass) (*domain.GymClass, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.GymClass, error)
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]domain.GymClass, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type BookingRepository interface {
	// CreateIfCapacity books a seat only while the class occurrence has
	// fewer active bookings than capacity. Atomic; returns
	// ErrCapacityReached when the class is full and ErrDuplicateBooking
	// when the user already holds an active booking for the occurrence.
	CreateIfCapacity(ctx context.Context, classID, userID uuid.UUID, classDay string, capacity int) (*domain.Booking, error)
	Cancel(ctx context.Context, id, userID uuid.UUID) (*domain.Booking, error)
	MarkAttended(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Booking, error)
	ListByClassDay(ctx context.Context, classID uuid.UUID, classDay string) ([]domain.Booking, error)
	CountActive(ctx context.Context, classID uuid.UUID, classDay string) (int64, error)
}
