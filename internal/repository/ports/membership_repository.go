package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gympoint/gympoint-backend/internal/domain"
)

type MembershipPlanRepository interface {
	Create(ctx context.Context, plan *domain.MembershipPlan) (*domain.MembershipPlan, error)
	Update(ctx context.Context, plan *domain.MembershipPlan) (*domain.MembershipPlan, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.MembershipPlan, error)
	List(ctx context.Context) ([]domain.MembershipPlan, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type MembershipRepository interface {
	Create(ctx context.Context, userID, planID uuid.UUID, status domain.MembershipStatus) (*domain.Membership, error)
	Activate(ctx context.Context, id uuid.UUID, startsAt, endsAt time.Time) (*domain.Membership, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Membership, error)
	FindActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.Membership, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Membership, error)
	CountActive(ctx context.Context, now time.Time) (int64, error)
	ExpireLapsed(ctx context.Context, now time.Time) (int64, error)
}
