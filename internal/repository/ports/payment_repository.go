package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/gympoint/gympoint-backend/internal/domain"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) (*domain.Payment, error)
	SetGatewayRef(ctx context.Context, id uuid.UUID, gatewayRef string) error
	// MarkCompleted flips a pending payment to completed. Atomic on status;
	// a second webhook for the same payment returns ErrPaymentSettled.
	MarkCompleted(ctx context.Context, gatewayRef string) (*domain.Payment, error)
	MarkFailed(ctx context.Context, gatewayRef string) (*domain.Payment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Payment, error)
	RevenueCentsByRange(ctx context.Context, fromDay, toDay string) (int64, error)
}
