package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gympoint/gympoint-backend/internal/domain"
)

type SessionRepository interface {
	CreateSession(ctx context.Context, id, userID uuid.UUID, tokenHash []byte, expiresAt time.Time) (*domain.Session, error)
	DeactivateSession(ctx context.Context, id uuid.UUID) error
	DeactivateByUser(ctx context.Context, userID uuid.UUID) error
	FindActiveSession(ctx context.Context, id uuid.UUID) (*domain.Session, error)
}
