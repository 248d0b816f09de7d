package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gympoint/gympoint-backend/internal/domain"
)

type PasswordResetRepository interface {
	Create(ctx context.Context, userID uuid.UUID, codeHash, codeSalt []byte, expiresAt time.Time) (*domain.PasswordReset, error)
	// FindActiveByUser returns the newest unconsumed, unexpired reset for the
	// user; sql.ErrNoRows when none is pending.
	FindActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.PasswordReset, error)
	MarkConsumed(ctx context.Context, id int64) error
	// ConsumeByUser retires every pending reset for the user, so issuing a
	// new code invalidates the old ones.
	ConsumeByUser(ctx context.Context, userID uuid.UUID) error
}
