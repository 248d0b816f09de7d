package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// QRReplayRepository implements ports.ReplayGuard on a consumed_qr_tokens
// table (token_id primary key). The insert is the check-and-set: exactly one
// of two concurrent scans gets RowsAffected == 1.
type QRReplayRepository struct {
	db *sqlx.DB
}

func NewQRReplayRepo(db *sqlx.DB) *QRReplayRepository {
	return &QRReplayRepository{db: db}
}

func (r *QRReplayRepository) Consume(ctx context.Context, tokenID string, expiresAt time.Time) (bool, error) {
	// Expired rows are unreferencable (the token no longer verifies), so
	// pruning here keeps the table bounded without a background job.
	const prune = `DELETE FROM consumed_qr_tokens WHERE expires_at < NOW()`
	if _, err := r.db.ExecContext(ctx, prune); err != nil {
		return false, err
	}

	const query = `
        INSERT INTO consumed_qr_tokens (token_id, expires_at)
        VALUES ($1, $2)
        ON CONFLICT (token_id) DO NOTHING
    `
	result, err := r.db.ExecContext(ctx, query, tokenID, expiresAt)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
