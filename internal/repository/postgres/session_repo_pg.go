package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gympoint/gympoint-backend/internal/domain"
)

type SessionRepository struct {
	db *sqlx.DB
}

func NewSessionRepo(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) CreateSession(ctx context.Context, id, userID uuid.UUID, tokenHash []byte, expiresAt time.Time) (*domain.Session, error) {
	const query = `
        INSERT INTO sessions (id, user_id, token_hash, expires_at, is_active)
        VALUES ($1, $2, $3, $4, true)
        RETURNING id, user_id, token_hash, created_at, expires_at, is_active
    `
	row := r.db.QueryRowxContext(ctx, query, id, userID, tokenHash, expiresAt)
	var session domain.Session
	if err := row.StructScan(&session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) DeactivateSession(ctx context.Context, id uuid.UUID) error {
	const query = `
        UPDATE sessions SET is_active = false, expires_at = NOW()
        WHERE id = $1 AND is_active = true
    `
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *SessionRepository) DeactivateByUser(ctx context.Context, userID uuid.UUID) error {
	const query = `
        UPDATE sessions SET is_active = false, expires_at = NOW()
        WHERE user_id = $1 AND is_active = true
    `
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

func (r *SessionRepository) FindActiveSession(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	const query = `
        SELECT id, user_id, token_hash, created_at, expires_at, is_active
        FROM sessions
        WHERE id = $1 AND is_active = true AND expires_at > NOW()
    `
	var session domain.Session
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}
