package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gympoint/gympoint-backend/internal/domain"
	"github.com/gympoint/gympoint-backend/internal/repository/ports"
)

const paymentColumns = `id, user_id, membership_id, amount_cents, currency, status, gateway_ref, created_at, updated_at`

type PaymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepo(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	const query = `
        INSERT INTO payment (user_id, membership_id, amount_cents, currency, status)
        VALUES ($1, $2, $3, $4, 'pending')
        RETURNING ` + paymentColumns

	row := r.db.QueryRowxContext(ctx, query,
		payment.UserID, payment.MembershipID, payment.AmountCents, payment.Currency)
	var stored domain.Payment
	if err := row.StructScan(&stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *PaymentRepository) SetGatewayRef(ctx context.Context, id uuid.UUID, gatewayRef string) error {
	const query = `UPDATE payment SET gateway_ref = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, gatewayRef)
	return err
}

func (r *PaymentRepository) MarkCompleted(ctx context.Context, gatewayRef string) (*domain.Payment, error) {
	return r.settle(ctx, gatewayRef, domain.PaymentCompleted)
}

func (r *PaymentRepository) MarkFailed(ctx context.Context, gatewayRef string) (*domain.Payment, error) {
	return r.settle(ctx, gatewayRef, domain.PaymentFailed)
}

// settle flips a pending payment exactly once; the status guard in the WHERE
// clause makes duplicate webhook deliveries a no-op.
func (r *PaymentRepository) settle(ctx context.Context, gatewayRef string, status domain.PaymentStatus) (*domain.Payment, error) {
	const query = `
        UPDATE payment
        SET status = $2, updated_at = NOW()
        WHERE gateway_ref = $1 AND status = 'pending'
        RETURNING ` + paymentColumns

	row := r.db.QueryRowxContext(ctx, query, gatewayRef, status)
	var payment domain.Payment
	if err := row.StructScan(&payment); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			const lookup = `SELECT ` + paymentColumns + ` FROM payment WHERE gateway_ref = $1`
			var existing domain.Payment
			if findErr := r.db.GetContext(ctx, &existing, lookup, gatewayRef); findErr != nil {
				return nil, findErr
			}
			return nil, ports.ErrPaymentSettled
		}
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	const query = `SELECT ` + paymentColumns + ` FROM payment WHERE id = $1`
	var payment domain.Payment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Payment, error) {
	const query = `
        SELECT ` + paymentColumns + `
        FROM payment
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3
    `
	payments := []domain.Payment{}
	if err := r.db.SelectContext(ctx, &payments, query, userID, limit, offset); err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *PaymentRepository) RevenueCentsByRange(ctx context.Context, fromDay, toDay string) (int64, error) {
	const query = `
        SELECT COALESCE(SUM(amount_cents), 0)
        FROM payment
        WHERE status = 'completed' AND updated_at::date BETWEEN $1::date AND $2::date
    `
	var total int64
	if err := r.db.GetContext(ctx, &total, query, fromDay, toDay); err != nil {
		return 0, err
	}
	return total, nil
}
