package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/gympoint/gympoint-backend/internal/domain"
	"github.com/gympoint/gympoint-backend/internal/repository/ports"
)

const bookingColumns = `id, class_id, user_id, class_day, status, created_at, updated_at`

// BookingRepository relies on the partial unique index
//
//	CREATE UNIQUE INDEX class_booking_one_active
//	    ON class_booking (class_id, user_id, class_day) WHERE status = 'booked';
//
// for duplicate detection; the capacity gate is the INSERT ... SELECT guard.
type BookingRepository struct {
	db *sqlx.DB
}

func NewBookingRepo(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) CreateIfCapacity(ctx context.Context, classID, userID uuid.UUID, classDay string, capacity int) (*domain.Booking, error) {
	const query = `
        INSERT INTO class_booking (class_id, user_id, class_day, status)
        SELECT $1, $2, $3, 'booked'
        WHERE (
            SELECT COUNT(*) FROM class_booking
            WHERE class_id = $1 AND class_day = $3 AND status = 'booked'
        ) < $4
        RETURNING ` + bookingColumns

	row := r.db.QueryRowxContext(ctx, query, classID, userID, classDay, capacity)
	var booking domain.Booking
	if err := row.StructScan(&booking); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ports.ErrDuplicateBooking
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ports.ErrCapacityReached
		}
		return nil, err
	}
	return &booking, nil
}

func (r *BookingRepository) Cancel(ctx context.Context, id, userID uuid.UUID) (*domain.Booking, error) {
	const query = `
        UPDATE class_booking
        SET status = 'cancelled', updated_at = NOW()
        WHERE id = $1 AND user_id = $2 AND status = 'booked'
        RETURNING ` + bookingColumns

	row := r.db.QueryRowxContext(ctx, query, id, userID)
	var booking domain.Booking
	if err := row.StructScan(&booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *BookingRepository) MarkAttended(ctx context.Context, id uuid.UUID) error {
	const query = `
        UPDATE class_booking SET status = 'attended', updated_at = NOW()
        WHERE id = $1 AND status = 'booked'
    `
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *BookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	const query = `SELECT ` + bookingColumns + ` FROM class_booking WHERE id = $1`
	var booking domain.Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Booking, error) {
	const query = `
        SELECT ` + bookingColumns + `
        FROM class_booking
        WHERE user_id = $1
        ORDER BY class_day DESC, created_at DESC
        LIMIT $2 OFFSET $3
    `
	bookings := []domain.Booking{}
	if err := r.db.SelectContext(ctx, &bookings, query, userID, limit, offset); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *BookingRepository) ListByClassDay(ctx context.Context, classID uuid.UUID, classDay string) ([]domain.Booking, error) {
	const query = `
        SELECT ` + bookingColumns + `
        FROM class_booking
        WHERE class_id = $1 AND class_day = $2 AND status <> 'cancelled'
        ORDER BY created_at ASC
    `
	bookings := []domain.Booking{}
	if err := r.db.SelectContext(ctx, &bookings, query, classID, classDay); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *BookingRepository) CountActive(ctx context.Context, classID uuid.UUID, classDay string) (int64, error) {
	const query = `
        SELECT COUNT(*) FROM class_booking
        WHERE class_id = $1 AND class_day = $2 AND status = 'booked'
    `
	var count int64
	if err := r.db.GetContext(ctx, &count, query, classID, classDay); err != nil {
		return 0, err
	}
	return count, nil
}
