package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gympoint/gympoint-backend/internal/domain"
	"github.com/gympoint/gympoint-backend/internal/repository/ports"
)

const attendanceColumns = `id, user_id, day, check_in_time, check_out_time, method, recorded_by, created_at`

// AttendanceRepository relies on the partial unique index
//
//	CREATE UNIQUE INDEX attendance_one_open
//	    ON attendance (user_id) WHERE check_out_time IS NULL;
//
// so the one-open-record invariant holds even under concurrent check-ins.
type AttendanceRepository struct {
	db *sqlx.DB
}

func NewAttendanceRepo(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

func (r *AttendanceRepository) CreateIfNoOpen(ctx context.Context, rec ports.AttendanceCreate) (*domain.Attendance, error) {
	const query = `
        INSERT INTO attendance (user_id, day, check_in_time, method, recorded_by)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (user_id) WHERE check_out_time IS NULL DO NOTHING
        RETURNING ` + attendanceColumns

	row := r.db.QueryRowxContext(ctx, query, rec.UserID, rec.Day, rec.CheckInTime, rec.Method, rec.RecordedBy)
	var record domain.Attendance
	if err := row.StructScan(&record); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ports.ErrOpenRecordExists
		}
		return nil, err
	}
	return &record, nil
}

func (r *AttendanceRepository) FindOpenByUser(ctx context.Context, userID uuid.UUID) (*domain.Attendance, error) {
	const query = `
        SELECT ` + attendanceColumns + `
        FROM attendance
        WHERE user_id = $1 AND check_out_time IS NULL
    `
	var record domain.Attendance
	if err := r.db.GetContext(ctx, &record, query, userID); err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *AttendanceRepository) CloseAttendance(ctx context.Context, id uuid.UUID, checkOutTime time.Time) (*domain.Attendance, error) {
	const query = `
        UPDATE attendance
        SET check_out_time = $2
        WHERE id = $1 AND check_out_time IS NULL
        RETURNING ` + attendanceColumns

	row := r.db.QueryRowxContext(ctx, query, id, checkOutTime)
	var record domain.Attendance
	if err := row.StructScan(&record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *AttendanceRepository) ListOpen(ctx context.Context) ([]domain.Attendance, error) {
	const query = `
        SELECT ` + attendanceColumns + `
        FROM attendance
        WHERE check_out_time IS NULL
        ORDER BY check_in_time ASC
    `
	records := []domain.Attendance{}
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *AttendanceRepository) ListByDay(ctx context.Context, day string) ([]domain.Attendance, error) {
	const query = `
        SELECT ` + attendanceColumns + `
        FROM attendance
        WHERE day = $1
        ORDER BY check_in_time ASC
    `
	records := []domain.Attendance{}
	if err := r.db.SelectContext(ctx, &records, query, day); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *AttendanceRepository) ListByUser(ctx context.Context, userID uuid.UUID, fromDay, toDay string, limit, offset int) ([]domain.Attendance, error) {
	const query = `
        SELECT ` + attendanceColumns + `
        FROM attendance
        WHERE user_id = $1 AND day BETWEEN $2 AND $3
        ORDER BY check_in_time DESC
        LIMIT $4 OFFSET $5
    `
	records := []domain.Attendance{}
	if err := r.db.SelectContext(ctx, &records, query, userID, fromDay, toDay, limit, offset); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *AttendanceRepository) StatsByRange(ctx context.Context, fromDay, toDay string) (*domain.AttendanceStats, error) {
	const totalsQuery = `
        SELECT
            COUNT(*) AS total,
            COUNT(*) FILTER (WHERE check_out_time IS NULL) AS open,
            COUNT(DISTINCT user_id) AS unique_users
        FROM attendance
        WHERE day BETWEEN $1 AND $2
    `
	var totals struct {
		Total       int64 `db:"total"`
		Open        int64 `db:"open"`
		UniqueUsers int64 `db:"unique_users"`
	}
	if err := r.db.GetContext(ctx, &totals, totalsQuery, fromDay, toDay); err != nil {
		return nil, err
	}

	const methodsQuery = `
        SELECT method, COUNT(*) AS count
        FROM attendance
        WHERE day BETWEEN $1 AND $2 AND method = ANY($3)
        GROUP BY method
    `
	methods := pq.StringArray{
		string(domain.AttendanceMethodQR),
		string(domain.AttendanceMethodManual),
		string(domain.AttendanceMethodForced),
	}
	rows, err := r.db.QueryxContext(ctx, methodsQuery, fromDay, toDay, methods)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byMethod := make(map[string]int64)
	for rows.Next() {
		var method string
		var count int64
		if err := rows.Scan(&method, &count); err != nil {
			return nil, err
		}
		byMethod[method] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &domain.AttendanceStats{
		From:        fromDay,
		To:          toDay,
		Total:       totals.Total,
		Open:        totals.Open,
		Closed:      totals.Total - totals.Open,
		ByMethod:    byMethod,
		UniqueUsers: totals.UniqueUsers,
	}, nil
}

func (r *AttendanceRepository) FindLatestByUserDay(ctx context.Context, userID uuid.UUID, day string) (*domain.Attendance, error) {
	const query = `
        SELECT ` + attendanceColumns + `
        FROM attendance
        WHERE user_id = $1 AND day = $2
        ORDER BY check_in_time DESC
        LIMIT 1
    `
	var record domain.Attendance
	if err := r.db.GetContext(ctx, &record, query, userID, day); err != nil {
		return nil, err
	}
	return &record, nil
}
