package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gympoint/gympoint-backend/internal/domain"
)

const classColumns = `id, name, description, trainer_id, capacity, weekdays, start_time, end_time, is_active, created_at, updated_at`

type ClassRepository struct {
	db *sqlx.DB
}

func NewClassRepo(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// classRow mirrors domain.GymClass with the weekdays array mapped through
// pq.Int64Array.
type classRow struct {
	domain.GymClass
	WeekdaysArr pq.Int64Array `db:"weekdays"`
}

func (row *classRow) toDomain() *domain.GymClass {
	class := row.GymClass
	class.Weekdays = []int64(row.WeekdaysArr)
	return &class
}

func (r *ClassRepository) Create(ctx context.Context, class *domain.GymClass) (*domain.GymClass, error) {
	const query = `
        INSERT INTO gym_class (name, description, trainer_id, capacity, weekdays, start_time, end_time)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING ` + classColumns

	row := r.db.QueryRowxContext(ctx, query,
		class.Name, class.Description, class.TrainerID, class.Capacity,
		pq.Int64Array(class.Weekdays), class.StartTime, class.EndTime)
	var stored classRow
	if err := row.StructScan(&stored); err != nil {
		return nil, err
	}
	return stored.toDomain(), nil
}

func (r *ClassRepository) Update(ctx context.Context, class *domain.GymClass) (*domain.GymClass, error) {
	const query = `
        UPDATE gym_class
        SET name = $2, description = $3, trainer_id = $4, capacity = $5,
            weekdays = $6, start_time = $7, end_time = $8, updated_at = NOW()
        WHERE id = $1
        RETURNING ` + classColumns

	row := r.db.QueryRowxContext(ctx, query,
		class.ID, class.Name, class.Description, class.TrainerID, class.Capacity,
		pq.Int64Array(class.Weekdays), class.StartTime, class.EndTime)
	var stored classRow
	if err := row.StructScan(&stored); err != nil {
		return nil, err
	}
	return stored.toDomain(), nil
}

func (r *ClassRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.GymClass, error) {
	const query = `SELECT ` + classColumns + ` FROM gym_class WHERE id = $1`
	var stored classRow
	if err := r.db.GetContext(ctx, &stored, query, id); err != nil {
		return nil, err
	}
	return stored.toDomain(), nil
}

func (r *ClassRepository) List(ctx context.Context, activeOnly bool, limit, offset int) ([]domain.GymClass, error) {
	const query = `
        SELECT ` + classColumns + `
        FROM gym_class
        WHERE NOT $1 OR is_active
        ORDER BY name ASC
        LIMIT $2 OFFSET $3
    `
	rows := []classRow{}
	if err := r.db.SelectContext(ctx, &rows, query, activeOnly, limit, offset); err != nil {
		return nil, err
	}
	classes := make([]domain.GymClass, 0, len(rows))
	for i := range rows {
		classes = append(classes, *rows[i].toDomain())
	}
	return classes, nil
}

func (r *ClassRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE gym_class SET is_active = false, updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
