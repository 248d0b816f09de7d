package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gympoint/gympoint-backend/internal/domain"
)

type LogbookRepository struct {
	db *sqlx.DB
}

func NewLogbookRepo(db *sqlx.DB) *LogbookRepository {
	return &LogbookRepository{db: db}
}

func (r *LogbookRepository) CreateWorkout(ctx context.Context, log *domain.WorkoutLog) (*domain.WorkoutLog, error) {
	const query = `
        INSERT INTO workout_log (user_id, day, exercise, sets, reps, weight_kg, notes)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, user_id, day, exercise, sets, reps, weight_kg, notes, created_at
    `
	row := r.db.QueryRowxContext(ctx, query,
		log.UserID, log.Day, log.Exercise, log.Sets, log.Reps, log.WeightKG, log.Notes)
	var stored domain.WorkoutLog
	if err := row.StructScan(&stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *LogbookRepository) ListWorkouts(ctx context.Context, userID uuid.UUID, fromDay, toDay string, limit, offset int) ([]domain.WorkoutLog, error) {
	const query = `
        SELECT id, user_id, day, exercise, sets, reps, weight_kg, notes, created_at
        FROM workout_log
        WHERE user_id = $1 AND day BETWEEN $2 AND $3
        ORDER BY day DESC, created_at DESC
        LIMIT $4 OFFSET $5
    `
	logs := []domain.WorkoutLog{}
	if err := r.db.SelectContext(ctx, &logs, query, userID, fromDay, toDay, limit, offset); err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *LogbookRepository) CreateNutrition(ctx context.Context, log *domain.NutritionLog) (*domain.NutritionLog, error) {
	const query = `
        INSERT INTO nutrition_log (user_id, day, meal, calories, protein_g, carbs_g, fat_g)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, user_id, day, meal, calories, protein_g, carbs_g, fat_g, created_at
    `
	row := r.db.QueryRowxContext(ctx, query,
		log.UserID, log.Day, log.Meal, log.Calories, log.ProteinG, log.CarbsG, log.FatG)
	var stored domain.NutritionLog
	if err := row.StructScan(&stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *LogbookRepository) ListNutrition(ctx context.Context, userID uuid.UUID, fromDay, toDay string, limit, offset int) ([]domain.NutritionLog, error) {
	const query = `
        SELECT id, user_id, day, meal, calories, protein_g, carbs_g, fat_g, created_at
        FROM nutrition_log
        WHERE user_id = $1 AND day BETWEEN $2 AND $3
        ORDER BY day DESC, created_at DESC
        LIMIT $4 OFFSET $5
    `
	logs := []domain.NutritionLog{}
	if err := r.db.SelectContext(ctx, &logs, query, userID, fromDay, toDay, limit, offset); err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *LogbookRepository) CreateProgress(ctx context.Context, entry *domain.ProgressEntry) (*domain.ProgressEntry, error) {
	const query = `
        INSERT INTO progress_entry (user_id, day, weight_kg, body_fat_pct, photo_url, notes)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, user_id, day, weight_kg, body_fat_pct, photo_url, notes, created_at
    `
	row := r.db.QueryRowxContext(ctx, query,
		entry.UserID, entry.Day, entry.WeightKG, entry.BodyFat, entry.PhotoURL, entry.Notes)
	var stored domain.ProgressEntry
	if err := row.StructScan(&stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *LogbookRepository) ListProgress(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.ProgressEntry, error) {
	const query = `
        SELECT id, user_id, day, weight_kg, body_fat_pct, photo_url, notes, created_at
        FROM progress_entry
        WHERE user_id = $1
        ORDER BY day DESC, created_at DESC
        LIMIT $2 OFFSET $3
    `
	entries := []domain.ProgressEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, userID, limit, offset); err != nil {
		return nil, err
	}
	return entries, nil
}
