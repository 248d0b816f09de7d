package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/gympoint/gympoint-backend/internal/domain"
)

type LogbookRepository interface {
	CreateWorkout(ctx context.Context, log *domain.WorkoutLog) (*domain.WorkoutLog, error)
	ListWorkouts(ctx context.Context, userID uuid.UUID, fromDay, toDay string, limit, offset int) ([]domain.WorkoutLog, error)
	CreateNutrition(ctx context.Context, log *domain.NutritionLog) (*domain.NutritionLog, error)
	ListNutrition(ctx context.Context, userID uuid.UUID, fromDay, toDay string, limit, offset int) ([]domain.NutritionLog, error)
	CreateProgress(ctx context.Context, entry *domain.ProgressEntry) (*domain.ProgressEntry, error)
	ListProgress(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.ProgressEntry, error)
}
