package domain

import (
	"time"

	"github.com/google/uuid"
)

type WorkoutLog struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Day       string    `db:"day" json:"day"`
	Exercise  string    `db:"exercise" json:"exercise"`
	Sets      int       `db:"sets" json:"sets"`
	Reps      int       `db:"reps" json:"reps"`
	WeightKG  *float64  `db:"weight_kg" json:"weight_kg,omitempty"`
	Notes     *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type NutritionLog struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Day       string    `db:"day" json:"day"`
	Meal      string    `db:"meal" json:"meal"`
	Calories  int       `db:"calories" json:"calories"`
	ProteinG  *float64  `db:"protein_g" json:"protein_g,omitempty"`
	CarbsG    *float64  `db:"carbs_g" json:"carbs_g,omitempty"`
	FatG      *float64  `db:"fat_g" json:"fat_g,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type ProgressEntry struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Day       string    `db:"day" json:"day"`
	WeightKG  *float64  `db:"weight_kg" json:"weight_kg,omitempty"`
	BodyFat   *float64  `db:"body_fat_pct" json:"body_fat_pct,omitempty"`
	PhotoURL  *string   `db:"photo_url" json:"photo_url,omitempty"`
	Notes     *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
