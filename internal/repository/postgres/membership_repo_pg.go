package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gympoint/gympoint-backend/internal/domain"
)

const planColumns = `id, name, description, price_cents, duration_days, created_at, updated_at`
const membershipColumns = `id, user_id, plan_id, status, starts_at, ends_at, created_at, updated_at`

type MembershipPlanRepository struct {
	db *sqlx.DB
}

func NewMembershipPlanRepo(db *sqlx.DB) *MembershipPlanRepository {
	return &MembershipPlanRepository{db: db}
}

func (r *MembershipPlanRepository) Create(ctx context.Context, plan *domain.MembershipPlan) (*domain.MembershipPlan, error) {
	const query = `
        INSERT INTO membership_plan (name, description, price_cents, duration_days)
        VALUES ($1, $2, $3, $4)
        RETURNING ` + planColumns

	row := r.db.QueryRowxContext(ctx, query, plan.Name, plan.Description, plan.PriceCents, plan.DurationDays)
	var stored domain.MembershipPlan
	if err := row.StructScan(&stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *MembershipPlanRepository) Update(ctx context.Context, plan *domain.MembershipPlan) (*domain.MembershipPlan, error) {
	const query = `
        UPDATE membership_plan
        SET name = $2, description = $3, price_cents = $4, duration_days = $5, updated_at = NOW()
        WHERE id = $1
        RETURNING ` + planColumns

	row := r.db.QueryRowxContext(ctx, query, plan.ID, plan.Name, plan.Description, plan.PriceCents, plan.DurationDays)
	var stored domain.MembershipPlan
	if err := row.StructScan(&stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *MembershipPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.MembershipPlan, error) {
	const query = `SELECT ` + planColumns + ` FROM membership_plan WHERE id = $1`
	var plan domain.MembershipPlan
	if err := r.db.GetContext(ctx, &plan, query, id); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *MembershipPlanRepository) List(ctx context.Context) ([]domain.MembershipPlan, error) {
	const query = `SELECT ` + planColumns + ` FROM membership_plan ORDER BY price_cents ASC`
	plans := []domain.MembershipPlan{}
	if err := r.db.SelectContext(ctx, &plans, query); err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *MembershipPlanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM membership_plan WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

type MembershipRepository struct {
	db *sqlx.DB
}

func NewMembershipRepo(db *sqlx.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) Create(ctx context.Context, userID, planID uuid.UUID, status domain.MembershipStatus) (*domain.Membership, error) {
	const query = `
        INSERT INTO membership (user_id, plan_id, status)
        VALUES ($1, $2, $3)
        RETURNING ` + membershipColumns

	row := r.db.QueryRowxContext(ctx, query, userID, planID, status)
	var membership domain.Membership
	if err := row.StructScan(&membership); err != nil {
		return nil, err
	}
	return &membership, nil
}

func (r *MembershipRepository) Activate(ctx context.Context, id uuid.UUID, startsAt, endsAt time.Time) (*domain.Membership, error) {
	const query = `
        UPDATE membership
        SET status = 'active', starts_at = $2, ends_at = $3, updated_at = NOW()
        WHERE id = $1
        RETURNING ` + membershipColumns

	row := r.db.QueryRowxContext(ctx, query, id, startsAt, endsAt)
	var membership domain.Membership
	if err := row.StructScan(&membership); err != nil {
		return nil, err
	}
	return &membership, nil
}

func (r *MembershipRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Membership, error) {
	const query = `SELECT ` + membershipColumns + ` FROM membership WHERE id = $1`
	var membership domain.Membership
	if err := r.db.GetContext(ctx, &membership, query, id); err != nil {
		return nil, err
	}
	return &membership, nil
}

func (r *MembershipRepository) FindActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.Membership, error) {
	const query = `
        SELECT ` + membershipColumns + `
        FROM membership
        WHERE user_id = $1 AND status = 'active' AND ends_at > $2
        ORDER BY ends_at DESC
        LIMIT 1
    `
	var membership domain.Membership
	if err := r.db.GetContext(ctx, &membership, query, userID, now); err != nil {
		return nil, err
	}
	return &membership, nil
}

func (r *MembershipRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Membership, error) {
	const query = `
        SELECT ` + membershipColumns + `
        FROM membership
        WHERE user_id = $1
        ORDER BY created_at DESC
    `
	memberships := []domain.Membership{}
	if err := r.db.SelectContext(ctx, &memberships, query, userID); err != nil {
		return nil, err
	}
	return memberships, nil
}

func (r *MembershipRepository) CountActive(ctx context.Context, now time.Time) (int64, error) {
	const query = `SELECT COUNT(*) FROM membership WHERE status = 'active' AND ends_at > $1`
	var count int64
	if err := r.db.GetContext(ctx, &count, query, now); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *MembershipRepository) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	const query = `
        UPDATE membership SET status = 'expired', updated_at = NOW()
        WHERE status = 'active' AND ends_at <= $1
    `
	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
