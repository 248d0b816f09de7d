package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/gympoint/gympoint-backend/internal/domain"
)

type UserRepository interface {
	CreateEmailUser(ctx context.Context, email string, role domain.Role, passwordHash, passwordSalt []byte) (*domain.User, error)
	UpsertGoogleUser(ctx context.Context, email string, fullName *string, imageURL *string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, fullName *string, phone *string, imageURL *string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash, passwordSalt []byte) error
	UpdateRole(ctx context.Context, id uuid.UUID, role domain.Role) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	List(ctx context.Context, role *domain.Role, limit, offset int) ([]domain.User, error)
	CountByRole(ctx context.Context, role domain.Role) (int64, error)
}
