package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/gympoint/gympoint-backend/internal/domain"
)

type SupplierRepository interface {
	Create(ctx context.Context, supplier *domain.Supplier) (*domain.Supplier, error)
	Update(ctx context.Context, supplier *domain.Supplier) (*domain.Supplier, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Supplier, error)
	List(ctx context.Context, limit, offset int) ([]domain.Supplier, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type InventoryRepository interface {
	Create(ctx context.Context, item *domain.InventoryItem) (*domain.InventoryItem, error)
	Update(ctx context.Context, item *domain.InventoryItem) (*domain.InventoryItem, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error)
	List(ctx context.Context, category *string, limit, offset int) ([]domain.InventoryItem, error)
	// AdjustStock applies delta to the item's stock, refusing to go below
	// zero. Atomic; returns ErrInsufficientStock when the delta would.
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*domain.InventoryItem, error)
	ListLowStock(ctx context.Context) ([]domain.InventoryItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
