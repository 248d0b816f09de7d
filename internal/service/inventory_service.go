package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/gympoint/gympoint-backend/internal/domain"
	"github.com/gympoint/gympoint-backend/internal/repository/ports"
)

var (
	ErrSupplierValidation = errors.New("supplier validation failed")
	ErrSupplierNotFound   = errors.New("supplier not found")
	ErrItemValidation     = errors.New("inventory item validation failed")
	ErrItemNotFound       = errors.New("inventory item not found")
	ErrStockUnderflow     = errors.New("stock adjustment would go below zero")
)

type InventoryService struct {
	items     ports.InventoryRepository
	suppliers ports.SupplierRepository
}

func NewInventoryService(items ports.InventoryRepository, suppliers ports.SupplierRepository) *InventoryService {
	return &InventoryService{items: items, suppliers: suppliers}
}

func (s *InventoryService) CreateSupplier(ctx context.Context, supplier *domain.Supplier) (*domain.Supplier, error) {
	supplier.Name = strings.TrimSpace(supplier.Name)
	if supplier.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrSupplierValidation)
	}
	return s.suppliers.Create(ctx, supplier)
}

func (s *InventoryService) UpdateSupplier(ctx context.Context, supplier *domain.Supplier) (*domain.Supplier, error) {
	supplier.Name = strings.TrimSpace(supplier.Name)
	if supplier.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrSupplierValidation)
	}
	updated, err := s.suppliers.Update(ctx, supplier)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrSupplierNotFound
		}
		return nil, err
	}
	return updated, nil
}

func (s *InventoryService) ListSuppliers(ctx context.Context, limit, offset int) ([]domain.Supplier, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.suppliers.List(ctx, limit, offset)
}

func (s *InventoryService) DeleteSupplier(ctx context.Context, id uuid.UUID) error {
	return s.suppliers.Delete(ctx, id)
}

func (s *InventoryService) CreateItem(ctx context.Context, item *domain.InventoryItem) (*domain.InventoryItem, error) {
	if err := s.validateItem(ctx, item); err != nil {
		return nil, err
	}
	return s.items.Create(ctx, item)
}

func (s *InventoryService) UpdateItem(ctx context.Context, item *domain.InventoryItem) (*domain.InventoryItem, error) {
	if err := s.validateItem(ctx, item); err != nil {
		return nil, err
	}
	updated, err := s.items.Update(ctx, item)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return updated, nil
}

func (s *InventoryService) validateItem(ctx context.Context, item *domain.InventoryItem) error {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return fmt.Errorf("%w: name is required", ErrItemValidation)
	}
	if item.Stock < 0 || item.ReorderLevel < 0 || item.UnitPriceCents < 0 {
		return fmt.Errorf("%w: stock, reorder level and price must be non-negative", ErrItemValidation)
	}
	if item.SupplierID != nil {
		if _, err := s.suppliers.FindByID(ctx, *item.SupplierID); err != nil {
			if isNotFound(err) {
				return ErrSupplierNotFound
			}
			return err
		}
	}
	return nil
}

func (s *InventoryService) GetItem(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return item, nil
}

func (s *InventoryService) ListItems(ctx context.Context, category *string, limit, offset int) ([]domain.InventoryItem, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.items.List(ctx, category, limit, offset)
}

// AdjustStock applies a signed delta (restock or consumption). The underflow
// check happens in the database so concurrent adjustments stay consistent.
func (s *InventoryService) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*domain.InventoryItem, error) {
	item, err := s.items.AdjustStock(ctx, id, delta)
	if err != nil {
		switch {
		case errors.Is(err, ports.ErrInsufficientStock):
			return nil, ErrStockUnderflow
		case isNotFound(err):
			return nil, ErrItemNotFound
		default:
			return nil, err
		}
	}
	return item, nil
}

func (s *InventoryService) LowStockItems(ctx context.Context) ([]domain.InventoryItem, error) {
	return s.items.ListLowStock(ctx)
}

func (s *InventoryService) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return s.items.Delete(ctx, id)
}
