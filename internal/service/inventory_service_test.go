package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/gympoint/gympoint-backend/internal/domain"
	"github.com/gympoint/gympoint-backend/internal/repository/ports"
)

type fakeSupplierRepo struct {
	byID map[uuid.UUID]*domain.Supplier

	created *domain.Supplier
}

func newFakeSupplierRepo() *fakeSupplierRepo {
	return &fakeSupplierRepo{byID: make(map[uuid.UUID]*domain.Supplier)}
}

func (f *fakeSupplierRepo) add(supplier *domain.Supplier) *domain.Supplier {
	if supplier.ID == uuid.Nil {
		supplier.ID = uuid.New()
	}
	f.byID[supplier.ID] = supplier
	return supplier
}

func (f *fakeSupplierRepo) Create(_ context.Context, supplier *domain.Supplier) (*domain.Supplier, error) {
	f.created = supplier
	return f.add(supplier), nil
}

func (f *fakeSupplierRepo) Update(_ context.Context, supplier *domain.Supplier) (*domain.Supplier, error) {
	if _, ok := f.byID[supplier.ID]; !ok {
		return nil, sql.ErrNoRows
	}
	f.byID[supplier.ID] = supplier
	return supplier, nil
}

func (f *fakeSupplierRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Supplier, error) {
	supplier, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return supplier, nil
}

func (f *fakeSupplierRepo) List(_ context.Context, _, _ int) ([]domain.Supplier, error) {
	return nil, nil
}

func (f *fakeSupplierRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.byID, id)
	return nil
}

type fakeInventoryRepo struct {
	adjustErr   error
	adjustID    uuid.UUID
	adjustDelta int

	lowStock []domain.InventoryItem
	created  *domain.InventoryItem
}

func (f *fakeInventoryRepo) Create(_ context.Context, item *domain.InventoryItem) (*domain.InventoryItem, error) {
	item.ID = uuid.New()
	f.created = item
	return item, nil
}

func (f *fakeInventoryRepo) Update(_ context.Context, item *domain.InventoryItem) (*domain.InventoryItem, error) {
	return item, nil
}

func (f *fakeInventoryRepo) FindByID(_ context.Context, _ uuid.UUID) (*domain.InventoryItem, error) {
	return nil, sql.ErrNoRows
}

func (f *fakeInventoryRepo) List(_ context.Context, _ *string, _, _ int) ([]domain.InventoryItem, error) {
	return nil, nil
}

func (f *fakeInventoryRepo) AdjustStock(_ context.Context, id uuid.UUID, delta int) (*domain.InventoryItem, error) {
	f.adjustID = id
	f.adjustDelta = delta
	if f.adjustErr != nil {
		return nil, f.adjustErr
	}
	return &domain.InventoryItem{ID: id, Stock: delta}, nil
}

func (f *fakeInventoryRepo) ListLowStock(_ context.Context) ([]domain.InventoryItem, error) {
	return f.lowStock, nil
}

func (f *fakeInventoryRepo) Delete(_ context.Context, _ uuid.UUID) error { return nil }

func TestCreateSupplierTrimsName(t *testing.T) {
	suppliers := newFakeSupplierRepo()
	svc := NewInventoryService(&fakeInventoryRepo{}, suppliers)

	supplier, err := svc.CreateSupplier(context.Background(), &domain.Supplier{Name: "  Iron Works  "})
	if err != nil {
		t.Fatalf("CreateSupplier: %v", err)
	}
	if supplier.Name != "Iron Works" {
		t.Errorf("name = %q, want it trimmed", supplier.Name)
	}

	if _, err := svc.CreateSupplier(context.Background(), &domain.Supplier{Name: "   "}); !errors.Is(err, ErrSupplierValidation) {
		t.Fatalf("expected ErrSupplierValidation for a blank name, got %v", err)
	}
}

func TestCreateItemValidation(t *testing.T) {
	suppliers := newFakeSupplierRepo()
	items := &fakeInventoryRepo{}
	svc := NewInventoryService(items, suppliers)

	for _, item := range []*domain.InventoryItem{
		{Name: "", Stock: 1},
		{Name: "Towels", Stock: -1},
		{Name: "Towels", ReorderLevel: -1},
		{Name: "Towels", UnitPriceCents: -1},
	} {
		if _, err := svc.CreateItem(context.Background(), item); !errors.Is(err, ErrItemValidation) {
			t.Fatalf("item %+v: expected ErrItemValidation, got %v", item, err)
		}
	}

	unknown := uuid.New()
	if _, err := svc.CreateItem(context.Background(), &domain.InventoryItem{Name: "Towels", SupplierID: &unknown}); !errors.Is(err, ErrSupplierNotFound) {
		t.Fatalf("expected ErrSupplierNotFound, got %v", err)
	}

	supplier := suppliers.add(&domain.Supplier{Name: "Iron Works"})
	item, err := svc.CreateItem(context.Background(), &domain.InventoryItem{Name: "Towels", Stock: 40, ReorderLevel: 10, SupplierID: &supplier.ID})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if item.ID == uuid.Nil {
		t.Fatal("expected the repository to assign an id")
	}
}

func TestAdjustStockUnderflow(t *testing.T) {
	items := &fakeInventoryRepo{adjustErr: ports.ErrInsufficientStock}
	svc := NewInventoryService(items, newFakeSupplierRepo())

	if _, err := svc.AdjustStock(context.Background(), uuid.New(), -5); !errors.Is(err, ErrStockUnderflow) {
		t.Fatalf("expected ErrStockUnderflow, got %v", err)
	}
	if items.adjustDelta != -5 {
		t.Fatalf("delta = %d, want -5 passed through", items.adjustDelta)
	}
}

func TestAdjustStockUnknownItem(t *testing.T) {
	items := &fakeInventoryRepo{adjustErr: sql.ErrNoRows}
	svc := NewInventoryService(items, newFakeSupplierRepo())

	if _, err := svc.AdjustStock(context.Background(), uuid.New(), 3); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestLowStockItems(t *testing.T) {
	items := &fakeInventoryRepo{lowStock: []domain.InventoryItem{
		{Name: "Chalk", Stock: 2, ReorderLevel: 5},
	}}
	svc := NewInventoryService(items, newFakeSupplierRepo())

	low, err := svc.LowStockItems(context.Background())
	if err != nil {
		t.Fatalf("LowStockItems: %v", err)
	}
	if len(low) != 1 || !low[0].LowStock() {
		t.Fatalf("low stock = %+v, want the chalk item", low)
	}
}
