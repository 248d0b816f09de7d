package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gympoint/gympoint-backend/internal/domain"
	"github.com/gympoint/gympoint-backend/internal/repository/ports"
)

const supplierColumns = `id, name, email, phone, address, created_at, updated_at`
const inventoryColumns = `id, name, category, stock, reorder_level, unit_price_cents, supplier_id, created_at, updated_at`

type SupplierRepository struct {
	db *sqlx.DB
}

func NewSupplierRepo(db *sqlx.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

func (r *SupplierRepository) Create(ctx context.Context, supplier *domain.Supplier) (*domain.Supplier, error) {
	const query = `
        INSERT INTO supplier (name, email, phone, address)
        VALUES ($1, $2, $3, $4)
        RETURNING ` + supplierColumns

	row := r.db.QueryRowxContext(ctx, query, supplier.Name, supplier.Email, supplier.Phone, supplier.Address)
	var stored domain.Supplier
	if err := row.StructScan(&stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *SupplierRepository) Update(ctx context.Context, supplier *domain.Supplier) (*domain.Supplier, error) {
	const query = `
        UPDATE supplier
        SET name = $2, email = $3, phone = $4, address = $5, updated_at = NOW()
        WHERE id = $1
        RETURNING ` + supplierColumns

	row := r.db.QueryRowxContext(ctx, query, supplier.ID, supplier.Name, supplier.Email, supplier.Phone, supplier.Address)
	var stored domain.Supplier
	if err := row.StructScan(&stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *SupplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Supplier, error) {
	const query = `SELECT ` + supplierColumns + ` FROM supplier WHERE id = $1`
	var supplier domain.Supplier
	if err := r.db.GetContext(ctx, &supplier, query, id); err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *SupplierRepository) List(ctx context.Context, limit, offset int) ([]domain.Supplier, error) {
	const query = `SELECT ` + supplierColumns + ` FROM supplier ORDER BY name ASC LIMIT $1 OFFSET $2`
	suppliers := []domain.Supplier{}
	if err := r.db.SelectContext(ctx, &suppliers, query, limit, offset); err != nil {
		return nil, err
	}
	return suppliers, nil
}

func (r *SupplierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM supplier WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type InventoryRepository struct {
	db *sqlx.DB
}

func NewInventoryRepo(db *sqlx.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

func (r *InventoryRepository) Create(ctx context.Context, item *domain.InventoryItem) (*domain.InventoryItem, error) {
	const query = `
        INSERT INTO inventory_item (name, category, stock, reorder_level, unit_price_cents, supplier_id)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING ` + inventoryColumns

	row := r.db.QueryRowxContext(ctx, query,
		item.Name, item.Category, item.Stock, item.ReorderLevel, item.UnitPriceCents, item.SupplierID)
	var stored domain.InventoryItem
	if err := row.StructScan(&stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *InventoryRepository) Update(ctx context.Context, item *domain.InventoryItem) (*domain.InventoryItem, error) {
	const query = `
        UPDATE inventory_item
        SET name = $2, category = $3, reorder_level = $4, unit_price_cents = $5,
            supplier_id = $6, updated_at = NOW()
        WHERE id = $1
        RETURNING ` + inventoryColumns

	row := r.db.QueryRowxContext(ctx, query,
		item.ID, item.Name, item.Category, item.ReorderLevel, item.UnitPriceCents, item.SupplierID)
	var stored domain.InventoryItem
	if err := row.StructScan(&stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *InventoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error) {
	const query = `SELECT ` + inventoryColumns + ` FROM inventory_item WHERE id = $1`
	var item domain.InventoryItem
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *InventoryRepository) List(ctx context.Context, category *string, limit, offset int) ([]domain.InventoryItem, error) {
	const query = `
        SELECT ` + inventoryColumns + `
        FROM inventory_item
        WHERE ($1::text IS NULL OR category = $1)
        ORDER BY name ASC
        LIMIT $2 OFFSET $3
    `
	items := []domain.InventoryItem{}
	if err := r.db.SelectContext(ctx, &items, query, category, limit, offset); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *InventoryRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*domain.InventoryItem, error) {
	const query = `
        UPDATE inventory_item
        SET stock = stock + $2, updated_at = NOW()
        WHERE id = $1 AND stock + $2 >= 0
        RETURNING ` + inventoryColumns

	row := r.db.QueryRowxContext(ctx, query, id, delta)
	var item domain.InventoryItem
	if err := row.StructScan(&item); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Disambiguate a missing item from an underflow.
			if _, findErr := r.FindByID(ctx, id); findErr != nil {
				return nil, findErr
			}
			return nil, ports.ErrInsufficientStock
		}
		return nil, err
	}
	return &item, nil
}

func (r *InventoryRepository) ListLowStock(ctx context.Context) ([]domain.InventoryItem, error) {
	const query = `
        SELECT ` + inventoryColumns + `
        FROM inventory_item
        WHERE stock <= reorder_level
        ORDER BY stock ASC
    `
	items := []domain.InventoryItem{}
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *InventoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM inventory_item WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
