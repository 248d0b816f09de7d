package domain

import (
	"time"

	"github.com/google/uuid"
)

type Supplier struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Address   *string   `db:"address" json:"address,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type InventoryItem struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	Name           string     `db:"name" json:"name"`
	Category       *string    `db:"category" json:"category,omitempty"`
	Stock          int        `db:"stock" json:"stock"`
	ReorderLevel   int        `db:"reorder_level" json:"reorder_level"`
	UnitPriceCents int64      `db:"unit_price_cents" json:"unit_price_cents"`
	SupplierID     *uuid.UUID `db:"supplier_id" json:"supplier_id,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

func (i *InventoryItem) LowStock() bool {
	return i.Stock <= i.ReorderLevel
}
