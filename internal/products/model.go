package products

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID                int64           `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Brand             string          `json:"brand"`
	Model             string          `json:"model"`
	SKU               *string         `json:"sku,omitempty"`
	Category          string          `json:"category"`
	Price             decimal.Decimal `json:"price"`
	Stock             int             `json:"stock"`
	WarehouseStock    int             `json:"warehouse_stock"`
	MinimumStock      int             `json:"minimum_stock"`
	WarehouseLocation string          `json:"warehouse_location"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// BelowMinimum reports whether the warehouse needs restocking.
func (p Product) BelowMinimum() bool { return p.WarehouseStock < p.MinimumStock }

const DefaultMinimumStock = 5

type CreateInput struct {
	Name              string          `json:"name" validate:"required,max=255"`
	Description       string          `json:"description"`
	Brand             string          `json:"brand" validate:"max=100"`
	Model             string          `json:"model" validate:"max=100"`
	SKU               *string         `json:"sku" validate:"omitempty,max=64"`
	Category          string          `json:"category" validate:"required,max=100"`
	Price             decimal.Decimal `json:"price" validate:"gte=0"`
	Stock             int             `json:"stock" validate:"gte=0"`
	WarehouseStock    int             `json:"warehouse_stock" validate:"gte=0"`
	MinimumStock      *int            `json:"minimum_stock" validate:"omitempty,gte=0"`
	WarehouseLocation string          `json:"warehouse_location" validate:"max=100"`
}

// UpdateInput is partial: nil fields keep their stored value.
type UpdateInput struct {
	Name              *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Description       *string          `json:"description"`
	Brand             *string          `json:"brand" validate:"omitempty,max=100"`
	Model             *string          `json:"model" validate:"omitempty,max=100"`
	SKU               *string          `json:"sku" validate:"omitempty,max=64"`
	Category          *string          `json:"category" validate:"omitempty,min=1,max=100"`
	Price             *decimal.Decimal `json:"price" validate:"omitempty,gte=0"`
	Stock             *int             `json:"stock" validate:"omitempty,gte=0"`
	WarehouseStock    *int             `json:"warehouse_stock" validate:"omitempty,gte=0"`
	MinimumStock      *int             `json:"minimum_stock" validate:"omitempty,gte=0"`
	WarehouseLocation *string          `json:"warehouse_location" validate:"omitempty,max=100"`
}
