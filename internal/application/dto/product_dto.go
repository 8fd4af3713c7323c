package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto del catálogo.
type CreateProductRequest struct {
	SKU          string          `json:"sku" validate:"required,min=1,max=100"`
	Name         string          `json:"name" validate:"required,min=1,max=200"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	CostPerUnit  decimal.Decimal `json:"cost_per_unit"`
	MinimumLevel decimal.Decimal `json:"minimum_level"`
	MaximumLevel decimal.Decimal `json:"maximum_level"`
	ReorderPoint decimal.Decimal `json:"reorder_point"`
	UnitMeasure  string          `json:"unit_measure"`
}

// UpdateProductRequest entrada para actualizar un producto. Campos nil no cambian.
type UpdateProductRequest struct {
	Name         *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description  *string          `json:"description"`
	Price        *decimal.Decimal `json:"price"`
	CostPerUnit  *decimal.Decimal `json:"cost_per_unit"`
	MinimumLevel *decimal.Decimal `json:"minimum_level"`
	MaximumLevel *decimal.Decimal `json:"maximum_level"`
	ReorderPoint *decimal.Decimal `json:"reorder_point"`
	UnitMeasure  *string          `json:"unit_measure"`
	IsActive     *bool            `json:"is_active"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID           string          `json:"id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	CostPerUnit  decimal.Decimal `json:"cost_per_unit"`
	MinimumLevel decimal.Decimal `json:"minimum_level"`
	MaximumLevel decimal.Decimal `json:"maximum_level"`
	ReorderPoint decimal.Decimal `json:"reorder_point"`
	UnitMeasure  string          `json:"unit_measure"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
