package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AddStockRequest body para POST /api/inventory/add.
type AddStockRequest struct {
	ProductID  string           `json:"product_id" validate:"required"`
	Location   string           `json:"location" validate:"required"`
	Quantity   decimal.Decimal  `json:"quantity"`
	Batch      *string          `json:"batch,omitempty"`
	UnitCost   *decimal.Decimal `json:"unit_cost,omitempty"`
	ExpiryDate *time.Time       `json:"expiry_date,omitempty"`
	Reason     string           `json:"reason,omitempty"`
	Reference  string           `json:"reference,omitempty"`
	Notes      string           `json:"notes,omitempty"`
}

// RemoveStockRequest body para POST /api/inventory/remove.
type RemoveStockRequest struct {
	ProductID       string          `json:"product_id" validate:"required"`
	Location        string          `json:"location" validate:"required"`
	Quantity        decimal.Decimal `json:"quantity"`
	Reason          string          `json:"reason,omitempty"`
	Reference       string          `json:"reference,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	CheckUnreserved bool            `json:"check_unreserved,omitempty"`
}

// AdjustStockRequest body para POST /api/inventory/adjust.
type AdjustStockRequest struct {
	ProductID string           `json:"product_id" validate:"required"`
	Location  string           `json:"location" validate:"required"`
	Delta     decimal.Decimal  `json:"delta"`
	Batch     *string          `json:"batch,omitempty"`
	UnitCost  *decimal.Decimal `json:"unit_cost,omitempty"`
	Reason    string           `json:"reason,omitempty"`
	Reference string           `json:"reference,omitempty"`
	Notes     string           `json:"notes,omitempty"`
}

// TransferStockRequest body para POST /api/inventory/transfer.
type TransferStockRequest struct {
	ProductID    string          `json:"product_id" validate:"required"`
	FromLocation string          `json:"from_location" validate:"required"`
	ToLocation   string          `json:"to_location" validate:"required"`
	Quantity     decimal.Decimal `json:"quantity"`
	Reference    string          `json:"reference,omitempty"`
	Notes        string          `json:"notes,omitempty"`
}

// ReserveStockRequest body para POST /api/inventory/reserve y /release.
type ReserveStockRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Location  string          `json:"location" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	Reference string          `json:"reference,omitempty"`
}

// MovementResponse salida de un movimiento del ledger.
type MovementResponse struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"product_id"`
	StockRecordID string          `json:"stock_record_id"`
	ActorID       string          `json:"actor_id"`
	Type          string          `json:"type"`
	Reason        string          `json:"reason"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	LocationFrom  *string         `json:"location_from,omitempty"`
	LocationTo    *string         `json:"location_to,omitempty"`
	Reference     string          `json:"reference,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// StockRecordResponse salida de una fila de stock.
type StockRecordResponse struct {
	ID                string          `json:"id"`
	ProductID         string          `json:"product_id"`
	Location          string          `json:"location"`
	Batch             *string         `json:"batch,omitempty"`
	Quantity          decimal.Decimal `json:"quantity"`
	ReservedQuantity  decimal.Decimal `json:"reserved_quantity"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
	CostPerUnit       decimal.Decimal `json:"cost_per_unit"`
	ExpiryDate        *time.Time      `json:"expiry_date,omitempty"`
}

// LocationStockResponse desglose por ubicación.
type LocationStockResponse struct {
	Location      string          `json:"location"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	BatchCount    int             `json:"batch_count"`
}

// StockLevelResponse nivel agregado de un producto (bajo stock / sobrestock).
type StockLevelResponse struct {
	ProductID     string          `json:"product_id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	ReorderPoint  decimal.Decimal `json:"reorder_point"`
	MaximumLevel  decimal.Decimal `json:"maximum_level"`
}

// ValuationResponse valuación del inventario.
type ValuationResponse struct {
	CostValuation    decimal.Decimal `json:"cost_valuation"`
	SellingValuation decimal.Decimal `json:"selling_valuation"`
	PotentialProfit  decimal.Decimal `json:"potential_profit"`
	ProfitMarginPct  decimal.Decimal `json:"profit_margin_pct"`
}

// DashboardSummary agregado para el tablero.
type DashboardSummary struct {
	Valuation         ValuationResponse `json:"valuation"`
	LowStockCount     int               `json:"low_stock_count"`
	ExpiringSoonCount int               `json:"expiring_soon_count"`
}
