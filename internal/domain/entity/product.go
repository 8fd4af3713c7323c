package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto o SKU del catálogo. El ledger lo referencia
// (costo de referencia y niveles) pero nunca lo muta.
type Product struct {
	ID           string
	SKU          string // código único
	Name         string
	Description  string
	Price        decimal.Decimal // precio de venta
	CostPerUnit  decimal.Decimal // costo de referencia cuando un movimiento no trae costo explícito
	MinimumLevel decimal.Decimal
	MaximumLevel decimal.Decimal
	ReorderPoint decimal.Decimal
	UnitMeasure  string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProfitMarginPct margen bruto porcentual sobre el costo de referencia.
func (p *Product) ProfitMarginPct() decimal.Decimal {
	if p.CostPerUnit.IsZero() {
		return decimal.Zero
	}
	return p.Price.Sub(p.CostPerUnit).Div(p.CostPerUnit).Mul(decimal.NewFromInt(100))
}
