package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockRecord es la unidad física de inventario: una fila por
// (producto, ubicación, lote). La ubicación es un identificador opaco
// (etiqueta libre o código de bodega, según la aplicación que embebe).
//
// Invariantes tras cada operación confirmada:
//   - Quantity >= 0
//   - 0 <= ReservedQuantity <= Quantity
//
// La fila nunca se borra: al llegar a cero queda como cubeta histórica y se
// reutiliza si el mismo lote/ubicación vuelve a recibir entradas.
type StockRecord struct {
	ID               string
	ProductID        string
	Location         string
	Batch            *string // lote opcional
	Quantity         decimal.Decimal
	ReservedQuantity decimal.Decimal
	CostPerUnit      decimal.Decimal // costo del lote, fijado al crear la fila
	ExpiryDate       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AvailableQuantity cantidad no reservada (Quantity - ReservedQuantity).
func (s *StockRecord) AvailableQuantity() decimal.Decimal {
	return s.Quantity.Sub(s.ReservedQuantity)
}

// TotalValue valor a costo de esta fila.
func (s *StockRecord) TotalValue() decimal.Decimal {
	return s.Quantity.Mul(s.CostPerUnit)
}

// IsExpired indica si el lote ya venció respecto a now.
func (s *StockRecord) IsExpired(now time.Time) bool {
	return s.ExpiryDate != nil && s.ExpiryDate.Before(now)
}

// IsExpiringSoon indica si el lote vence dentro de la ventana dada.
func (s *StockRecord) IsExpiringSoon(now time.Time, window time.Duration) bool {
	if s.ExpiryDate == nil || s.ExpiryDate.Before(now) {
		return false
	}
	return s.ExpiryDate.Sub(now) <= window
}
