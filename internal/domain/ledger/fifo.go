// Package ledger contiene los servicios de dominio del motor de inventario:
// la estrategia de asignación FIFO que decide de qué filas de stock se
// descuenta (o se reserva) una cantidad solicitada.
package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// Allocation un par (fila, cantidad a descontar) del plan de asignación.
type Allocation struct {
	Record *entity.StockRecord
	Amount decimal.Decimal
}

// SortFIFO ordena filas por antigüedad: created_at ascendente y, a igual
// timestamp, id ascendente (orden de inserción estable).
func SortFIFO(records []*entity.StockRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
}

// AllocateFIFO arma el plan de descuento sobre las filas dadas, consumiendo
// primero la más antigua. Las filas se consumen contra Quantity cruda; el
// control de reservas es responsabilidad del caller (ver AllocateReserve).
//
// Devuelve InsufficientStockError si la suma de Quantity de las filas no
// alcanza; en ese caso no debe aplicarse ningún descuento parcial.
func AllocateFIFO(records []*entity.StockRecord, quantity decimal.Decimal) ([]Allocation, error) {
	if !quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	available := decimal.Zero
	for _, r := range records {
		available = available.Add(r.Quantity)
	}
	if available.LessThan(quantity) {
		return nil, insufficient(records, available, quantity)
	}

	SortFIFO(records)
	var plan []Allocation
	remaining := quantity
	for _, r := range records {
		if !remaining.GreaterThan(decimal.Zero) {
			break
		}
		if !r.Quantity.GreaterThan(decimal.Zero) {
			continue
		}
		amount := decimal.Min(r.Quantity, remaining)
		plan = append(plan, Allocation{Record: r, Amount: amount})
		remaining = remaining.Sub(amount)
	}
	return plan, nil
}

// AllocateReserve arma el plan de reserva FIFO: consume capacidad no reservada
// (Quantity - ReservedQuantity) por fila, sin tocar Quantity, de modo que la
// cota ReservedQuantity <= Quantity se preserva fila a fila.
//
// Devuelve InsufficientStockError si la capacidad no reservada total no alcanza.
func AllocateReserve(records []*entity.StockRecord, quantity decimal.Decimal) ([]Allocation, error) {
	if !quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	unreserved := decimal.Zero
	for _, r := range records {
		unreserved = unreserved.Add(r.AvailableQuantity())
	}
	if unreserved.LessThan(quantity) {
		return nil, insufficient(records, unreserved, quantity)
	}

	SortFIFO(records)
	var plan []Allocation
	remaining := quantity
	for _, r := range records {
		if !remaining.GreaterThan(decimal.Zero) {
			break
		}
		capacity := r.AvailableQuantity()
		if !capacity.GreaterThan(decimal.Zero) {
			continue
		}
		amount := decimal.Min(capacity, remaining)
		plan = append(plan, Allocation{Record: r, Amount: amount})
		remaining = remaining.Sub(amount)
	}
	return plan, nil
}

func insufficient(records []*entity.StockRecord, available, requested decimal.Decimal) error {
	e := &domain.InsufficientStockError{Available: available, Requested: requested}
	if len(records) > 0 {
		e.ProductID = records[0].ProductID
		e.Location = records[0].Location
	}
	return e
}
