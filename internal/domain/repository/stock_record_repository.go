package repository

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// LocationStock desglose de existencias de un producto por ubicación.
type LocationStock struct {
	Location      string
	TotalQuantity decimal.Decimal
	BatchCount    int
}

// ProductStockLevel total en existencia de un producto sumado sobre todas las
// ubicaciones, junto con el producto (para detección de bajo stock / sobrestock).
type ProductStockLevel struct {
	Product       entity.Product
	TotalQuantity decimal.Decimal
}

// ValuationTotals valuación del inventario completo a costo y a precio de venta.
type ValuationTotals struct {
	CostValuation    decimal.Decimal
	SellingValuation decimal.Decimal
}

// StockRecordRepository define el puerto de persistencia para StockRecord.
//
// Los métodos *ForUpdate bloquean las filas (SELECT FOR UPDATE) y solo tienen
// sentido dentro de una transacción: la verificación de disponibilidad y el
// descuento deben ocurrir bajo el mismo bloqueo de fila.
type StockRecordRepository interface {
	// GetForUpdate bloquea y devuelve la fila (producto, ubicación, lote);
	// nil si no existe.
	GetForUpdate(productID, location string, batch *string) (*entity.StockRecord, error)
	// GetByIDForUpdate bloquea y devuelve la fila por id; nil si no existe.
	GetByIDForUpdate(id string) (*entity.StockRecord, error)
	// ListForUpdate bloquea y devuelve todas las filas de un producto en una
	// ubicación, en orden FIFO (created_at asc, id asc).
	ListForUpdate(productID, location string) ([]*entity.StockRecord, error)
	Create(record *entity.StockRecord) error
	// Save persiste quantity, reserved_quantity y updated_at de una fila ya cargada.
	Save(record *entity.StockRecord) error

	// Vistas derivadas (solo lectura).
	SumQuantity(productID string, location *string) (decimal.Decimal, error)
	SumUnreserved(productID string, location *string) (decimal.Decimal, error)
	StockByLocation(productID string) ([]LocationStock, error)
	ListLowStock() ([]ProductStockLevel, error)
	ListOverstocked() ([]ProductStockLevel, error)
	ListExpiring(now time.Time, window time.Duration) ([]*entity.StockRecord, error)
	ListExpired(now time.Time) ([]*entity.StockRecord, error)
	Valuation() (*ValuationTotals, error)
}
