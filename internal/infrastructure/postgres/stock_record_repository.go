package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.StockRecordRepository = (*StockRecordRepo)(nil)

const stockRecordColumns = `id, product_id, location, batch, quantity, reserved_quantity, cost_per_unit, expiry_date, created_at, updated_at`

// StockRecordRepo implementación de StockRecordRepository sobre PostgreSQL
// (usable con pool o tx).
type StockRecordRepo struct {
	q Querier
}

// NewStockRecordRepository construye el adaptador de filas de stock. Pasar pool o tx (Querier).
func NewStockRecordRepository(q Querier) *StockRecordRepo {
	return &StockRecordRepo{q: q}
}

func scanStockRecord(row pgx.Row) (*entity.StockRecord, error) {
	var s entity.StockRecord
	err := row.Scan(
		&s.ID, &s.ProductID, &s.Location, &s.Batch, &s.Quantity, &s.ReservedQuantity,
		&s.CostPerUnit, &s.ExpiryDate, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetForUpdate bloquea y devuelve la fila (producto, ubicación, lote); nil si no existe.
// IS NOT DISTINCT FROM hace que batch NULL también case.
func (r *StockRecordRepo) GetForUpdate(productID, location string, batch *string) (*entity.StockRecord, error) {
	query := `
		SELECT ` + stockRecordColumns + `
		FROM stock_records
		WHERE product_id = $1 AND location = $2 AND batch IS NOT DISTINCT FROM $3
		FOR UPDATE`
	s, err := scanStockRecord(r.q.QueryRow(context.Background(), query, productID, location, batch))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock record for update: %w", err)
	}
	return s, nil
}

// GetByIDForUpdate bloquea y devuelve la fila por id; nil si no existe.
func (r *StockRecordRepo) GetByIDForUpdate(id string) (*entity.StockRecord, error) {
	query := `
		SELECT ` + stockRecordColumns + `
		FROM stock_records WHERE id = $1
		FOR UPDATE`
	s, err := scanStockRecord(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock record by id for update: %w", err)
	}
	return s, nil
}

// ListForUpdate bloquea y devuelve todas las filas del producto en la ubicación,
// en orden FIFO. El desempate por id hace el orden total y determinista.
func (r *StockRecordRepo) ListForUpdate(productID, location string) ([]*entity.StockRecord, error) {
	query := `
		SELECT ` + stockRecordColumns + `
		FROM stock_records
		WHERE product_id = $1 AND location = $2
		ORDER BY created_at ASC, id ASC
		FOR UPDATE`
	rows, err := r.q.Query(context.Background(), query, productID, location)
	if err != nil {
		return nil, fmt.Errorf("list stock records for update: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockRecord
	for rows.Next() {
		s, err := scanStockRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock record: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// Create persiste una fila nueva. Dos transacciones que crean la misma tripleta
// a la vez chocan con el índice único; el caller reintenta con ErrDuplicate.
func (r *StockRecordRepo) Create(record *entity.StockRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_records (` + stockRecordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(context.Background(), query,
		record.ID, record.ProductID, record.Location, record.Batch,
		record.Quantity, record.ReservedQuantity, record.CostPerUnit,
		record.ExpiryDate, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert stock record: %w", err)
	}
	return nil
}

// Save persiste quantity, reserved_quantity y updated_at de una fila ya cargada
// (y bloqueada) en la transacción. Los demás campos son inmutables.
func (r *StockRecordRepo) Save(record *entity.StockRecord) error {
	query := `
		UPDATE stock_records
		SET quantity = $2, reserved_quantity = $3, updated_at = $4
		WHERE id = $1`
	cmd, err := r.q.Exec(context.Background(), query,
		record.ID, record.Quantity, record.ReservedQuantity, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save stock record: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SumQuantity total en existencia de un producto, global o por ubicación.
func (r *StockRecordRepo) SumQuantity(productID string, location *string) (decimal.Decimal, error) {
	return r.sum(`COALESCE(SUM(quantity), 0)`, productID, location)
}

// SumUnreserved total no reservado (quantity - reserved_quantity).
func (r *StockRecordRepo) SumUnreserved(productID string, location *string) (decimal.Decimal, error) {
	return r.sum(`COALESCE(SUM(quantity - reserved_quantity), 0)`, productID, location)
}

func (r *StockRecordRepo) sum(expr, productID string, location *string) (decimal.Decimal, error) {
	query := `SELECT ` + expr + ` FROM stock_records WHERE product_id = $1`
	args := []any{productID}
	if location != nil {
		query += ` AND location = $2`
		args = append(args, *location)
	}
	var total decimal.Decimal
	if err := r.q.QueryRow(context.Background(), query, args...).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum stock: %w", err)
	}
	return total, nil
}

// StockByLocation desglose de existencias de un producto por ubicación.
func (r *StockRecordRepo) StockByLocation(productID string) ([]repository.LocationStock, error) {
	query := `
		SELECT location, COALESCE(SUM(quantity), 0), COUNT(*)
		FROM stock_records
		WHERE product_id = $1
		GROUP BY location
		ORDER BY location ASC`
	rows, err := r.q.Query(context.Background(), query, productID)
	if err != nil {
		return nil, fmt.Errorf("stock by location: %w", err)
	}
	defer rows.Close()
	var list []repository.LocationStock
	for rows.Next() {
		var ls repository.LocationStock
		if err := rows.Scan(&ls.Location, &ls.TotalQuantity, &ls.BatchCount); err != nil {
			return nil, fmt.Errorf("scan location stock: %w", err)
		}
		list = append(list, ls)
	}
	return list, rows.Err()
}

const productColumns = `p.id, p.sku, p.name, p.description, p.price, p.cost_per_unit, p.minimum_level, p.maximum_level, p.reorder_point, p.unit_measure, p.is_active, p.created_at, p.updated_at`

// ListLowStock productos activos cuyo total (todas las ubicaciones) está en o
// por debajo de su punto de reorden. Ordena por déficit descendente.
func (r *StockRecordRepo) ListLowStock() ([]repository.ProductStockLevel, error) {
	query := `
		SELECT ` + productColumns + `, COALESCE(SUM(s.quantity), 0) AS total_quantity
		FROM products p
		LEFT JOIN stock_records s ON s.product_id = p.id
		WHERE p.is_active AND p.reorder_point > 0
		GROUP BY p.id
		HAVING COALESCE(SUM(s.quantity), 0) <= p.reorder_point
		ORDER BY (p.reorder_point - COALESCE(SUM(s.quantity), 0)) DESC`
	return r.listLevels(query)
}

// ListOverstocked productos activos cuyo total alcanza o supera su nivel máximo.
func (r *StockRecordRepo) ListOverstocked() ([]repository.ProductStockLevel, error) {
	query := `
		SELECT ` + productColumns + `, COALESCE(SUM(s.quantity), 0) AS total_quantity
		FROM products p
		LEFT JOIN stock_records s ON s.product_id = p.id
		WHERE p.is_active AND p.maximum_level > 0
		GROUP BY p.id
		HAVING COALESCE(SUM(s.quantity), 0) >= p.maximum_level
		ORDER BY (COALESCE(SUM(s.quantity), 0) - p.maximum_level) DESC`
	return r.listLevels(query)
}

func (r *StockRecordRepo) listLevels(query string, args ...any) ([]repository.ProductStockLevel, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock levels: %w", err)
	}
	defer rows.Close()
	var list []repository.ProductStockLevel
	for rows.Next() {
		var lvl repository.ProductStockLevel
		p := &lvl.Product
		if err := rows.Scan(
			&p.ID, &p.SKU, &p.Name, &p.Description, &p.Price, &p.CostPerUnit,
			&p.MinimumLevel, &p.MaximumLevel, &p.ReorderPoint, &p.UnitMeasure,
			&p.IsActive, &p.CreatedAt, &p.UpdatedAt, &lvl.TotalQuantity,
		); err != nil {
			return nil, fmt.Errorf("scan stock level: %w", err)
		}
		list = append(list, lvl)
	}
	return list, rows.Err()
}

// ListExpiring lotes con cantidad positiva que vencen dentro de la ventana.
func (r *StockRecordRepo) ListExpiring(now time.Time, window time.Duration) ([]*entity.StockRecord, error) {
	query := `
		SELECT ` + stockRecordColumns + `
		FROM stock_records
		WHERE quantity > 0 AND expiry_date IS NOT NULL
		  AND expiry_date >= $1 AND expiry_date <= $2
		ORDER BY expiry_date ASC`
	return r.list(query, now, now.Add(window))
}

// ListExpired lotes ya vencidos con cantidad positiva.
func (r *StockRecordRepo) ListExpired(now time.Time) ([]*entity.StockRecord, error) {
	query := `
		SELECT ` + stockRecordColumns + `
		FROM stock_records
		WHERE quantity > 0 AND expiry_date IS NOT NULL AND expiry_date < $1
		ORDER BY expiry_date ASC`
	return r.list(query, now)
}

func (r *StockRecordRepo) list(query string, args ...any) ([]*entity.StockRecord, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock records: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockRecord
	for rows.Next() {
		s, err := scanStockRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock record: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// Valuation valuación del inventario completo: a costo de lote y a precio de
// venta del producto.
func (r *StockRecordRepo) Valuation() (*repository.ValuationTotals, error) {
	query := `
		SELECT
			COALESCE(SUM(s.quantity * s.cost_per_unit), 0),
			COALESCE(SUM(s.quantity * p.price), 0)
		FROM stock_records s
		JOIN products p ON p.id = s.product_id`
	var totals repository.ValuationTotals
	err := r.q.QueryRow(context.Background(), query).Scan(&totals.CostValuation, &totals.SellingValuation)
	if err != nil {
		return nil, fmt.Errorf("inventory valuation: %w", err)
	}
	return &totals, nil
}
