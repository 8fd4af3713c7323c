package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, product_id, stock_record_id, actor_id, type, reason, quantity, unit_cost, total_cost, location_from, location_to, reference, notes, occurred_at, created_at`

// MovementRepo implementación del log de movimientos sobre PostgreSQL
// (usable con pool o tx). El log es append-only: solo INSERT y SELECT.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create persiste un movimiento del ledger.
func (r *MovementRepo) Create(movement *entity.Movement) error {
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	query := `
		INSERT INTO movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	actorID := (*string)(nil)
	if movement.ActorID != "" {
		actorID = &movement.ActorID
	}
	_, err := r.q.Exec(context.Background(), query,
		movement.ID, movement.ProductID, movement.StockRecordID, actorID,
		movement.Type, movement.Reason, movement.Quantity, movement.UnitCost,
		movement.TotalCost, movement.LocationFrom, movement.LocationTo,
		movement.Reference, movement.Notes, movement.OccurredAt, movement.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID; nil si no existe.
func (r *MovementRepo) GetByID(id string) (*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements WHERE id = $1`
	m, err := scanMovement(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// ListByProduct lista movimientos de un producto en un rango de fechas,
// los más recientes primero.
func (r *MovementRepo) ListByProduct(productID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements WHERE product_id = $1`
	return r.listFiltered(query, []any{productID}, from, to, limit, offset)
}

// ListByLocation lista movimientos que tocan una ubicación (como origen o
// destino), los más recientes primero.
func (r *MovementRepo) ListByLocation(location string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements WHERE (location_from = $1 OR location_to = $1)`
	return r.listFiltered(query, []any{location}, from, to, limit, offset)
}

func (r *MovementRepo) listFiltered(query string, args []any, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	pos := len(args) + 1
	if from != nil {
		query += fmt.Sprintf(" AND occurred_at >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND occurred_at <= $%d", pos)
		args = append(args, *to)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY occurred_at DESC, created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var m entity.Movement
	var actorID *string
	err := row.Scan(
		&m.ID, &m.ProductID, &m.StockRecordID, &actorID, &m.Type, &m.Reason,
		&m.Quantity, &m.UnitCost, &m.TotalCost, &m.LocationFrom, &m.LocationTo,
		&m.Reference, &m.Notes, &m.OccurredAt, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if actorID != nil {
		m.ActorID = *actorID
	}
	return &m, nil
}
