package repository

import (
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// MovementRepository define el puerto de persistencia del log de movimientos.
// El log es append-only: no hay Update ni Delete.
type MovementRepository interface {
	Create(movement *entity.Movement) error
	GetByID(id string) (*entity.Movement, error)
	ListByProduct(productID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error)
	ListByLocation(location string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error)
}
