package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	domledger "github.com/jhoicas/stock-ledger-api/internal/domain/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// ReserveInput entrada para reservar o liberar stock.
type ReserveInput struct {
	ProductID string
	Location  string
	Quantity  decimal.Decimal
	Reference string
	ActorID   string
}

// Reserve convierte cantidad no reservada en reservada, FIFO sobre las filas.
// La cantidad física no cambia: solo sube ReservedQuantity, acotada fila a
// fila por Quantity. Devuelve false sin mutar nada si la capacidad libre
// total no alcanza.
//
// Las reservas no generan movimientos (no cambian el balance físico);
// quedan en el sink de auditoría.
func (uc *UseCase) Reserve(ctx context.Context, in ReserveInput) (bool, error) {
	if in.ProductID == "" || in.Location == "" || !in.Quantity.GreaterThan(decimal.Zero) {
		return false, domain.ErrInvalidInput
	}

	now := time.Now()
	err := uc.txRunner.Run(ctx, func(
		_ repository.MovementRepository,
		stockRepo repository.StockRecordRepository,
		_ repository.ProductRepository,
	) error {
		records, err := stockRepo.ListForUpdate(in.ProductID, in.Location)
		if err != nil {
			return err
		}
		plan, err := domledger.AllocateReserve(records, in.Quantity)
		if err != nil {
			return err
		}
		for _, alloc := range plan {
			record := alloc.Record
			record.ReservedQuantity = record.ReservedQuantity.Add(alloc.Amount)
			record.UpdatedAt = now
			if err := stockRepo.Save(record); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			return false, nil
		}
		return false, err
	}

	uc.afterCommit(ctx, AuditEntry{
		ActorID: in.ActorID, Action: "reserve_stock",
		SubjectType: "product", SubjectID: in.ProductID,
		Metadata: map[string]any{
			"location": in.Location, "quantity": in.Quantity.String(), "reference": in.Reference,
		},
		OccurredAt: now,
	}, in.ProductID, in.Location)
	return true, nil
}

// Release libera reserva, FIFO, recortando al monto reservado de cada fila.
// Nunca falla por exceso: liberar de más es inocuo por construcción.
func (uc *UseCase) Release(ctx context.Context, in ReserveInput) error {
	if in.ProductID == "" || in.Location == "" || !in.Quantity.GreaterThan(decimal.Zero) {
		return domain.ErrInvalidInput
	}

	now := time.Now()
	err := uc.txRunner.Run(ctx, func(
		_ repository.MovementRepository,
		stockRepo repository.StockRecordRepository,
		_ repository.ProductRepository,
	) error {
		records, err := stockRepo.ListForUpdate(in.ProductID, in.Location)
		if err != nil {
			return err
		}
		domledger.SortFIFO(records)
		remaining := in.Quantity
		for _, record := range records {
			if !remaining.GreaterThan(decimal.Zero) {
				break
			}
			if !record.ReservedQuantity.GreaterThan(decimal.Zero) {
				continue
			}
			release := decimal.Min(record.ReservedQuantity, remaining)
			record.ReservedQuantity = record.ReservedQuantity.Sub(release)
			record.UpdatedAt = now
			if err := stockRepo.Save(record); err != nil {
				return err
			}
			remaining = remaining.Sub(release)
		}
		return nil
	})
	if err != nil {
		return err
	}

	uc.afterCommit(ctx, AuditEntry{
		ActorID: in.ActorID, Action: "release_stock",
		SubjectType: "product", SubjectID: in.ProductID,
		Metadata: map[string]any{
			"location": in.Location, "quantity": in.Quantity.String(), "reference": in.Reference,
		},
		OccurredAt: now,
	}, in.ProductID, in.Location)
	return nil
}
