// Package ledger implementa las operaciones del motor de inventario
// (Add, Remove, Adjust, Transfer, Reserve, Release, Reverse) y sus vistas
// derivadas. Cada operación corre dentro de una transacción con bloqueo de
// fila (SELECT FOR UPDATE) y deja constancia en el log de movimientos.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	domledger "github.com/jhoicas/stock-ledger-api/internal/domain/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

// UseCase orquesta las operaciones del ledger. La verificación de
// disponibilidad y la mutación ocurren bajo el mismo bloqueo de fila, dentro
// de la transacción que abre TxRunner.
type UseCase struct {
	txRunner    TxRunner
	productRepo repository.ProductRepository
	invalidator CacheInvalidator
	audit       AuditSink
	log         *logger.Logger
}

// NewUseCase construye el caso de uso del ledger.
func NewUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	invalidator CacheInvalidator,
	audit AuditSink,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		txRunner:    txRunner,
		productRepo: productRepo,
		invalidator: invalidator,
		audit:       audit,
		log:         log,
	}
}

// AddInput entrada para una entrada de stock.
type AddInput struct {
	ProductID  string
	Location   string
	Quantity   decimal.Decimal
	Batch      *string
	UnitCost   *decimal.Decimal // nil = usar costo de referencia del producto
	ExpiryDate *time.Time
	Reason     string // vacío = purchase
	Reference  string
	Notes      string
	ActorID    string
}

// RemoveInput entrada para una salida de stock FIFO.
// CheckUnreserved hace que la verificación previa use el stock no reservado
// en lugar del total en existencia (decisión del caller que embebe, ver §4.8).
type RemoveInput struct {
	ProductID       string
	Location        string
	Quantity        decimal.Decimal
	Reason          string // vacío = sale
	Reference       string
	Notes           string
	ActorID         string
	CheckUnreserved bool
}

// AdjustInput entrada para una corrección directa con signo sobre una fila.
type AdjustInput struct {
	ProductID string
	Location  string
	Delta     decimal.Decimal
	Batch     *string
	UnitCost  *decimal.Decimal
	Reason    string // vacío = adjustment
	Reference string
	Notes     string
	ActorID   string
}

// TransferInput entrada para un traslado entre ubicaciones.
type TransferInput struct {
	ProductID    string
	FromLocation string
	ToLocation   string
	Quantity     decimal.Decimal
	Reference    string
	Notes        string
	ActorID      string
}

// TransferResult movimientos generados por un traslado: N salidas FIFO en el
// origen y una entrada en el destino.
type TransferResult struct {
	Out []*entity.Movement
	In  *entity.Movement
}

// Add registra una entrada de stock: get-or-create de la fila
// (producto, ubicación, lote), incremento de cantidad y un movimiento con
// signo positivo. Devuelve el movimiento creado.
func (uc *UseCase) Add(ctx context.Context, in AddInput) (*entity.Movement, error) {
	reason := defaultReason(in.Reason, entity.ReasonPurchase)
	if in.ProductID == "" || in.Location == "" || !in.Quantity.GreaterThan(decimal.Zero) || !entity.IsValidReason(reason) {
		return nil, domain.ErrInvalidInput
	}
	product, err := uc.productRepo.GetByID(in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}

	now := time.Now()
	var mov *entity.Movement
	err = uc.txRunner.Run(ctx, func(
		movRepo repository.MovementRepository,
		stockRepo repository.StockRecordRepository,
		_ repository.ProductRepository,
	) error {
		mov, err = uc.doAdd(movRepo, stockRepo, product, addParams{
			location: in.Location, quantity: in.Quantity, batch: in.Batch,
			unitCost: in.UnitCost, expiryDate: in.ExpiryDate,
			reason: reason, reference: in.Reference, notes: in.Notes,
			actorID: in.ActorID, now: now,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.afterCommit(ctx, AuditEntry{
		ActorID: in.ActorID, Action: "stock_add",
		SubjectType: "product", SubjectID: in.ProductID,
		After: map[string]any{"movement_id": mov.ID},
		Metadata: map[string]any{
			"location": in.Location, "quantity": in.Quantity.String(), "reason": reason,
		},
		OccurredAt: now,
	}, in.ProductID, in.Location)
	return mov, nil
}

// Remove registra una salida de stock con asignación FIFO: verifica
// disponibilidad, descuenta fila a fila (la más antigua primero) y genera un
// movimiento por fila tocada, cada uno al costo propio de su lote.
func (uc *UseCase) Remove(ctx context.Context, in RemoveInput) ([]*entity.Movement, error) {
	reason := defaultReason(in.Reason, entity.ReasonSale)
	if in.ProductID == "" || in.Location == "" || !in.Quantity.GreaterThan(decimal.Zero) || !entity.IsValidReason(reason) {
		return nil, domain.ErrInvalidInput
	}
	product, err := uc.productRepo.GetByID(in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}

	now := time.Now()
	var movs []*entity.Movement
	err = uc.txRunner.Run(ctx, func(
		movRepo repository.MovementRepository,
		stockRepo repository.StockRecordRepository,
		_ repository.ProductRepository,
	) error {
		movs, err = uc.doRemove(movRepo, stockRepo, removeParams{
			productID: in.ProductID, location: in.Location, quantity: in.Quantity,
			reason: reason, reference: in.Reference, notes: in.Notes,
			actorID: in.ActorID, checkUnreserved: in.CheckUnreserved,
			locationTo: nil, now: now,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.afterCommit(ctx, AuditEntry{
		ActorID: in.ActorID, Action: "stock_remove",
		SubjectType: "product", SubjectID: in.ProductID,
		After: map[string]any{"movements": movementIDs(movs)},
		Metadata: map[string]any{
			"location": in.Location, "quantity": in.Quantity.String(), "reason": reason,
		},
		OccurredAt: now,
	}, in.ProductID, in.Location)
	return movs, nil
}

// Adjust aplica una corrección con signo sobre exactamente una fila
// (producto, ubicación, lote). Falla con NegativeStock si el resultado
// quedaría por debajo de cero.
func (uc *UseCase) Adjust(ctx context.Context, in AdjustInput) (*entity.Movement, error) {
	reason := defaultReason(in.Reason, entity.ReasonAdjustment)
	if in.ProductID == "" || in.Location == "" || in.Delta.IsZero() || !entity.IsValidReason(reason) {
		return nil, domain.ErrInvalidInput
	}
	product, err := uc.productRepo.GetByID(in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}

	now := time.Now()
	var mov *entity.Movement
	err = uc.txRunner.Run(ctx, func(
		movRepo repository.MovementRepository,
		stockRepo repository.StockRecordRepository,
		_ repository.ProductRepository,
	) error {
		mov, err = uc.doAdjust(movRepo, stockRepo, product, in, reason, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.afterCommit(ctx, AuditEntry{
		ActorID: in.ActorID, Action: "stock_adjust",
		SubjectType: "product", SubjectID: in.ProductID,
		After: map[string]any{"movement_id": mov.ID},
		Metadata: map[string]any{
			"location": in.Location, "delta": in.Delta.String(), "reason": reason,
		},
		OccurredAt: now,
	}, in.ProductID, in.Location)
	return mov, nil
}

// Transfer traslada stock entre ubicaciones como Remove(origen) + Add(destino)
// dentro de la misma transacción. La entrada en destino hereda el costo de la
// primera fila consumida en el origen. Todo o nada: si la salida falla, el
// destino no se toca.
func (uc *UseCase) Transfer(ctx context.Context, in TransferInput) (*TransferResult, error) {
	if in.ProductID == "" || in.FromLocation == "" || in.ToLocation == "" || !in.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	if in.FromLocation == in.ToLocation {
		return nil, domain.ErrInvalidTransfer
	}
	product, err := uc.productRepo.GetByID(in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}

	now := time.Now()
	result := &TransferResult{}
	err = uc.txRunner.Run(ctx, func(
		movRepo repository.MovementRepository,
		stockRepo repository.StockRecordRepository,
		_ repository.ProductRepository,
	) error {
		outs, err := uc.doRemove(movRepo, stockRepo, removeParams{
			productID: in.ProductID, location: in.FromLocation, quantity: in.Quantity,
			reason: entity.ReasonTransfer, reference: in.Reference, notes: in.Notes,
			actorID: in.ActorID, locationTo: &in.ToLocation, now: now,
		})
		if err != nil {
			return err
		}
		// Costo único hacia el destino: el del primer lote consumido.
		unitCost := outs[0].UnitCost
		inMov, err := uc.doAdd(movRepo, stockRepo, product, addParams{
			location: in.ToLocation, quantity: in.Quantity,
			unitCost: &unitCost, reason: entity.ReasonTransfer,
			reference: in.Reference, notes: in.Notes, actorID: in.ActorID,
			locationFrom: &in.FromLocation, transfer: true, now: now,
		})
		if err != nil {
			return err
		}
		result.Out = outs
		result.In = inMov
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.afterCommit(ctx, AuditEntry{
		ActorID: in.ActorID, Action: "stock_transfer",
		SubjectType: "product", SubjectID: in.ProductID,
		After: map[string]any{"movements": append(movementIDs(result.Out), result.In.ID)},
		Metadata: map[string]any{
			"from": in.FromLocation, "to": in.ToLocation, "quantity": in.Quantity.String(),
		},
		OccurredAt: now,
	}, in.ProductID, in.FromLocation, in.ToLocation)
	return result, nil
}

// Reverse aplica el ajuste compensatorio de un movimiento previo sobre la
// misma fila que aquel tocó, con reason=reversal y referencia al id original.
// Es el único "deshacer" soportado: los movimientos nunca se mutan.
func (uc *UseCase) Reverse(ctx context.Context, movementID, actorID string) (*entity.Movement, error) {
	if movementID == "" {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now()
	var mov *entity.Movement
	var productID, location string
	err := uc.txRunner.Run(ctx, func(
		movRepo repository.MovementRepository,
		stockRepo repository.StockRecordRepository,
		_ repository.ProductRepository,
	) error {
		original, err := movRepo.GetByID(movementID)
		if err != nil {
			return err
		}
		if original == nil {
			return domain.ErrNotFound
		}
		record, err := stockRepo.GetByIDForUpdate(original.StockRecordID)
		if err != nil {
			return err
		}
		if record == nil {
			return domain.ErrNotFound
		}
		productID, location = record.ProductID, record.Location

		delta := original.Quantity.Neg()
		newQty := record.Quantity.Add(delta)
		if newQty.IsNegative() {
			return &domain.NegativeStockError{
				ProductID: record.ProductID, Location: record.Location,
				Current: record.Quantity, Delta: delta,
			}
		}
		record.Quantity = newQty
		clampReserved(record)
		record.UpdatedAt = now
		if err := stockRepo.Save(record); err != nil {
			return err
		}

		mov = &entity.Movement{
			ProductID:     record.ProductID,
			StockRecordID: record.ID,
			ActorID:       actorID,
			Type:          entity.MovementTypeAdjustment,
			Reason:        entity.ReasonReversal,
			Quantity:      delta,
			UnitCost:      original.UnitCost,
			TotalCost:     delta.Abs().Mul(original.UnitCost),
			Reference:     original.ID,
			OccurredAt:    now,
			CreatedAt:     now,
		}
		if delta.GreaterThan(decimal.Zero) {
			mov.LocationTo = &record.Location
		} else {
			mov.LocationFrom = &record.Location
		}
		return movRepo.Create(mov)
	})
	if err != nil {
		return nil, err
	}

	uc.afterCommit(ctx, AuditEntry{
		ActorID: actorID, Action: "stock_reverse",
		SubjectType: "movement", SubjectID: movementID,
		After:      map[string]any{"movement_id": mov.ID},
		Metadata:   map[string]any{"location": location},
		OccurredAt: now,
	}, productID, location)
	return mov, nil
}

// ── Pasos internos (corren dentro de la transacción) ─────────────────────────

type addParams struct {
	location     string
	quantity     decimal.Decimal
	batch        *string
	unitCost     *decimal.Decimal
	expiryDate   *time.Time
	reason       string
	reference    string
	notes        string
	actorID      string
	locationFrom *string // solo en traslados
	transfer     bool
	now          time.Time
}

// doAdd: get-or-create de la fila con bloqueo, incremento y movimiento positivo.
// Si la fila es nueva, el costo del lote queda fijado al costo explícito o al
// de referencia del producto.
func (uc *UseCase) doAdd(
	movRepo repository.MovementRepository,
	stockRepo repository.StockRecordRepository,
	product *entity.Product,
	p addParams,
) (*entity.Movement, error) {
	record, err := stockRepo.GetForUpdate(product.ID, p.location, p.batch)
	if err != nil {
		return nil, err
	}
	if record == nil {
		cost := product.CostPerUnit
		if p.unitCost != nil {
			cost = *p.unitCost
		}
		record = &entity.StockRecord{
			ID:          uuid.New().String(),
			ProductID:   product.ID,
			Location:    p.location,
			Batch:       p.batch,
			Quantity:    decimal.Zero,
			CostPerUnit: cost,
			ExpiryDate:  p.expiryDate,
			CreatedAt:   p.now,
			UpdatedAt:   p.now,
		}
		if err := stockRepo.Create(record); err != nil {
			return nil, err
		}
	}

	record.Quantity = record.Quantity.Add(p.quantity)
	record.UpdatedAt = p.now
	if err := stockRepo.Save(record); err != nil {
		return nil, err
	}

	movType := entity.MovementTypeIn
	if p.transfer {
		movType = entity.MovementTypeTransfer
	}
	mov := &entity.Movement{
		ProductID:     product.ID,
		StockRecordID: record.ID,
		ActorID:       p.actorID,
		Type:          movType,
		Reason:        p.reason,
		Quantity:      p.quantity,
		UnitCost:      record.CostPerUnit,
		TotalCost:     p.quantity.Mul(record.CostPerUnit),
		LocationFrom:  p.locationFrom,
		LocationTo:    &record.Location,
		Reference:     p.reference,
		Notes:         p.notes,
		OccurredAt:    p.now,
		CreatedAt:     p.now,
	}
	if err := movRepo.Create(mov); err != nil {
		return nil, err
	}
	return mov, nil
}

type removeParams struct {
	productID       string
	location        string
	quantity        decimal.Decimal
	reason          string
	reference       string
	notes           string
	actorID         string
	checkUnreserved bool
	locationTo      *string // solo en traslados
	now             time.Time
}

// doRemove: bloquea todas las filas del producto en la ubicación, verifica
// disponibilidad bajo ese bloqueo y descuenta según el plan FIFO, un
// movimiento negativo por fila al costo de su lote.
func (uc *UseCase) doRemove(
	movRepo repository.MovementRepository,
	stockRepo repository.StockRecordRepository,
	p removeParams,
) ([]*entity.Movement, error) {
	records, err := stockRepo.ListForUpdate(p.productID, p.location)
	if err != nil {
		return nil, err
	}
	if p.checkUnreserved {
		unreserved := decimal.Zero
		for _, r := range records {
			unreserved = unreserved.Add(r.AvailableQuantity())
		}
		if unreserved.LessThan(p.quantity) {
			return nil, &domain.InsufficientStockError{
				ProductID: p.productID, Location: p.location,
				Available: unreserved, Requested: p.quantity,
			}
		}
	}

	plan, err := domledger.AllocateFIFO(records, p.quantity)
	if err != nil {
		var insufficient *domain.InsufficientStockError
		if errors.As(err, &insufficient) {
			insufficient.ProductID = p.productID
			insufficient.Location = p.location
		}
		return nil, err
	}

	movType := entity.MovementTypeOut
	if p.locationTo != nil {
		movType = entity.MovementTypeTransfer
	}
	var movs []*entity.Movement
	for _, alloc := range plan {
		record := alloc.Record
		record.Quantity = record.Quantity.Sub(alloc.Amount)
		clampReserved(record)
		record.UpdatedAt = p.now
		if err := stockRepo.Save(record); err != nil {
			return nil, err
		}

		mov := &entity.Movement{
			ProductID:     p.productID,
			StockRecordID: record.ID,
			ActorID:       p.actorID,
			Type:          movType,
			Reason:        p.reason,
			Quantity:      alloc.Amount.Neg(),
			UnitCost:      record.CostPerUnit,
			TotalCost:     alloc.Amount.Mul(record.CostPerUnit),
			LocationFrom:  &record.Location,
			LocationTo:    p.locationTo,
			Reference:     p.reference,
			Notes:         p.notes,
			OccurredAt:    p.now,
			CreatedAt:     p.now,
		}
		if err := movRepo.Create(mov); err != nil {
			return nil, err
		}
		movs = append(movs, mov)
	}
	return movs, nil
}

// doAdjust: get-or-create con bloqueo y corrección con signo sobre esa única
// fila. A diferencia de la salida FIFO, aquí I1 se verifica fila a fila.
func (uc *UseCase) doAdjust(
	movRepo repository.MovementRepository,
	stockRepo repository.StockRecordRepository,
	product *entity.Product,
	in AdjustInput,
	reason string,
	now time.Time,
) (*entity.Movement, error) {
	record, err := stockRepo.GetForUpdate(product.ID, in.Location, in.Batch)
	if err != nil {
		return nil, err
	}
	if record == nil {
		cost := product.CostPerUnit
		if in.UnitCost != nil {
			cost = *in.UnitCost
		}
		record = &entity.StockRecord{
			ID:          uuid.New().String(),
			ProductID:   product.ID,
			Location:    in.Location,
			Batch:       in.Batch,
			Quantity:    decimal.Zero,
			CostPerUnit: cost,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := stockRepo.Create(record); err != nil {
			return nil, err
		}
	}

	newQty := record.Quantity.Add(in.Delta)
	if newQty.IsNegative() {
		return nil, &domain.NegativeStockError{
			ProductID: product.ID, Location: in.Location,
			Current: record.Quantity, Delta: in.Delta,
		}
	}
	record.Quantity = newQty
	clampReserved(record)
	record.UpdatedAt = now
	if err := stockRepo.Save(record); err != nil {
		return nil, err
	}

	mov := &entity.Movement{
		ProductID:     product.ID,
		StockRecordID: record.ID,
		ActorID:       in.ActorID,
		Type:          entity.MovementTypeAdjustment,
		Reason:        reason,
		Quantity:      in.Delta,
		UnitCost:      record.CostPerUnit,
		TotalCost:     in.Delta.Abs().Mul(record.CostPerUnit),
		Reference:     in.Reference,
		Notes:         in.Notes,
		OccurredAt:    now,
		CreatedAt:     now,
	}
	if in.Delta.GreaterThan(decimal.Zero) {
		mov.LocationTo = &record.Location
	} else {
		mov.LocationFrom = &record.Location
	}
	if err := movRepo.Create(mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// ── Auxiliares ───────────────────────────────────────────────────────────────

// clampReserved acota la reserva a la cantidad física restante. Una salida que
// consume por debajo de lo reservado libera implícitamente el excedente.
func clampReserved(record *entity.StockRecord) {
	if record.ReservedQuantity.GreaterThan(record.Quantity) {
		record.ReservedQuantity = record.Quantity
	}
}

// afterCommit dispara auditoría e invalidación de caché tras el commit.
// Best-effort: los fallos solo se loguean, nunca revierten la operación.
func (uc *UseCase) afterCommit(ctx context.Context, entry AuditEntry, productID string, locations ...string) {
	if uc.audit != nil {
		if err := uc.audit.Record(ctx, entry); err != nil {
			uc.log.Warn().Err(err).Str("action", entry.Action).Msg("auditoría no registrada")
		}
	}
	if uc.invalidator == nil {
		return
	}
	if err := uc.invalidator.Invalidate(ctx, ScopeProduct, productID); err != nil {
		uc.log.Warn().Err(err).Str("product_id", productID).Msg("invalidación de caché fallida")
	}
	for _, loc := range locations {
		if err := uc.invalidator.Invalidate(ctx, ScopeLocation, loc); err != nil {
			uc.log.Warn().Err(err).Str("location", loc).Msg("invalidación de caché fallida")
		}
	}
	if err := uc.invalidator.Invalidate(ctx, ScopeGlobal, "inventory"); err != nil {
		uc.log.Warn().Err(err).Msg("invalidación de caché fallida")
	}
}

func defaultReason(reason, fallback string) string {
	if reason == "" {
		return fallback
	}
	return reason
}

func movementIDs(movs []*entity.Movement) []string {
	ids := make([]string, 0, len(movs))
	for _, m := range movs {
		ids = append(ids, m.ID)
	}
	return ids
}
