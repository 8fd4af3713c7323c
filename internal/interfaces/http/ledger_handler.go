package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// LedgerHandler maneja las operaciones de mutación del ledger (protegido).
type LedgerHandler struct {
	uc *ledger.UseCase
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(uc *ledger.UseCase) *LedgerHandler {
	return &LedgerHandler{uc: uc}
}

// Add godoc
// @Summary      Registrar entrada de stock
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AddStockRequest  true  "product_id, location, quantity; batch/unit_cost/expiry_date opcionales"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/add [post]
func (h *LedgerHandler) Add(c *fiber.Ctx) error {
	var in dto.AddStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	mov, err := h.uc.Add(c.Context(), ledger.AddInput{
		ProductID: in.ProductID, Location: in.Location, Quantity: in.Quantity,
		Batch: in.Batch, UnitCost: in.UnitCost, ExpiryDate: in.ExpiryDate,
		Reason: in.Reason, Reference: in.Reference, Notes: in.Notes,
		ActorID: GetUserID(c),
	})
	if err != nil {
		return ledgerError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(mov))
}

// Remove godoc
// @Summary      Registrar salida de stock (FIFO)
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RemoveStockRequest  true  "product_id, location, quantity"
// @Success      201   {array}   dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/remove [post]
func (h *LedgerHandler) Remove(c *fiber.Ctx) error {
	var in dto.RemoveStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	movs, err := h.uc.Remove(c.Context(), ledger.RemoveInput{
		ProductID: in.ProductID, Location: in.Location, Quantity: in.Quantity,
		Reason: in.Reason, Reference: in.Reference, Notes: in.Notes,
		ActorID: GetUserID(c), CheckUnreserved: in.CheckUnreserved,
	})
	if err != nil {
		return ledgerError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponses(movs))
}

// Adjust godoc
// @Summary      Ajustar una fila de stock (delta con signo)
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustStockRequest  true  "product_id, location, delta; batch opcional"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/adjust [post]
func (h *LedgerHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	mov, err := h.uc.Adjust(c.Context(), ledger.AdjustInput{
		ProductID: in.ProductID, Location: in.Location, Delta: in.Delta,
		Batch: in.Batch, UnitCost: in.UnitCost, Reason: in.Reason,
		Reference: in.Reference, Notes: in.Notes, ActorID: GetUserID(c),
	})
	if err != nil {
		return ledgerError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(mov))
}

// Transfer godoc
// @Summary      Trasladar stock entre ubicaciones
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferStockRequest  true  "product_id, from_location, to_location, quantity"
// @Success      201   {object}  map[string]interface{}
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/inventory/transfer [post]
func (h *LedgerHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	result, err := h.uc.Transfer(c.Context(), ledger.TransferInput{
		ProductID: in.ProductID, FromLocation: in.FromLocation, ToLocation: in.ToLocation,
		Quantity: in.Quantity, Reference: in.Reference, Notes: in.Notes,
		ActorID: GetUserID(c),
	})
	if err != nil {
		return ledgerError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"out": toMovementResponses(result.Out),
		"in":  toMovementResponse(result.In),
	})
}

// Reserve godoc
// @Summary      Reservar stock (no cambia la cantidad física)
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReserveStockRequest  true  "product_id, location, quantity"
// @Success      200   {object}  map[string]bool
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/reserve [post]
func (h *LedgerHandler) Reserve(c *fiber.Ctx) error {
	var in dto.ReserveStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	ok, err := h.uc.Reserve(c.Context(), ledger.ReserveInput{
		ProductID: in.ProductID, Location: in.Location, Quantity: in.Quantity,
		Reference: in.Reference, ActorID: GetUserID(c),
	})
	if err != nil {
		return ledgerError(c, err)
	}
	if !ok {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: "capacidad no reservada insuficiente"})
	}
	return c.JSON(fiber.Map{"reserved": true})
}

// Release godoc
// @Summary      Liberar stock reservado
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReserveStockRequest  true  "product_id, location, quantity"
// @Success      200   {object}  map[string]bool
// @Router       /api/inventory/release [post]
func (h *LedgerHandler) Release(c *fiber.Ctx) error {
	var in dto.ReserveStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	err := h.uc.Release(c.Context(), ledger.ReserveInput{
		ProductID: in.ProductID, Location: in.Location, Quantity: in.Quantity,
		Reference: in.Reference, ActorID: GetUserID(c),
	})
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(fiber.Map{"released": true})
}

// Reverse godoc
// @Summary      Revertir un movimiento (ajuste compensatorio)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del movimiento a revertir"
// @Success      201  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{id}/reverse [post]
func (h *LedgerHandler) Reverse(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "id es requerido"})
	}
	mov, err := h.uc.Reverse(c.Context(), id, GetUserID(c))
	if err != nil {
		return ledgerError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(mov))
}

// ledgerError traduce errores del dominio a respuestas HTTP. Los errores de
// stock llevan el detalle (disponible vs solicitado) en el mensaje.
func ledgerError(c *fiber.Ctx, err error) error {
	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: insufficient.Error()})
	}
	var negative *domain.NegativeStockError
	if errors.As(err, &negative) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "NEGATIVE_STOCK", Message: negative.Error()})
	}
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrInvalidTransfer):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "INVALID_TRANSFER", Message: "origen y destino deben ser distintos"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: "stock insuficiente"})
	case errors.Is(err, domain.ErrNegativeStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "NEGATIVE_STOCK", Message: "el ajuste dejaría stock negativo"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

func toMovementResponse(m *entity.Movement) *dto.MovementResponse {
	if m == nil {
		return nil
	}
	return &dto.MovementResponse{
		ID:            m.ID,
		ProductID:     m.ProductID,
		StockRecordID: m.StockRecordID,
		ActorID:       m.ActorID,
		Type:          m.Type,
		Reason:        m.Reason,
		Quantity:      m.Quantity,
		UnitCost:      m.UnitCost,
		TotalCost:     m.TotalCost,
		LocationFrom:  m.LocationFrom,
		LocationTo:    m.LocationTo,
		Reference:     m.Reference,
		Notes:         m.Notes,
		OccurredAt:    m.OccurredAt,
	}
}

func toMovementResponses(movs []*entity.Movement) []dto.MovementResponse {
	out := make([]dto.MovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, *toMovementResponse(m))
	}
	return out
}
