package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// StockHandler expone las vistas de consulta del ledger (protegido).
type StockHandler struct {
	queries *ledger.QueryUseCase
	reports *ledger.ReportUseCase
}

// NewStockHandler construye el handler de consultas.
func NewStockHandler(queries *ledger.QueryUseCase, reports *ledger.ReportUseCase) *StockHandler {
	return &StockHandler{queries: queries, reports: reports}
}

// GetStock godoc
// @Summary      Stock total de un producto (global o por ubicación)
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  true   "ID del producto"
// @Param        location    query  string  false  "Filtrar por ubicación"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock [get]
func (h *StockHandler) GetStock(c *fiber.Ctx) error {
	productID := c.Query("product_id")
	location := locationFilter(c)

	quantity, err := h.queries.AvailableStock(productID, location)
	if err != nil {
		return ledgerError(c, err)
	}
	unreserved, err := h.queries.UnreservedStock(productID, location)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(fiber.Map{
		"product_id": productID,
		"quantity":   quantity,
		"unreserved": unreserved,
	})
}

// GetStockByLocation godoc
// @Summary      Desglose de stock de un producto por ubicación
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  true  "ID del producto"
// @Success      200  {array}   dto.LocationStockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock/by-location [get]
func (h *StockHandler) GetStockByLocation(c *fiber.Ctx) error {
	breakdown, err := h.queries.StockByLocation(c.Query("product_id"))
	if err != nil {
		return ledgerError(c, err)
	}
	out := make([]dto.LocationStockResponse, 0, len(breakdown))
	for _, b := range breakdown {
		out = append(out, dto.LocationStockResponse{
			Location:      b.Location,
			TotalQuantity: b.TotalQuantity,
			BatchCount:    b.BatchCount,
		})
	}
	return c.JSON(out)
}

// LowStock godoc
// @Summary      Productos en o por debajo de su punto de reorden
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.StockLevelResponse
// @Router       /api/inventory/low-stock [get]
func (h *StockHandler) LowStock(c *fiber.Ctx) error {
	levels, err := h.queries.LowStockProducts()
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(toStockLevelResponses(levels))
}

// Overstocked godoc
// @Summary      Productos que alcanzan o superan su nivel máximo
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.StockLevelResponse
// @Router       /api/inventory/overstocked [get]
func (h *StockHandler) Overstocked(c *fiber.Ctx) error {
	levels, err := h.queries.OverstockedProducts()
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(toStockLevelResponses(levels))
}

// Expiring godoc
// @Summary      Lotes por vencer dentro de la ventana indicada
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        days  query  int  false  "Ventana en días"  default(30)
// @Success      200   {array}  dto.StockRecordResponse
// @Router       /api/inventory/expiring [get]
func (h *StockHandler) Expiring(c *fiber.Ctx) error {
	days := c.QueryInt("days", 0)
	records, err := h.queries.ExpiringSoon(days)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(toStockRecordResponses(records))
}

// Expired godoc
// @Summary      Lotes ya vencidos con cantidad positiva
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.StockRecordResponse
// @Router       /api/inventory/expired [get]
func (h *StockHandler) Expired(c *fiber.Ctx) error {
	records, err := h.queries.Expired()
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(toStockRecordResponses(records))
}

// Valuation godoc
// @Summary      Valuación del inventario a costo y precio de venta
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ValuationResponse
// @Router       /api/inventory/valuation [get]
func (h *StockHandler) Valuation(c *fiber.Ctx) error {
	out, err := h.queries.Valuation()
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(out)
}

// ValuationPDF godoc
// @Summary      Descargar reporte de valuación en PDF
// @Tags         stock
// @Security     Bearer
// @Produce      application/pdf
// @Success      200  {file}  file
// @Router       /api/inventory/valuation/report [get]
func (h *StockHandler) ValuationPDF(c *fiber.Ctx) error {
	pdf, err := h.reports.ValuationPDF(c.Context())
	if err != nil {
		return ledgerError(c, err)
	}
	filename := fmt.Sprintf("valuacion_%s.pdf", time.Now().Format("2006-01-02"))
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(pdf)
}

// Movements godoc
// @Summary      Historial de movimientos por producto o por ubicación
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  false  "Filtrar por producto"
// @Param        location    query  string  false  "Filtrar por ubicación"
// @Param        from        query  string  false  "Desde (RFC 3339)"
// @Param        to          query  string  false  "Hasta (RFC 3339)"
// @Param        limit       query  int     false  "Límite"  default(50)
// @Param        offset      query  int     false  "Offset"  default(0)
// @Success      200  {array}   dto.MovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *StockHandler) Movements(c *fiber.Ctx) error {
	from, err := timeQuery(c, "from")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from debe ser RFC 3339"})
	}
	to, err := timeQuery(c, "to")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to debe ser RFC 3339"})
	}
	movs, err := h.queries.Movements(
		c.Query("product_id"), c.Query("location"),
		from, to,
		c.QueryInt("limit", 50), c.QueryInt("offset", 0),
	)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(toMovementResponses(movs))
}

// Dashboard godoc
// @Summary      Resumen del tablero: valuación, bajo stock y lotes por vencer
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.DashboardSummary
// @Router       /api/dashboard/summary [get]
func (h *StockHandler) Dashboard(c *fiber.Ctx) error {
	out, err := h.queries.DashboardSummary()
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(out)
}

func locationFilter(c *fiber.Ctx) *string {
	if loc := c.Query("location"); loc != "" {
		return &loc
	}
	return nil
}

func timeQuery(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func toStockLevelResponses(levels []repository.ProductStockLevel) []dto.StockLevelResponse {
	out := make([]dto.StockLevelResponse, 0, len(levels))
	for _, l := range levels {
		out = append(out, dto.StockLevelResponse{
			ProductID:     l.Product.ID,
			SKU:           l.Product.SKU,
			Name:          l.Product.Name,
			TotalQuantity: l.TotalQuantity,
			ReorderPoint:  l.Product.ReorderPoint,
			MaximumLevel:  l.Product.MaximumLevel,
		})
	}
	return out
}

func toStockRecordResponses(records []*entity.StockRecord) []dto.StockRecordResponse {
	out := make([]dto.StockRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, dto.StockRecordResponse{
			ID:                r.ID,
			ProductID:         r.ProductID,
			Location:          r.Location,
			Batch:             r.Batch,
			Quantity:          r.Quantity,
			ReservedQuantity:  r.ReservedQuantity,
			AvailableQuantity: r.Quantity.Sub(r.ReservedQuantity),
			CostPerUnit:       r.CostPerUnit,
			ExpiryDate:        r.ExpiryDate,
		})
	}
	return out
}
