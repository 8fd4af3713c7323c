package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// DefaultExpiryWindowDays ventana por defecto para "por vencer".
const DefaultExpiryWindowDays = 30

// QueryUseCase vistas derivadas de solo lectura sobre el ledger. La capa de
// caché de resultados es un colaborador externo; aquí siempre se consulta la
// fuente de verdad.
type QueryUseCase struct {
	stockRepo   repository.StockRecordRepository
	productRepo repository.ProductRepository
	movRepo     repository.MovementRepository
}

// NewQueryUseCase construye las vistas de consulta.
func NewQueryUseCase(
	stockRepo repository.StockRecordRepository,
	productRepo repository.ProductRepository,
	movRepo repository.MovementRepository,
) *QueryUseCase {
	return &QueryUseCase{stockRepo: stockRepo, productRepo: productRepo, movRepo: movRepo}
}

// AvailableStock total en existencia (Quantity cruda, sin restar reservas)
// de un producto, global o filtrado por ubicación.
func (uc *QueryUseCase) AvailableStock(productID string, location *string) (decimal.Decimal, error) {
	if err := uc.requireProduct(productID); err != nil {
		return decimal.Zero, err
	}
	return uc.stockRepo.SumQuantity(productID, location)
}

// UnreservedStock total no reservado (Quantity - ReservedQuantity), la cifra
// contra la que se validan reservas y salidas con control de reserva.
func (uc *QueryUseCase) UnreservedStock(productID string, location *string) (decimal.Decimal, error) {
	if err := uc.requireProduct(productID); err != nil {
		return decimal.Zero, err
	}
	return uc.stockRepo.SumUnreserved(productID, location)
}

// StockByLocation desglose de existencias de un producto por ubicación.
func (uc *QueryUseCase) StockByLocation(productID string) ([]repository.LocationStock, error) {
	if err := uc.requireProduct(productID); err != nil {
		return nil, err
	}
	return uc.stockRepo.StockByLocation(productID)
}

// LowStockProducts productos cuyo total en existencia está en o por debajo
// de su punto de reorden.
func (uc *QueryUseCase) LowStockProducts() ([]repository.ProductStockLevel, error) {
	return uc.stockRepo.ListLowStock()
}

// OverstockedProducts productos cuyo total en existencia alcanza o supera su
// nivel máximo.
func (uc *QueryUseCase) OverstockedProducts() ([]repository.ProductStockLevel, error) {
	return uc.stockRepo.ListOverstocked()
}

// ExpiringSoon lotes con vencimiento dentro de la ventana dada (días);
// days <= 0 usa la ventana por defecto.
func (uc *QueryUseCase) ExpiringSoon(days int) ([]*entity.StockRecord, error) {
	if days <= 0 {
		days = DefaultExpiryWindowDays
	}
	return uc.stockRepo.ListExpiring(time.Now(), time.Duration(days)*24*time.Hour)
}

// Expired lotes ya vencidos con cantidad positiva.
func (uc *QueryUseCase) Expired() ([]*entity.StockRecord, error) {
	return uc.stockRepo.ListExpired(time.Now())
}

// Valuation valuación del inventario a costo y a precio de venta, con
// utilidad potencial y margen.
func (uc *QueryUseCase) Valuation() (*dto.ValuationResponse, error) {
	totals, err := uc.stockRepo.Valuation()
	if err != nil {
		return nil, err
	}
	resp := &dto.ValuationResponse{
		CostValuation:    totals.CostValuation,
		SellingValuation: totals.SellingValuation,
		PotentialProfit:  totals.SellingValuation.Sub(totals.CostValuation),
	}
	if totals.CostValuation.GreaterThan(decimal.Zero) {
		resp.ProfitMarginPct = resp.PotentialProfit.
			Div(totals.CostValuation).
			Mul(decimal.NewFromInt(100))
	}
	return resp, nil
}

// Movements historial de movimientos filtrado por producto o por ubicación.
func (uc *QueryUseCase) Movements(productID, location string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	switch {
	case productID != "":
		return uc.movRepo.ListByProduct(productID, from, to, limit, offset)
	case location != "":
		return uc.movRepo.ListByLocation(location, from, to, limit, offset)
	default:
		return nil, domain.ErrInvalidInput
	}
}

// DashboardSummary agregado para el tablero: valuación, productos bajos de
// stock y lotes por vencer.
func (uc *QueryUseCase) DashboardSummary() (*dto.DashboardSummary, error) {
	valuation, err := uc.Valuation()
	if err != nil {
		return nil, err
	}
	low, err := uc.LowStockProducts()
	if err != nil {
		return nil, err
	}
	expiring, err := uc.ExpiringSoon(0)
	if err != nil {
		return nil, err
	}
	return &dto.DashboardSummary{
		Valuation:         *valuation,
		LowStockCount:     len(low),
		ExpiringSoonCount: len(expiring),
	}, nil
}

func (uc *QueryUseCase) requireProduct(productID string) error {
	if productID == "" {
		return domain.ErrInvalidInput
	}
	product, err := uc.productRepo.GetByID(productID)
	if err != nil {
		return err
	}
	if product == nil {
		return domain.ErrNotFound
	}
	return nil
}
