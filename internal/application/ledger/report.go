package ledger

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// maxReportProducts tope de productos incluidos en el reporte de valuación.
const maxReportProducts = 1000

// ValuationPDFGenerator puerto del generador del reporte de valuación.
type ValuationPDFGenerator interface {
	GenerateValuationReport(
		ctx context.Context,
		items []repository.ProductStockLevel,
		totals *dto.ValuationResponse,
		generatedAt time.Time,
	) ([]byte, error)
}

// ReportUseCase arma y genera el reporte PDF de valuación del inventario.
type ReportUseCase struct {
	queries   *QueryUseCase
	generator ValuationPDFGenerator
}

// NewReportUseCase construye el caso de uso de reportes.
func NewReportUseCase(queries *QueryUseCase, generator ValuationPDFGenerator) *ReportUseCase {
	return &ReportUseCase{queries: queries, generator: generator}
}

// ValuationPDF genera el reporte de valuación: una fila por producto activo
// con su total en existencia, más los totales del inventario.
func (uc *ReportUseCase) ValuationPDF(ctx context.Context) ([]byte, error) {
	products, err := uc.queries.productRepo.List(maxReportProducts, 0)
	if err != nil {
		return nil, err
	}
	items := make([]repository.ProductStockLevel, 0, len(products))
	for _, p := range products {
		if !p.IsActive {
			continue
		}
		total, err := uc.queries.stockRepo.SumQuantity(p.ID, nil)
		if err != nil {
			return nil, err
		}
		items = append(items, repository.ProductStockLevel{Product: *p, TotalQuantity: total})
	}

	totals, err := uc.queries.Valuation()
	if err != nil {
		return nil, err
	}
	return uc.generator.GenerateValuationReport(ctx, items, totals, time.Now())
}
