package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/auth"
	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/application/usecase"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC *usecase.ProductUseCase
	LedgerUC  *ledger.UseCase
	QueryUC   *ledger.QueryUseCase
	ReportUC  *ledger.ReportUseCase
	AuthUC    *auth.AuthUseCase
	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	canRead := RequireRole(entity.RoleAdmin, entity.RoleOperator, entity.RoleViewer)
	canWrite := RequireRole(entity.RoleAdmin, entity.RoleOperator)
	adminOnly := RequireRole(entity.RoleAdmin)

	// Products (protegido; mutaciones solo admin)
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", adminOnly, productHandler.Create)
	products.Get("/", canRead, productHandler.List)
	products.Get("/:id", canRead, productHandler.GetByID)
	products.Put("/:id", adminOnly, productHandler.Update)

	// Operaciones y vistas del ledger (protegido)
	invGroup := protected.Group("/inventory")
	ledgerHandler := NewLedgerHandler(deps.LedgerUC)
	invGroup.Post("/add", canWrite, ledgerHandler.Add)
	invGroup.Post("/remove", canWrite, ledgerHandler.Remove)
	invGroup.Post("/adjust", canWrite, ledgerHandler.Adjust)
	invGroup.Post("/transfer", canWrite, ledgerHandler.Transfer)
	invGroup.Post("/reserve", canWrite, ledgerHandler.Reserve)
	invGroup.Post("/release", canWrite, ledgerHandler.Release)
	invGroup.Post("/movements/:id/reverse", adminOnly, ledgerHandler.Reverse)

	stockHandler := NewStockHandler(deps.QueryUC, deps.ReportUC)
	invGroup.Get("/stock", canRead, stockHandler.GetStock)
	invGroup.Get("/stock/by-location", canRead, stockHandler.GetStockByLocation)
	invGroup.Get("/low-stock", canRead, stockHandler.LowStock)
	invGroup.Get("/overstocked", canRead, stockHandler.Overstocked)
	invGroup.Get("/expiring", canRead, stockHandler.Expiring)
	invGroup.Get("/expired", canRead, stockHandler.Expired)
	invGroup.Get("/valuation", canRead, stockHandler.Valuation)
	invGroup.Get("/valuation/report", canRead, stockHandler.ValuationPDF)
	invGroup.Get("/movements", canRead, stockHandler.Movements)

	protected.Get("/dashboard/summary", canRead, stockHandler.Dashboard)
}
