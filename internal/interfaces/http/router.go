package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pyme-stock-api/internal/application/catalog"
	"github.com/jhoicas/pyme-stock-api/internal/application/inventory"
	"github.com/jhoicas/pyme-stock-api/internal/application/orders"
	"github.com/jhoicas/pyme-stock-api/internal/application/tenancy"
	"github.com/jhoicas/pyme-stock-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Resolver     *tenancy.Resolver
	TenantHeader string
	ProductUC    *catalog.ProductUseCase
	Engine       *inventory.StockEngine
	Ledger       *inventory.BatchLedger
	BatchReport  *inventory.BatchReportUseCase
	SalesUC      *orders.SalesUseCase
	PurchasesUC  *orders.PurchasesUseCase
	ProductionUC *orders.ProductionUseCase
	JWTSecret    string
}

// Router registra las rutas de la API. Todo /api exige tenant resuelto, token válido y que el
// tenant del token coincida con el resuelto.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api",
		TenantMiddleware(deps.Resolver, deps.TenantHeader),
		AuthMiddleware(deps.JWTSecret),
		RequireTenantClaim(),
	)

	stockRoles := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero)

	// Products
	products := api.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", stockRoles, productHandler.Create)
	products.Post("/batch-tracking/backfill", RequireRole(jwt.RoleAdmin), productHandler.BackfillBatchTracking)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id/batch-tracking", RequireRole(jwt.RoleAdmin), productHandler.SetBatchTracking)

	// Inventory
	invGroup := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Engine, deps.Ledger, deps.BatchReport)
	invGroup.Post("/events", stockRoles, inventoryHandler.ApplyEvent)
	invGroup.Get("/products/:id/stock", inventoryHandler.StockLevel)
	invGroup.Get("/products/:id/batches", inventoryHandler.ActiveBatches)
	invGroup.Get("/products/:id/batches/report", inventoryHandler.BatchReport)
	invGroup.Post("/products/:id/expire", stockRoles, inventoryHandler.ExpireBatches)

	// Documents
	registerDocuments(api.Group("/sales"), NewDocumentHandler(deps.SalesUC), RequireRole(jwt.RoleAdmin, jwt.RoleVendedor))
	registerDocuments(api.Group("/purchases"), NewDocumentHandler(deps.PurchasesUC), stockRoles)
	registerDocuments(api.Group("/production"), NewDocumentHandler(deps.ProductionUC), stockRoles)
}

func registerDocuments(group fiber.Router, h *DocumentHandler, roles fiber.Handler) {
	group.Post("/", roles, h.Create)
	group.Post("/:id/void", roles, h.Void)
}
