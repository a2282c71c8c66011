package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pyme-stock-api/internal/application/dto"
	"github.com/jhoicas/pyme-stock-api/internal/application/inventory"
	"github.com/jhoicas/pyme-stock-api/internal/application/orders"
	"github.com/jhoicas/pyme-stock-api/internal/domain/entity"
	inv "github.com/jhoicas/pyme-stock-api/internal/domain/inventory"
)

// InventoryHandler eventos de stock directos y consultas del libro de lotes.
type InventoryHandler struct {
	engine *inventory.StockEngine
	ledger *inventory.BatchLedger
	report *inventory.BatchReportUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(engine *inventory.StockEngine, ledger *inventory.BatchLedger, report *inventory.BatchReportUseCase) *InventoryHandler {
	return &InventoryHandler{engine: engine, ledger: ledger, report: report}
}

// ApplyEvent godoc
// @Summary      Aplicar evento de stock
// @Description  Ajustes y eventos directos. Las ventas consumen lotes en orden FIFO.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.StockEventRequest  true  "product_id, kind, delta (con signo)"
// @Success      200   {object}  dto.StockLevelResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.StockErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/events [post]
func (h *InventoryHandler) ApplyEvent(c *fiber.Ctx) error {
	var in dto.StockEventRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	scope := scopeOf(c)
	level, err := h.engine.ApplyStockEvent(c.UserContext(), scope, entity.StockEvent{
		TenantID:         scope.ID(),
		ProductID:        in.ProductID,
		Kind:             in.Kind,
		Delta:            in.Delta,
		SourceDocumentID: in.SourceDocumentID,
		ExpiresAt:        in.ExpiresAt,
		UserID:           GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(orders.ToStockLevelResponse(level))
}

// ActiveBatches godoc
// @Summary      Lotes activos de un producto (orden FIFO)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.BatchListResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{id}/batches [get]
func (h *InventoryHandler) ActiveBatches(c *fiber.Ctx) error {
	productID := c.Params("id")
	batches, err := h.ledger.ActiveBatches(c.UserContext(), scopeOf(c), productID)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.BatchListResponse{ProductID: productID, Total: inv.SumActive(batches), Items: make([]dto.BatchResponse, 0, len(batches))}
	for _, b := range batches {
		out.Items = append(out.Items, dto.BatchResponse{
			ID:        b.ID,
			ProductID: b.ProductID,
			Quantity:  b.Quantity,
			Status:    b.Status,
			ExpiresAt: b.ExpiresAt,
			CreatedAt: b.CreatedAt,
		})
	}
	return c.JSON(out)
}

// StockLevel godoc
// @Summary      Nivel de stock de un producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.StockLevelResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{id}/stock [get]
func (h *InventoryHandler) StockLevel(c *fiber.Ctx) error {
	productID := c.Params("id")
	product, err := h.ledger.Product(c.UserContext(), scopeOf(c), productID)
	if err != nil {
		return writeError(c, err)
	}
	total, err := h.ledger.TotalActive(c.UserContext(), scopeOf(c), productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.StockLevelResponse{ProductID: product.ID, ManagesBatches: product.ManagesBatches, Level: total})
}

// BatchReport godoc
// @Summary      Reporte PDF de lotes activos y vencimientos
// @Tags         inventory
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {file}    binary
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{id}/batches/report [get]
func (h *InventoryHandler) BatchReport(c *fiber.Ctx) error {
	productID := c.Params("id")
	pdf, err := h.report.Generate(c.UserContext(), scopeOf(c), productID)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="lotes-%s.pdf"`, productID))
	return c.Send(pdf)
}

// ExpireBatches godoc
// @Summary      Vencer lotes
// @Description  Pasa a expired los lotes activos con vencimiento <= as_of (por defecto ahora).
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true   "ID del producto"
// @Param        body  body  dto.ExpireBatchesRequest  false  "as_of"
// @Success      200   {object}  dto.ExpireBatchesResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{id}/expire [post]
func (h *InventoryHandler) ExpireBatches(c *fiber.Ctx) error {
	var in dto.ExpireBatchesRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	asOf := time.Now().UTC()
	if in.AsOf != nil {
		asOf = *in.AsOf
	}
	productID := c.Params("id")
	level, expired, err := h.engine.ExpireDueBatches(c.UserContext(), scopeOf(c), productID, asOf)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ExpireBatchesResponse{ProductID: productID, Expired: expired, Level: level.Level})
}
