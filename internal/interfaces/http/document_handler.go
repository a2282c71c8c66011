package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pyme-stock-api/internal/application/dto"
	"github.com/jhoicas/pyme-stock-api/internal/application/orders"
)

// DocumentHandler crea y anula documentos (ventas, compras, producción).
// Se instancia una vez por tipo de documento.
type DocumentHandler struct {
	uc orders.DocumentUseCase
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(uc orders.DocumentUseCase) *DocumentHandler {
	return &DocumentHandler{uc: uc}
}

// Create godoc
// @Summary      Crear documento (venta, compra u orden de producción)
// @Description  Aplica un evento de stock por producto en la misma transacción que persiste el documento.
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateDocumentRequest  true  "Líneas del documento"
// @Success      201   {object}  dto.DocumentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.StockErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/sales [post]
// @Router       /api/purchases [post]
// @Router       /api/production [post]
func (h *DocumentHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), scopeOf(c), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Void godoc
// @Summary      Anular documento
// @Description  Aplica eventos compensatorios; los lotes consumidos se reponen en orden inverso.
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/void [post]
// @Router       /api/purchases/{id}/void [post]
// @Router       /api/production/{id}/void [post]
func (h *DocumentHandler) Void(c *fiber.Ctx) error {
	out, err := h.uc.Void(c.UserContext(), scopeOf(c), GetUserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
