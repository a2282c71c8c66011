package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pyme-stock-api/internal/application/catalog"
	"github.com/jhoicas/pyme-stock-api/internal/application/dto"
)

// ProductHandler maneja las peticiones HTTP del catálogo de productos.
type ProductHandler struct {
	uc *catalog.ProductUseCase
}

// NewProductHandler construye el handler.
func NewProductHandler(uc *catalog.ProductUseCase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

// Create godoc
// @Summary      Crear producto
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID  header  string                    false  "Tenant (id o slug)"
// @Param        body         body    dto.CreateProductRequest  true   "Datos del producto"
// @Success      201   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/products [post]
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateProductRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), scopeOf(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener producto por ID (incluye stock)
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProductResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), scopeOf(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	if out == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "producto no encontrado"})
	}
	return c.JSON(out)
}

// SetBatchTracking godoc
// @Summary      Activar/desactivar seguimiento por lotes
// @Description  Se rechaza si el producto ya tiene lotes o si tiene stock agregado distinto de cero.
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                       true  "ID del producto"
// @Param        body  body  dto.SetBatchTrackingRequest  true  "enabled"
// @Success      200   {object}  dto.ProductResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/products/{id}/batch-tracking [put]
func (h *ProductHandler) SetBatchTracking(c *fiber.Ctx) error {
	var in dto.SetBatchTrackingRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.SetBatchTracking(c.UserContext(), scopeOf(c), c.Params("id"), in.Enabled)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// BackfillBatchTracking godoc
// @Summary      Migrar categorías a seguimiento por lotes
// @Description  Marca como ManagesBatches los productos de las categorías dadas; informa los omitidos.
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BackfillBatchTrackingRequest  true  "categorías"
// @Success      200   {object}  dto.BackfillBatchTrackingResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/products/batch-tracking/backfill [post]
func (h *ProductHandler) BackfillBatchTracking(c *fiber.Ctx) error {
	var in dto.BackfillBatchTrackingRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.BackfillBatchTracking(c.UserContext(), scopeOf(c), in.Categories)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
