package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/pyme-stock-api/internal/application/dto"
	"github.com/jhoicas/pyme-stock-api/internal/domain"
)

type errorMapping struct {
	kind    error
	status  int
	code    string
	message string
}

// El orden importa: StockError expone su kind vía Unwrap y los kinds más específicos van primero.
var errorMappings = []errorMapping{
	{domain.ErrUnresolvedTenant, fiber.StatusUnauthorized, "UNRESOLVED_TENANT", "no se pudo resolver el tenant de la petición"},
	{domain.ErrTenantMismatch, fiber.StatusForbidden, "TENANT_MISMATCH", "el recurso no pertenece a este tenant"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN", "acceso denegado al recurso"},
	{domain.ErrUnknownProduct, fiber.StatusNotFound, "UNKNOWN_PRODUCT", "producto no encontrado"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND", "recurso no encontrado"},
	{domain.ErrInvalidDelta, fiber.StatusBadRequest, "INVALID_DELTA", "delta inválido para el tipo de evento"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION", "datos inválidos"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK", "stock insuficiente"},
	{domain.ErrBatchModeLocked, fiber.StatusConflict, "BATCH_MODE_LOCKED", domain.ErrBatchModeLocked.Error()},
	{domain.ErrDocumentVoided, fiber.StatusConflict, "DOCUMENT_VOIDED", "el documento ya fue anulado"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE", "recurso duplicado"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT", "conflicto con el estado actual"},
	{domain.ErrStorageContention, fiber.StatusServiceUnavailable, "STORAGE_CONTENTION", "alta concurrencia sobre el producto, intente de nuevo"},
	{context.DeadlineExceeded, fiber.StatusServiceUnavailable, "TIMEOUT", "la operación excedió el tiempo límite"},
}

// writeError traduce errores de dominio a respuestas HTTP.
func writeError(c *fiber.Ctx, err error) error {
	for _, m := range errorMappings {
		if !errors.Is(err, m.kind) {
			continue
		}
		var stockErr *domain.StockError
		if errors.As(err, &stockErr) {
			out := dto.StockErrorResponse{Code: m.code, Message: m.message, ProductID: stockErr.ProductID}
			if errors.Is(err, domain.ErrInsufficientStock) {
				out.Requested = stockErr.Requested.String()
				out.Available = stockErr.Available.String()
			}
			return c.Status(m.status).JSON(out)
		}
		return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: m.message})
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("error no controlado")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
