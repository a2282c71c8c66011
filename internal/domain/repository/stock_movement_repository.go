package repository

import (
	"context"

	"github.com/jhoicas/pyme-stock-api/internal/domain/entity"
	"github.com/jhoicas/pyme-stock-api/internal/domain/tenant"
)

// StockMovementRepository puerto del diario de stock (append-only).
type StockMovementRepository interface {
	Create(ctx context.Context, scope tenant.Scope, movement *entity.StockMovement) error
	// ListBySource devuelve las líneas de un documento para un producto y dirección, por Sequence.
	ListBySource(ctx context.Context, scope tenant.Scope, sourceDocumentID, productID, direction string) ([]*entity.StockMovement, error)
	ExistsForSource(ctx context.Context, scope tenant.Scope, sourceDocumentID, productID, direction string) (bool, error)
}
