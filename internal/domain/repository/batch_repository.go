package repository

import (
	"context"

	"github.com/jhoicas/pyme-stock-api/internal/domain/entity"
	"github.com/jhoicas/pyme-stock-api/internal/domain/tenant"
)

// BatchRepository puerto del libro de lotes. Las escrituras solo las invoca el motor de stock.
type BatchRepository interface {
	Create(ctx context.Context, scope tenant.Scope, batch *entity.Batch) error
	Update(ctx context.Context, scope tenant.Scope, batch *entity.Batch) error
	GetByID(ctx context.Context, scope tenant.Scope, id string) (*entity.Batch, error)
	// ListActive devuelve los lotes activos ordenados por created_at ascendente (id como desempate).
	ListActive(ctx context.Context, scope tenant.Scope, productID string) ([]*entity.Batch, error)
	// ListByProduct devuelve todos los lotes (cualquier estado) en el mismo orden.
	ListByProduct(ctx context.Context, scope tenant.Scope, productID string) ([]*entity.Batch, error)
	CountByProduct(ctx context.Context, scope tenant.Scope, productID string) (int, error)
}
