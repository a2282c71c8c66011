package repository

import (
	"context"
	"time"

	"github.com/jhoicas/pyme-stock-api/internal/domain/entity"
	"github.com/jhoicas/pyme-stock-api/internal/domain/tenant"
)

// DocumentRepository puerto de persistencia de ventas, compras y órdenes de producción.
type DocumentRepository interface {
	// Create persiste cabecera y líneas.
	Create(ctx context.Context, scope tenant.Scope, doc *entity.Document) error
	GetByID(ctx context.Context, scope tenant.Scope, id string) (*entity.Document, error)
	// GetForUpdate bloquea el documento (anulaciones concurrentes).
	GetForUpdate(ctx context.Context, scope tenant.Scope, id string) (*entity.Document, error)
	MarkVoided(ctx context.Context, scope tenant.Scope, id string, at time.Time) error
}
