package repository

import (
	"context"
	"time"

	"github.com/jhoicas/pyme-stock-api/internal/domain/entity"
)

// TenantRepository puerto de persistencia para tenants. Es la única tabla que se consulta sin
// Scope: el resolver la usa precisamente para obtenerlo.
type TenantRepository interface {
	Create(ctx context.Context, t *entity.Tenant) error
	GetByID(ctx context.Context, id string) (*entity.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*entity.Tenant, error)
	// UpdateStatus cambia el estado; domain.ErrNotFound si el tenant no existe.
	UpdateStatus(ctx context.Context, id, status string, at time.Time) error
}
