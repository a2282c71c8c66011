package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pyme-stock-api/internal/domain/entity"
	"github.com/jhoicas/pyme-stock-api/internal/domain/tenant"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// Todas las operaciones exigen un tenant.Scope. GetByID y GetForUpdate devuelven (nil, nil) si el
// producto no existe y domain.ErrTenantMismatch si existe pero pertenece a otro tenant; nunca
// devuelven la fila ajena.
type ProductRepository interface {
	Create(ctx context.Context, scope tenant.Scope, product *entity.Product) error
	GetByID(ctx context.Context, scope tenant.Scope, id string) (*entity.Product, error)
	// GetForUpdate bloquea el producto hasta el fin de la transacción (SELECT FOR UPDATE).
	// Es el punto de serialización por producto del motor de stock.
	GetForUpdate(ctx context.Context, scope tenant.Scope, id string) (*entity.Product, error)
	GetBySKU(ctx context.Context, scope tenant.Scope, sku string) (*entity.Product, error)
	ListByCategories(ctx context.Context, scope tenant.Scope, categories []string) ([]*entity.Product, error)
	UpdateStock(ctx context.Context, scope tenant.Scope, productID string, quantity decimal.Decimal) error
	SetManagesBatches(ctx context.Context, scope tenant.Scope, productID string, enabled bool) error
}
