package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pyme-stock-api/internal/domain"
	"github.com/jhoicas/pyme-stock-api/internal/domain/entity"
	"github.com/jhoicas/pyme-stock-api/internal/domain/repository"
	"github.com/jhoicas/pyme-stock-api/internal/domain/tenant"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, tenant_id, sku, name, category, manages_batches, stock_quantity, created_at, updated_at`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

func (r *ProductRepo) Create(ctx context.Context, scope tenant.Scope, p *entity.Product) error {
	if err := ownedBy(scope, p.TenantID); err != nil {
		return err
	}
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		p.ID, scope.ID(), p.SKU, p.Name, p.Category, p.ManagesBatches, p.StockQuantity, p.CreatedAt, p.UpdatedAt,
	)
	return mapError("insert product", err)
}

// GetByID obtiene un producto del tenant. Si el id existe en otro tenant devuelve
// ErrTenantMismatch sin leer la fila ajena.
func (r *ProductRepo) GetByID(ctx context.Context, scope tenant.Scope, id string) (*entity.Product, error) {
	return r.get(ctx, scope, id, "")
}

// GetForUpdate igual que GetByID pero bloquea la fila (SELECT ... FOR UPDATE) hasta el fin de la tx.
func (r *ProductRepo) GetForUpdate(ctx context.Context, scope tenant.Scope, id string) (*entity.Product, error) {
	return r.get(ctx, scope, id, " FOR UPDATE")
}

func (r *ProductRepo) get(ctx context.Context, scope tenant.Scope, id, lock string) (*entity.Product, error) {
	if err := scope.Check(); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, nil
	}
	query := `SELECT ` + productColumns + ` FROM products WHERE tenant_id = $1 AND id = $2` + lock
	p, err := scanProduct(r.q.QueryRow(ctx, query, scope.ID(), id))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, mapError("get product", err)
	}
	return nil, r.foreign(ctx, id)
}

// foreign distingue "no existe" de "existe en otro tenant" consultando solo la existencia.
func (r *ProductRepo) foreign(ctx context.Context, id string) error {
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
		return mapError("product exists", err)
	}
	if exists {
		return domain.ErrTenantMismatch
	}
	return nil
}

func (r *ProductRepo) GetBySKU(ctx context.Context, scope tenant.Scope, sku string) (*entity.Product, error) {
	if err := scope.Check(); err != nil {
		return nil, err
	}
	query := `SELECT ` + productColumns + ` FROM products WHERE tenant_id = $1 AND lower(sku) = lower($2)`
	p, err := scanProduct(r.q.QueryRow(ctx, query, scope.ID(), sku))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get product by sku", err)
	}
	return p, nil
}

func (r *ProductRepo) ListByCategories(ctx context.Context, scope tenant.Scope, categories []string) ([]*entity.Product, error) {
	if err := scope.Check(); err != nil {
		return nil, err
	}
	lowered := make([]string, 0, len(categories))
	for _, c := range categories {
		lowered = append(lowered, strings.ToLower(strings.TrimSpace(c)))
	}
	query := `SELECT ` + productColumns + ` FROM products WHERE tenant_id = $1 AND lower(category) = ANY($2) ORDER BY id`
	rows, err := r.q.Query(ctx, query, scope.ID(), lowered)
	if err != nil {
		return nil, mapError("list products by category", err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// UpdateStock escribe el nivel calculado por el motor de stock.
func (r *ProductRepo) UpdateStock(ctx context.Context, scope tenant.Scope, productID string, quantity decimal.Decimal) error {
	if err := scope.Check(); err != nil {
		return err
	}
	cmd, err := r.q.Exec(ctx,
		`UPDATE products SET stock_quantity = $3, updated_at = now() WHERE tenant_id = $1 AND id = $2`,
		scope.ID(), productID, quantity,
	)
	if err != nil {
		return mapError("update product stock", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ProductRepo) SetManagesBatches(ctx context.Context, scope tenant.Scope, productID string, enabled bool) error {
	if err := scope.Check(); err != nil {
		return err
	}
	cmd, err := r.q.Exec(ctx,
		`UPDATE products SET manages_batches = $3, updated_at = now() WHERE tenant_id = $1 AND id = $2`,
		scope.ID(), productID, enabled,
	)
	if err != nil {
		return mapError("update product batch mode", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(&p.ID, &p.TenantID, &p.SKU, &p.Name, &p.Category, &p.ManagesBatches,
		&p.StockQuantity, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
