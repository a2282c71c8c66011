// Package catalog casos de uso del catálogo de productos.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pyme-stock-api/internal/application/dto"
	"github.com/jhoicas/pyme-stock-api/internal/application/inventory"
	"github.com/jhoicas/pyme-stock-api/internal/domain"
	"github.com/jhoicas/pyme-stock-api/internal/domain/entity"
	"github.com/jhoicas/pyme-stock-api/internal/domain/repository"
	"github.com/jhoicas/pyme-stock-api/internal/domain/tenant"
)

// ProductUseCase alta y consulta de productos, y cambio del modo de seguimiento por lotes.
// El stock no se modifica aquí: solo StockEngine escribe existencias.
type ProductUseCase struct {
	repo     repository.ProductRepository
	txRunner inventory.TxRunner
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository, txRunner inventory.TxRunner) *ProductUseCase {
	return &ProductUseCase{repo: repo, txRunner: txRunner}
}

// Create crea un producto con stock 0. El SKU es único por tenant.
func (uc *ProductUseCase) Create(ctx context.Context, scope tenant.Scope, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if err := scope.Check(); err != nil {
		return nil, err
	}
	in.SKU = strings.TrimSpace(in.SKU)
	in.Name = strings.TrimSpace(in.Name)
	if in.SKU == "" || in.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	existing, err := uc.repo.GetBySKU(ctx, scope, in.SKU)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	now := time.Now().UTC()
	product := &entity.Product{
		ID:             uuid.New().String(),
		TenantID:       scope.ID(),
		SKU:            in.SKU,
		Name:           in.Name,
		Category:       strings.TrimSpace(in.Category),
		ManagesBatches: in.ManagesBatches,
		StockQuantity:  decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.repo.Create(ctx, scope, product); err != nil {
		return nil, err
	}
	return ToProductResponse(product), nil
}

// GetByID obtiene un producto del tenant. (nil, nil) si no existe.
func (uc *ProductUseCase) GetByID(ctx context.Context, scope tenant.Scope, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}
	return ToProductResponse(product), nil
}

// SetBatchTracking cambia managesBatches. Se rechaza con ErrBatchModeLocked si el producto ya
// tiene lotes, y con ErrConflict si tiene stock agregado distinto de cero. Bloquea el producto
// para no competir con ventas en curso.
func (uc *ProductUseCase) SetBatchTracking(ctx context.Context, scope tenant.Scope, id string, enabled bool) (*dto.ProductResponse, error) {
	var out *entity.Product
	err := uc.txRunner.Run(ctx, func(repos inventory.TxRepos) error {
		p, err := setBatchTracking(ctx, repos, scope, id, enabled)
		if err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToProductResponse(out), nil
}

// BackfillBatchTracking marca como gestionados por lotes los productos de las categorías dadas.
// Cada producto se cambia en su propia transacción; los que no cumplen la regla se reportan en
// Skipped con el motivo.
func (uc *ProductUseCase) BackfillBatchTracking(ctx context.Context, scope tenant.Scope, categories []string) (*dto.BackfillBatchTrackingResponse, error) {
	if len(categories) == 0 {
		return nil, domain.ErrInvalidInput
	}
	products, err := uc.repo.ListByCategories(ctx, scope, categories)
	if err != nil {
		return nil, err
	}
	res := &dto.BackfillBatchTrackingResponse{Updated: []string{}, Skipped: map[string]string{}}
	for _, p := range products {
		if p.ManagesBatches {
			continue
		}
		err := uc.txRunner.Run(ctx, func(repos inventory.TxRepos) error {
			_, err := setBatchTracking(ctx, repos, scope, p.ID, true)
			return err
		})
		switch {
		case err == nil:
			res.Updated = append(res.Updated, p.ID)
		case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrBatchModeLocked):
			res.Skipped[p.ID] = err.Error()
		default:
			return nil, fmt.Errorf("backfill producto %s: %w", p.ID, err)
		}
	}
	return res, nil
}

func setBatchTracking(ctx context.Context, repos inventory.TxRepos, scope tenant.Scope, id string, enabled bool) (*entity.Product, error) {
	p, err := repos.Products.GetForUpdate(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	if p.ManagesBatches == enabled {
		return p, nil
	}
	n, err := repos.Batches.CountByProduct(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, domain.ErrBatchModeLocked
	}
	if !p.StockQuantity.IsZero() {
		return nil, fmt.Errorf("%w: el producto tiene stock %s sin lotes", domain.ErrConflict, p.StockQuantity)
	}
	if err := repos.Products.SetManagesBatches(ctx, scope, id, enabled); err != nil {
		return nil, err
	}
	p.ManagesBatches = enabled
	return p, nil
}

// ToProductResponse mapea la entidad al DTO.
func ToProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:             p.ID,
		TenantID:       p.TenantID,
		SKU:            p.SKU,
		Name:           p.Name,
		Category:       p.Category,
		ManagesBatches: p.ManagesBatches,
		StockQuantity:  p.StockQuantity,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}
