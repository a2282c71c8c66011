package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pyme-stock-api/internal/domain"
	"github.com/jhoicas/pyme-stock-api/internal/domain/entity"
	inv "github.com/jhoicas/pyme-stock-api/internal/domain/inventory"
	"github.com/jhoicas/pyme-stock-api/internal/domain/repository"
	"github.com/jhoicas/pyme-stock-api/internal/domain/tenant"
)

// BatchLedger lecturas del libro de lotes (inventario y reportes de vencimiento).
// Las escrituras pasan solo por StockEngine.
type BatchLedger struct {
	productRepo repository.ProductRepository
	batchRepo   repository.BatchRepository
}

// NewBatchLedger construye el libro de lotes.
func NewBatchLedger(productRepo repository.ProductRepository, batchRepo repository.BatchRepository) *BatchLedger {
	return &BatchLedger{productRepo: productRepo, batchRepo: batchRepo}
}

// ActiveBatches devuelve los lotes activos del producto ordenados por created_at ascendente.
// Para productos sin seguimiento por lotes devuelve una lista vacía.
func (l *BatchLedger) ActiveBatches(ctx context.Context, scope tenant.Scope, productID string) ([]*entity.Batch, error) {
	product, err := l.product(ctx, scope, productID)
	if err != nil {
		return nil, err
	}
	if !product.ManagesBatches {
		return []*entity.Batch{}, nil
	}
	batches, err := l.batchRepo.ListActive(ctx, scope, productID)
	if err != nil {
		return nil, err
	}
	inv.SortFIFO(batches)
	return batches, nil
}

// TotalActive suma de lotes activos; en productos agregados devuelve StockQuantity.
func (l *BatchLedger) TotalActive(ctx context.Context, scope tenant.Scope, productID string) (decimal.Decimal, error) {
	product, err := l.product(ctx, scope, productID)
	if err != nil {
		return decimal.Zero, err
	}
	if !product.ManagesBatches {
		return product.StockQuantity, nil
	}
	batches, err := l.batchRepo.ListActive(ctx, scope, productID)
	if err != nil {
		return decimal.Zero, err
	}
	return inv.SumActive(batches), nil
}

// ExpiringBatches lotes activos que vencen hasta asOf (inclusive).
func (l *BatchLedger) ExpiringBatches(ctx context.Context, scope tenant.Scope, productID string, asOf time.Time) ([]*entity.Batch, error) {
	active, err := l.ActiveBatches(ctx, scope, productID)
	if err != nil {
		return nil, err
	}
	return inv.DueForExpiry(active, asOf), nil
}

// Product devuelve el producto del scope o un StockError (UnknownProduct / TenantMismatch).
func (l *BatchLedger) Product(ctx context.Context, scope tenant.Scope, productID string) (*entity.Product, error) {
	return l.product(ctx, scope, productID)
}

func (l *BatchLedger) product(ctx context.Context, scope tenant.Scope, productID string) (*entity.Product, error) {
	if err := scope.Check(); err != nil {
		return nil, err
	}
	product, err := l.productRepo.GetByID(ctx, scope, productID)
	if err != nil {
		return nil, productError(err, productID)
	}
	if product == nil {
		return nil, domain.NewStockError(domain.ErrUnknownProduct, productID)
	}
	return product, nil
}
