package postgres_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pyme-stock-api/internal/application/inventory"
	"github.com/jhoicas/pyme-stock-api/internal/domain"
	"github.com/jhoicas/pyme-stock-api/internal/domain/entity"
	"github.com/jhoicas/pyme-stock-api/internal/domain/tenant"
	"github.com/jhoicas/pyme-stock-api/internal/infrastructure/postgres"
	"github.com/jhoicas/pyme-stock-api/pkg/config"
)

// newTestPool conecta a DATABASE_URL y aplica el esquema. Sin base disponible el test se omite.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL no definido")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: url})
	if err != nil {
		t.Skipf("PostgreSQL no disponible: %v", err)
	}
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.Migrate(ctx, pool))
	return pool
}

func createTenant(t *testing.T, pool *pgxpool.Pool) tenant.Scope {
	t.Helper()
	now := time.Now().UTC()
	id := uuid.New().String()
	require.NoError(t, postgres.NewTenantRepository(pool).Create(context.Background(), &entity.Tenant{
		ID:        id,
		Name:      "Tenant " + id[:8],
		Slug:      "t-" + id[:8],
		Status:    entity.TenantStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}))
	return tenant.MustScope(id)
}

func createProduct(t *testing.T, pool *pgxpool.Pool, scope tenant.Scope, managesBatches bool, stock int64) string {
	t.Helper()
	now := time.Now().UTC()
	id := uuid.New().String()
	require.NoError(t, postgres.NewProductRepository(pool).Create(context.Background(), scope, &entity.Product{
		ID:             id,
		TenantID:       scope.ID(),
		SKU:            "SKU-" + id[:8],
		Name:           "Producto " + id[:8],
		ManagesBatches: managesBatches,
		StockQuantity:  decimal.NewFromInt(stock),
		CreatedAt:      now,
		UpdatedAt:      now,
	}))
	return id
}

func newEngine(pool *pgxpool.Pool) *inventory.StockEngine {
	return inventory.NewStockEngine(postgres.NewTxRunner(pool), nil,
		inventory.RetryPolicy{Attempts: 3, Backoff: 10 * time.Millisecond}, nil)
}

func event(scope tenant.Scope, productID, kind string, delta int64, source string) entity.StockEvent {
	return entity.StockEvent{
		TenantID:         scope.ID(),
		ProductID:        productID,
		Kind:             kind,
		Delta:            decimal.NewFromInt(delta),
		SourceDocumentID: source,
	}
}

func TestStockEngine_VentasConcurrentesSobrePostgres(t *testing.T) {
	pool := newTestPool(t)
	scope := createTenant(t, pool)
	productID := createProduct(t, pool, scope, false, 5)
	engine := newEngine(pool)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := engine.ApplyStockEvent(context.Background(), scope,
				event(scope, productID, entity.StockEventSale, -4, "sale-"+string(rune('a'+i))))
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	var ok, insufficient int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		if errors.Is(err, domain.ErrInsufficientStock) {
			insufficient++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, insufficient, "errores: %v", errs)

	p, err := postgres.NewProductRepository(pool).GetByID(context.Background(), scope, productID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.StockQuantity.Equal(decimal.NewFromInt(1)), "stock %s", p.StockQuantity)
}

func TestProductRepo_ProductoDeOtroTenant(t *testing.T) {
	pool := newTestPool(t)
	owner := createTenant(t, pool)
	other := createTenant(t, pool)
	productID := createProduct(t, pool, owner, false, 5)
	repo := postgres.NewProductRepository(pool)

	_, err := repo.GetByID(context.Background(), other, productID)
	assert.ErrorIs(t, err, domain.ErrTenantMismatch)

	missing, err := repo.GetByID(context.Background(), other, uuid.New().String())
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = newEngine(pool).ApplyStockEvent(context.Background(), other,
		event(other, productID, entity.StockEventSale, -1, "sale-x"))
	assert.ErrorIs(t, err, domain.ErrTenantMismatch)

	p, err := repo.GetByID(context.Background(), owner, productID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.StockQuantity.Equal(decimal.NewFromInt(5)))
}

func TestStockEngine_LotesYAnulacionSobrePostgres(t *testing.T) {
	pool := newTestPool(t)
	scope := createTenant(t, pool)
	productID := createProduct(t, pool, scope, true, 0)
	engine := newEngine(pool)
	ctx := context.Background()

	for i, q := range []int64{3, 4} {
		_, err := engine.ApplyStockEvent(ctx, scope,
			event(scope, productID, entity.StockEventReceipt, q, "rc-"+string(rune('a'+i))))
		require.NoError(t, err)
	}

	level, err := engine.ApplyStockEvent(ctx, scope, event(scope, productID, entity.StockEventSale, -5, "sale-1"))
	require.NoError(t, err)
	assert.True(t, level.Level.Equal(decimal.NewFromInt(2)))

	journal, err := postgres.NewStockMovementRepository(pool).ListBySource(ctx, scope, "sale-1", productID, entity.MovementDirectionApply)
	require.NoError(t, err)
	require.Len(t, journal, 2)

	reverse := event(scope, productID, entity.StockEventSale, 5, "sale-1")
	reverse.ReversalOf = "sale-1"
	level, err = engine.ApplyStockEvent(ctx, scope, reverse)
	require.NoError(t, err)
	assert.True(t, level.Level.Equal(decimal.NewFromInt(7)))

	batches, err := postgres.NewBatchRepository(pool).ListActive(ctx, scope, productID)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.True(t, batches[0].Quantity.Equal(decimal.NewFromInt(3)))
	assert.True(t, batches[1].Quantity.Equal(decimal.NewFromInt(4)))

	_, err = engine.ApplyStockEvent(ctx, scope, reverse)
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	phantom := event(scope, productID, entity.StockEventSale, 50, "")
	phantom.ReversalOf = "no-existe"
	_, err = engine.ApplyStockEvent(ctx, scope, phantom)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTenantRepo_UpdateStatus(t *testing.T) {
	pool := newTestPool(t)
	scope := createTenant(t, pool)
	repo := postgres.NewTenantRepository(pool)
	ctx := context.Background()

	require.NoError(t, repo.UpdateStatus(ctx, scope.ID(), entity.TenantStatusSuspended, time.Now().UTC()))
	got, err := repo.GetByID(ctx, scope.ID())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.IsActive())

	err = repo.UpdateStatus(ctx, uuid.New().String(), entity.TenantStatusActive, time.Now().UTC())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
