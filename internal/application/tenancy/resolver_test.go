package tenancy_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pyme-stock-api/internal/application/tenancy"
	"github.com/jhoicas/pyme-stock-api/internal/domain"
	"github.com/jhoicas/pyme-stock-api/internal/domain/entity"
	"github.com/jhoicas/pyme-stock-api/internal/infrastructure/memory"
)

const acmeID = "3f1c2b8a-5d4e-4f6a-9b7c-1a2b3c4d5e6f"

// countingTenants cuenta accesos al repositorio para verificar que hints inválidos no lo tocan.
type countingTenants struct {
	*memory.TenantRepo
	mu    sync.Mutex
	calls int
}

func (c *countingTenants) GetByID(ctx context.Context, id string) (*entity.Tenant, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.TenantRepo.GetByID(ctx, id)
}

func (c *countingTenants) GetBySlug(ctx context.Context, slug string) (*entity.Tenant, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.TenantRepo.GetBySlug(ctx, slug)
}

type mapCache struct {
	mu   sync.Mutex
	data map[string]string
	fail bool
}

func (m *mapCache) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return "", false, errors.New("redis caído")
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mapCache) Set(_ context.Context, key, id string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("redis caído")
	}
	m.data[key] = id
	return nil
}

func (m *mapCache) Invalidate(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("redis caído")
	}
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func setup(t *testing.T, cache tenancy.TenantCache) (*tenancy.Resolver, *countingTenants) {
	t.Helper()
	store := memory.NewStore()
	repo := &countingTenants{TenantRepo: store.Tenants()}
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &entity.Tenant{ID: acmeID, Name: "Acme", Slug: "acme", Status: entity.TenantStatusActive}))
	require.NoError(t, repo.Create(ctx, &entity.Tenant{ID: "9a8b7c6d-0000-4000-8000-000000000001", Name: "Old", Slug: "old-shop", Status: entity.TenantStatusSuspended}))
	return tenancy.NewResolver(repo, cache, "stock.example.com", time.Minute, nil), repo
}

func TestResolve_PorHeader(t *testing.T) {
	r, _ := setup(t, nil)

	scope, err := r.Resolve(context.Background(), tenancy.TenantHint{Header: acmeID})
	require.NoError(t, err)
	assert.Equal(t, acmeID, scope.ID())

	scope, err = r.Resolve(context.Background(), tenancy.TenantHint{Header: "ACME"})
	require.NoError(t, err)
	assert.Equal(t, acmeID, scope.ID())
}

func TestResolve_PorSubdominio(t *testing.T) {
	r, _ := setup(t, nil)

	scope, err := r.Resolve(context.Background(), tenancy.TenantHint{Host: "acme.stock.example.com:8080"})
	require.NoError(t, err)
	assert.Equal(t, acmeID, scope.ID())
}

func TestResolve_HeaderTienePrioridad(t *testing.T) {
	r, _ := setup(t, nil)

	_, err := r.Resolve(context.Background(), tenancy.TenantHint{Header: "old-shop", Host: "acme.stock.example.com"})
	assert.ErrorIs(t, err, domain.ErrUnresolvedTenant)
}

func TestResolve_HintInvalidoNoTocaElAlmacenamiento(t *testing.T) {
	r, repo := setup(t, nil)

	hints := []tenancy.TenantHint{
		{},
		{Header: "   "},
		{Header: "'; DROP TABLE tenants;--"},
		{Header: "a"},
		{Host: "stock.example.com"},
		{Host: "www.stock.example.com"},
		{Host: "a.b.stock.example.com"},
		{Host: "acme.otro-dominio.com"},
	}
	for _, h := range hints {
		_, err := r.Resolve(context.Background(), h)
		assert.ErrorIs(t, err, domain.ErrUnresolvedTenant, "hint %+v", h)
	}
	assert.Equal(t, 0, repo.calls)
}

func TestResolve_TenantDesconocidoOInactivo(t *testing.T) {
	r, _ := setup(t, nil)

	_, err := r.Resolve(context.Background(), tenancy.TenantHint{Header: "nadie"})
	assert.ErrorIs(t, err, domain.ErrUnresolvedTenant)

	_, err = r.Resolve(context.Background(), tenancy.TenantHint{Header: "old-shop"})
	assert.ErrorIs(t, err, domain.ErrUnresolvedTenant)
}

func TestResolve_UsaCache(t *testing.T) {
	cache := &mapCache{data: map[string]string{}}
	r, repo := setup(t, cache)

	for i := 0; i < 3; i++ {
		scope, err := r.Resolve(context.Background(), tenancy.TenantHint{Header: "acme"})
		require.NoError(t, err)
		assert.Equal(t, acmeID, scope.ID())
	}
	assert.Equal(t, 1, repo.calls)
}

func TestResolve_CacheCaidoDegradaAlRepositorio(t *testing.T) {
	cache := &mapCache{data: map[string]string{}, fail: true}
	r, repo := setup(t, cache)

	scope, err := r.Resolve(context.Background(), tenancy.TenantHint{Header: "acme"})
	require.NoError(t, err)
	assert.Equal(t, acmeID, scope.ID())
	assert.Equal(t, 1, repo.calls)
}

func TestSetStatus_SuspenderInvalidaCache(t *testing.T) {
	cache := &mapCache{data: map[string]string{}}
	r, _ := setup(t, cache)
	ctx := context.Background()

	for _, h := range []string{"acme", acmeID} {
		_, err := r.Resolve(ctx, tenancy.TenantHint{Header: h})
		require.NoError(t, err)
	}
	require.Len(t, cache.data, 2)

	updated, err := r.SetStatus(ctx, "ACME", entity.TenantStatusSuspended)
	require.NoError(t, err)
	assert.Equal(t, entity.TenantStatusSuspended, updated.Status)
	assert.Empty(t, cache.data)

	for _, h := range []string{"acme", acmeID} {
		_, err := r.Resolve(ctx, tenancy.TenantHint{Header: h})
		assert.ErrorIs(t, err, domain.ErrUnresolvedTenant, "hint %s", h)
	}

	_, err = r.SetStatus(ctx, acmeID, entity.TenantStatusActive)
	require.NoError(t, err)
	scope, err := r.Resolve(ctx, tenancy.TenantHint{Header: "acme"})
	require.NoError(t, err)
	assert.Equal(t, acmeID, scope.ID())
}

func TestSetStatus_Errores(t *testing.T) {
	cache := &mapCache{data: map[string]string{}}
	r, _ := setup(t, cache)
	ctx := context.Background()

	_, err := r.SetStatus(ctx, "acme", "borrado")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = r.SetStatus(ctx, "nadie", entity.TenantStatusSuspended)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// El estado se guarda aunque el cache falle; el error lo informa.
	cache.fail = true
	_, err = r.SetStatus(ctx, "acme", entity.TenantStatusSuspended)
	require.Error(t, err)
	cache.fail = false
	_, err = r.Resolve(ctx, tenancy.TenantHint{Header: "acme"})
	assert.ErrorIs(t, err, domain.ErrUnresolvedTenant)
}
