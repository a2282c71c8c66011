package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/pyme-stock-api/internal/domain"
	"github.com/jhoicas/pyme-stock-api/internal/domain/entity"
	"github.com/jhoicas/pyme-stock-api/internal/domain/repository"
)

var _ repository.TenantRepository = (*TenantRepo)(nil)

// TenantRepo implementa repository.TenantRepository.
type TenantRepo struct {
	store *Store
}

func (r *TenantRepo) Create(ctx context.Context, t *entity.Tenant) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, other := range r.store.tenants {
		if other.ID == t.ID || strings.EqualFold(other.Slug, t.Slug) {
			return fmt.Errorf("create tenant: %w", domain.ErrDuplicate)
		}
	}
	c := *t
	r.store.tenants[t.ID] = &c
	return nil
}

func (r *TenantRepo) GetByID(ctx context.Context, id string) (*entity.Tenant, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	t, ok := r.store.tenants[id]
	if !ok {
		return nil, nil
	}
	c := *t
	return &c, nil
}

func (r *TenantRepo) GetBySlug(ctx context.Context, slug string) (*entity.Tenant, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, t := range r.store.tenants {
		if strings.EqualFold(t.Slug, slug) {
			c := *t
			return &c, nil
		}
	}
	return nil, nil
}

func (r *TenantRepo) UpdateStatus(ctx context.Context, id, status string, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	t, ok := r.store.tenants[id]
	if !ok {
		return fmt.Errorf("update tenant %s: %w", id, domain.ErrNotFound)
	}
	t.Status = status
	t.UpdatedAt = at
	return nil
}
