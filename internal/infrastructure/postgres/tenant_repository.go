package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/pyme-stock-api/internal/domain"
	"github.com/jhoicas/pyme-stock-api/internal/domain/entity"
	"github.com/jhoicas/pyme-stock-api/internal/domain/repository"
)

var _ repository.TenantRepository = (*TenantRepo)(nil)

const tenantColumns = `id, name, slug, status, created_at, updated_at`

// TenantRepo tenants sobre PostgreSQL.
type TenantRepo struct {
	q Querier
}

// NewTenantRepository construye el adaptador.
func NewTenantRepository(q Querier) *TenantRepo {
	return &TenantRepo{q: q}
}

func (r *TenantRepo) Create(ctx context.Context, t *entity.Tenant) error {
	_, err := r.q.Exec(ctx, `INSERT INTO tenants (`+tenantColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.Name, t.Slug, t.Status, t.CreatedAt, t.UpdatedAt)
	return mapError("insert tenant", err)
}

func (r *TenantRepo) GetByID(ctx context.Context, id string) (*entity.Tenant, error) {
	if !validID(id) {
		return nil, nil
	}
	return r.getOne(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id)
}

func (r *TenantRepo) GetBySlug(ctx context.Context, slug string) (*entity.Tenant, error) {
	return r.getOne(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE lower(slug) = lower($1)`, slug)
}

func (r *TenantRepo) UpdateStatus(ctx context.Context, id, status string, at time.Time) error {
	if !validID(id) {
		return fmt.Errorf("update tenant %s: %w", id, domain.ErrNotFound)
	}
	cmd, err := r.q.Exec(ctx, `UPDATE tenants SET status = $2, updated_at = $3 WHERE id = $1`, id, status, at)
	if err != nil {
		return mapError("update tenant", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("update tenant %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *TenantRepo) getOne(ctx context.Context, query string, arg string) (*entity.Tenant, error) {
	var t entity.Tenant
	err := r.q.QueryRow(ctx, query, arg).Scan(&t.ID, &t.Name, &t.Slug, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get tenant", err)
	}
	return &t, nil
}
