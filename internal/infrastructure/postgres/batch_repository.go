package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/pyme-stock-api/internal/domain"
	"github.com/jhoicas/pyme-stock-api/internal/domain/entity"
	"github.com/jhoicas/pyme-stock-api/internal/domain/repository"
	"github.com/jhoicas/pyme-stock-api/internal/domain/tenant"
)

var _ repository.BatchRepository = (*BatchRepo)(nil)

const batchColumns = `id, tenant_id, product_id, quantity, status, expires_at, depleted_at, created_at, updated_at`

// BatchRepo libro de lotes sobre PostgreSQL.
type BatchRepo struct {
	q Querier
}

// NewBatchRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q}
}

func (r *BatchRepo) Create(ctx context.Context, scope tenant.Scope, b *entity.Batch) error {
	if err := ownedBy(scope, b.TenantID); err != nil {
		return err
	}
	query := `INSERT INTO batches (` + batchColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		b.ID, scope.ID(), b.ProductID, b.Quantity, b.Status, b.ExpiresAt, b.DepletedAt, b.CreatedAt, b.UpdatedAt,
	)
	return mapError("insert batch", err)
}

func (r *BatchRepo) Update(ctx context.Context, scope tenant.Scope, b *entity.Batch) error {
	if err := ownedBy(scope, b.TenantID); err != nil {
		return err
	}
	cmd, err := r.q.Exec(ctx, `
		UPDATE batches SET quantity = $3, status = $4, depleted_at = $5, updated_at = $6
		WHERE tenant_id = $1 AND id = $2`,
		scope.ID(), b.ID, b.Quantity, b.Status, b.DepletedAt, b.UpdatedAt,
	)
	if err != nil {
		return mapError("update batch", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *BatchRepo) GetByID(ctx context.Context, scope tenant.Scope, id string) (*entity.Batch, error) {
	if err := scope.Check(); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, nil
	}
	b, err := scanBatch(r.q.QueryRow(ctx,
		`SELECT `+batchColumns+` FROM batches WHERE tenant_id = $1 AND id = $2`, scope.ID(), id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get batch", err)
	}
	return b, nil
}

func (r *BatchRepo) ListActive(ctx context.Context, scope tenant.Scope, productID string) ([]*entity.Batch, error) {
	return r.list(ctx, scope, productID, true)
}

func (r *BatchRepo) ListByProduct(ctx context.Context, scope tenant.Scope, productID string) ([]*entity.Batch, error) {
	return r.list(ctx, scope, productID, false)
}

func (r *BatchRepo) list(ctx context.Context, scope tenant.Scope, productID string, activeOnly bool) ([]*entity.Batch, error) {
	if err := scope.Check(); err != nil {
		return nil, err
	}
	if !validID(productID) {
		return []*entity.Batch{}, nil
	}
	query := `SELECT ` + batchColumns + ` FROM batches WHERE tenant_id = $1 AND product_id = $2`
	args := []any{scope.ID(), productID}
	if activeOnly {
		query += ` AND status = $3`
		args = append(args, entity.BatchStatusActive)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("list batches", err)
	}
	defer rows.Close()
	list := []*entity.Batch{}
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

func (r *BatchRepo) CountByProduct(ctx context.Context, scope tenant.Scope, productID string) (int, error) {
	if err := scope.Check(); err != nil {
		return 0, err
	}
	if !validID(productID) {
		return 0, nil
	}
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT count(*) FROM batches WHERE tenant_id = $1 AND product_id = $2`, scope.ID(), productID,
	).Scan(&n)
	if err != nil {
		return 0, mapError("count batches", err)
	}
	return n, nil
}

func scanBatch(row pgx.Row) (*entity.Batch, error) {
	var b entity.Batch
	err := row.Scan(&b.ID, &b.TenantID, &b.ProductID, &b.Quantity, &b.Status,
		&b.ExpiresAt, &b.DepletedAt, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.CreatedAt = b.CreatedAt.UTC()
	return &b, nil
}
