package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/pyme-stock-api/internal/domain/entity"
	"github.com/jhoicas/pyme-stock-api/internal/domain/repository"
	"github.com/jhoicas/pyme-stock-api/internal/domain/tenant"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo diario de stock (append-only) sobre PostgreSQL.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

func (r *StockMovementRepo) Create(ctx context.Context, scope tenant.Scope, m *entity.StockMovement) error {
	if err := ownedBy(scope, m.TenantID); err != nil {
		return err
	}
	var batchID *string
	if m.BatchID != "" {
		batchID = &m.BatchID
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_movements
			(id, tenant_id, product_id, batch_id, source_document_id, kind, direction, sequence, quantity, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		m.ID, scope.ID(), m.ProductID, batchID, m.SourceDocumentID, m.Kind, m.Direction,
		m.Sequence, m.Quantity, m.CreatedAt, m.CreatedBy,
	)
	return mapError("insert stock movement", err)
}

func (r *StockMovementRepo) ListBySource(ctx context.Context, scope tenant.Scope, sourceDocumentID, productID, direction string) ([]*entity.StockMovement, error) {
	if err := scope.Check(); err != nil {
		return nil, err
	}
	if !validID(productID) {
		return nil, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, tenant_id, product_id, COALESCE(batch_id::text, ''), source_document_id, kind, direction,
		       sequence, quantity, created_at, created_by
		FROM stock_movements
		WHERE tenant_id = $1 AND source_document_id = $2 AND product_id = $3 AND direction = $4
		ORDER BY sequence ASC`,
		scope.ID(), sourceDocumentID, productID, direction,
	)
	if err != nil {
		return nil, mapError("list stock movements", err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		if err := rows.Scan(&m.ID, &m.TenantID, &m.ProductID, &m.BatchID, &m.SourceDocumentID, &m.Kind,
			&m.Direction, &m.Sequence, &m.Quantity, &m.CreatedAt, &m.CreatedBy); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}

func (r *StockMovementRepo) ExistsForSource(ctx context.Context, scope tenant.Scope, sourceDocumentID, productID, direction string) (bool, error) {
	if err := scope.Check(); err != nil {
		return false, err
	}
	if !validID(productID) {
		return false, nil
	}
	var exists bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM stock_movements
			WHERE tenant_id = $1 AND source_document_id = $2 AND product_id = $3 AND direction = $4
		)`, scope.ID(), sourceDocumentID, productID, direction,
	).Scan(&exists)
	if err != nil {
		return false, mapError("stock movement exists", err)
	}
	return exists, nil
}
