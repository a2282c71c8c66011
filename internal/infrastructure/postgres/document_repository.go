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
	"github.com/jhoicas/pyme-stock-api/internal/domain/tenant"
)

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

const documentColumns = `id, tenant_id, type, number, counterparty_id, status, created_at, created_by, voided_at`

// DocumentRepo ventas, compras y órdenes de producción (cabecera y líneas).
type DocumentRepo struct {
	q Querier
}

// NewDocumentRepository construye el adaptador. Create debe ir dentro de una tx para que cabecera
// y líneas queden juntas.
func NewDocumentRepository(q Querier) *DocumentRepo {
	return &DocumentRepo{q: q}
}

func (r *DocumentRepo) Create(ctx context.Context, scope tenant.Scope, d *entity.Document) error {
	if err := ownedBy(scope, d.TenantID); err != nil {
		return err
	}
	_, err := r.q.Exec(ctx, `INSERT INTO documents (`+documentColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		d.ID, scope.ID(), d.Type, d.Number, d.CounterpartyID, d.Status, d.CreatedAt, d.CreatedBy, d.VoidedAt,
	)
	if err != nil {
		return mapError("insert document", err)
	}
	for _, l := range d.Lines {
		_, err := r.q.Exec(ctx, `
			INSERT INTO document_lines (id, tenant_id, document_id, product_id, role, quantity, expires_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			l.ID, scope.ID(), d.ID, l.ProductID, l.Role, l.Quantity, l.ExpiresAt,
		)
		if err != nil {
			return mapError("insert document line", err)
		}
	}
	return nil
}

func (r *DocumentRepo) GetByID(ctx context.Context, scope tenant.Scope, id string) (*entity.Document, error) {
	return r.get(ctx, scope, id, "")
}

func (r *DocumentRepo) GetForUpdate(ctx context.Context, scope tenant.Scope, id string) (*entity.Document, error) {
	return r.get(ctx, scope, id, " FOR UPDATE")
}

func (r *DocumentRepo) get(ctx context.Context, scope tenant.Scope, id, lock string) (*entity.Document, error) {
	if err := scope.Check(); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, nil
	}
	var d entity.Document
	err := r.q.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE tenant_id = $1 AND id = $2`+lock,
		scope.ID(), id,
	).Scan(&d.ID, &d.TenantID, &d.Type, &d.Number, &d.CounterpartyID, &d.Status, &d.CreatedAt, &d.CreatedBy, &d.VoidedAt)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, mapError("get document", err)
		}
		var exists bool
		if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM documents WHERE id = $1)`, id).Scan(&exists); err != nil {
			return nil, mapError("document exists", err)
		}
		if exists {
			return nil, domain.ErrTenantMismatch
		}
		return nil, nil
	}

	rows, err := r.q.Query(ctx, `
		SELECT id, document_id, product_id, role, quantity, expires_at
		FROM document_lines WHERE tenant_id = $1 AND document_id = $2 ORDER BY product_id`,
		scope.ID(), id,
	)
	if err != nil {
		return nil, mapError("list document lines", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.DocumentLine
		if err := rows.Scan(&l.ID, &l.DocumentID, &l.ProductID, &l.Role, &l.Quantity, &l.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan document line: %w", err)
		}
		d.Lines = append(d.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DocumentRepo) MarkVoided(ctx context.Context, scope tenant.Scope, id string, at time.Time) error {
	if err := scope.Check(); err != nil {
		return err
	}
	cmd, err := r.q.Exec(ctx,
		`UPDATE documents SET status = $3, voided_at = $4 WHERE tenant_id = $1 AND id = $2`,
		scope.ID(), id, entity.DocumentStatusVoided, at,
	)
	if err != nil {
		return mapError("void document", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
