package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/pyme-stock-api/internal/application/inventory"
	"github.com/jhoicas/pyme-stock-api/internal/domain"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// Espera máxima por un lock de fila antes de fallar con 55P03 (se reintenta como contención).
const lockTimeout = "5s"

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// El rollback diferido cubre error, panic y cancelación del contexto.
func (r *TxRunner) Run(ctx context.Context, fn func(repos inventory.TxRepos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return contention(fmt.Errorf("begin transaction: %w", err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "SET LOCAL lock_timeout = '"+lockTimeout+"'"); err != nil {
		return fmt.Errorf("set lock_timeout: %w", err)
	}

	repos := inventory.TxRepos{
		Products:  NewProductRepository(tx),
		Batches:   NewBatchRepository(tx),
		Movements: NewStockMovementRepository(tx),
		Documents: NewDocumentRepository(tx),
	}
	if err := fn(repos); err != nil {
		return contention(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return contention(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

func contention(err error) error {
	if isContention(err) && !domain.IsRetryable(err) {
		return domain.Contention(err)
	}
	return err
}
