package memory

import (
	"context"
	"fmt"

	"github.com/jhoicas/pyme-stock-api/internal/application/inventory"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner implementa inventory.TxRunner sobre el Store.
type TxRunner struct {
	store *Store
}

// NewTxRunner crea el runner.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

// Run ejecuta fn con repositorios de una sesión transaccional. Los bloqueos tomados con
// GetForUpdate se liberan al salir; los cambios solo se aplican si fn retorna nil y el contexto
// sigue vigente.
func (r *TxRunner) Run(ctx context.Context, fn func(repos inventory.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	sess := &session{store: r.store, staged: newChanges()}
	defer sess.release()

	repos := inventory.TxRepos{
		Products:  &ProductRepo{sess: sess},
		Batches:   &BatchRepo{sess: sess},
		Movements: &StockMovementRepo{sess: sess},
		Documents: &DocumentRepo{sess: sess},
	}
	if err := fn(repos); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	if hook := r.store.commitHook(); hook != nil {
		if err := hook(); err != nil {
			return err
		}
	}
	sess.commit()
	return nil
}
