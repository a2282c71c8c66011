package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/pyme-stock-api/internal/domain"
	"github.com/jhoicas/pyme-stock-api/pkg/logger"
)

// RetryPolicy reintento local acotado para domain.ErrStorageContention.
// Ningún otro error se reintenta: InsufficientStock es un resultado de negocio terminal.
type RetryPolicy struct {
	Attempts int           // intentos totales (mínimo 1)
	Backoff  time.Duration // espera base; se duplica en cada intento
}

// Do ejecuta fn hasta que no devuelva contención o se agoten los intentos.
// Respeta el deadline de ctx durante la espera.
func (p RetryPolicy) Do(ctx context.Context, log *logger.Logger, op string, fn func() error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; ; i++ {
		err := fn()
		if err == nil || !domain.IsRetryable(err) || i == attempts-1 {
			return err
		}
		wait := p.Backoff << i
		if log != nil {
			log.Warn().Err(err).
				Str("op", op).
				Int("attempt", i+1).
				Dur("backoff", wait).
				Msg("contención de almacenamiento, reintentando")
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return domain.Contention(ctx.Err())
		case <-timer.C:
		}
	}
}
