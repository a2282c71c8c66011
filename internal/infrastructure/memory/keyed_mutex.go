package memory

import (
	"context"
	"sync"
)

// keyedMutex exclusión mutua por clave (tenant, producto). Claves distintas no se bloquean
// entre sí. La espera respeta la cancelación del contexto.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyLock)}
}

// Lock bloquea key; devuelve ctx.Err() si el contexto vence antes de obtenerlo.
func (k *keyedMutex) Lock(ctx context.Context, key string) error {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{ch: make(chan struct{}, 1)}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		k.mu.Lock()
		k.dropRef(key, l)
		k.mu.Unlock()
		return ctx.Err()
	}
}

// Unlock libera key. Debe llamarse solo tras un Lock exitoso.
func (k *keyedMutex) Unlock(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	l, ok := k.locks[key]
	if !ok {
		return
	}
	<-l.ch
	k.dropRef(key, l)
}

func (k *keyedMutex) dropRef(key string, l *keyLock) {
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
}

// size número de claves con referencias vivas (tests).
func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
