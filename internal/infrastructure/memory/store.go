// Package memory implementa los puertos de persistencia en memoria de proceso.
//
// Sirve para despliegues de un solo proceso (STORAGE_DRIVER=memory) y para los tests del motor.
// Reproduce la semántica del almacenamiento PostgreSQL: GetForUpdate toma un bloqueo por
// (tenant, producto) que se mantiene hasta el fin de la transacción, y las escrituras de una
// transacción se acumulan y se aplican de una sola vez en el commit.
package memory

import (
	"sync"

	"github.com/jhoicas/pyme-stock-api/internal/domain/entity"
)

// Store estado confirmado.
type Store struct {
	mu        sync.RWMutex
	tenants   map[string]*entity.Tenant
	products  map[string]*entity.Product
	batches   map[string]*entity.Batch
	movements []*entity.StockMovement
	documents map[string]*entity.Document

	locks *keyedMutex

	hookMu       sync.Mutex
	beforeCommit func() error
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		tenants:   make(map[string]*entity.Tenant),
		products:  make(map[string]*entity.Product),
		batches:   make(map[string]*entity.Batch),
		documents: make(map[string]*entity.Document),
		locks:     newKeyedMutex(),
	}
}

// SetBeforeCommit instala un hook que corre antes de cada commit; si devuelve error la
// transacción se descarta. Permite simular contención en tests.
func (s *Store) SetBeforeCommit(fn func() error) {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	s.beforeCommit = fn
}

func (s *Store) commitHook() func() error {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	return s.beforeCommit
}

// Tenants repositorio de tenants (sin transacción).
func (s *Store) Tenants() *TenantRepo { return &TenantRepo{store: s} }

// Products repositorio de productos sobre el estado confirmado.
func (s *Store) Products() *ProductRepo { return &ProductRepo{sess: s.autocommit()} }

// Batches repositorio de lotes sobre el estado confirmado.
func (s *Store) Batches() *BatchRepo { return &BatchRepo{sess: s.autocommit()} }

// Movements repositorio del diario sobre el estado confirmado.
func (s *Store) Movements() *StockMovementRepo { return &StockMovementRepo{sess: s.autocommit()} }

// Documents repositorio de documentos sobre el estado confirmado.
func (s *Store) Documents() *DocumentRepo { return &DocumentRepo{sess: s.autocommit()} }

func (s *Store) autocommit() *session {
	return &session{store: s}
}

// session es la vista de una transacción (staged != nil) o de autocommit (staged == nil).
type session struct {
	store  *Store
	staged *changes
	held   []string
}

type changes struct {
	products  map[string]*entity.Product
	batches   map[string]*entity.Batch
	movements []*entity.StockMovement
	documents map[string]*entity.Document
}

func newChanges() *changes {
	return &changes{
		products:  make(map[string]*entity.Product),
		batches:   make(map[string]*entity.Batch),
		documents: make(map[string]*entity.Document),
	}
}

func (s *session) holds(key string) bool {
	for _, k := range s.held {
		if k == key {
			return true
		}
	}
	return false
}

// release libera los bloqueos en orden inverso de adquisición.
func (s *session) release() {
	for i := len(s.held) - 1; i >= 0; i-- {
		s.store.locks.Unlock(s.held[i])
	}
	s.held = nil
}

// commit aplica los cambios acumulados de una vez.
func (s *session) commit() {
	if s.staged == nil {
		return
	}
	st := s.store
	st.mu.Lock()
	defer st.mu.Unlock()
	for id, p := range s.staged.products {
		st.products[id] = p
	}
	for id, b := range s.staged.batches {
		st.batches[id] = b
	}
	st.movements = append(st.movements, s.staged.movements...)
	for id, d := range s.staged.documents {
		st.documents[id] = d
	}
	s.staged = nil
}

func (s *session) product(id string) *entity.Product {
	if s.staged != nil {
		if p, ok := s.staged.products[id]; ok {
			return cloneProduct(p)
		}
	}
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	if p, ok := s.store.products[id]; ok {
		return cloneProduct(p)
	}
	return nil
}

func (s *session) putProduct(p *entity.Product) {
	c := cloneProduct(p)
	if s.staged != nil {
		s.staged.products[p.ID] = c
		return
	}
	s.store.mu.Lock()
	s.store.products[p.ID] = c
	s.store.mu.Unlock()
}

func (s *session) allProducts() []*entity.Product {
	s.store.mu.RLock()
	merged := make(map[string]*entity.Product, len(s.store.products))
	for id, p := range s.store.products {
		merged[id] = p
	}
	s.store.mu.RUnlock()
	if s.staged != nil {
		for id, p := range s.staged.products {
			merged[id] = p
		}
	}
	out := make([]*entity.Product, 0, len(merged))
	for _, p := range merged {
		out = append(out, cloneProduct(p))
	}
	return out
}

func (s *session) batch(id string) *entity.Batch {
	if s.staged != nil {
		if b, ok := s.staged.batches[id]; ok {
			return b.Clone()
		}
	}
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	if b, ok := s.store.batches[id]; ok {
		return b.Clone()
	}
	return nil
}

func (s *session) putBatch(b *entity.Batch) {
	c := b.Clone()
	if s.staged != nil {
		s.staged.batches[b.ID] = c
		return
	}
	s.store.mu.Lock()
	s.store.batches[b.ID] = c
	s.store.mu.Unlock()
}

func (s *session) batchesOf(tenantID, productID string) []*entity.Batch {
	merged := make(map[string]*entity.Batch)
	s.store.mu.RLock()
	for id, b := range s.store.batches {
		if b.TenantID == tenantID && b.ProductID == productID {
			merged[id] = b
		}
	}
	s.store.mu.RUnlock()
	if s.staged != nil {
		for id, b := range s.staged.batches {
			if b.TenantID == tenantID && b.ProductID == productID {
				merged[id] = b
			}
		}
	}
	out := make([]*entity.Batch, 0, len(merged))
	for _, b := range merged {
		out = append(out, b.Clone())
	}
	return out
}

func (s *session) movementsWhere(match func(m *entity.StockMovement) bool) []*entity.StockMovement {
	var out []*entity.StockMovement
	s.store.mu.RLock()
	for _, m := range s.store.movements {
		if match(m) {
			c := *m
			out = append(out, &c)
		}
	}
	s.store.mu.RUnlock()
	if s.staged != nil {
		for _, m := range s.staged.movements {
			if match(m) {
				c := *m
				out = append(out, &c)
			}
		}
	}
	return out
}

func (s *session) addMovement(m *entity.StockMovement) {
	c := *m
	if s.staged != nil {
		s.staged.movements = append(s.staged.movements, &c)
		return
	}
	s.store.mu.Lock()
	s.store.movements = append(s.store.movements, &c)
	s.store.mu.Unlock()
}

func (s *session) document(id string) *entity.Document {
	if s.staged != nil {
		if d, ok := s.staged.documents[id]; ok {
			return cloneDocument(d)
		}
	}
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	if d, ok := s.store.documents[id]; ok {
		return cloneDocument(d)
	}
	return nil
}

func (s *session) putDocument(d *entity.Document) {
	c := cloneDocument(d)
	if s.staged != nil {
		s.staged.documents[d.ID] = c
		return
	}
	s.store.mu.Lock()
	s.store.documents[d.ID] = c
	s.store.mu.Unlock()
}

func cloneProduct(p *entity.Product) *entity.Product {
	c := *p
	return &c
}

func cloneDocument(d *entity.Document) *entity.Document {
	c := *d
	c.Lines = append([]entity.DocumentLine(nil), d.Lines...)
	if d.VoidedAt != nil {
		t := *d.VoidedAt
		c.VoidedAt = &t
	}
	return &c
}
