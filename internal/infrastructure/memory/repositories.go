package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pyme-stock-api/internal/domain"
	"github.com/jhoicas/pyme-stock-api/internal/domain/entity"
	"github.com/jhoicas/pyme-stock-api/internal/domain/inventory"
	"github.com/jhoicas/pyme-stock-api/internal/domain/repository"
	"github.com/jhoicas/pyme-stock-api/internal/domain/tenant"
)

var (
	_ repository.ProductRepository       = (*ProductRepo)(nil)
	_ repository.BatchRepository         = (*BatchRepo)(nil)
	_ repository.StockMovementRepository = (*StockMovementRepo)(nil)
	_ repository.DocumentRepository      = (*DocumentRepo)(nil)
)

// owned valida que un recurso con tenantID pertenezca al scope.
func owned(scope tenant.Scope, tenantID string) error {
	if err := scope.Check(); err != nil {
		return err
	}
	if !scope.Owns(tenantID) {
		return domain.ErrTenantMismatch
	}
	return nil
}

// ProductRepo implementa repository.ProductRepository.
type ProductRepo struct {
	sess *session
}

func (r *ProductRepo) Create(ctx context.Context, scope tenant.Scope, p *entity.Product) error {
	if err := owned(scope, p.TenantID); err != nil {
		return err
	}
	for _, other := range r.sess.allProducts() {
		if other.ID == p.ID {
			return fmt.Errorf("create product: %w", domain.ErrDuplicate)
		}
		if other.TenantID == p.TenantID && strings.EqualFold(other.SKU, p.SKU) {
			return fmt.Errorf("create product sku %s: %w", p.SKU, domain.ErrDuplicate)
		}
	}
	r.sess.putProduct(p)
	return nil
}

func (r *ProductRepo) GetByID(ctx context.Context, scope tenant.Scope, id string) (*entity.Product, error) {
	if err := scope.Check(); err != nil {
		return nil, err
	}
	p := r.sess.product(id)
	if p == nil {
		return nil, nil
	}
	if !scope.Owns(p.TenantID) {
		return nil, domain.ErrTenantMismatch
	}
	return p, nil
}

// GetForUpdate toma el bloqueo (tenant, producto) hasta el fin de la transacción. En autocommit
// se comporta como GetByID.
func (r *ProductRepo) GetForUpdate(ctx context.Context, scope tenant.Scope, id string) (*entity.Product, error) {
	if err := scope.Check(); err != nil {
		return nil, err
	}
	if r.sess.staged != nil {
		key := "product:" + scope.ID() + ":" + id
		if !r.sess.holds(key) {
			if err := r.sess.store.locks.Lock(ctx, key); err != nil {
				return nil, fmt.Errorf("lock product: %w", err)
			}
			r.sess.held = append(r.sess.held, key)
		}
	}
	return r.GetByID(ctx, scope, id)
}

func (r *ProductRepo) GetBySKU(ctx context.Context, scope tenant.Scope, sku string) (*entity.Product, error) {
	if err := scope.Check(); err != nil {
		return nil, err
	}
	for _, p := range r.sess.allProducts() {
		if p.TenantID == scope.ID() && strings.EqualFold(p.SKU, sku) {
			return p, nil
		}
	}
	return nil, nil
}

func (r *ProductRepo) ListByCategories(ctx context.Context, scope tenant.Scope, categories []string) ([]*entity.Product, error) {
	if err := scope.Check(); err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(categories))
	for _, c := range categories {
		want[strings.ToLower(strings.TrimSpace(c))] = true
	}
	var out []*entity.Product
	for _, p := range r.sess.allProducts() {
		if p.TenantID == scope.ID() && want[strings.ToLower(p.Category)] {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ProductRepo) UpdateStock(ctx context.Context, scope tenant.Scope, productID string, quantity decimal.Decimal) error {
	p, err := r.GetByID(ctx, scope, productID)
	if err != nil {
		return err
	}
	if p == nil {
		return domain.ErrNotFound
	}
	p.StockQuantity = quantity
	p.UpdatedAt = time.Now().UTC()
	r.sess.putProduct(p)
	return nil
}

func (r *ProductRepo) SetManagesBatches(ctx context.Context, scope tenant.Scope, productID string, enabled bool) error {
	p, err := r.GetByID(ctx, scope, productID)
	if err != nil {
		return err
	}
	if p == nil {
		return domain.ErrNotFound
	}
	p.ManagesBatches = enabled
	p.UpdatedAt = time.Now().UTC()
	r.sess.putProduct(p)
	return nil
}

// BatchRepo implementa repository.BatchRepository.
type BatchRepo struct {
	sess *session
}

func (r *BatchRepo) Create(ctx context.Context, scope tenant.Scope, b *entity.Batch) error {
	if err := owned(scope, b.TenantID); err != nil {
		return err
	}
	if r.sess.batch(b.ID) != nil {
		return fmt.Errorf("create batch: %w", domain.ErrDuplicate)
	}
	r.sess.putBatch(b)
	return nil
}

func (r *BatchRepo) Update(ctx context.Context, scope tenant.Scope, b *entity.Batch) error {
	if err := owned(scope, b.TenantID); err != nil {
		return err
	}
	cur := r.sess.batch(b.ID)
	if cur == nil {
		return domain.ErrNotFound
	}
	if cur.TenantID != b.TenantID {
		return domain.ErrTenantMismatch
	}
	r.sess.putBatch(b)
	return nil
}

func (r *BatchRepo) GetByID(ctx context.Context, scope tenant.Scope, id string) (*entity.Batch, error) {
	if err := scope.Check(); err != nil {
		return nil, err
	}
	b := r.sess.batch(id)
	if b == nil {
		return nil, nil
	}
	if !scope.Owns(b.TenantID) {
		return nil, domain.ErrTenantMismatch
	}
	return b, nil
}

func (r *BatchRepo) ListActive(ctx context.Context, scope tenant.Scope, productID string) ([]*entity.Batch, error) {
	all, err := r.ListByProduct(ctx, scope, productID)
	if err != nil {
		return nil, err
	}
	active := all[:0]
	for _, b := range all {
		if b.IsActive() {
			active = append(active, b)
		}
	}
	return active, nil
}

func (r *BatchRepo) ListByProduct(ctx context.Context, scope tenant.Scope, productID string) ([]*entity.Batch, error) {
	if err := scope.Check(); err != nil {
		return nil, err
	}
	list := r.sess.batchesOf(scope.ID(), productID)
	inventory.SortFIFO(list)
	return list, nil
}

func (r *BatchRepo) CountByProduct(ctx context.Context, scope tenant.Scope, productID string) (int, error) {
	if err := scope.Check(); err != nil {
		return 0, err
	}
	return len(r.sess.batchesOf(scope.ID(), productID)), nil
}

// StockMovementRepo implementa repository.StockMovementRepository.
type StockMovementRepo struct {
	sess *session
}

func (r *StockMovementRepo) Create(ctx context.Context, scope tenant.Scope, m *entity.StockMovement) error {
	if err := owned(scope, m.TenantID); err != nil {
		return err
	}
	r.sess.addMovement(m)
	return nil
}

func (r *StockMovementRepo) ListBySource(ctx context.Context, scope tenant.Scope, sourceDocumentID, productID, direction string) ([]*entity.StockMovement, error) {
	if err := scope.Check(); err != nil {
		return nil, err
	}
	list := r.sess.movementsWhere(func(m *entity.StockMovement) bool {
		return m.TenantID == scope.ID() && m.SourceDocumentID == sourceDocumentID &&
			m.ProductID == productID && m.Direction == direction
	})
	sort.SliceStable(list, func(i, j int) bool { return list[i].Sequence < list[j].Sequence })
	return list, nil
}

func (r *StockMovementRepo) ExistsForSource(ctx context.Context, scope tenant.Scope, sourceDocumentID, productID, direction string) (bool, error) {
	list, err := r.ListBySource(ctx, scope, sourceDocumentID, productID, direction)
	if err != nil {
		return false, err
	}
	return len(list) > 0, nil
}

// All devuelve el diario completo de un tenant (tests y auditoría).
func (r *StockMovementRepo) All(scope tenant.Scope) []*entity.StockMovement {
	return r.sess.movementsWhere(func(m *entity.StockMovement) bool { return scope.Owns(m.TenantID) })
}

// DocumentRepo implementa repository.DocumentRepository.
type DocumentRepo struct {
	sess *session
}

func (r *DocumentRepo) Create(ctx context.Context, scope tenant.Scope, d *entity.Document) error {
	if err := owned(scope, d.TenantID); err != nil {
		return err
	}
	if r.sess.document(d.ID) != nil {
		return fmt.Errorf("create document: %w", domain.ErrDuplicate)
	}
	r.sess.putDocument(d)
	return nil
}

func (r *DocumentRepo) GetByID(ctx context.Context, scope tenant.Scope, id string) (*entity.Document, error) {
	if err := scope.Check(); err != nil {
		return nil, err
	}
	d := r.sess.document(id)
	if d == nil {
		return nil, nil
	}
	if !scope.Owns(d.TenantID) {
		return nil, domain.ErrTenantMismatch
	}
	return d, nil
}

func (r *DocumentRepo) GetForUpdate(ctx context.Context, scope tenant.Scope, id string) (*entity.Document, error) {
	if err := scope.Check(); err != nil {
		return nil, err
	}
	if r.sess.staged != nil {
		key := "doc:" + scope.ID() + ":" + id
		if !r.sess.holds(key) {
			if err := r.sess.store.locks.Lock(ctx, key); err != nil {
				return nil, fmt.Errorf("lock document: %w", err)
			}
			r.sess.held = append(r.sess.held, key)
		}
	}
	return r.GetByID(ctx, scope, id)
}

func (r *DocumentRepo) MarkVoided(ctx context.Context, scope tenant.Scope, id string, at time.Time) error {
	d, err := r.GetByID(ctx, scope, id)
	if err != nil {
		return err
	}
	if d == nil {
		return domain.ErrNotFound
	}
	d.Status = entity.DocumentStatusVoided
	d.VoidedAt = &at
	r.sess.putDocument(d)
	return nil
}
