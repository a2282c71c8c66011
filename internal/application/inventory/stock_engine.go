package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pyme-stock-api/internal/domain"
	"github.com/jhoicas/pyme-stock-api/internal/domain/entity"
	inv "github.com/jhoicas/pyme-stock-api/internal/domain/inventory"
	"github.com/jhoicas/pyme-stock-api/internal/domain/tenant"
	"github.com/jhoicas/pyme-stock-api/pkg/logger"
)

// StockEngine es la única autoridad de escritura sobre el stock: Product.StockQuantity y lotes.
// Cada aplicación bloquea la fila del producto (GetForUpdate), calcula el nuevo estado y escribe
// dentro de una sola transacción; eventos concurrentes sobre el mismo producto se serializan,
// eventos sobre productos distintos no se bloquean entre sí.
type StockEngine struct {
	txRunner  TxRunner
	publisher StockPublisher
	retry     RetryPolicy
	log       *logger.Logger
	now       func() time.Time
	newID     func() string
}

// NewStockEngine construye el motor. publisher puede ser nil.
func NewStockEngine(txRunner TxRunner, publisher StockPublisher, retry RetryPolicy, log *logger.Logger) *StockEngine {
	if log == nil {
		log = logger.Nop()
	}
	return &StockEngine{
		txRunner:  txRunner,
		publisher: publisher,
		retry:     retry,
		log:       log,
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
		newID:     func() string { return uuid.New().String() },
	}
}

// StockLevel resultado de una aplicación exitosa (NewStockLevel).
type StockLevel struct {
	TenantID         string
	ProductID        string
	Kind             string
	SourceDocumentID string
	ManagesBatches   bool
	Level            decimal.Decimal
}

// ApplyStockEvent aplica un evento en su propia transacción. Reintenta solo ante contención
// del almacenamiento y publica el nuevo nivel tras el commit.
func (e *StockEngine) ApplyStockEvent(ctx context.Context, scope tenant.Scope, ev entity.StockEvent) (*StockLevel, error) {
	var level *StockLevel
	err := e.retry.Do(ctx, e.log, "apply_stock_event", func() error {
		return e.txRunner.Run(ctx, func(repos TxRepos) error {
			l, err := e.ApplyInTx(ctx, repos, scope, ev)
			if err != nil {
				return err
			}
			level = l
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	e.Publish(ctx, level)
	return level, nil
}

// ApplyInTx aplica el evento con los repositorios de la transacción del caller.
// Si retorna error el caller debe hacer rollback (TxRunner.Run lo hace al propagar el error).
func (e *StockEngine) ApplyInTx(ctx context.Context, repos TxRepos, scope tenant.Scope, ev entity.StockEvent) (*StockLevel, error) {
	if err := scope.Check(); err != nil {
		return nil, err
	}
	if ev.TenantID == "" {
		return nil, domain.NewStockError(domain.ErrUnresolvedTenant, ev.ProductID)
	}
	if !scope.Owns(ev.TenantID) {
		return nil, domain.NewStockError(domain.ErrTenantMismatch, ev.ProductID)
	}
	if err := validateEvent(ev); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Bloquea la fila del producto: serialización por (tenant, producto).
	product, err := repos.Products.GetForUpdate(ctx, scope, ev.ProductID)
	if err != nil {
		return nil, productError(err, ev.ProductID)
	}
	if product == nil {
		return nil, domain.NewStockError(domain.ErrUnknownProduct, ev.ProductID)
	}

	direction := entity.MovementDirectionApply
	if ev.IsReversal() {
		direction = entity.MovementDirectionReverse
		// Una reversión se registra siempre bajo el documento que compensa.
		if ev.SourceDocumentID == "" {
			ev.SourceDocumentID = ev.ReversalOf
		}
		if ev.SourceDocumentID != ev.ReversalOf {
			return nil, fmt.Errorf("%w: la reversión de %s no puede registrarse como %s",
				domain.ErrInvalidInput, ev.ReversalOf, ev.SourceDocumentID)
		}
	}
	if ev.SourceDocumentID != "" {
		dup, err := repos.Movements.ExistsForSource(ctx, scope, ev.SourceDocumentID, product.ID, direction)
		if err != nil {
			return nil, err
		}
		if dup {
			return nil, fmt.Errorf("%w: evento %s ya aplicado para documento %s y producto %s",
				domain.ErrDuplicate, direction, ev.SourceDocumentID, product.ID)
		}
	}

	var original []*entity.StockMovement
	if ev.IsReversal() {
		original, err = e.originalMovements(ctx, repos, scope, product, ev)
		if err != nil {
			return nil, err
		}
	}

	state, err := e.loadState(ctx, repos, scope, product)
	if err != nil {
		return nil, err
	}

	now := e.now()
	var level decimal.Decimal
	switch s := state.(type) {
	case *inv.AggregateState:
		level, err = e.applyAggregate(ctx, repos, scope, product, s, ev, direction, now)
	case *inv.BatchState:
		level, err = e.applyBatch(ctx, repos, scope, product, s, ev, original, direction, now)
	default:
		err = fmt.Errorf("estado de stock no soportado: %T", state)
	}
	if err != nil {
		return nil, err
	}

	if err := repos.Products.UpdateStock(ctx, scope, product.ID, level); err != nil {
		return nil, err
	}
	return &StockLevel{
		TenantID:         scope.ID(),
		ProductID:        product.ID,
		Kind:             ev.Kind,
		SourceDocumentID: ev.SourceDocumentID,
		ManagesBatches:   product.ManagesBatches,
		Level:            level,
	}, nil
}

// ExpireDueBatches pasa a expired los lotes activos con vencimiento <= asOf.
// Devuelve el nuevo nivel y la cantidad de lotes vencidos.
func (e *StockEngine) ExpireDueBatches(ctx context.Context, scope tenant.Scope, productID string, asOf time.Time) (*StockLevel, int, error) {
	var (
		level   *StockLevel
		expired int
	)
	err := e.retry.Do(ctx, e.log, "expire_batches", func() error {
		return e.txRunner.Run(ctx, func(repos TxRepos) error {
			if err := scope.Check(); err != nil {
				return err
			}
			product, err := repos.Products.GetForUpdate(ctx, scope, productID)
			if err != nil {
				return productError(err, productID)
			}
			if product == nil {
				return domain.NewStockError(domain.ErrUnknownProduct, productID)
			}
			if !product.ManagesBatches {
				return domain.ErrInvalidInput
			}
			active, err := repos.Batches.ListActive(ctx, scope, productID)
			if err != nil {
				return err
			}
			now := e.now()
			source := "expiry-" + e.newID()
			due := inv.DueForExpiry(active, asOf)
			for i, b := range due {
				b.Status = entity.BatchStatusExpired
				b.UpdatedAt = now
				if err := repos.Batches.Update(ctx, scope, b); err != nil {
					return err
				}
				mov := e.movement(scope, product.ID, b.ID, source, entity.StockEventAdjustment,
					entity.MovementDirectionApply, i, b.Quantity.Neg(), "", now)
				if err := repos.Movements.Create(ctx, scope, mov); err != nil {
					return err
				}
			}
			total := inv.SumActive(active)
			if err := repos.Products.UpdateStock(ctx, scope, productID, total); err != nil {
				return err
			}
			expired = len(due)
			level = &StockLevel{
				TenantID:         scope.ID(),
				ProductID:        productID,
				Kind:             entity.StockEventAdjustment,
				SourceDocumentID: source,
				ManagesBatches:   true,
				Level:            total,
			}
			return nil
		})
	})
	if err != nil {
		return nil, 0, err
	}
	if expired > 0 {
		e.Publish(ctx, level)
	}
	return level, expired, nil
}

// Publish notifica niveles ya confirmados. Los errores se registran y no se propagan.
func (e *StockEngine) Publish(ctx context.Context, levels ...*StockLevel) {
	if e.publisher == nil || len(levels) == 0 {
		return
	}
	at := e.now()
	changes := make([]StockChange, 0, len(levels))
	for _, l := range levels {
		if l == nil {
			continue
		}
		changes = append(changes, StockChange{
			TenantID:         l.TenantID,
			ProductID:        l.ProductID,
			Kind:             l.Kind,
			SourceDocumentID: l.SourceDocumentID,
			Level:            l.Level,
			At:               at,
		})
	}
	if err := e.publisher.PublishStockChanged(ctx, changes...); err != nil {
		e.log.Error().Err(err).Int("changes", len(changes)).Msg("publicar cambios de stock")
	}
}

func (e *StockEngine) loadState(ctx context.Context, repos TxRepos, scope tenant.Scope, product *entity.Product) (inv.StockState, error) {
	if !product.ManagesBatches {
		return &inv.AggregateState{Quantity: product.StockQuantity}, nil
	}
	batches, err := repos.Batches.ListActive(ctx, scope, product.ID)
	if err != nil {
		return nil, err
	}
	inv.SortFIFO(batches)
	return &inv.BatchState{Batches: batches}, nil
}

// originalMovements carga el diario que una reversión compensa y exige que el delta lo
// deshaga exactamente. Sin diario solo se acepta la reposición de un documento migrado
// (Unjournaled) sobre un producto por lotes.
func (e *StockEngine) originalMovements(
	ctx context.Context, repos TxRepos, scope tenant.Scope, product *entity.Product, ev entity.StockEvent,
) ([]*entity.StockMovement, error) {
	original, err := repos.Movements.ListBySource(ctx, scope, ev.ReversalOf, product.ID, entity.MovementDirectionApply)
	if err != nil {
		return nil, err
	}
	if len(original) == 0 {
		if ev.Unjournaled && product.ManagesBatches && ev.Delta.IsPositive() {
			return nil, nil
		}
		return nil, &domain.StockError{
			Kind:      domain.ErrNotFound,
			ProductID: product.ID,
			Err:       fmt.Errorf("el documento %s no movió este producto", ev.ReversalOf),
		}
	}
	total := decimal.Zero
	for _, m := range original {
		total = total.Add(m.Quantity)
	}
	if !total.Neg().Equal(ev.Delta) {
		return nil, &domain.StockError{
			Kind:      domain.ErrInvalidDelta,
			ProductID: product.ID,
			Requested: ev.Delta,
			Available: total.Neg(),
		}
	}
	return original, nil
}

// applyAggregate: nuevo nivel = cantidad + delta; rechaza si quedaría negativo.
func (e *StockEngine) applyAggregate(
	ctx context.Context, repos TxRepos, scope tenant.Scope,
	product *entity.Product, s *inv.AggregateState, ev entity.StockEvent,
	direction string, now time.Time,
) (decimal.Decimal, error) {
	newQty := s.Quantity.Add(ev.Delta)
	if newQty.IsNegative() {
		return decimal.Zero, domain.InsufficientStock(product.ID, ev.Delta.Neg(), s.Quantity)
	}
	mov := e.movement(scope, product.ID, "", ev.SourceDocumentID, ev.Kind, direction, 0, ev.Delta, ev.UserID, now)
	if err := repos.Movements.Create(ctx, scope, mov); err != nil {
		return decimal.Zero, err
	}
	return newQty, nil
}

// applyBatch despacha entre creación de lote, consumo FIFO y reversión.
func (e *StockEngine) applyBatch(
	ctx context.Context, repos TxRepos, scope tenant.Scope,
	product *entity.Product, s *inv.BatchState, ev entity.StockEvent,
	original []*entity.StockMovement, direction string, now time.Time,
) (decimal.Decimal, error) {
	if ev.IsReversal() {
		if len(original) > 0 {
			return e.reverseFromJournal(ctx, repos, scope, product, s, ev, original, now)
		}
		return e.replenishFallback(ctx, repos, scope, product, s, ev, now)
	}
	if ev.Delta.IsPositive() {
		return e.createBatch(ctx, repos, scope, product, s, ev, direction, now)
	}
	return e.consumeFIFO(ctx, repos, scope, product, s, ev, direction, now)
}

func (e *StockEngine) createBatch(
	ctx context.Context, repos TxRepos, scope tenant.Scope,
	product *entity.Product, s *inv.BatchState, ev entity.StockEvent,
	direction string, now time.Time,
) (decimal.Decimal, error) {
	// El orden FIFO depende de created_at: un lote nuevo siempre queda después del último activo.
	createdAt := now
	if n := len(s.Batches); n > 0 && !createdAt.After(s.Batches[n-1].CreatedAt) {
		createdAt = s.Batches[n-1].CreatedAt.Add(time.Microsecond)
	}
	b := &entity.Batch{
		ID:        e.newID(),
		TenantID:  scope.ID(),
		ProductID: product.ID,
		Quantity:  ev.Delta,
		Status:    entity.BatchStatusActive,
		ExpiresAt: ev.ExpiresAt,
		CreatedAt: createdAt,
		UpdatedAt: now,
	}
	if err := repos.Batches.Create(ctx, scope, b); err != nil {
		return decimal.Zero, err
	}
	mov := e.movement(scope, product.ID, b.ID, ev.SourceDocumentID, ev.Kind, direction, 0, ev.Delta, ev.UserID, now)
	if err := repos.Movements.Create(ctx, scope, mov); err != nil {
		return decimal.Zero, err
	}
	return inv.SumActive(append(s.Batches, b)), nil
}

func (e *StockEngine) consumeFIFO(
	ctx context.Context, repos TxRepos, scope tenant.Scope,
	product *entity.Product, s *inv.BatchState, ev entity.StockEvent,
	direction string, now time.Time,
) (decimal.Decimal, error) {
	allocs, err := inv.PlanFIFO(product.ID, s.Batches, ev.Delta.Neg())
	if err != nil {
		return decimal.Zero, err
	}
	byID := make(map[string]*entity.Batch, len(s.Batches))
	for _, b := range s.Batches {
		byID[b.ID] = b
	}
	for i, a := range allocs {
		b := byID[a.BatchID]
		if err := inv.Consume(b, a.Quantity, now); err != nil {
			return decimal.Zero, err
		}
		if err := repos.Batches.Update(ctx, scope, b); err != nil {
			return decimal.Zero, err
		}
		mov := e.movement(scope, product.ID, b.ID, ev.SourceDocumentID, ev.Kind, direction, i, a.Quantity.Neg(), ev.UserID, now)
		if err := repos.Movements.Create(ctx, scope, mov); err != nil {
			return decimal.Zero, err
		}
	}
	return inv.SumActive(s.Batches), nil
}

// reverseFromJournal deshace las líneas del documento original en orden inverso de consumo:
// el último lote tocado se repone primero. Todo se valida antes de escribir.
func (e *StockEngine) reverseFromJournal(
	ctx context.Context, repos TxRepos, scope tenant.Scope,
	product *entity.Product, s *inv.BatchState, ev entity.StockEvent,
	original []*entity.StockMovement, now time.Time,
) (decimal.Decimal, error) {
	touched := make(map[string]*entity.Batch)
	for _, b := range s.Batches {
		touched[b.ID] = b
	}
	type step struct {
		batch *entity.Batch
		qty   decimal.Decimal
	}
	steps := make([]step, 0, len(original))
	changed := make([]*entity.Batch, 0, len(original))
	seen := make(map[string]bool)

	for i := len(original) - 1; i >= 0; i-- {
		m := original[i]
		b, ok := touched[m.BatchID]
		if !ok {
			loaded, err := repos.Batches.GetByID(ctx, scope, m.BatchID)
			if err != nil {
				return decimal.Zero, err
			}
			if loaded == nil {
				return decimal.Zero, fmt.Errorf("%w: lote %s del documento %s no existe", domain.ErrConflict, m.BatchID, ev.ReversalOf)
			}
			b = loaded
			touched[b.ID] = b
		}
		restore := m.Quantity.Neg()
		if restore.IsNegative() {
			// Deshacer una creación: el lote debe conservar lo que se retira.
			need := restore.Neg()
			if !b.IsActive() || b.Quantity.LessThan(need) {
				available := decimal.Zero
				if b.IsActive() {
					available = b.Quantity
				}
				return decimal.Zero, domain.InsufficientStock(product.ID, need, available)
			}
			if err := inv.Consume(b, need, now); err != nil {
				return decimal.Zero, err
			}
		} else {
			inv.Replenish(b, restore, now)
		}
		steps = append(steps, step{batch: b, qty: restore})
		if !seen[b.ID] {
			seen[b.ID] = true
			changed = append(changed, b)
		}
	}

	for _, b := range changed {
		if err := repos.Batches.Update(ctx, scope, b); err != nil {
			return decimal.Zero, err
		}
	}
	for i, st := range steps {
		mov := e.movement(scope, product.ID, st.batch.ID, ev.SourceDocumentID, ev.Kind,
			entity.MovementDirectionReverse, i, st.qty, ev.UserID, now)
		if err := repos.Movements.Create(ctx, scope, mov); err != nil {
			return decimal.Zero, err
		}
	}

	all := make([]*entity.Batch, 0, len(touched))
	for _, b := range touched {
		all = append(all, b)
	}
	return inv.SumActive(all), nil
}

// replenishFallback repone sin diario de origen: lote depletado más reciente, si no el activo
// más nuevo, si no un lote nuevo.
func (e *StockEngine) replenishFallback(
	ctx context.Context, repos TxRepos, scope tenant.Scope,
	product *entity.Product, s *inv.BatchState, ev entity.StockEvent, now time.Time,
) (decimal.Decimal, error) {
	all, err := repos.Batches.ListByProduct(ctx, scope, product.ID)
	if err != nil {
		return decimal.Zero, err
	}
	target := inv.ReplenishTarget(all)
	if target == nil {
		return e.createBatch(ctx, repos, scope, product, s, ev, entity.MovementDirectionReverse, now)
	}
	inv.Replenish(target, ev.Delta, now)
	if err := repos.Batches.Update(ctx, scope, target); err != nil {
		return decimal.Zero, err
	}
	mov := e.movement(scope, product.ID, target.ID, ev.SourceDocumentID, ev.Kind,
		entity.MovementDirectionReverse, 0, ev.Delta, ev.UserID, now)
	if err := repos.Movements.Create(ctx, scope, mov); err != nil {
		return decimal.Zero, err
	}

	merged := make([]*entity.Batch, 0, len(s.Batches)+1)
	for _, b := range s.Batches {
		if b.ID != target.ID {
			merged = append(merged, b)
		}
	}
	merged = append(merged, target)
	return inv.SumActive(merged), nil
}

func (e *StockEngine) movement(
	scope tenant.Scope, productID, batchID, sourceDocumentID, kind, direction string,
	seq int, qty decimal.Decimal, userID string, now time.Time,
) *entity.StockMovement {
	return &entity.StockMovement{
		ID:               e.newID(),
		TenantID:         scope.ID(),
		ProductID:        productID,
		BatchID:          batchID,
		SourceDocumentID: sourceDocumentID,
		Kind:             kind,
		Direction:        direction,
		Sequence:         seq,
		Quantity:         qty,
		CreatedAt:        now,
		CreatedBy:        userID,
	}
}

// validateEvent: delta distinto de cero y con el signo que corresponde al tipo.
// receipt es positivo y sale negativo; en una reversión el signo se invierte.
func validateEvent(ev entity.StockEvent) error {
	if ev.ProductID == "" {
		return domain.NewStockError(domain.ErrUnknownProduct, "")
	}
	if !entity.IsValidStockEventKind(ev.Kind) || ev.Delta.IsZero() {
		return domain.NewStockError(domain.ErrInvalidDelta, ev.ProductID)
	}
	switch ev.Kind {
	case entity.StockEventReceipt:
		if ev.Delta.IsNegative() != ev.IsReversal() {
			return domain.NewStockError(domain.ErrInvalidDelta, ev.ProductID)
		}
	case entity.StockEventSale:
		if ev.Delta.IsPositive() != ev.IsReversal() {
			return domain.NewStockError(domain.ErrInvalidDelta, ev.ProductID)
		}
	}
	return nil
}

func productError(err error, productID string) error {
	switch {
	case errors.Is(err, domain.ErrTenantMismatch):
		return domain.NewStockError(domain.ErrTenantMismatch, productID)
	case errors.Is(err, domain.ErrUnresolvedTenant):
		return domain.NewStockError(domain.ErrUnresolvedTenant, productID)
	}
	return err
}
