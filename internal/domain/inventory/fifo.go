package inventory

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pyme-stock-api/internal/domain"
	"github.com/jhoicas/pyme-stock-api/internal/domain/entity"
)

// Allocation es la porción de un lote que toca un evento. Quantity es positiva: cantidad
// consumida en un consumo, cantidad devuelta en una reposición.
type Allocation struct {
	BatchID  string
	Quantity decimal.Decimal
	Depleted bool // el lote queda en 0 tras el consumo
}

// SortFIFO ordena los lotes por CreatedAt ascendente; a igual fecha, por ID.
func SortFIFO(batches []*entity.Batch) {
	sort.SliceStable(batches, func(i, j int) bool {
		a, b := batches[i], batches[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// PlanFIFO calcula el consumo de qty sobre los lotes activos, del más antiguo al más nuevo.
// No muta los lotes. Si la suma activa no cubre qty devuelve ErrInsufficientStock y ninguna
// asignación: nunca hay consumo parcial.
func PlanFIFO(productID string, batches []*entity.Batch, qty decimal.Decimal) ([]Allocation, error) {
	if !qty.GreaterThan(decimal.Zero) {
		return nil, domain.NewStockError(domain.ErrInvalidDelta, productID)
	}
	ordered := make([]*entity.Batch, 0, len(batches))
	for _, b := range batches {
		if b.IsActive() && b.Quantity.GreaterThan(decimal.Zero) {
			ordered = append(ordered, b)
		}
	}
	SortFIFO(ordered)

	available := SumActive(ordered)
	if available.LessThan(qty) {
		return nil, domain.InsufficientStock(productID, qty, available)
	}

	remaining := qty
	allocs := make([]Allocation, 0, len(ordered))
	for _, b := range ordered {
		if remaining.IsZero() {
			break
		}
		take := decimal.Min(b.Quantity, remaining)
		allocs = append(allocs, Allocation{
			BatchID:  b.ID,
			Quantity: take,
			Depleted: take.Equal(b.Quantity),
		})
		remaining = remaining.Sub(take)
	}
	return allocs, nil
}

// Consume descuenta una asignación de un lote y lo marca depleted si llega a 0.
func Consume(b *entity.Batch, qty decimal.Decimal, now time.Time) error {
	if b.Quantity.LessThan(qty) {
		return domain.InsufficientStock(b.ProductID, qty, b.Quantity)
	}
	b.Quantity = b.Quantity.Sub(qty)
	b.UpdatedAt = now
	if b.Quantity.IsZero() {
		b.Status = entity.BatchStatusDepleted
		t := now
		b.DepletedAt = &t
	}
	return nil
}

// Replenish devuelve cantidad a un lote. Un lote depleted vuelve a active; uno expired
// conserva su estado (la cantidad regresa pero no cuenta como stock disponible).
func Replenish(b *entity.Batch, qty decimal.Decimal, now time.Time) {
	b.Quantity = b.Quantity.Add(qty)
	b.UpdatedAt = now
	if b.Status == entity.BatchStatusDepleted && b.Quantity.GreaterThan(decimal.Zero) {
		b.Status = entity.BatchStatusActive
		b.DepletedAt = nil
	}
}

// ReplenishTarget elige el lote que recibe una reposición sin diario de origen:
// el depletado más recientemente; si no hay, el activo más nuevo; si no hay ninguno, nil.
func ReplenishTarget(batches []*entity.Batch) *entity.Batch {
	var depleted, newestActive *entity.Batch
	for _, b := range batches {
		switch b.Status {
		case entity.BatchStatusDepleted:
			if depleted == nil || depletedAfter(b, depleted) {
				depleted = b
			}
		case entity.BatchStatusActive:
			if newestActive == nil || b.CreatedAt.After(newestActive.CreatedAt) ||
				(b.CreatedAt.Equal(newestActive.CreatedAt) && b.ID > newestActive.ID) {
				newestActive = b
			}
		}
	}
	if depleted != nil {
		return depleted
	}
	return newestActive
}

func depletedAfter(a, b *entity.Batch) bool {
	at, bt := depletedAt(a), depletedAt(b)
	if !at.Equal(bt) {
		return at.After(bt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func depletedAt(b *entity.Batch) time.Time {
	if b.DepletedAt != nil {
		return *b.DepletedAt
	}
	return b.UpdatedAt
}

// DueForExpiry devuelve los lotes activos cuyo vencimiento es <= asOf.
func DueForExpiry(batches []*entity.Batch, asOf time.Time) []*entity.Batch {
	var due []*entity.Batch
	for _, b := range batches {
		if b.IsActive() && b.ExpiresAt != nil && !b.ExpiresAt.After(asOf) {
			due = append(due, b)
		}
	}
	return due
}
