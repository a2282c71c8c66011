package inventory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pyme-stock-api/internal/domain"
	"github.com/jhoicas/pyme-stock-api/internal/domain/entity"
	"github.com/jhoicas/pyme-stock-api/internal/domain/inventory"
)

var t0 = time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)

func batch(id string, qty int64, created time.Time) *entity.Batch {
	return &entity.Batch{
		ID:        id,
		ProductID: "p1",
		Quantity:  decimal.NewFromInt(qty),
		Status:    entity.BatchStatusActive,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestPlanFIFO_ConsumeLoteMasAntiguoPrimero(t *testing.T) {
	// Entregados en desorden: el plan debe ordenarlos por CreatedAt.
	batches := []*entity.Batch{
		batch("b2", 4, t0.Add(time.Hour)),
		batch("b1", 3, t0),
	}

	allocs, err := inventory.PlanFIFO("p1", batches, decimal.NewFromInt(5))
	require.NoError(t, err)
	require.Len(t, allocs, 2)

	assert.Equal(t, "b1", allocs[0].BatchID)
	assert.True(t, allocs[0].Quantity.Equal(decimal.NewFromInt(3)))
	assert.True(t, allocs[0].Depleted)

	assert.Equal(t, "b2", allocs[1].BatchID)
	assert.True(t, allocs[1].Quantity.Equal(decimal.NewFromInt(2)))
	assert.False(t, allocs[1].Depleted)

	// El plan no muta los lotes.
	assert.True(t, batches[1].Quantity.Equal(decimal.NewFromInt(3)))
}

func TestPlanFIFO_StockInsuficienteNoAsigna(t *testing.T) {
	batches := []*entity.Batch{batch("b1", 3, t0), batch("b2", 4, t0.Add(time.Minute))}

	allocs, err := inventory.PlanFIFO("p1", batches, decimal.NewFromInt(10))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Nil(t, allocs)

	var stockErr *domain.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.True(t, stockErr.Available.Equal(decimal.NewFromInt(7)))
	assert.True(t, stockErr.Requested.Equal(decimal.NewFromInt(10)))
}

func TestPlanFIFO_IgnoraLotesNoActivos(t *testing.T) {
	expired := batch("b0", 50, t0.Add(-time.Hour))
	expired.Status = entity.BatchStatusExpired
	batches := []*entity.Batch{expired, batch("b1", 3, t0)}

	allocs, err := inventory.PlanFIFO("p1", batches, decimal.NewFromInt(2))
	require.NoError(t, err)
	require.Len(t, allocs, 1)
	assert.Equal(t, "b1", allocs[0].BatchID)
}

func TestPlanFIFO_CantidadNoPositiva(t *testing.T) {
	_, err := inventory.PlanFIFO("p1", []*entity.Batch{batch("b1", 3, t0)}, decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidDelta)
}

func TestSortFIFO_DesempataPorID(t *testing.T) {
	batches := []*entity.Batch{batch("b", 1, t0), batch("a", 1, t0)}
	inventory.SortFIFO(batches)
	assert.Equal(t, "a", batches[0].ID)
}

func TestConsumeYReplenish_TransicionesDeEstado(t *testing.T) {
	b := batch("b1", 3, t0)
	now := t0.Add(time.Hour)

	require.NoError(t, inventory.Consume(b, decimal.NewFromInt(3), now))
	assert.Equal(t, entity.BatchStatusDepleted, b.Status)
	require.NotNil(t, b.DepletedAt)

	inventory.Replenish(b, decimal.NewFromInt(2), now.Add(time.Minute))
	assert.Equal(t, entity.BatchStatusActive, b.Status)
	assert.Nil(t, b.DepletedAt)
	assert.True(t, b.Quantity.Equal(decimal.NewFromInt(2)))

	err := inventory.Consume(b, decimal.NewFromInt(5), now)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestReplenishTarget_PrefiereElDepletadoMasReciente(t *testing.T) {
	old := batch("old", 0, t0)
	old.Status = entity.BatchStatusDepleted
	d1 := t0.Add(time.Hour)
	old.DepletedAt = &d1

	recent := batch("recent", 0, t0.Add(time.Minute))
	recent.Status = entity.BatchStatusDepleted
	d2 := t0.Add(2 * time.Hour)
	recent.DepletedAt = &d2

	active := batch("active", 5, t0.Add(2*time.Minute))

	target := inventory.ReplenishTarget([]*entity.Batch{old, active, recent})
	require.NotNil(t, target)
	assert.Equal(t, "recent", target.ID)

	target = inventory.ReplenishTarget([]*entity.Batch{active})
	require.NotNil(t, target)
	assert.Equal(t, "active", target.ID)

	assert.Nil(t, inventory.ReplenishTarget(nil))
}

func TestDueForExpiry(t *testing.T) {
	exp := t0.Add(24 * time.Hour)
	due := batch("due", 2, t0)
	due.ExpiresAt = &exp
	later := batch("later", 2, t0)
	future := t0.Add(72 * time.Hour)
	later.ExpiresAt = &future

	list := inventory.DueForExpiry([]*entity.Batch{due, later, batch("noexp", 1, t0)}, t0.Add(48*time.Hour))
	require.Len(t, list, 1)
	assert.Equal(t, "due", list[0].ID)
}
