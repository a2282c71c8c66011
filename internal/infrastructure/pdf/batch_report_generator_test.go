package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pyme-stock-api/internal/domain/entity"
)

func TestRenderBatchReport(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	exp := now.Add(72 * time.Hour)
	product := &entity.Product{ID: "p1", SKU: "LECHE-1L", Name: "Leche entera", ManagesBatches: true}
	batches := []*entity.Batch{
		{ID: "b1", ProductID: "p1", Quantity: decimal.NewFromInt(3), Status: entity.BatchStatusActive, ExpiresAt: &exp, CreatedAt: now.Add(-48 * time.Hour)},
		{ID: "b2", ProductID: "p1", Quantity: decimal.NewFromInt(4), Status: entity.BatchStatusActive, CreatedAt: now.Add(-24 * time.Hour)},
	}

	out, err := NewBatchReportGenerator().RenderBatchReport(context.Background(), product, batches, now)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	empty, err := NewBatchReportGenerator().RenderBatchReport(context.Background(), product, nil, now)
	require.NoError(t, err)
	assert.NotEmpty(t, empty)
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2026, 5, 1, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, daysUntil(now, time.Date(2026, 5, 2, 1, 0, 0, 0, time.UTC)))
	assert.Equal(t, -2, daysUntil(now, time.Date(2026, 4, 29, 0, 0, 0, 0, time.UTC)))
}
