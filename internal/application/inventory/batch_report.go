package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/pyme-stock-api/internal/domain"
	"github.com/jhoicas/pyme-stock-api/internal/domain/tenant"
)

// BatchReportUseCase genera el reporte (PDF) de lotes activos y su vencimiento.
type BatchReportUseCase struct {
	ledger   *BatchLedger
	renderer BatchReportRenderer
}

// NewBatchReportUseCase construye el caso de uso.
func NewBatchReportUseCase(ledger *BatchLedger, renderer BatchReportRenderer) *BatchReportUseCase {
	return &BatchReportUseCase{ledger: ledger, renderer: renderer}
}

// Generate devuelve los bytes del reporte para un producto por lotes.
func (uc *BatchReportUseCase) Generate(ctx context.Context, scope tenant.Scope, productID string) ([]byte, error) {
	product, err := uc.ledger.Product(ctx, scope, productID)
	if err != nil {
		return nil, err
	}
	if !product.ManagesBatches {
		return nil, domain.ErrInvalidInput
	}
	batches, err := uc.ledger.ActiveBatches(ctx, scope, productID)
	if err != nil {
		return nil, err
	}
	return uc.renderer.RenderBatchReport(ctx, product, batches, time.Now())
}
