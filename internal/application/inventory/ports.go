package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pyme-stock-api/internal/domain/entity"
	"github.com/jhoicas/pyme-stock-api/internal/domain/repository"
)

// TxRepos repositorios atados a una misma transacción.
type TxRepos struct {
	Products  repository.ProductRepository
	Batches   repository.BatchRepository
	Movements repository.StockMovementRepository
	Documents repository.DocumentRepository
}

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Commit si fn retorna nil; Rollback en cualquier otra salida (error, panic, contexto vencido).
// Los errores transitorios del almacenamiento se devuelven como domain.ErrStorageContention.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos TxRepos) error) error
}

// StockChange notificación de un nuevo nivel de stock tras un commit.
type StockChange struct {
	TenantID         string          `json:"tenant_id"`
	ProductID        string          `json:"product_id"`
	Kind             string          `json:"kind"`
	SourceDocumentID string          `json:"source_document_id,omitempty"`
	Level            decimal.Decimal `json:"level"`
	At               time.Time       `json:"at"`
}

// StockPublisher publica cambios de stock ya confirmados. Fallar aquí no revierte nada.
type StockPublisher interface {
	PublishStockChanged(ctx context.Context, changes ...StockChange) error
}

// BatchReportRenderer genera la representación (PDF) del reporte de lotes de un producto.
type BatchReportRenderer interface {
	RenderBatchReport(ctx context.Context, product *entity.Product, batches []*entity.Batch, generatedAt time.Time) ([]byte, error)
}
