package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockEventRequest body para POST /api/inventory/events (ajustes y eventos directos).
type StockEventRequest struct {
	ProductID        string          `json:"product_id"`
	Kind             string          `json:"kind"` // receipt | sale | production | adjustment
	Delta            decimal.Decimal `json:"delta"`
	SourceDocumentID string          `json:"source_document_id,omitempty"`
	ExpiresAt        *time.Time      `json:"expires_at,omitempty"`
}

// StockLevelResponse nuevo nivel de stock tras aplicar un evento.
type StockLevelResponse struct {
	ProductID        string          `json:"product_id"`
	Kind             string          `json:"kind,omitempty"`
	SourceDocumentID string          `json:"source_document_id,omitempty"`
	ManagesBatches   bool            `json:"manages_batches"`
	Level            decimal.Decimal `json:"level"`
}

// BatchResponse lote activo.
type BatchResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Status    string          `json:"status"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// BatchListResponse lotes activos en orden FIFO y su total.
type BatchListResponse struct {
	ProductID string          `json:"product_id"`
	Total     decimal.Decimal `json:"total"`
	Items     []BatchResponse `json:"items"`
}

// ExpireBatchesRequest body de POST /api/inventory/products/:id/expire. Sin as_of se usa ahora.
type ExpireBatchesRequest struct {
	AsOf *time.Time `json:"as_of,omitempty"`
}

// ExpireBatchesResponse resultado del vencimiento de lotes.
type ExpireBatchesResponse struct {
	ProductID string          `json:"product_id"`
	Expired   int             `json:"expired"`
	Level     decimal.Decimal `json:"level"`
}
