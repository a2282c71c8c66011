package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentLineRequest línea de una venta, compra u orden de producción.
// Role solo aplica en producción: "input" (insumo) u "output" (producto terminado).
type DocumentLineRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Role      string          `json:"role,omitempty"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
}

// CreateDocumentRequest body de POST /api/sales, /api/purchases y /api/production.
type CreateDocumentRequest struct {
	Number         string                `json:"number"`
	CounterpartyID string                `json:"counterparty_id,omitempty"`
	Lines          []DocumentLineRequest `json:"lines"`
}

// DocumentLineResponse línea persistida.
type DocumentLineResponse struct {
	ProductID string          `json:"product_id"`
	Role      string          `json:"role"`
	Quantity  decimal.Decimal `json:"quantity"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
}

// DocumentResponse documento con los niveles de stock resultantes.
type DocumentResponse struct {
	ID             string                 `json:"id"`
	Type           string                 `json:"type"`
	Number         string                 `json:"number"`
	CounterpartyID string                 `json:"counterparty_id,omitempty"`
	Status         string                 `json:"status"`
	Lines          []DocumentLineResponse `json:"lines"`
	StockLevels    []StockLevelResponse   `json:"stock_levels"`
	CreatedAt      time.Time              `json:"created_at"`
	VoidedAt       *time.Time             `json:"voided_at,omitempty"`
}
