package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto. El stock inicial siempre es 0:
// las existencias entran por compras, producción o ajustes.
type CreateProductRequest struct {
	SKU            string `json:"sku" validate:"required,min=1,max=100"`
	Name           string `json:"name" validate:"required,min=1,max=200"`
	Category       string `json:"category"`
	ManagesBatches bool   `json:"manages_batches"`
}

// SetBatchTrackingRequest body de PUT /api/products/:id/batch-tracking.
type SetBatchTrackingRequest struct {
	Enabled bool `json:"enabled"`
}

// BackfillBatchTrackingRequest marca como gestionados por lotes los productos de las categorías.
type BackfillBatchTrackingRequest struct {
	Categories []string `json:"categories"`
}

// BackfillBatchTrackingResponse resultado del backfill.
type BackfillBatchTrackingResponse struct {
	Updated []string          `json:"updated"`
	Skipped map[string]string `json:"skipped"` // productID -> motivo
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID             string          `json:"id"`
	TenantID       string          `json:"tenant_id"`
	SKU            string          `json:"sku"`
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	ManagesBatches bool            `json:"manages_batches"`
	StockQuantity  decimal.Decimal `json:"stock_quantity"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
