package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo de un tenant.
// ManagesBatches decide la granularidad del stock: por lotes (Batch) o cantidad agregada.
// StockQuantity es autoritativo solo cuando ManagesBatches es false; en productos por lotes
// el motor lo mantiene igual a la suma de lotes activos.
type Product struct {
	ID             string
	TenantID       string
	SKU            string
	Name           string
	Category       string
	ManagesBatches bool
	StockQuantity  decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
