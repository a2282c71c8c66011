package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de documento de negocio que afectan stock.
const (
	DocumentTypeSale       = "sale"
	DocumentTypePurchase   = "purchase"
	DocumentTypeProduction = "production"
)

// Estados de documento.
const (
	DocumentStatusCommitted = "committed"
	DocumentStatusVoided    = "voided"
)

// Rol de una línea: en producción los insumos son input y el producto terminado output.
// Ventas usan input (sale stock) y compras output (entra stock).
const (
	LineRoleInput  = "input"
	LineRoleOutput = "output"
)

// Document es la cabecera de una venta, compra u orden de producción.
type Document struct {
	ID             string
	TenantID       string
	Type           string
	Number         string
	CounterpartyID string // cliente (venta) o proveedor (compra); vacío en producción
	Status         string
	Lines          []DocumentLine
	CreatedAt      time.Time
	CreatedBy      string
	VoidedAt       *time.Time
}

// DocumentLine línea de un documento.
type DocumentLine struct {
	ID         string
	DocumentID string
	ProductID  string
	Role       string
	Quantity   decimal.Decimal // siempre positiva
	ExpiresAt  *time.Time      // vencimiento del lote producido/recibido
}
