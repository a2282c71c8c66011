package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de evento de stock.
const (
	StockEventReceipt    = "receipt"    // recepción de compra
	StockEventSale       = "sale"       // venta
	StockEventProduction = "production" // producción (+ producto terminado, - consumo de insumos)
	StockEventAdjustment = "adjustment" // ajuste manual
)

// StockEvent es el value object que el motor aplica atómicamente sobre un producto.
// No se persiste por sí mismo; su rastro queda en StockMovement.
type StockEvent struct {
	TenantID         string
	ProductID        string
	Kind             string
	Delta            decimal.Decimal // con signo
	SourceDocumentID string
	ReversalOf       string     // documento compensado (anulación); vacío en eventos normales
	ExpiresAt        *time.Time // vencimiento del lote creado (solo productos por lotes)
	UserID           string

	// Unjournaled marca la reversión de un documento migrado sin diario: permite reponer el
	// lote depletado más reciente. Solo lo fijan cargas internas, nunca la API.
	Unjournaled bool
}

// IsValidStockEventKind indica si kind es un tipo conocido.
func IsValidStockEventKind(kind string) bool {
	switch kind {
	case StockEventReceipt, StockEventSale, StockEventProduction, StockEventAdjustment:
		return true
	}
	return false
}

// IsReversal indica si el evento compensa un documento anterior.
func (e StockEvent) IsReversal() bool {
	return e.ReversalOf != ""
}
