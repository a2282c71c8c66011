package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Dirección de un movimiento dentro del diario.
const (
	MovementDirectionApply   = "apply"   // aplicación original del evento
	MovementDirectionReverse = "reverse" // compensación de una anulación
)

// StockMovement es una línea del diario de stock. Una aplicación de evento escribe una línea por
// lote tocado (productos por lotes) o una sola línea (productos agregados). Sequence conserva el
// orden de consumo FIFO para poder revertirlo en orden inverso.
type StockMovement struct {
	ID               string
	TenantID         string
	ProductID        string
	BatchID          string // vacío en productos agregados
	SourceDocumentID string
	Kind             string // receipt, sale, production, adjustment
	Direction        string // apply, reverse
	Sequence         int
	Quantity         decimal.Decimal // con signo
	CreatedAt        time.Time
	CreatedBy        string
}
