package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un lote.
const (
	BatchStatusActive   = "active"
	BatchStatusDepleted = "depleted"
	BatchStatusExpired  = "expired"
)

// Batch es un lote de producción/recepción de un producto con ManagesBatches=true.
type Batch struct {
	ID         string
	TenantID   string
	ProductID  string
	Quantity   decimal.Decimal // >= 0
	Status     string          // active, depleted, expired
	ExpiresAt  *time.Time      // nil = no vence
	DepletedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsActive indica si el lote cuenta para el stock.
func (b *Batch) IsActive() bool {
	return b.Status == BatchStatusActive
}

// Clone devuelve una copia independiente (los punteros de fecha se copian por valor).
func (b *Batch) Clone() *Batch {
	c := *b
	if b.ExpiresAt != nil {
		t := *b.ExpiresAt
		c.ExpiresAt = &t
	}
	if b.DepletedAt != nil {
		t := *b.DepletedAt
		c.DepletedAt = &t
	}
	return &c
}
