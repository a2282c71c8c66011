package entity

import "time"

// Estados de un tenant. Solo los activos se resuelven.
const (
	TenantStatusActive    = "active"
	TenantStatusSuspended = "suspended"
	TenantStatusInactive  = "inactive"
)

// Tenant representa una organización/negocio del sistema (multi-tenant).
// Slug es el token usado como subdominio o como valor de cabecera.
type Tenant struct {
	ID        string
	Name      string
	Slug      string
	Status    string // active, suspended, inactive
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsValidTenantStatus indica si status es un estado conocido.
func IsValidTenantStatus(status string) bool {
	switch status {
	case TenantStatusActive, TenantStatusSuspended, TenantStatusInactive:
		return true
	}
	return false
}

// IsActive indica si el tenant puede operar.
func (t *Tenant) IsActive() bool {
	return t != nil && t.Status == TenantStatusActive
}
