package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pyme-stock-api/internal/application/tenancy"
	"github.com/jhoicas/pyme-stock-api/internal/domain"
	"github.com/jhoicas/pyme-stock-api/internal/domain/tenant"
)

// LocalTenantScope key del tenant resuelto en c.Locals.
const LocalTenantScope = "tenant_scope"

var errUnresolved = domain.ErrUnresolvedTenant

// tenantResolver es el contrato mínimo que necesita el middleware.
// Lo implementa *tenancy.Resolver.
type tenantResolver interface {
	Resolve(ctx context.Context, hint tenancy.TenantHint) (tenant.Scope, error)
}

// TenantMiddleware resuelve el tenant a partir del header configurado o del subdominio del Host
// y lo deja en c.Locals. Debe ir ANTES de cualquier handler que acceda a datos.
//
// Comportamiento:
//   - 401 UNRESOLVED_TENANT → hint ausente, malformado, desconocido o tenant inactivo.
//   - 500 → fallo del repositorio de tenants.
func TenantMiddleware(resolver tenantResolver, header string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		hint := tenancy.TenantHint{
			Header: c.Get(header),
			Host:   c.Hostname(),
		}
		scope, err := resolver.Resolve(c.UserContext(), hint)
		if err != nil {
			return writeError(c, err)
		}
		c.Locals(LocalTenantScope, scope)
		return c.Next()
	}
}

// GetScope devuelve el tenant resuelto. ok=false si el middleware no corrió.
func GetScope(c *fiber.Ctx) (tenant.Scope, bool) {
	scope, ok := c.Locals(LocalTenantScope).(tenant.Scope)
	if !ok || !scope.Valid() {
		return tenant.Scope{}, false
	}
	return scope, true
}

// scopeOf igual que GetScope pero para handlers: el valor cero hace que la capa de aplicación
// responda ErrUnresolvedTenant.
func scopeOf(c *fiber.Ctx) tenant.Scope {
	scope, _ := GetScope(c)
	return scope
}
