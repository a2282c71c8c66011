// Package tenancy resuelve el tenant de cada request a partir de un hint (header o subdominio).
package tenancy

import (
	"context"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/pyme-stock-api/internal/domain"
	"github.com/jhoicas/pyme-stock-api/internal/domain/entity"
	"github.com/jhoicas/pyme-stock-api/internal/domain/repository"
	"github.com/jhoicas/pyme-stock-api/internal/domain/tenant"
	"github.com/jhoicas/pyme-stock-api/pkg/logger"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}$`)

// Subdominios que nunca identifican a un tenant.
var reservedSubdomains = map[string]bool{"www": true, "api": true}

// TenantHint datos crudos del request de los que se deriva el tenant.
type TenantHint struct {
	Header string // valor del header de tenant (id o slug)
	Host   string // Host del request, con o sin puerto
}

// TenantCache cache de hint -> tenantID de tenants activos.
type TenantCache interface {
	Get(ctx context.Context, key string) (tenantID string, found bool, err error)
	Set(ctx context.Context, key, tenantID string, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

func cacheKey(token string) string {
	return "tenant:hint:" + strings.ToLower(token)
}

// Resolver traduce un TenantHint en un tenant.Scope. Un hint ausente o mal formado falla con
// domain.ErrUnresolvedTenant sin tocar el almacenamiento.
type Resolver struct {
	repo       repository.TenantRepository
	cache      TenantCache
	baseDomain string
	ttl        time.Duration
	log        *logger.Logger
}

// NewResolver construye el resolver. cache puede ser nil; baseDomain vacío deshabilita la
// resolución por subdominio.
func NewResolver(repo repository.TenantRepository, cache TenantCache, baseDomain string, ttl time.Duration, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{
		repo:       repo,
		cache:      cache,
		baseDomain: strings.Trim(strings.ToLower(baseDomain), "."),
		ttl:        ttl,
		log:        log,
	}
}

// Resolve devuelve el scope del tenant activo identificado por el hint. El header tiene
// prioridad sobre el subdominio; un header presente pero inválido no cae al subdominio.
func (r *Resolver) Resolve(ctx context.Context, hint TenantHint) (tenant.Scope, error) {
	token, err := r.token(hint)
	if err != nil {
		return tenant.Scope{}, err
	}

	key := cacheKey(token)
	if r.cache != nil {
		id, found, err := r.cache.Get(ctx, key)
		if err != nil {
			r.log.Warn().Err(err).Str("hint", token).Msg("cache de tenants no disponible")
		} else if found {
			return tenant.NewScope(id)
		}
	}

	t, err := r.lookup(ctx, token)
	if err != nil {
		return tenant.Scope{}, err
	}
	if t == nil || !t.IsActive() {
		return tenant.Scope{}, domain.ErrUnresolvedTenant
	}

	if r.cache != nil && r.ttl > 0 {
		if err := r.cache.Set(ctx, key, t.ID, r.ttl); err != nil {
			r.log.Warn().Err(err).Str("tenant_id", t.ID).Msg("no se pudo cachear el tenant")
		}
	}
	return tenant.NewScope(t.ID)
}

// SetStatus cambia el estado de un tenant (por id o slug) y borra sus entradas del cache,
// de modo que un tenant suspendido deja de resolverse de inmediato.
func (r *Resolver) SetStatus(ctx context.Context, idOrSlug, status string) (*entity.Tenant, error) {
	if !entity.IsValidTenantStatus(status) {
		return nil, fmt.Errorf("%w: estado de tenant %q", domain.ErrInvalidInput, status)
	}
	token := strings.ToLower(strings.TrimSpace(idOrSlug))
	if !validToken(token) {
		return nil, fmt.Errorf("%w: tenant %q", domain.ErrInvalidInput, idOrSlug)
	}
	t, err := r.lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("tenant %s: %w", idOrSlug, domain.ErrNotFound)
	}
	now := time.Now().UTC()
	if err := r.repo.UpdateStatus(ctx, t.ID, status, now); err != nil {
		return nil, err
	}
	t.Status = status
	t.UpdatedAt = now

	if r.cache != nil {
		if err := r.cache.Invalidate(ctx, cacheKey(t.ID), cacheKey(t.Slug)); err != nil {
			return t, fmt.Errorf("tenant %s actualizado, cache sin invalidar: %w", t.ID, err)
		}
	}
	r.log.Info().Str("tenant_id", t.ID).Str("status", status).Msg("estado de tenant actualizado")
	return t, nil
}

// token extrae y valida el identificador del hint.
func (r *Resolver) token(hint TenantHint) (string, error) {
	if h := strings.ToLower(strings.TrimSpace(hint.Header)); h != "" {
		if !validToken(h) {
			return "", domain.ErrUnresolvedTenant
		}
		return h, nil
	}
	if sub := r.subdomain(hint.Host); sub != "" {
		return sub, nil
	}
	return "", domain.ErrUnresolvedTenant
}

func (r *Resolver) subdomain(host string) string {
	if r.baseDomain == "" {
		return ""
	}
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	suffix := "." + r.baseDomain
	if !strings.HasSuffix(host, suffix) {
		return ""
	}
	sub := strings.TrimSuffix(host, suffix)
	if strings.Contains(sub, ".") || reservedSubdomains[sub] || !slugPattern.MatchString(sub) {
		return ""
	}
	return sub
}

func (r *Resolver) lookup(ctx context.Context, token string) (*entity.Tenant, error) {
	var (
		t   *entity.Tenant
		err error
	)
	if _, perr := uuid.Parse(token); perr == nil {
		t, err = r.repo.GetByID(ctx, token)
	} else {
		t, err = r.repo.GetBySlug(ctx, token)
	}
	if err != nil {
		return nil, fmt.Errorf("resolver tenant: %w", err)
	}
	return t, nil
}

func validToken(s string) bool {
	if _, err := uuid.Parse(s); err == nil {
		return true
	}
	return slugPattern.MatchString(s)
}
