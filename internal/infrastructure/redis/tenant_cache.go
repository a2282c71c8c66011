// Package redis cache de resolución de tenants sobre Redis.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/pyme-stock-api/internal/application/tenancy"
)

var _ tenancy.TenantCache = (*TenantCache)(nil)

// TenantCache guarda hint -> tenantID con TTL.
type TenantCache struct {
	client *redis.Client
}

// NewTenantCache construye el cache con un cliente ya configurado.
func NewTenantCache(client *redis.Client) *TenantCache {
	return &TenantCache{client: client}
}

// NewClient crea el cliente y verifica la conexión.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func (c *TenantCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (c *TenantCache) Set(ctx context.Context, key, tenantID string, ttl time.Duration) error {
	return c.client.Set(ctx, key, tenantID, ttl).Err()
}

// Invalidate elimina una entrada (p. ej. al suspender un tenant).
func (c *TenantCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
