// Package cache implementa la invalidación de caché de lecturas sobre Redis.
// Los ámbitos del ledger se traducen a conjuntos explícitos de claves; no se
// usan borrados por comodín (KEYS/SCAN) en el camino de escritura.
package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
)

var _ ledger.CacheInvalidator = (*RedisInvalidator)(nil)

// RedisInvalidator invalida las vistas cacheadas del inventario tras cada
// operación confirmada del ledger.
type RedisInvalidator struct {
	client *redis.Client
	prefix string
}

// NewRedis crea y valida un cliente go-redis a partir de la URL.
func NewRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return rdb, nil
}

// NewRedisInvalidator construye el invalidador. prefix separa entornos que
// comparten la misma instancia de Redis.
func NewRedisInvalidator(client *redis.Client, prefix string) *RedisInvalidator {
	if prefix == "" {
		prefix = "ledger"
	}
	return &RedisInvalidator{client: client, prefix: prefix}
}

// Invalidate borra las claves cacheadas del ámbito indicado.
func (r *RedisInvalidator) Invalidate(ctx context.Context, scope, key string) error {
	keys := r.keysFor(scope, key)
	if len(keys) == 0 {
		return fmt.Errorf("ámbito de invalidación desconocido: %q", scope)
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidar caché %s/%s: %w", scope, key, err)
	}
	return nil
}

func (r *RedisInvalidator) keysFor(scope, key string) []string {
	switch scope {
	case ledger.ScopeProduct:
		return []string{
			fmt.Sprintf("%s:product:%s:stock", r.prefix, key),
			fmt.Sprintf("%s:product:%s:by_location", r.prefix, key),
			fmt.Sprintf("%s:product:%s:movements", r.prefix, key),
		}
	case ledger.ScopeLocation:
		return []string{
			fmt.Sprintf("%s:location:%s:stock", r.prefix, key),
			fmt.Sprintf("%s:location:%s:movements", r.prefix, key),
		}
	case ledger.ScopeGlobal:
		return []string{
			r.prefix + ":valuation",
			r.prefix + ":dashboard",
			r.prefix + ":low_stock",
			r.prefix + ":overstocked",
			r.prefix + ":expiring",
		}
	default:
		return nil
	}
}

// NoopInvalidator invalidador nulo para despliegues sin Redis (CACHE_ENABLED=false).
type NoopInvalidator struct{}

var _ ledger.CacheInvalidator = (*NoopInvalidator)(nil)

// Invalidate no hace nada.
func (NoopInvalidator) Invalidate(context.Context, string, string) error { return nil }
