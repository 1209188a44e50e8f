// Package idempotency short-circuits repeated reprocess requests with the
// response of the first successful run.
package idempotency

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/metrics"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/model"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	DefaultTTL = 24 * time.Hour
	keyPrefix  = "reprocess:"
)

// Store is the shared cache backing the gate. SetNX must be atomic across processes.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
}

type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *RedisStore) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, key, value, ttl).Result()
}

// CanonicalKey is "<product>:<sorted ids>:<kind>:<type>"; id order does not matter.
func CanonicalKey(product model.Product, ids []int64, kind string, typ model.ReprocessType) string {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)

	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return product.String() + ":" + strings.Join(parts, ",") + ":" + kind + ":" + typ.String()
}

// Key wraps CanonicalKey with a "reprocess:<cedenteId>:" prefix, so the stored key is
// reprocess:<cedenteId>:<product>:<ids>:<kind>:<type> and tenants never share entries.
func Key(cedenteID int64, product model.Product, ids []int64, kind string, typ model.ReprocessType) string {
	return keyPrefix + strconv.FormatInt(cedenteID, 10) + ":" + CanonicalKey(product, ids, kind, typ)
}

type Gate struct {
	store Store
	ttl   time.Duration
	log   *zap.Logger
}

func NewGate(store Store, ttl time.Duration, log *zap.Logger) *Gate {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{store: store, ttl: ttl, log: log}
}

// Do returns the cached body for key, or runs fn and caches its body when fn succeeds.
// The second result reports a cache hit. Cache outages degrade to running fn.
func (g *Gate) Do(ctx context.Context, key string, fn func(ctx context.Context) ([]byte, error)) ([]byte, bool, error) {
	cached, ok, err := g.store.Get(ctx, key)
	switch {
	case err != nil:
		metrics.IdempotencyTotal.WithLabelValues("error").Inc()
		g.log.Warn("idempotency lookup failed", zap.String("key", key), zap.Error(err))
	case ok:
		metrics.IdempotencyTotal.WithLabelValues("hit").Inc()
		return cached, true, nil
	default:
		metrics.IdempotencyTotal.WithLabelValues("miss").Inc()
	}

	body, err := fn(ctx)
	if err != nil {
		return nil, false, err
	}

	stored, err := g.store.SetNX(ctx, key, body, g.ttl)
	switch {
	case err != nil:
		metrics.IdempotencyTotal.WithLabelValues("error").Inc()
		g.log.Warn("idempotency store failed", zap.String("key", key), zap.Error(err))
	case !stored:
		// a concurrent identical request won the write; both dispatched.
		metrics.IdempotencyTotal.WithLabelValues("race").Inc()
		g.log.Info("idempotency entry already written by a concurrent request", zap.String("key", key))
	default:
		metrics.IdempotencyTotal.WithLabelValues("stored").Inc()
	}
	return body, false, nil
}
