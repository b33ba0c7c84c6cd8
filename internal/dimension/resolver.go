// Package dimension resolves raw categorical values against the reference
// dimension tables used by the scoring model.
package dimension

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lumenpay-systems/fraudpipe/internal/models"
)

// Table identifies one of the six reference dimension tables.
type Table string

const (
	TableCity            Table = "city"
	TableState           Table = "state"
	TableUserAgent       Table = "user_agent"
	TableProductCategory Table = "product_category"
	TablePaymentCurrency Table = "payment_currency"
	TableMerchant        Table = "merchant"
)

// Resolver looks up a raw categorical key and returns its model-ready code.
// A missing key is a defined outcome (ok=false, err=nil), never an error:
// callers branch on it. Lookups are side-effect-free and idempotent.
type Resolver interface {
	Resolve(ctx context.Context, key string) (code string, ok bool, err error)
}

// RedisResolver reads one dimension table stored as a Redis hash. The hash
// field is the raw categorical value, the hash value its numeric code.
// One instance per table is constructed at startup and reused for the
// process lifetime.
type RedisResolver struct {
	client *redis.Client
	table  string
}

// NewRedisResolver creates a resolver over the named hash.
func NewRedisResolver(client *redis.Client, table string) *RedisResolver {
	return &RedisResolver{client: client, table: table}
}

// Resolve returns the code for key, or ok=false when the table has no entry.
func (r *RedisResolver) Resolve(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.HGet(ctx, r.table, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("hget %s %q: %w", r.table, key, err)
	}
	return val, true, nil
}

// Memoized wraps a Resolver with an in-process cache. The cache is purely an
// optimization for repeated keys within a batch; a cold cache produces
// identical results. Not safe for concurrent use, matching the sequential
// batch model.
type Memoized struct {
	inner Resolver
	hits  map[string]string
	miss  map[string]struct{}
}

// NewMemoized wraps inner with memoization.
func NewMemoized(inner Resolver) *Memoized {
	return &Memoized{
		inner: inner,
		hits:  make(map[string]string),
		miss:  make(map[string]struct{}),
	}
}

// Resolve consults the cache before delegating. Both found and not-found
// outcomes are cached; errors are not.
func (m *Memoized) Resolve(ctx context.Context, key string) (string, bool, error) {
	if code, ok := m.hits[key]; ok {
		return code, true, nil
	}
	if _, ok := m.miss[key]; ok {
		return "", false, nil
	}

	code, ok, err := m.inner.Resolve(ctx, key)
	if err != nil {
		return "", false, err
	}
	if ok {
		m.hits[key] = code
	} else {
		m.miss[key] = struct{}{}
	}
	return code, ok, nil
}

// Set holds the six configured resolvers, one per dimension table.
type Set struct {
	City            Resolver
	State           Resolver
	UserAgent       Resolver
	ProductCategory Resolver
	PaymentCurrency Resolver
	Merchant        Resolver
}

// NewRedisSet builds a Set of RedisResolvers from the configured table names.
func NewRedisSet(client *redis.Client, city, state, userAgent, productCategory, paymentCurrency, merchant string) *Set {
	return &Set{
		City:            NewRedisResolver(client, city),
		State:           NewRedisResolver(client, state),
		UserAgent:       NewRedisResolver(client, userAgent),
		ProductCategory: NewRedisResolver(client, productCategory),
		PaymentCurrency: NewRedisResolver(client, paymentCurrency),
		Merchant:        NewRedisResolver(client, merchant),
	}
}

// Memoize returns a Set whose resolvers cache within the wrapper's lifetime.
// Intended to be called once per batch.
func (s *Set) Memoize() *Set {
	return &Set{
		City:            NewMemoized(s.City),
		State:           NewMemoized(s.State),
		UserAgent:       NewMemoized(s.UserAgent),
		ProductCategory: NewMemoized(s.ProductCategory),
		PaymentCurrency: NewMemoized(s.PaymentCurrency),
		Merchant:        NewMemoized(s.Merchant),
	}
}

// Miss reports which table had no entry for which raw key.
type Miss struct {
	Table Table
	Key   string
}

// ResolveAll resolves the six categorical fields of tx in a fixed order.
// A miss is a defined outcome: resolution stops and the miss identifies the
// table and raw key so the caller can log and skip the record. A store error
// aborts with the table attached.
func (s *Set) ResolveAll(ctx context.Context, tx *models.Transaction) (*models.DimensionCodes, *Miss, error) {
	var codes models.DimensionCodes

	lookups := []struct {
		table    Table
		resolver Resolver
		key      string
		dst      *string
	}{
		{TableCity, s.City, tx.BillingCity, &codes.City},
		{TableState, s.State, tx.BillingState, &codes.State},
		{TableUserAgent, s.UserAgent, tx.UserAgent, &codes.UserAgent},
		{TableProductCategory, s.ProductCategory, tx.ProductCategory, &codes.ProductCategory},
		{TablePaymentCurrency, s.PaymentCurrency, tx.PaymentCurrency, &codes.PaymentCurrency},
		{TableMerchant, s.Merchant, tx.Merchant, &codes.Merchant},
	}

	for _, l := range lookups {
		code, ok, err := l.resolver.Resolve(ctx, l.key)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve %s: %w", l.table, err)
		}
		if !ok {
			return nil, &Miss{Table: l.table, Key: l.key}, nil
		}
		*l.dst = code
	}
	return &codes, nil, nil
}
