package repository

import (
	"context"
	"fmt"
	"time"

	domrepo "FinAdvisor/internal/domain/repository"
	"FinAdvisor/pkg/cache"
)

// RoutedTables sends market tables to one backend and user tables to another.
type RoutedTables struct {
	user   domrepo.TableReader
	market domrepo.TableReader
}

var _ domrepo.TableReader = (*RoutedTables)(nil)

func NewRoutedTables(user, market domrepo.TableReader) *RoutedTables {
	return &RoutedTables{user: user, market: market}
}

func (r *RoutedTables) Select(ctx context.Context, table string, q domrepo.Query) ([]domrepo.Row, error) {
	if domrepo.IsMarketTable(table) {
		return r.market.Select(ctx, table, q)
	}
	return r.user.Select(ctx, table, q)
}

// CachedTables memoizes market table reads. User tables pass through.
type CachedTables struct {
	next  domrepo.TableReader
	cache cache.Service
	ttl   time.Duration
}

var _ domrepo.TableReader = (*CachedTables)(nil)

func NewCachedTables(next domrepo.TableReader, c cache.Service, ttl time.Duration) *CachedTables {
	return &CachedTables{next: next, cache: c, ttl: ttl}
}

func (c *CachedTables) Select(ctx context.Context, table string, q domrepo.Query) ([]domrepo.Row, error) {
	if c.cache == nil || !domrepo.IsMarketTable(table) {
		return c.next.Select(ctx, table, q)
	}
	return cache.GetOrLoad(ctx, c.cache, queryKey(table, q), c.ttl, func(ctx context.Context) ([]domrepo.Row, error) {
		return c.next.Select(ctx, table, q)
	})
}

// Invalidate drops every cached read of table.
func (c *CachedTables) Invalidate(ctx context.Context, table string) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.DeleteByPattern(ctx, cache.BuildPattern("tables:"+table+":"))
}

func queryKey(table string, q domrepo.Query) string {
	return cache.GenerateKeyWithParams("tables:"+table, cache.HashKey(fmt.Sprintf("%v", q)))
}
