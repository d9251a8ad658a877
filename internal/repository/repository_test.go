package repository

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"FinAdvisor/internal/domain/models"
	domrepo "FinAdvisor/internal/domain/repository"
	"FinAdvisor/pkg/cache"
)

func TestPostgRESTSelect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/assets" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("apikey") != "k" || r.Header.Get("Authorization") != "Bearer k" {
			t.Errorf("headers = %v", r.Header)
		}
		q := r.URL.Query()
		if q.Get("user_id") != "eq.u1" || q.Get("order") != "created_at.desc" || q.Get("limit") != "10" || q.Get("select") != "*" {
			t.Errorf("query = %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"asset_name":"Gold bar","current_value":1200.5}]`))
	}))
	defer srv.Close()

	tables := NewPostgRESTTables(srv.URL+"/", "k", time.Second, 1)
	q := domrepo.ByUser("u1")
	q.OrderBy, q.Desc, q.Limit = "created_at", true, 10
	rows, err := tables.Select(context.Background(), domrepo.TableAssets, q)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(rows) != 1 || rows[0].String("asset_name") != "Gold bar" || rows[0].FloatOr(0, "current_value") != 1200.5 {
		t.Fatalf("rows = %v", rows)
	}
}

func TestPostgRESTRejectsUnknownTable(t *testing.T) {
	tables := NewPostgRESTTables("http://127.0.0.1:1", "k", time.Second, 1)
	if _, err := tables.Select(context.Background(), "auth_users", domrepo.Query{}); !errors.Is(err, domrepo.ErrUnknownTable) {
		t.Fatalf("err = %v", err)
	}
}

func TestPostgRESTStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()
	if _, err := NewPostgRESTTables(srv.URL, "k", time.Second, 2).Select(context.Background(), "gold_prices", domrepo.Query{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestBuildSelect(t *testing.T) {
	q := domrepo.Query{Filters: []domrepo.Filter{{Column: "country", Value: "EG"}, {Column: "karat", Value: "21"}}, OrderBy: "updated_at", Desc: true, Limit: 50}
	sql, args, err := buildSelect("gold_prices", q)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := "SELECT * FROM gold_prices WHERE country = ? AND karat = ? ORDER BY updated_at DESC LIMIT ?"
	if sql != want || len(args) != 3 || args[2] != 50 {
		t.Fatalf("sql = %q args = %v", sql, args)
	}

	if _, _, err := buildSelect("gold_prices", domrepo.Query{OrderBy: "x; DROP TABLE gold_prices"}); err == nil {
		t.Fatal("expected invalid column error")
	}
	if _, _, err := buildSelect("system.users", domrepo.Query{}); !errors.Is(err, domrepo.ErrUnknownTable) {
		t.Fatalf("err = %v", err)
	}
}

type fakeMapper struct {
	query string
	rows  []map[string]any
}

func (f *fakeMapper) QueryMaps(_ context.Context, query string, _ ...any) ([]map[string]any, error) {
	f.query = query
	return f.rows, nil
}

func TestClickHouseSelect(t *testing.T) {
	db := &fakeMapper{rows: []map[string]any{{"karat": "21", "sell_price": 4100.0}}}
	tables := &ClickHouseTables{db: db}
	rows, err := tables.Select(context.Background(), "gold_prices", domrepo.Query{Limit: 5})
	if err != nil || len(rows) != 1 {
		t.Fatalf("rows = %v, %v", rows, err)
	}
	if !strings.HasSuffix(db.query, "LIMIT ?") || rows[0].String("karat") != "21" {
		t.Fatalf("query = %q row = %v", db.query, rows[0])
	}
}

type countingReader struct {
	calls map[string]int
}

func (c *countingReader) Select(_ context.Context, table string, _ domrepo.Query) ([]domrepo.Row, error) {
	c.calls[table]++
	return []domrepo.Row{{"table": table}}, nil
}

func TestRoutedAndCachedTables(t *testing.T) {
	user := &countingReader{calls: map[string]int{}}
	market := &countingReader{calls: map[string]int{}}
	mc := cache.NewMemoryCache()
	tables := NewCachedTables(NewRoutedTables(user, market), mc, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := tables.Select(ctx, "gold_prices", domrepo.Query{}); err != nil {
			t.Fatal(err)
		}
		if _, err := tables.Select(ctx, domrepo.TableDebts, domrepo.ByUser("u")); err != nil {
			t.Fatal(err)
		}
	}
	if market.calls["gold_prices"] != 1 || user.calls[domrepo.TableDebts] != 2 {
		t.Fatalf("market=%v user=%v", market.calls, user.calls)
	}

	if err := tables.Invalidate(ctx, "gold_prices"); err != nil {
		t.Fatal(err)
	}
	_, _ = tables.Select(ctx, "gold_prices", domrepo.Query{})
	if market.calls["gold_prices"] != 2 {
		t.Fatalf("expected reload after invalidate, calls = %d", market.calls["gold_prices"])
	}
}

type fakeProducer struct {
	topic string
	key   []byte
	value interface{}
}

func (f *fakeProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	f.topic, f.key, f.value = topic, key, value
	return nil
}

func (f *fakeProducer) Close() error { return nil }

func TestKafkaEventPublisher(t *testing.T) {
	p := &fakeProducer{}
	pub := NewKafkaEventPublisher(p, "finadvisor.queries")
	ev := models.QueryEvent{ID: "e1", UserID: "u1", Path: models.PathInstant}
	if err := pub.PublishQueryEvent(context.Background(), ev); err != nil {
		t.Fatal(err)
	}
	if p.topic != "finadvisor.queries" || string(p.key) != "u1" || p.value.(models.QueryEvent).ID != "e1" {
		t.Fatalf("published %+v", p)
	}
}
