package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type rateEntry struct {
	Pair string  `json:"pair"`
	Rate float64 `json:"rate"`
}

func TestMemoryCacheTypedRoundTrip(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	in := []rateEntry{{Pair: "USD-EGP", Rate: 48.5}}
	if err := mc.Set(ctx, "rates:all", in, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var out []rateEntry
	if err := mc.Get(ctx, "rates:all", &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(out) != 1 || out[0].Rate != 48.5 {
		t.Fatalf("unexpected %v", out)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	_ = mc.Set(ctx, "k", "v", time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	var s string
	if err := mc.Get(ctx, "k", &s); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss, got %v", err)
	}
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()

	_ = mc.Set(ctx, "a", 1, time.Minute)
	time.Sleep(time.Millisecond)
	_ = mc.Set(ctx, "b", 2, time.Minute)
	time.Sleep(time.Millisecond)
	var n int
	_ = mc.Get(ctx, "a", &n)
	time.Sleep(time.Millisecond)
	_ = mc.Set(ctx, "c", 3, time.Minute)

	if ok, _ := mc.Exists(ctx, "b"); ok {
		t.Fatalf("expected b evicted")
	}
	if ok, _ := mc.Exists(ctx, "a"); !ok {
		t.Fatalf("expected a kept")
	}
}

func TestMemoryCacheDeleteByPattern(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	_ = mc.Set(ctx, "market:gold_prices", 1, time.Minute)
	_ = mc.Set(ctx, "market:crypto", 1, time.Minute)
	_ = mc.Set(ctx, "rates:graph", 1, time.Minute)

	if err := mc.DeleteByPattern(ctx, BuildPattern("market:")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ok, _ := mc.Exists(ctx, "market:gold_prices", "market:crypto"); ok {
		t.Fatalf("market keys not deleted")
	}
	if ok, _ := mc.Exists(ctx, "rates:graph"); !ok {
		t.Fatalf("rates key deleted")
	}
}

func TestGetOrLoadMemoizes(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	calls := 0
	load := func(context.Context) ([]rateEntry, error) {
		calls++
		return []rateEntry{{Pair: "EUR-USD", Rate: 1.08}}, nil
	}
	for i := 0; i < 3; i++ {
		got, err := GetOrLoad(ctx, mc, "rates", time.Minute, load)
		if err != nil || len(got) != 1 {
			t.Fatalf("unexpected %v %v", got, err)
		}
	}
	if calls != 1 {
		t.Fatalf("loader called %d times", calls)
	}
}

func TestGetOrLoadDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	calls := 0
	load := func(context.Context) (int, error) {
		calls++
		return 0, errors.New("db down")
	}
	_, _ = GetOrLoad(ctx, mc, "k", time.Minute, load)
	_, _ = GetOrLoad(ctx, mc, "k", time.Minute, load)
	if calls != 2 {
		t.Fatalf("loader called %d times", calls)
	}
}
