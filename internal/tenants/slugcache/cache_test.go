package slugcache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	return New(client, time.Minute), srv
}

func TestSetAndGet(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	tenant := uuid.New()

	if _, ok := cache.Get(ctx, "riverside"); ok {
		t.Fatal("empty cache should miss")
	}

	cache.Set(ctx, "riverside", tenant)
	got, ok := cache.Get(ctx, "riverside")
	if !ok || got != tenant {
		t.Fatalf("expected cached %s, got %s (ok=%v)", tenant, got, ok)
	}
}

func TestEntryExpires(t *testing.T) {
	cache, srv := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, "riverside", uuid.New())
	srv.FastForward(2 * time.Minute)

	if _, ok := cache.Get(ctx, "riverside"); ok {
		t.Fatal("entry should expire after TTL")
	}
}

func TestInvalidate(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, "riverside", uuid.New())
	if err := cache.Invalidate(ctx, "riverside"); err != nil {
		t.Fatal(err)
	}
	if _, ok := cache.Get(ctx, "riverside"); ok {
		t.Fatal("invalidated entry should miss")
	}
}

func TestCorruptEntryIsDropped(t *testing.T) {
	cache, srv := newTestCache(t)
	ctx := context.Background()

	if err := srv.Set(keyPrefix+"riverside", "not-a-uuid"); err != nil {
		t.Fatal(err)
	}
	if _, ok := cache.Get(ctx, "riverside"); ok {
		t.Fatal("corrupt entry must not resolve")
	}
	if srv.Exists(keyPrefix + "riverside") {
		t.Fatal("corrupt entry should be deleted on read")
	}
}

func TestNilCacheIsNoop(t *testing.T) {
	var cache *Cache
	ctx := context.Background()

	if _, ok := cache.Get(ctx, "riverside"); ok {
		t.Fatal("nil cache should always miss")
	}
	cache.Set(ctx, "riverside", uuid.New())
	if err := cache.Invalidate(ctx, "riverside"); err != nil {
		t.Fatal(err)
	}
}
