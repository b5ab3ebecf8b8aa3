package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	pkgredis "github.com/mx-space/nodepress/internal/pkg/redis"
)

type thread struct {
	ID   string `json:"id"`
	Link string `json:"link"`
}

func TestDisqusKey(t *testing.T) {
	if got := DisqusKey("thread-post-42"); got != "nodepress:disqus:thread-post-42" {
		t.Errorf("DisqusKey = %q", got)
	}
}

func newRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisCache(pkgredis.Wrap(rdb)), mr
}

func TestCaches(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryCache(0)
	defer mem.Close()
	rc, _ := newRedisCache(t)

	for name, c := range map[string]Cache{"memory": mem, "redis": rc} {
		t.Run(name, func(t *testing.T) {
			var got thread
			ok, err := c.Get(ctx, "missing", &got)
			if err != nil || ok {
				t.Fatalf("Get missing = %v, %v", ok, err)
			}

			want := thread{ID: "t1", Link: "https://example.com/article/1"}
			if err := c.Set(ctx, "k", want, time.Hour); err != nil {
				t.Fatal(err)
			}
			ok, err = c.Get(ctx, "k", &got)
			if err != nil || !ok {
				t.Fatalf("Get = %v, %v", ok, err)
			}
			if got != want {
				t.Errorf("got %+v, want %+v", got, want)
			}

			if err := c.Delete(ctx, "k"); err != nil {
				t.Fatal(err)
			}
			ok, _ = c.Get(ctx, "k", &got)
			if ok {
				t.Error("entry still present after Delete")
			}
		})
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(0)
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "k", "v", 10*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)

	var got string
	if ok, _ := c.Get(ctx, "k", &got); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestRedisCacheExpiry(t *testing.T) {
	c, mr := newRedisCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatal(err)
	}
	mr.FastForward(2 * time.Minute)

	var got string
	if ok, _ := c.Get(ctx, "k", &got); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestRedisCacheDecodeError(t *testing.T) {
	c, mr := newRedisCache(t)
	if err := mr.Set("bad", "not-json"); err != nil {
		t.Fatal(err)
	}
	var got thread
	ok, err := c.Get(context.Background(), "bad", &got)
	if err == nil || ok {
		t.Errorf("Get = %v, %v; want decode error", ok, err)
	}
}
