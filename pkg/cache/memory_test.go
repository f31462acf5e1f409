package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	internalcache "github.com/bloomsight/bloom-engine/internal/cache"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	if err := c.Set(ctx, "area:36.0000,-1.5000,37.5000,0.5000", []byte("37000"), time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := c.Get(ctx, "area:36.0000,-1.5000,37.5000,0.5000")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "37000" {
		t.Fatalf("unexpected value %q", got)
	}
}

func TestMemoryCacheMiss(t *testing.T) {
	c := NewMemoryCache()
	if _, err := c.Get(context.Background(), "absent"); !errors.Is(err, internalcache.ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := c.Get(ctx, "k"); !errors.Is(err, internalcache.ErrCacheMiss) {
		t.Fatalf("expected expiry miss, got %v", err)
	}
}

func TestMemoryCacheCopiesValues(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	value := []byte("original")
	_ = c.Set(ctx, "k", value, 0)
	value[0] = 'X'

	got, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "original" {
		t.Fatalf("stored value aliased caller buffer: %q", got)
	}
}

func TestMemoryCacheCloseClears(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	_ = c.Set(ctx, "k", []byte("v"), 0)
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, internalcache.ErrCacheMiss) {
		t.Fatalf("expected miss after close, got %v", err)
	}
}
