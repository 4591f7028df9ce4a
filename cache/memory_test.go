package cache

import (
	"context"
	"testing"
	"time"

	"github.com/xraph/gatehouse"
	"github.com/xraph/gatehouse/rule"
)

func TestMemoryCacheHitMiss(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(time.Minute))

	result := &gatehouse.CheckResult{Allowed: true, Decision: gatehouse.DecisionAllow}

	// Miss
	_, ok := c.Get(ctx, "org_1", "u1", "customer", "read")
	if ok {
		t.Fatal("expected cache miss")
	}

	// Set + Hit
	c.Set(ctx, "org_1", "u1", "customer", "read", result)
	got, ok := c.Get(ctx, "org_1", "u1", "customer", "read")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if !got.Allowed {
		t.Fatal("expected allowed")
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(1 * time.Millisecond))

	c.Set(ctx, "org_1", "u1", "customer", "read", &gatehouse.CheckResult{Allowed: true})
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get(ctx, "org_1", "u1", "customer", "read")
	if ok {
		t.Fatal("expected cache miss after TTL expiry")
	}
}

func TestMemoryCacheInvalidateTenant(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	c.Set(ctx, "org_1", "u1", "customer", "read", &gatehouse.CheckResult{Allowed: true})
	c.Set(ctx, "org_1", "u2", "reward", "write", &gatehouse.CheckResult{Allowed: false})
	c.Set(ctx, "org_2", "u1", "customer", "read", &gatehouse.CheckResult{Allowed: true})

	c.InvalidateTenant(ctx, "org_1")

	if _, ok := c.Get(ctx, "org_1", "u1", "customer", "read"); ok {
		t.Fatal("org_1/u1 should be invalidated")
	}
	if _, ok := c.Get(ctx, "org_1", "u2", "reward", "write"); ok {
		t.Fatal("org_1/u2 should be invalidated")
	}
	if _, ok := c.Get(ctx, "org_2", "u1", "customer", "read"); !ok {
		t.Fatal("org_2/u1 should still be cached")
	}
}

func TestMemoryCacheInvalidateGlobalFlushesAll(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	c.Set(ctx, "org_1", "u1", "customer", "read", &gatehouse.CheckResult{Allowed: true})
	c.Set(ctx, "org_2", "u2", "reward", "read", &gatehouse.CheckResult{Allowed: true})

	c.InvalidateTenant(ctx, rule.GlobalTenant)

	if c.Len() != 0 {
		t.Fatalf("expected empty cache after global invalidation, got %d entries", c.Len())
	}
}

func TestMemoryCacheInvalidateUser(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	c.Set(ctx, "org_1", "u1", "customer", "read", &gatehouse.CheckResult{Allowed: true})
	c.Set(ctx, "org_1", "u2", "customer", "read", &gatehouse.CheckResult{Allowed: true})

	c.InvalidateUser(ctx, "org_1", "u1")

	if _, ok := c.Get(ctx, "org_1", "u1", "customer", "read"); ok {
		t.Fatal("u1 should be invalidated")
	}
	if _, ok := c.Get(ctx, "org_1", "u2", "customer", "read"); !ok {
		t.Fatal("u2 should still be cached")
	}
}

func TestMemoryCacheMaxSize(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithMaxSize(2))

	for i := 0; i < 5; i++ {
		c.Set(ctx, "org_1", "u1", "customer", string(rune('a'+i)), &gatehouse.CheckResult{Allowed: true})
	}

	if c.Len() > 2 {
		t.Fatalf("expected max 2 entries, got %d", c.Len())
	}
}
