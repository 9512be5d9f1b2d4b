package cache

import (
	"context"
	"testing"
	"time"
)

type snapshot struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func TestMemoryCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	if err := c.Set(ctx, "product_1", snapshot{ID: 1, Name: "Laptop"}, time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	var got snapshot
	ok, err := c.Get(ctx, "product_1", &got)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected hit")
	}
	if got.ID != 1 || got.Name != "Laptop" {
		t.Errorf("unexpected value: %+v", got)
	}
}

func TestMemoryCache_Miss(t *testing.T) {
	c := NewMemoryCache()

	var got snapshot
	ok, err := c.Get(context.Background(), "missing", &got)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected miss")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set(ctx, KeyAllOrders, []snapshot{{ID: 1}}, TTLOrders)

	now = now.Add(TTLOrders - time.Second)
	var got []snapshot
	if ok, _ := c.Get(ctx, KeyAllOrders, &got); !ok {
		t.Fatal("expected hit before expiry")
	}

	now = now.Add(time.Second)
	if ok, _ := c.Get(ctx, KeyAllOrders, &got); ok {
		t.Error("expected miss at expiry")
	}
}

func TestMemoryCache_StoresCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	value := snapshot{ID: 7, Name: "before"}
	c.Set(ctx, "k", value, 0)
	value.Name = "after"

	var got snapshot
	c.Get(ctx, "k", &got)
	if got.Name != "before" {
		t.Errorf("cached value changed with caller: %q", got.Name)
	}
}

func TestMemoryCache_DeleteAndClear(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	c.Set(ctx, "a", 1, 0)
	c.Set(ctx, "b", 2, 0)
	c.Set(ctx, "c", 3, 0)

	c.Delete(ctx, "a", "b")
	var n int
	if ok, _ := c.Get(ctx, "a", &n); ok {
		t.Error("expected a deleted")
	}
	if ok, _ := c.Get(ctx, "c", &n); !ok {
		t.Error("expected c kept")
	}

	c.Clear(ctx)
	if ok, _ := c.Get(ctx, "c", &n); ok {
		t.Error("expected empty cache after clear")
	}
}

func TestKeys(t *testing.T) {
	if got := OrderKey(42); got != "order_42" {
		t.Errorf("expected order_42, got %s", got)
	}
	if got := ProductKey(3); got != "product_3" {
		t.Errorf("expected product_3, got %s", got)
	}
	if got := ProductImagesKey(3); got != "product_3_images" {
		t.Errorf("expected product_3_images, got %s", got)
	}
}
