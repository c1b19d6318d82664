package lrucache_test

import (
	"testing"

	"github.com/conceptgraph/reasoner/internal/reasoning/graph/lrucache"
)

func TestCache_GetMissReturnsFalse(t *testing.T) {
	c := lrucache.New[string, int](2)
	if _, ok := c.Get("missing"); ok {
		t.Fatalf("expected miss on empty cache")
	}
}

func TestCache_PutThenGetRoundTrips(t *testing.T) {
	c := lrucache.New[string, int](2)
	c.Put("a", 1)
	v, ok := c.Get("a")
	if !ok || v != 1 {
		t.Fatalf("expected (1, true), got (%d, %v)", v, ok)
	}
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := lrucache.New[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a") // promote a to most-recently-used
	c.Put("c", 3) // should evict b, the least recently used

	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected a to survive eviction")
	}
	if _, ok := c.Get("c"); !ok {
		t.Fatalf("expected c to be present")
	}
	if c.Len() != 2 {
		t.Fatalf("expected capacity-bounded length 2, got %d", c.Len())
	}
}

func TestCache_ClearEmptiesEntries(t *testing.T) {
	c := lrucache.New[string, int](2)
	c.Put("a", 1)
	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache after Clear, got len %d", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected a to be gone after Clear")
	}
}

func TestCache_NonPositiveCapacityDisablesEviction(t *testing.T) {
	c := lrucache.New[int, int](0)
	for i := 0; i < 100; i++ {
		c.Put(i, i)
	}
	if c.Len() != 100 {
		t.Fatalf("expected unbounded cache to retain all 100 entries, got %d", c.Len())
	}
}
