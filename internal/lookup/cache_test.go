package lookup

import (
	"fmt"
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	cache := NewCache(CacheConfig{TTL: time.Minute, MaxItems: 100})

	cache.Set("key1", "value1")

	val, ok := cache.Get("key1")
	if !ok {
		t.Error("expected key1 to exist")
	}
	if val != "value1" {
		t.Errorf("expected value1, got %v", val)
	}
}

func TestCache_GetMissing(t *testing.T) {
	cache := NewCache(CacheConfig{TTL: time.Minute, MaxItems: 100})

	_, ok := cache.Get("nonexistent")
	if ok {
		t.Error("expected key to not exist")
	}
}

func TestCache_Expiration(t *testing.T) {
	cache := NewCache(CacheConfig{TTL: 50 * time.Millisecond, MaxItems: 100})

	cache.Set("key1", "value1")

	// Should exist immediately
	_, ok := cache.Get("key1")
	if !ok {
		t.Error("expected key1 to exist immediately")
	}

	// Wait for expiration
	time.Sleep(100 * time.Millisecond)

	// Should be expired
	_, ok = cache.Get("key1")
	if ok {
		t.Error("expected key1 to be expired")
	}
}

func TestCache_Len(t *testing.T) {
	cache := NewCache(CacheConfig{TTL: time.Minute, MaxItems: 100})

	cache.Set("key1", "value1")
	cache.Set("key2", "value2")

	if cache.Len() != 2 {
		t.Errorf("expected 2 items, got %d", cache.Len())
	}
}

func TestCache_Eviction(t *testing.T) {
	cache := NewCache(CacheConfig{TTL: time.Minute, MaxItems: 5})

	// Add more items than max
	for i := 0; i < 10; i++ {
		cache.Set(fmt.Sprintf("key%d", i), i)
	}

	// Should have evicted some items
	if cache.Len() > 5 {
		t.Errorf("expected at most 5 items, got %d", cache.Len())
	}
}

func TestCache_GetResult(t *testing.T) {
	cache := NewCache(CacheConfig{TTL: time.Minute, MaxItems: 100})

	want := Result{Success: true, Title: "The Matrix", Rating: "8.7"}
	cache.Set("key1", want)

	got, ok := cache.GetResult("key1")
	if !ok {
		t.Fatal("expected key1 to exist")
	}
	if got != want {
		t.Errorf("GetResult() = %+v, want %+v", got, want)
	}

	// Non-Result values are not returned as results.
	cache.Set("key2", "not a result")
	if _, ok := cache.GetResult("key2"); ok {
		t.Error("expected non-Result value to miss")
	}
}
