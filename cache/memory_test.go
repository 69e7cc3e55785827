package cache

import (
	"testing"
	"time"
)

func TestInMemoryCache_SetGet(t *testing.T) {
	cache := NewInMemoryCache(3600)

	if err := cache.Set("key1", "그는 집에 갔다"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	val, ok := cache.Get("key1")
	if !ok {
		t.Error("Expected cache hit")
	}
	if val != "그는 집에 갔다" {
		t.Errorf("Expected stored value, got %q", val)
	}
}

func TestInMemoryCache_Miss(t *testing.T) {
	cache := NewInMemoryCache(3600)

	if _, ok := cache.Get("missing"); ok {
		t.Error("Expected cache miss for absent key")
	}
}

func TestInMemoryCache_TTLExpiry(t *testing.T) {
	cache := NewInMemoryCache(1)

	cache.Set("key1", "value1")

	// Backdate the entry past its TTL.
	cache.mu.Lock()
	entry := cache.cache["key1"]
	entry.timestamp = time.Now().Add(-2 * time.Second)
	cache.cache["key1"] = entry
	cache.mu.Unlock()

	if _, ok := cache.Get("key1"); ok {
		t.Error("Expected expired entry to miss")
	}
	if cache.Len() != 0 {
		t.Errorf("Expected expired entry to be evicted, Len = %d", cache.Len())
	}
}

func TestInMemoryCache_ZeroTTLNeverExpires(t *testing.T) {
	cache := NewInMemoryCache(0)

	cache.Set("key1", "value1")

	cache.mu.Lock()
	entry := cache.cache["key1"]
	entry.timestamp = time.Now().Add(-24 * time.Hour)
	cache.cache["key1"] = entry
	cache.mu.Unlock()

	if _, ok := cache.Get("key1"); !ok {
		t.Error("Expected entry to survive with TTL disabled")
	}
}

func TestInMemoryCache_Clear(t *testing.T) {
	cache := NewInMemoryCache(0)

	cache.Set("key1", "value1")
	cache.Set("key2", "value2")

	if cache.Len() != 2 {
		t.Errorf("Expected 2 entries, got %d", cache.Len())
	}

	cache.Clear()

	if cache.Len() != 0 {
		t.Errorf("Expected 0 entries after Clear, got %d", cache.Len())
	}
}

func TestInMemoryCache_EntriesSkipsExpired(t *testing.T) {
	cache := NewInMemoryCache(60)

	cache.Set("fresh", "value1")
	cache.Set("stale", "value2")

	cache.mu.Lock()
	entry := cache.cache["stale"]
	entry.timestamp = time.Now().Add(-2 * time.Minute)
	cache.cache["stale"] = entry
	cache.mu.Unlock()

	entries := cache.Entries()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 live entry, got %d", len(entries))
	}
	if entries["fresh"] != "value1" {
		t.Errorf("Expected fresh entry to survive, got %v", entries)
	}
}
