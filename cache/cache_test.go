package cache

import (
	"bytes"
	"path/filepath"
	"testing"
)

func TestKeyIsContentAddressed(t *testing.T) {
	k1 := Key("그는 집에 갔다", "korean", "japanese", "gpt-4o-mini")
	k2 := Key("그는 집에 갔다", "korean", "japanese", "gpt-4o-mini")
	if k1 != k2 {
		t.Error("Same inputs must produce the same key")
	}

	if Key("그는 집에 갔다", "korean", "chinese", "gpt-4o-mini") == k1 {
		t.Error("Different target language must change the key")
	}
	if Key("그는 집에 왔다", "korean", "japanese", "gpt-4o-mini") == k1 {
		t.Error("Different source text must change the key")
	}
	if Key("그는 집에 갔다", "korean", "japanese", "gpt-4o") == k1 {
		t.Error("Different model must change the key")
	}
}

func TestLookupAndStore(t *testing.T) {
	cache := NewInMemoryCache(0)

	if _, ok := Lookup(cache, "원문", "korean", "japanese", "gpt-4o-mini"); ok {
		t.Error("Expected miss before Store")
	}

	if err := Store(cache, "원문", "korean", "japanese", "gpt-4o-mini", "訳文"); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	val, ok := Lookup(cache, "원문", "korean", "japanese", "gpt-4o-mini")
	if !ok {
		t.Fatal("Expected hit after Store")
	}
	if val != "訳文" {
		t.Errorf("Expected '訳文', got %q", val)
	}
}

func TestLookupStore_NilCache(t *testing.T) {
	if _, ok := Lookup(nil, "원문", "korean", "japanese", "m"); ok {
		t.Error("nil cache must always miss")
	}
	if err := Store(nil, "원문", "korean", "japanese", "m", "訳文"); err != nil {
		t.Errorf("nil cache Store must be a no-op, got %v", err)
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	src := NewInMemoryCache(0)
	src.Set("k1", "訳文一")
	src.Set("k2", "訳文二")

	var buf bytes.Buffer
	if err := Snapshot(src, &buf, map[string]string{"series": "달빛 조각사"}); err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	dst := NewInMemoryCache(0)
	result, err := Restore(dst, &buf)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	if result.Version != snapshotVersion {
		t.Errorf("Expected version %q, got %q", snapshotVersion, result.Version)
	}
	if result.Imported != 2 {
		t.Errorf("Expected 2 imported, got %d", result.Imported)
	}
	if result.Metadata["series"] != "달빛 조각사" {
		t.Errorf("Expected metadata to round-trip, got %v", result.Metadata)
	}

	if val, ok := dst.Get("k1"); !ok || val != "訳文一" {
		t.Errorf("Expected k1 to restore, got %q ok=%v", val, ok)
	}
	if val, ok := dst.Get("k2"); !ok || val != "訳文二" {
		t.Errorf("Expected k2 to restore, got %q ok=%v", val, ok)
	}
}

func TestSnapshotFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")

	src := NewInMemoryCache(0)
	src.Set("k1", "訳文")

	if err := SnapshotToFile(src, path, nil); err != nil {
		t.Fatalf("SnapshotToFile failed: %v", err)
	}

	dst := NewInMemoryCache(0)
	result, err := RestoreFromFile(dst, path)
	if err != nil {
		t.Fatalf("RestoreFromFile failed: %v", err)
	}
	if result.Imported != 1 {
		t.Errorf("Expected 1 imported, got %d", result.Imported)
	}
	if val, ok := dst.Get("k1"); !ok || val != "訳文" {
		t.Errorf("Expected k1 to restore, got %q ok=%v", val, ok)
	}
}

func TestRestoreFromFile_MissingIsColdStart(t *testing.T) {
	dst := NewInMemoryCache(0)

	result, err := RestoreFromFile(dst, filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Missing snapshot must not be an error, got %v", err)
	}
	if result.Imported != 0 {
		t.Errorf("Expected 0 imported on cold start, got %d", result.Imported)
	}
}
