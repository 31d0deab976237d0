package cache

import (
	"context"
	"testing"
	"time"
)

func TestFileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	// Miss before write
	_, hit, err := c.Get(ctx, "layout:abc")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("expected miss for unknown key")
	}

	if err := c.Set(ctx, "layout:abc", []byte("payload"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	data, hit, err := c.Get(ctx, "layout:abc")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !hit {
		t.Fatal("expected hit after Set")
	}
	if string(data) != "payload" {
		t.Errorf("data = %q, want %q", data, "payload")
	}

	if err := c.Delete(ctx, "layout:abc"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	_, hit, _ = c.Get(ctx, "layout:abc")
	if hit {
		t.Error("expected miss after Delete")
	}

	// Deleting a missing key is fine.
	if err := c.Delete(ctx, "layout:abc"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestFileCacheExpiration(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.Set(ctx, "k", []byte("v"), time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)

	_, hit, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("expected expired entry to miss")
	}
}

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	_, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache should not store data")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64", len(h1))
	}
}

func TestKeyerDistinguishesOptions(t *testing.T) {
	k := NewDefaultKeyer()

	a := k.LayoutKey("deck1", LayoutKeyOpts{CardCount: 57, SymbolsPerCard: 8, CanvasSize: 600})
	b := k.LayoutKey("deck1", LayoutKeyOpts{CardCount: 57, SymbolsPerCard: 8, CanvasSize: 400})
	if a == b {
		t.Error("layout keys with different canvas sizes must differ")
	}
	if a != k.LayoutKey("deck1", LayoutKeyOpts{CardCount: 57, SymbolsPerCard: 8, CanvasSize: 600}) {
		t.Error("layout keys must be deterministic")
	}

	if k.ArtworkKey("session1", 3) == k.ArtworkKey("session1", 4) {
		t.Error("artwork keys for different symbols must differ")
	}
	if k.ArtworkKey("session1", 3) == k.ArtworkKey("session2", 3) {
		t.Error("artwork keys for different sessions must differ")
	}

	svg := k.ArtifactKey("deck1", ArtifactKeyOpts{Format: "svg", CanvasSize: 600, PerPage: 9})
	pdf := k.ArtifactKey("deck1", ArtifactKeyOpts{Format: "pdf", CanvasSize: 600, PerPage: 9})
	if svg == pdf {
		t.Error("artifact keys for different formats must differ")
	}
}

func TestScopedKeyer(t *testing.T) {
	base := NewDefaultKeyer()
	scoped := NewScopedKeyer(base, "user:42:")

	key := scoped.ArtworkKey("s", 0)
	if key == base.ArtworkKey("s", 0) {
		t.Error("scoped key should differ from unscoped key")
	}
	if key[:8] != "user:42:" {
		t.Errorf("scoped key %q missing prefix", key)
	}
}
