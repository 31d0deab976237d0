package artwork

import (
	"context"
	"testing"

	"github.com/spotdeck/spotdeck/pkg/cache"
)

func TestStoreRoundtrip(t *testing.T) {
	fileCache, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	store := NewStore(fileCache, nil, "session-a", quietLogger())
	ctx := context.Background()

	if _, ok := store.Get(ctx, 3); ok {
		t.Fatal("expected miss before Put")
	}

	store.Put(ctx, 3, []byte("artwork"))
	got, ok := store.Get(ctx, 3)
	if !ok || string(got) != "artwork" {
		t.Fatalf("Get = %q, %v; want artwork, true", got, ok)
	}
}

func TestStoreSessionIsolation(t *testing.T) {
	fileCache, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	a := NewStore(fileCache, nil, "session-a", quietLogger())
	b := NewStore(fileCache, nil, "session-b", quietLogger())

	a.Put(ctx, 0, []byte("theme-a"))
	if _, ok := b.Get(ctx, 0); ok {
		t.Error("artwork from one session must not be served for another")
	}
}

func TestStoreClear(t *testing.T) {
	fileCache, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	store := NewStore(fileCache, nil, "session-a", quietLogger())
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		store.Put(ctx, i, []byte{byte(i)})
	}
	store.Clear(ctx, 2)

	for i := 0; i < 2; i++ {
		if _, ok := store.Get(ctx, i); ok {
			t.Errorf("symbol %d should have been cleared", i)
		}
	}
	for i := 2; i < 4; i++ {
		if _, ok := store.Get(ctx, i); !ok {
			t.Errorf("symbol %d should have survived", i)
		}
	}
}

func TestStoreNilCacheIsSafe(t *testing.T) {
	store := NewStore(nil, nil, "session", quietLogger())
	ctx := context.Background()

	store.Put(ctx, 0, []byte("data"))
	if _, ok := store.Get(ctx, 0); ok {
		t.Error("null-backed store should never report a hit")
	}
}
