// Package cache provides byte-oriented caching of pipeline stage outputs:
// layouts, per-symbol artwork, and rendered artifacts.
//
// Backends implement the [Cache] interface: a file cache for CLI usage, a
// Redis cache for the preview server, and a null cache for disabling caching
// entirely. Keys are produced by a [Keyer], which hashes structured options
// so that logically distinct configurations never collide.
package cache

import (
	"context"
	"time"
)

// TTLs per stage. Layouts are pure functions of their key and never go
// stale; artwork and artifacts expire so storage cannot grow unbounded.
const (
	TTLLayout   = 0 // never expires
	TTLArtwork  = 30 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is the interface all cache backends implement.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present and fresh.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A TTL of 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// LayoutKeyOpts carries the options that distinguish layout cache entries.
type LayoutKeyOpts struct {
	CardCount      int     `json:"card_count"`
	SymbolsPerCard int     `json:"symbols_per_card"`
	CanvasSize     float64 `json:"canvas_size"`
}

// ArtifactKeyOpts carries the options that distinguish rendered artifacts.
type ArtifactKeyOpts struct {
	Format     string  `json:"format"`
	CanvasSize float64 `json:"canvas_size"`
	PerPage    int     `json:"per_page"`
}

// Keyer generates cache keys for the pipeline stages.
// Implementations must be deterministic: equal inputs yield equal keys.
type Keyer interface {
	// LayoutKey generates a key for a full deck layout.
	LayoutKey(deckHash string, opts LayoutKeyOpts) string

	// ArtworkKey generates a key for one symbol's artwork within a
	// generation session (identified by the hash of its descriptions).
	ArtworkKey(sessionHash string, symbol int) string

	// ArtifactKey generates a key for a rendered output.
	ArtifactKey(deckHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard Keyer implementation, hashing structured
// options into fixed-width hex keys with stage prefixes.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey generates a prefixed key for layout caching.
func (DefaultKeyer) LayoutKey(deckHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", deckHash, opts)
}

// ArtworkKey generates a prefixed key for per-symbol artwork caching.
func (DefaultKeyer) ArtworkKey(sessionHash string, symbol int) string {
	return hashKey("artwork", sessionHash, symbol)
}

// ArtifactKey generates a prefixed key for rendered artifact caching.
func (DefaultKeyer) ArtifactKey(deckHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", deckHash, opts)
}

// ScopedKeyer prefixes every key from an inner Keyer. The preview server
// uses it to keep its entries apart from the local CLI's when both point at
// the same backend, and a shared Redis can host several namespaces the same
// way.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) LayoutKey(deckHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(deckHash, opts)
}

func (k *ScopedKeyer) ArtworkKey(sessionHash string, symbol int) string {
	return k.prefix + k.inner.ArtworkKey(sessionHash, symbol)
}

func (k *ScopedKeyer) ArtifactKey(deckHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(deckHash, opts)
}
