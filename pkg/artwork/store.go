package artwork

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/spotdeck/spotdeck/pkg/cache"
)

// Store persists generated artwork keyed by symbol index within one
// generation session. Writes are fire-and-forget: a failed write is logged
// and never escalated, so cache trouble cannot fail a batch. Reads are
// best-effort and let a re-run skip provider calls for symbols it already
// has.
type Store struct {
	cache   cache.Cache
	keyer   cache.Keyer
	session string
	logger  *log.Logger
}

// NewStore creates a store scoped to one generation session. The session
// hash ties entries to a specific description set so artwork from an old
// theme is never served for a new one.
func NewStore(c cache.Cache, keyer cache.Keyer, sessionHash string, logger *log.Logger) *Store {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Store{cache: c, keyer: keyer, session: sessionHash, logger: logger}
}

// Put stores one symbol's artwork. Failures are logged at debug level only.
func (s *Store) Put(ctx context.Context, symbol int, data []byte) {
	key := s.keyer.ArtworkKey(s.session, symbol)
	if err := s.cache.Set(ctx, key, data, cache.TTLArtwork); err != nil {
		s.logger.Debug("artwork cache write failed", "symbol", symbol, "err", err)
	}
}

// Get retrieves one symbol's artwork, if present.
func (s *Store) Get(ctx context.Context, symbol int) ([]byte, bool) {
	key := s.keyer.ArtworkKey(s.session, symbol)
	data, hit, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Debug("artwork cache read failed", "symbol", symbol, "err", err)
		return nil, false
	}
	return data, hit
}

// Clear removes entries for all symbol indices below upTo.
func (s *Store) Clear(ctx context.Context, upTo int) {
	for symbol := 0; symbol < upTo; symbol++ {
		key := s.keyer.ArtworkKey(s.session, symbol)
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.Debug("artwork cache delete failed", "symbol", symbol, "err", err)
		}
	}
}
