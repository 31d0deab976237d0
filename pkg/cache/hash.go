package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// hashKey builds a stage-prefixed cache key from structured parts, in the
// form prefix:hash(parts...). The parts are JSON-marshalled before hashing
// so that a layout keyed on (cards, symbols, canvas) can never collide with
// one keyed on a permutation of the same numbers. The full 256-bit hash is
// kept; truncation would trade collision safety for nothing a cache needs.
func hashKey(prefix string, parts ...interface{}) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash returns the SHA-256 digest of data as a 64-character hex string.
// It is the content identity used throughout the pipeline: the deck hash
// over the card structure and the session hash over a description set.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
