// Package deck constructs the card/symbol incidence structure for
// matching-card decks.
//
// A deck of order n is a finite projective plane of order n built with the
// classic difference-set construction: n²+n+1 cards drawn from a pool of
// n²+n+1 symbols, each card carrying n+1 symbols, such that any two distinct
// cards share exactly one symbol. Symbols are opaque zero-based indices;
// descriptions and artwork live in parallel arrays owned by the caller.
//
// # Usage
//
//	cards, err := deck.Generate(7)
//	if err != nil {
//	    return err
//	}
//	// len(cards) == 57, each card has 8 symbols
//
// Generation is pure: the same order always yields the same card sequence,
// and the sequence order is stable (it is part of the contract - card index
// is card identity for layouts and persistence).
package deck

import (
	"github.com/spotdeck/spotdeck/pkg/errors"
)

// Card is an ordered sequence of distinct symbol indices.
// A card of a deck of order n holds exactly n+1 symbols in [0, n²+n+1).
type Card []int

// SupportedOrders lists the orders the generator accepts, in ascending order.
// Only prime orders are supported; the difference-set construction below is
// valid for primes, and these four cover the practical deck sizes.
var SupportedOrders = []int{2, 3, 5, 7}

// Supported reports whether order is a supported deck order.
func Supported(order int) bool {
	for _, n := range SupportedOrders {
		if n == order {
			return true
		}
	}
	return false
}

// SymbolCount returns the number of symbols (and cards) for the given order.
func SymbolCount(order int) int {
	return order*order + order + 1
}

// CardSize returns the number of symbols on each card for the given order.
func CardSize(order int) int {
	return order + 1
}

// OrderForSymbols returns the order whose deck uses exactly count symbols.
// It is the inverse of SymbolCount over the supported set.
func OrderForSymbols(count int) (int, error) {
	for _, n := range SupportedOrders {
		if SymbolCount(n) == count {
			return n, nil
		}
	}
	return 0, errors.New(errors.ErrCodeInvalidSymbolCount,
		"no supported order yields %d symbols (supported: 7, 13, 31, 57)", count)
}

// Generate builds the full card set for a deck of the given order.
//
// The construction and its ordering are deterministic and load-bearing:
//   - card 0 holds symbols 0..n (the line at infinity),
//   - cards 1..n each start with symbol 0 followed by one contiguous block
//     of n symbols beyond the first n+1,
//   - the remaining n² cards, indexed (i,j) row-major with i outer, start
//     with symbol i+1 followed by one symbol from each block, picked by
//     (i*k+j) mod n within block k.
//
// Unsupported orders fail with ErrCodeInvalidOrder before any work is done.
func Generate(order int) ([]Card, error) {
	if !Supported(order) {
		return nil, errors.New(errors.ErrCodeInvalidOrder,
			"unsupported order %d (supported: 2, 3, 5, 7)", order)
	}

	n := order
	cards := make([]Card, 0, SymbolCount(n))

	// Line at infinity: symbols 0..n.
	first := make(Card, n+1)
	for s := 0; s <= n; s++ {
		first[s] = s
	}
	cards = append(cards, first)

	// One card per symbol block, each anchored on symbol 0.
	for i := 0; i < n; i++ {
		card := make(Card, 0, n+1)
		card = append(card, 0)
		for s := 0; s < n; s++ {
			card = append(card, n+1+i*n+s)
		}
		cards = append(cards, card)
	}

	// The n² remaining cards: (i,j) row-major, anchored on symbol i+1,
	// taking one symbol from each block with a modular shift.
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			card := make(Card, 0, n+1)
			card = append(card, i+1)
			for k := 0; k < n; k++ {
				card = append(card, n+1+k*n+(i*k+j)%n)
			}
			cards = append(cards, card)
		}
	}

	return cards, nil
}
