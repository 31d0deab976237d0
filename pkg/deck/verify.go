package deck

import (
	"fmt"
)

// Verify checks the projective-plane invariants over a generated card set:
// the card count matches some supported order, every card holds the right
// number of distinct in-range symbols, and every pair of distinct cards
// shares exactly one symbol. The pairwise check is exhaustive.
//
// Verify is part of the contract surface for tests and the verify command;
// Generate's output always passes, so it is not run on the hot path.
func Verify(cards []Card) error {
	order, err := OrderForSymbols(len(cards))
	if err != nil {
		return fmt.Errorf("card count %d matches no supported order", len(cards))
	}

	symbols := SymbolCount(order)
	size := CardSize(order)

	for c, card := range cards {
		if len(card) != size {
			return fmt.Errorf("card %d has %d symbols, want %d", c, len(card), size)
		}
		seen := make(map[int]bool, size)
		for _, s := range card {
			if s < 0 || s >= symbols {
				return fmt.Errorf("card %d symbol %d out of range [0,%d)", c, s, symbols)
			}
			if seen[s] {
				return fmt.Errorf("card %d repeats symbol %d", c, s)
			}
			seen[s] = true
		}
	}

	for a := 0; a < len(cards); a++ {
		for b := a + 1; b < len(cards); b++ {
			if got := intersectionSize(cards[a], cards[b]); got != 1 {
				return fmt.Errorf("cards %d and %d share %d symbols, want exactly 1", a, b, got)
			}
		}
	}
	return nil
}

func intersectionSize(a, b Card) int {
	in := make(map[int]bool, len(a))
	for _, s := range a {
		in[s] = true
	}
	count := 0
	for _, s := range b {
		if in[s] {
			count++
		}
	}
	return count
}
