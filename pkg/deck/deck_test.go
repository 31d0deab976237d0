package deck

import (
	"reflect"
	"testing"

	"github.com/spotdeck/spotdeck/pkg/errors"
)

func TestGenerate(t *testing.T) {
	for _, order := range SupportedOrders {
		t.Run(map[int]string{2: "Order2", 3: "Order3", 5: "Order5", 7: "Order7"}[order], func(t *testing.T) {
			cards, err := Generate(order)
			if err != nil {
				t.Fatalf("Generate(%d): %v", order, err)
			}

			wantCards := SymbolCount(order)
			if len(cards) != wantCards {
				t.Fatalf("card count = %d, want %d", len(cards), wantCards)
			}

			for c, card := range cards {
				if len(card) != CardSize(order) {
					t.Errorf("card %d has %d symbols, want %d", c, len(card), CardSize(order))
				}
				for _, s := range card {
					if s < 0 || s >= wantCards {
						t.Errorf("card %d symbol %d out of range [0,%d)", c, s, wantCards)
					}
				}
			}

			// The defining property, checked over every pair.
			// Order 7 gives 57 cards, so this runs all 1596 pairs.
			for a := 0; a < len(cards); a++ {
				for b := a + 1; b < len(cards); b++ {
					if got := intersectionSize(cards[a], cards[b]); got != 1 {
						t.Fatalf("cards %d and %d share %d symbols, want 1", a, b, got)
					}
				}
			}

			if err := Verify(cards); err != nil {
				t.Errorf("Verify: %v", err)
			}
		})
	}
}

func TestGenerateOrder2Fixture(t *testing.T) {
	// The order-2 deck is small enough to enumerate by hand.
	want := []Card{
		{0, 1, 2},
		{0, 3, 4},
		{0, 5, 6},
		{1, 3, 5},
		{1, 4, 6},
		{2, 3, 6},
		{2, 4, 5},
	}

	cards, err := Generate(2)
	if err != nil {
		t.Fatalf("Generate(2): %v", err)
	}
	if !reflect.DeepEqual(cards, want) {
		t.Errorf("Generate(2) = %v, want %v", cards, want)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a, err := Generate(5)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Generate(5)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("Generate(5) is not deterministic across calls")
	}
}

func TestGenerateUnsupportedOrder(t *testing.T) {
	for _, order := range []int{0, -1, 1, 4, 6, 11} {
		if _, err := Generate(order); err == nil {
			t.Errorf("Generate(%d): expected error, got nil", order)
		} else if !errors.Is(err, errors.ErrCodeInvalidOrder) {
			t.Errorf("Generate(%d): error code = %v, want %v", order, errors.GetCode(err), errors.ErrCodeInvalidOrder)
		}
	}
}

func TestOrderForSymbols(t *testing.T) {
	tests := []struct {
		count   int
		want    int
		wantErr bool
	}{
		{7, 2, false},
		{13, 3, false},
		{31, 5, false},
		{57, 7, false},
		{8, 0, true},
		{0, 0, true},
	}
	for _, tt := range tests {
		got, err := OrderForSymbols(tt.count)
		if tt.wantErr {
			if err == nil {
				t.Errorf("OrderForSymbols(%d): expected error", tt.count)
			}
			continue
		}
		if err != nil {
			t.Errorf("OrderForSymbols(%d): %v", tt.count, err)
			continue
		}
		if got != tt.want {
			t.Errorf("OrderForSymbols(%d) = %d, want %d", tt.count, got, tt.want)
		}
	}
}

func TestVerifyRejectsBrokenDecks(t *testing.T) {
	cards, err := Generate(2)
	if err != nil {
		t.Fatal(err)
	}

	// Corrupt one symbol so cards 0 and 1 share two symbols.
	broken := make([]Card, len(cards))
	for i, c := range cards {
		broken[i] = append(Card(nil), c...)
	}
	broken[1][1] = 1

	if err := Verify(broken); err == nil {
		t.Error("Verify accepted a deck violating pairwise intersection")
	}

	if err := Verify(cards[:5]); err == nil {
		t.Error("Verify accepted a truncated deck")
	}
}
