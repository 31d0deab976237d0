package render

import (
	"bytes"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/spotdeck/spotdeck/pkg/deck"
	"github.com/spotdeck/spotdeck/pkg/layout"
)

// testArtwork returns a tiny valid PNG.
func testArtwork(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func testDeck(t *testing.T, order int) Deck {
	t.Helper()
	cards, err := deck.Generate(order)
	if err != nil {
		t.Fatal(err)
	}
	symbols := deck.SymbolCount(order)
	art := make([][]byte, symbols)
	for i := range art {
		art[i] = testArtwork(t)
	}
	return Deck{
		Cards:      cards,
		Placements: layout.GenerateAll(len(cards), len(cards[0]), layout.DefaultCanvasSize),
		Artwork:    art,
		CanvasSize: layout.DefaultCanvasSize,
	}
}

func TestCardSVGStructure(t *testing.T) {
	d := testDeck(t, 2)

	svg, err := CardSVG(d, 0)
	if err != nil {
		t.Fatalf("CardSVG: %v", err)
	}
	s := string(svg)

	if !strings.HasPrefix(s, "<svg") || !strings.Contains(s, "</svg>") {
		t.Fatal("output is not an SVG document")
	}
	if !strings.Contains(s, "<circle") {
		t.Error("card face circle missing")
	}
	if got := strings.Count(s, "<image"); got != len(d.Cards[0]) {
		t.Errorf("embedded %d images, want %d", got, len(d.Cards[0]))
	}
	if !strings.Contains(s, "data:image/png;base64,") {
		t.Error("artwork not embedded as PNG data URI")
	}
	if !strings.Contains(s, "rotate(") {
		t.Error("placement rotation transform missing")
	}
}

func TestCardSVGSkipsMissingArtwork(t *testing.T) {
	d := testDeck(t, 2)
	missing := d.Cards[0][1]
	d.Artwork[missing] = nil

	svg, err := CardSVG(d, 0)
	if err != nil {
		t.Fatalf("CardSVG: %v", err)
	}
	if got := strings.Count(string(svg), "<image"); got != len(d.Cards[0])-1 {
		t.Errorf("embedded %d images, want %d with one symbol missing", got, len(d.Cards[0])-1)
	}
}

func TestCardSVGIndexOutOfRange(t *testing.T) {
	d := testDeck(t, 2)
	if _, err := CardSVG(d, len(d.Cards)); err == nil {
		t.Fatal("expected out-of-range error")
	}
}

func TestSheetsPagination(t *testing.T) {
	tests := []struct {
		order     int
		wantPages int
	}{
		{2, 1}, // 7 cards
		{3, 2}, // 13 cards
		{5, 4}, // 31 cards
		{7, 7}, // 57 cards
	}
	for _, tt := range tests {
		d := testDeck(t, tt.order)
		pages, err := Sheets(d)
		if err != nil {
			t.Fatalf("Sheets(order %d): %v", tt.order, err)
		}
		if len(pages) != tt.wantPages {
			t.Errorf("order %d: %d pages, want %d", tt.order, len(pages), tt.wantPages)
		}

		// Every card appears exactly once across the pages.
		total := 0
		for _, page := range pages {
			total += strings.Count(string(page), "<circle")
		}
		if total != len(d.Cards) {
			t.Errorf("order %d: %d cards rendered, want %d", tt.order, total, len(d.Cards))
		}
	}
}

func TestSheetsFullPageHasNineCards(t *testing.T) {
	d := testDeck(t, 3) // 13 cards: 9 + 4
	pages, err := Sheets(d)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(pages[0]), "<circle"); got != CardsPerPage {
		t.Errorf("first page holds %d cards, want %d", got, CardsPerPage)
	}
	if got := strings.Count(string(pages[1]), "<circle"); got != 4 {
		t.Errorf("last page holds %d cards, want 4", got)
	}
}

func TestValidateAlignment(t *testing.T) {
	d := testDeck(t, 2)
	d.Placements = d.Placements[:len(d.Placements)-1]
	if err := d.Validate(); err == nil {
		t.Fatal("expected misaligned placements to fail validation")
	}
}

func TestCardPNG(t *testing.T) {
	d := testDeck(t, 2)

	data, err := CardPNG(d, 0, 128)
	if err != nil {
		t.Fatalf("CardPNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a decodable PNG: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 128 || bounds.Dy() != 128 {
		t.Errorf("output size %dx%d, want 128x128", bounds.Dx(), bounds.Dy())
	}
}

func TestCardPNGToleratesBadArtwork(t *testing.T) {
	d := testDeck(t, 2)
	d.Artwork[d.Cards[0][0]] = []byte("not an image")

	if _, err := CardPNG(d, 0, 64); err != nil {
		t.Fatalf("undecodable artwork should be skipped, got %v", err)
	}
}
