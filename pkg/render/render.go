// Package render turns a generated deck into visual output: standalone
// per-card SVGs, 3x3 print sheets, raster PNG cards, and PDF/PNG conversion
// of any SVG via rsvg-convert.
//
// All placement math is done upstream; renderers scale placements
// proportionally from their canvas units to the output size and never move
// symbols. Missing artwork is skipped, a card with gaps still renders.
package render

import (
	"github.com/spotdeck/spotdeck/pkg/deck"
	"github.com/spotdeck/spotdeck/pkg/errors"
	"github.com/spotdeck/spotdeck/pkg/layout"
)

// Deck bundles everything the renderers consume: the card/symbol incidence,
// per-card placements, and per-symbol artwork. Artwork is indexed by symbol
// index; nil entries mean the symbol has no image yet.
type Deck struct {
	Cards      []deck.Card
	Placements [][]layout.Placement
	Artwork    [][]byte
	CanvasSize float64
}

// Validate checks the cross-slice alignment the renderers rely on.
func (d *Deck) Validate() error {
	if len(d.Cards) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "deck has no cards")
	}
	if len(d.Placements) != len(d.Cards) {
		return errors.New(errors.ErrCodeInvalidInput,
			"placement count %d does not match card count %d", len(d.Placements), len(d.Cards))
	}
	for i, card := range d.Cards {
		if len(d.Placements[i]) != len(card) {
			return errors.New(errors.ErrCodeInvalidInput,
				"card %d has %d symbols but %d placements", i, len(card), len(d.Placements[i]))
		}
		if d.Artwork == nil {
			continue
		}
		for _, symbol := range card {
			if symbol < 0 || symbol >= len(d.Artwork) {
				return errors.New(errors.ErrCodeInvalidInput,
					"card %d references symbol %d outside artwork range %d", i, symbol, len(d.Artwork))
			}
		}
	}
	if d.CanvasSize <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "canvas size must be positive")
	}
	return nil
}

// artworkFor returns the artwork bytes for a symbol, or nil when absent.
func (d *Deck) artworkFor(symbol int) []byte {
	if symbol < 0 || symbol >= len(d.Artwork) {
		return nil
	}
	return d.Artwork[symbol]
}
