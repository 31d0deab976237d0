// Package layout computes symbol placements for card rendering.
//
// For each card, the generator scatters the card's symbols around a circle:
// even angular spacing with a small jitter, a per-card shuffle of a discrete
// set of size categories, a full-circle rotation per symbol, and larger
// symbols pulled slightly toward the center. All randomness is drawn from a
// PCG generator seeded by the card index, so the same
// (cardIndex, symbolsPerCard, canvasSize) triple always yields bit-identical
// placements. Screen preview and print export can therefore lay out cards
// independently and stay pixel-consistent.
//
// Placement coordinates are top-left-origin in canvas units; consumers scale
// proportionally for any output resolution.
package layout

import (
	"math"
	"math/rand/v2"
)

// Placement positions one symbol's artwork within a card canvas.
// The artwork occupies the square [X, X+Size] x [Y, Y+Size], rotated by
// Rotation degrees around the square's center.
type Placement struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Size     float64 `json:"size"`
	Rotation float64 `json:"rotation"`
}

// DefaultCanvasSize is the canvas edge length used when no size is configured.
const DefaultCanvasSize = 600.0

// Tuning constants, all relative to canvas size.
const (
	paddingFrac = 0.05 // margin kept free on every canvas edge
	ringFrac    = 0.32 // scatter circle radius
	jitterFrac  = 0.25 // angular jitter, as a fraction of one angular step
	centerPull  = 0.35 // how far the largest size category moves toward center
)

// sizeFracs are the discrete symbol size categories, as canvas fractions.
// The per-card shuffle assigns them to positions.
var sizeFracs = []float64{0.18, 0.22, 0.26, 0.30}

// GenerateAll computes placements for every card in a deck.
// The result has cardCount inner slices of exactly symbolsPerCard placements,
// positionally aligned with each card's symbol sequence.
func GenerateAll(cardCount, symbolsPerCard int, canvasSize float64) [][]Placement {
	all := make([][]Placement, cardCount)
	for c := range all {
		all[c] = Generate(c, symbolsPerCard, canvasSize)
	}
	return all
}

// Generate computes the placements for a single card.
// Placements depend only on the arguments; wall-clock time and external
// entropy are never consulted.
func Generate(cardIndex, symbolsPerCard int, canvasSize float64) []Placement {
	rng := newCardRand(cardIndex)

	center := canvasSize / 2
	ring := canvasSize * ringFrac
	step := 2 * math.Pi / float64(symbolsPerCard)

	sizes := shuffledSizes(rng, symbolsPerCard, canvasSize)

	placements := make([]Placement, symbolsPerCard)
	for i := range placements {
		angle := float64(i)*step + (rng.Float64()*2-1)*step*jitterFrac
		size := sizes[i]

		// Larger symbols sit closer to the center so their corners stay
		// inside the canvas after rotation headroom.
		frac := size / canvasSize
		minFrac, maxFrac := sizeFracs[0], sizeFracs[len(sizeFracs)-1]
		pull := (frac - minFrac) / (maxFrac - minFrac) * centerPull
		radius := ring * (1 - pull)

		cx := center + radius*math.Cos(angle)
		cy := center + radius*math.Sin(angle)

		placements[i] = Placement{
			X:        clamp(cx-size/2, canvasSize, size),
			Y:        clamp(cy-size/2, canvasSize, size),
			Size:     size,
			Rotation: rng.Float64() * 360,
		}
	}
	return placements
}

// newCardRand builds the deterministic generator for one card.
// Only the card index feeds the seed; this is the whole determinism story.
func newCardRand(cardIndex int) *rand.Rand {
	seed := uint64(cardIndex) + 1
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// shuffledSizes cycles the size categories up to count entries and applies a
// seeded per-card shuffle.
func shuffledSizes(rng *rand.Rand, count int, canvasSize float64) []float64 {
	sizes := make([]float64, count)
	for i := range sizes {
		sizes[i] = canvasSize * sizeFracs[i%len(sizeFracs)]
	}
	rng.Shuffle(len(sizes), func(i, j int) {
		sizes[i], sizes[j] = sizes[j], sizes[i]
	})
	return sizes
}

// clamp keeps a placement's square inside the padded canvas.
func clamp(v, canvasSize, size float64) float64 {
	pad := canvasSize * paddingFrac
	lo, hi := pad, canvasSize-pad-size
	if hi < lo {
		hi = lo
	}
	return math.Max(lo, math.Min(v, hi))
}
