package render

import (
	"bytes"
	"image"
	_ "image/jpeg" // artwork providers may return JPEG
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/spotdeck/spotdeck/pkg/errors"
)

// CardPNG rasterizes one card directly, without going through SVG or
// librsvg. outSize is the output edge length in pixels; placements scale
// proportionally from the deck's canvas units. Used for fast screen
// previews, print export goes through Sheets + ToPDF instead.
func CardPNG(d Deck, cardIndex, outSize int, opts ...SVGOption) ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if cardIndex < 0 || cardIndex >= len(d.Cards) {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"card index %d out of range [0, %d)", cardIndex, len(d.Cards))
	}
	if outSize <= 0 {
		outSize = int(d.CanvasSize)
	}
	r := newSVGRenderer(opts...)
	scale := float64(outSize) / d.CanvasSize

	dc := gg.NewContext(outSize, outSize)
	center := float64(outSize) / 2

	dc.SetHexColor(r.background)
	dc.DrawCircle(center, center, center)
	dc.Fill()
	if r.border {
		lw := float64(outSize) * 0.005
		dc.SetHexColor(r.borderCol)
		dc.SetLineWidth(lw)
		dc.DrawCircle(center, center, center-lw/2)
		dc.Stroke()
	}

	for i, symbol := range d.Cards[cardIndex] {
		art := d.artworkFor(symbol)
		if art == nil {
			continue
		}
		img, _, err := image.Decode(bytes.NewReader(art))
		if err != nil {
			// Undecodable artwork is treated like missing artwork.
			continue
		}
		p := d.Placements[cardIndex][i]
		size := int(p.Size * scale)
		if size < 1 {
			continue
		}
		resized := imaging.Resize(img, size, size, imaging.Lanczos)

		// Rotate around the placement center, matching the SVG transform.
		cx := (p.X + p.Size/2) * scale
		cy := (p.Y + p.Size/2) * scale
		dc.Push()
		dc.RotateAbout(gg.Radians(p.Rotation), cx, cy)
		dc.DrawImageAnchored(resized, int(cx), int(cy), 0.5, 0.5)
		dc.Pop()
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
