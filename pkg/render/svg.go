package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/spotdeck/spotdeck/pkg/errors"
)

// SVGOption configures card and sheet rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	background string
	border     bool
	borderCol  string
}

// WithBackground sets the card fill color. Default is white.
func WithBackground(color string) SVGOption {
	return func(r *svgRenderer) { r.background = color }
}

// WithoutBorder suppresses the circular card outline, for die-cut printing.
func WithoutBorder() SVGOption {
	return func(r *svgRenderer) { r.border = false }
}

// WithBorderColor sets the outline color. Default is a light gray.
func WithBorderColor(color string) SVGOption {
	return func(r *svgRenderer) { r.borderCol = color }
}

func newSVGRenderer(opts ...SVGOption) svgRenderer {
	r := svgRenderer{
		background: "#ffffff",
		border:     true,
		borderCol:  "#cccccc",
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// CardSVG renders one card as a standalone SVG document: a circular card
// face with each symbol's artwork embedded as a rotated data URI image.
// Symbols without artwork are skipped.
func CardSVG(d Deck, cardIndex int, opts ...SVGOption) ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if cardIndex < 0 || cardIndex >= len(d.Cards) {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"card index %d out of range [0, %d)", cardIndex, len(d.Cards))
	}
	r := newSVGRenderer(opts...)

	var buf bytes.Buffer
	size := d.CanvasSize
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		size, size, size, size)
	r.writeCard(&buf, d, cardIndex)
	buf.WriteString("</svg>\n")
	return buf.Bytes(), nil
}

// writeCard emits one card's markup as a group, so the same body serves
// standalone cards and sheet cells.
func (r *svgRenderer) writeCard(buf *bytes.Buffer, d Deck, cardIndex int) {
	size := d.CanvasSize
	center := size / 2

	buf.WriteString("  <g>\n")
	fmt.Fprintf(buf, `    <circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"`,
		center, center, center, r.background)
	if r.border {
		fmt.Fprintf(buf, ` stroke="%s" stroke-width="%.1f"`, r.borderCol, size*0.005)
	}
	buf.WriteString("/>\n")

	for i, symbol := range d.Cards[cardIndex] {
		art := d.artworkFor(symbol)
		if art == nil {
			continue
		}
		p := d.Placements[cardIndex][i]
		cx, cy := p.X+p.Size/2, p.Y+p.Size/2
		fmt.Fprintf(buf,
			`    <image x="%.2f" y="%.2f" width="%.2f" height="%.2f" transform="rotate(%.2f %.2f %.2f)" href="%s"/>`+"\n",
			p.X, p.Y, p.Size, p.Size, p.Rotation, cx, cy, dataURI(art))
	}
	buf.WriteString("  </g>\n")
}

// dataURI embeds image bytes inline; the MIME type is sniffed so both PNG
// and JPEG artwork work.
func dataURI(data []byte) string {
	mime := http.DetectContentType(data)
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
