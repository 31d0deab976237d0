package render

import (
	"bytes"
	"fmt"
)

// Print sheet geometry: 3x3 cards per page on A4 portrait, in points.
const (
	sheetCols    = 3
	sheetRows    = 3
	CardsPerPage = sheetCols * sheetRows

	pageWidth  = 595.0
	pageHeight = 842.0
	pageMargin = 24.0
	cardGap    = 12.0
)

// Sheets renders the whole deck as a sequence of print pages, 9 cards per
// page in a 3x3 grid. Cards keep their aspect ratio: each cell scales the
// card's canvas proportionally, it never stretches. The last page may be
// partially filled.
func Sheets(d Deck, opts ...SVGOption) ([][]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	r := newSVGRenderer(opts...)

	pageCount := (len(d.Cards) + CardsPerPage - 1) / CardsPerPage
	pages := make([][]byte, 0, pageCount)
	for page := 0; page < pageCount; page++ {
		pages = append(pages, r.renderPage(d, page*CardsPerPage))
	}
	return pages, nil
}

func (r *svgRenderer) renderPage(d Deck, firstCard int) []byte {
	cellW := (pageWidth - 2*pageMargin - float64(sheetCols-1)*cardGap) / sheetCols
	cellH := (pageHeight - 2*pageMargin - float64(sheetRows-1)*cardGap) / sheetRows

	// Proportional scaling: one factor for both axes, chosen so the card
	// canvas fits the cell.
	scale := cellW / d.CanvasSize
	if s := cellH / d.CanvasSize; s < scale {
		scale = s
	}
	scaled := d.CanvasSize * scale

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		pageWidth, pageHeight, pageWidth, pageHeight)

	for cell := 0; cell < CardsPerPage; cell++ {
		cardIndex := firstCard + cell
		if cardIndex >= len(d.Cards) {
			break
		}
		col := cell % sheetCols
		row := cell / sheetCols
		// Center the scaled card inside its cell.
		x := pageMargin + float64(col)*(cellW+cardGap) + (cellW-scaled)/2
		y := pageMargin + float64(row)*(cellH+cardGap) + (cellH-scaled)/2

		fmt.Fprintf(&buf, `  <g transform="translate(%.2f %.2f) scale(%.4f)">`+"\n", x, y, scale)
		r.writeCard(&buf, d, cardIndex)
		buf.WriteString("  </g>\n")
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}
