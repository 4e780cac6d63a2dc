package pdfio

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TextRun is one assembled line of text with its position in page space
// (top-left origin, y growing downward).
type TextRun struct {
	Text   string
	X      float64
	Y      float64
	Width  float64
	Height float64
}

const (
	// Fallback height for glyphs reported without a font size.
	defaultGlyphHeight = 10.0

	// Fraction of glyph height used as the Y tolerance when grouping
	// glyphs into lines.
	lineTolerance = 0.5

	// Fraction of glyph height a horizontal gap must exceed before a
	// space is inserted between fragments.
	spaceGapFactor = 0.1
)

// TextRuns extracts the 1-based page n's text as positioned line runs.
// Pages without a text layer return an empty slice and no error.
func (d *Document) TextRuns(n int) (runs []TextRun, err error) {
	if n < 1 || n > len(d.pages) {
		return nil, fmt.Errorf("pdfio: page %d out of range 1..%d", n, len(d.pages))
	}
	// The underlying reader panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdfio: text extraction on page %d: %v", n, r)
		}
	}()

	page := d.reader.Page(n)
	if page.V.IsNull() {
		return nil, nil
	}
	content := page.Content()
	return buildRuns(content.Text, d.pages[n-1].Height), nil
}

// TextInRect returns the text of every run whose center lies inside the
// given page-space rectangle on the 1-based page n, joined in reading order.
func (d *Document) TextInRect(n int, x, y, w, h float64) (string, error) {
	runs, err := d.TextRuns(n)
	if err != nil {
		return "", err
	}
	return joinRunsInRect(runs, x, y, w, h), nil
}

// fragment is a single positioned glyph cluster, already flipped to
// top-left-origin coordinates.
type fragment struct {
	text string
	x, y float64
	w, h float64
}

// buildRuns groups raw glyphs into line-level runs. Glyph positions arrive
// in PDF bottom-up coordinates; the result is top-down.
func buildRuns(chars []pdf.Text, pageHeight float64) []TextRun {
	frags := make([]fragment, 0, len(chars))
	for _, t := range chars {
		if t.S == "" {
			continue
		}
		h := t.FontSize
		if h <= 0 {
			h = defaultGlyphHeight
		}
		frags = append(frags, fragment{
			text: t.S,
			x:    t.X,
			y:    pageHeight - t.Y - h,
			w:    t.W,
			h:    h,
		})
	}
	if len(frags) == 0 {
		return nil
	}

	sort.SliceStable(frags, func(i, j int) bool {
		if frags[i].y != frags[j].y {
			return frags[i].y < frags[j].y
		}
		return frags[i].x < frags[j].x
	})

	var runs []TextRun
	line := []fragment{frags[0]}
	for _, f := range frags[1:] {
		if f.y-line[0].y <= lineTolerance*maxHeight(line) {
			line = append(line, f)
			continue
		}
		runs = append(runs, assembleRun(line))
		line = []fragment{f}
	}
	runs = append(runs, assembleRun(line))
	return runs
}

// assembleRun flattens one line's fragments into a single run, inserting
// spaces at significant horizontal gaps.
func assembleRun(line []fragment) TextRun {
	sort.SliceStable(line, func(i, j int) bool {
		return line[i].x < line[j].x
	})

	var sb strings.Builder
	minY := line[0].y
	maxX := line[0].x + line[0].w
	maxH := line[0].h
	for i, f := range line {
		if i > 0 {
			prev := line[i-1]
			gap := f.x - (prev.x + prev.w)
			if gap > f.h*spaceGapFactor {
				sb.WriteString(" ")
			}
		}
		sb.WriteString(f.text)
		if f.y < minY {
			minY = f.y
		}
		if f.x+f.w > maxX {
			maxX = f.x + f.w
		}
		if f.h > maxH {
			maxH = f.h
		}
	}
	return TextRun{
		Text:   sb.String(),
		X:      line[0].x,
		Y:      minY,
		Width:  maxX - line[0].x,
		Height: maxH,
	}
}

// joinRunsInRect joins the text of runs whose center falls inside the
// rectangle, top to bottom.
func joinRunsInRect(runs []TextRun, x, y, w, h float64) string {
	var parts []string
	for _, r := range runs {
		cx := r.X + r.Width/2
		cy := r.Y + r.Height/2
		if cx >= x && cx <= x+w && cy >= y && cy <= y+h {
			parts = append(parts, r.Text)
		}
	}
	return strings.Join(parts, " ")
}

// maxHeight returns the tallest fragment height in line.
func maxHeight(line []fragment) float64 {
	h := line[0].h
	for _, f := range line[1:] {
		if f.h > h {
			h = f.h
		}
	}
	return h
}
