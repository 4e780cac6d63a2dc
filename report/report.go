package report

import (
	"image"
	"path/filepath"
	"time"

	"github.com/zebehn/docscalpel/model"
)

// Data carries one consolidation run's output into the report writers.
type Data struct {
	// Source is the path of the document the elements came from.
	Source string

	// Title is the document title when known; falls back to the source
	// file name in rendered output.
	Title string

	// Pages is the number of pages processed.
	Pages int

	// Elapsed is the consolidation wall time.
	Elapsed time.Duration

	Elements []model.Element
	Gaps     []model.SequenceGap
	Warnings []string
	Notes    []string

	// Images maps element IDs to their cropped images. When present, the
	// HTML report embeds a scaled thumbnail per element. The XLSX writer
	// ignores it.
	Images map[string]image.Image
}

func (d Data) displayTitle() string {
	if d.Title != "" {
		return d.Title
	}
	if d.Source != "" {
		return filepath.Base(d.Source)
	}
	return "Document elements"
}

func (d Data) elementCount(et model.ElementType) int {
	n := 0
	for _, e := range d.Elements {
		if e.Type == et {
			n++
		}
	}
	return n
}

func (d Data) gapCount(et model.ElementType) int {
	n := 0
	for _, g := range d.Gaps {
		if g.Type == et {
			n++
		}
	}
	return n
}
