package docscalpel

import (
	"image"
	"time"

	"github.com/zebehn/docscalpel/model"
	"github.com/zebehn/docscalpel/report"
)

// Result is the outcome of consolidating one document's detections.
type Result struct {
	// Source is the document path; empty when consolidation ran on bare
	// page inputs.
	Source string

	// Title is the document's metadata title when it carries one.
	Title string

	// Pages is the number of pages processed.
	Pages int

	// Elements is the final list, grouped by type and ordered by sequence
	// number within each type.
	Elements []model.Element

	// Gaps are reserved sequence slots for numbers referenced in text
	// with no backing detection.
	Gaps []model.SequenceGap

	// Warnings report dropped detections, duplicate suppressions,
	// ambiguous caption pairings, and pages that could not contribute.
	Warnings []string

	// Notes report informational events: subfigure merges and reserved
	// sequence slots.
	Notes []string

	// Elapsed is the consolidation wall time.
	Elapsed time.Duration
}

// Count returns how many elements of the given type were consolidated.
func (r *Result) Count(et model.ElementType) int {
	n := 0
	for _, e := range r.Elements {
		if e.Type == et {
			n++
		}
	}
	return n
}

// ElementsOfType returns the elements of one type in sequence order.
func (r *Result) ElementsOfType(et model.ElementType) []model.Element {
	var out []model.Element
	for _, e := range r.Elements {
		if e.Type == et {
			out = append(out, e)
		}
	}
	return out
}

// ReportData shapes the result for the report writers. images optionally
// maps element IDs to cropped images for thumbnail rendering; pass nil for
// a text-only report.
func (r *Result) ReportData(images map[string]image.Image) report.Data {
	return report.Data{
		Source:   r.Source,
		Title:    r.Title,
		Pages:    r.Pages,
		Elapsed:  r.Elapsed,
		Elements: r.Elements,
		Gaps:     r.Gaps,
		Warnings: r.Warnings,
		Notes:    r.Notes,
		Images:   images,
	}
}
