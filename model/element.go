package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// ElementType identifies the kind of a detected document element.
// The set is closed: detector label strings are mapped through ParseLabel
// and anything outside the known vocabulary is rejected, never coerced.
type ElementType int

const (
	ElementTypeInvalid ElementType = iota
	ElementTypeFigure
	ElementTypeTable
	ElementTypeEquation
)

func (et ElementType) String() string {
	switch et {
	case ElementTypeFigure:
		return "figure"
	case ElementTypeTable:
		return "table"
	case ElementTypeEquation:
		return "equation"
	default:
		return "invalid"
	}
}

// ElementTypes returns the closed set of valid element types in a fixed order
func ElementTypes() []ElementType {
	return []ElementType{ElementTypeFigure, ElementTypeTable, ElementTypeEquation}
}

// ErrUnknownLabel is returned by ParseLabel for detector labels outside the
// known vocabulary.
var ErrUnknownLabel = errors.New("model: unknown detector label")

// elementLabels maps detector class labels to element types. Detection
// models name the same class differently across releases; the table covers
// the observed variants.
var elementLabels = map[string]ElementType{
	"figure":          ElementTypeFigure,
	"fig":             ElementTypeFigure,
	"image":           ElementTypeFigure,
	"picture":         ElementTypeFigure,
	"table":           ElementTypeTable,
	"tbl":             ElementTypeTable,
	"equation":        ElementTypeEquation,
	"formula":         ElementTypeEquation,
	"isolate_formula": ElementTypeEquation,
}

// captionLabels are detector classes that mark caption text regions rather
// than elements. They are routed to the caption side of the pipeline, not
// rejected.
var captionLabels = map[string]struct{}{
	"caption":          {},
	"figure_caption":   {},
	"table_caption":    {},
	"formula_caption":  {},
	"equation_caption": {},
}

// ParseLabel maps a detector class label to an element type.
// Matching is case-insensitive. Caption labels and unknown labels both
// return ErrUnknownLabel; use IsCaptionLabel to tell them apart.
func ParseLabel(label string) (ElementType, error) {
	et, ok := elementLabels[strings.ToLower(strings.TrimSpace(label))]
	if !ok {
		return ElementTypeInvalid, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
	return et, nil
}

// IsCaptionLabel reports whether a detector class label marks a caption
// text region.
func IsCaptionLabel(label string) bool {
	_, ok := captionLabels[strings.ToLower(strings.TrimSpace(label))]
	return ok
}

// Detection is a raw candidate produced by the external detector: an
// axis-aligned box in raster space with a class and confidence. Detections
// are created once per page and never mutated.
type Detection struct {
	ID         string
	Type       ElementType
	RasterBBox BoundingBox
	Page       int
	Confidence float64
}

// Validate checks the structural rules a detection must satisfy before it
// enters the pipeline.
func (d Detection) Validate() error {
	if d.Type == ElementTypeInvalid {
		return fmt.Errorf("detection %s: invalid element type", d.ID)
	}
	if d.Page < 1 {
		return fmt.Errorf("detection %s: page number must be >= 1, got %d", d.ID, d.Page)
	}
	if d.Confidence < 0 || d.Confidence > 1 {
		return fmt.Errorf("detection %s: confidence must be within [0, 1], got %g", d.ID, d.Confidence)
	}
	if d.RasterBBox.X < 0 || d.RasterBBox.Y < 0 {
		return fmt.Errorf("detection %s: box origin must be non-negative", d.ID)
	}
	if !d.RasterBBox.IsValid() {
		return fmt.Errorf("detection %s: box must have positive extent", d.ID)
	}
	return nil
}

// PlacedDetection pairs a detection with the page-space box the Mapper
// produced for it. The embedded detection stays untouched; only the placed
// box participates in geometry from here on.
type PlacedDetection struct {
	Detection
	BBox BoundingBox // page space
}

// Element is the final consolidated artifact: one logical figure, table or
// equation with its page-space box and type-scoped sequence number.
// Elements are created only during final consolidation and are immutable
// afterwards.
type Element struct {
	ID                 string
	Type               ElementType
	BBox               BoundingBox
	Page               int
	SequenceNumber     int
	Confidence         float64
	SourceDetectionIDs []string
}

// NewElement creates an element backed by the given detections. The
// sequence number is zero until assignment; confidence of a merged element
// is the maximum over its members, supplied by the caller.
func NewElement(t ElementType, bbox BoundingBox, page int, confidence float64, sourceIDs []string) Element {
	ids := make([]string, len(sourceIDs))
	copy(ids, sourceIDs)
	sort.Strings(ids)
	return Element{
		ID:                 uuid.NewString(),
		Type:               t,
		BBox:               bbox,
		Page:               page,
		Confidence:         confidence,
		SourceDetectionIDs: ids,
	}
}

// Validate checks the invariants a finished element must satisfy.
func (e Element) Validate() error {
	if e.Type == ElementTypeInvalid {
		return fmt.Errorf("element %s: invalid element type", e.ID)
	}
	if e.Page < 1 {
		return fmt.Errorf("element %s: page number must be >= 1, got %d", e.ID, e.Page)
	}
	if e.SequenceNumber < 1 {
		return fmt.Errorf("element %s: sequence number must be >= 1, got %d", e.ID, e.SequenceNumber)
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		return fmt.Errorf("element %s: confidence must be within [0, 1], got %g", e.ID, e.Confidence)
	}
	if len(e.SourceDetectionIDs) == 0 {
		return fmt.Errorf("element %s: no source detections", e.ID)
	}
	if !e.BBox.IsValid() {
		return fmt.Errorf("element %s: box must have positive extent", e.ID)
	}
	return nil
}

// SequenceGap reserves a sequence slot for an element number that document
// text references but no detection backs. Gaps stay separate from Elements
// so export logic can skip them; they carry the position of the referencing
// text run instead of a fabricated bounding box.
type SequenceGap struct {
	Type           ElementType
	Number         int // caption number implied by the text
	SequenceNumber int
	Page           int
	Origin         Point // position of the referencing text run
}
