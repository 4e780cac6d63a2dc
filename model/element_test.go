package model

import (
	"errors"
	"testing"
)

func TestElementTypeString(t *testing.T) {
	tests := []struct {
		et   ElementType
		want string
	}{
		{ElementTypeFigure, "figure"},
		{ElementTypeTable, "table"},
		{ElementTypeEquation, "equation"},
		{ElementTypeInvalid, "invalid"},
		{ElementType(99), "invalid"},
	}

	for _, tt := range tests {
		if got := tt.et.String(); got != tt.want {
			t.Errorf("ElementType(%d).String() = %q, want %q", tt.et, got, tt.want)
		}
	}
}

func TestElementTypes(t *testing.T) {
	types := ElementTypes()
	if len(types) != 3 {
		t.Fatalf("ElementTypes() returned %d types, want 3", len(types))
	}
	for _, et := range types {
		if et == ElementTypeInvalid {
			t.Error("ElementTypes() contains the invalid type")
		}
	}
}

func TestParseLabel(t *testing.T) {
	tests := []struct {
		label string
		want  ElementType
	}{
		{"figure", ElementTypeFigure},
		{"Figure", ElementTypeFigure},
		{"fig", ElementTypeFigure},
		{"image", ElementTypeFigure},
		{"picture", ElementTypeFigure},
		{"table", ElementTypeTable},
		{"TABLE", ElementTypeTable},
		{"tbl", ElementTypeTable},
		{"equation", ElementTypeEquation},
		{"formula", ElementTypeEquation},
		{"isolate_formula", ElementTypeEquation},
		{"  figure  ", ElementTypeFigure},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := ParseLabel(tt.label)
			if err != nil {
				t.Fatalf("ParseLabel(%q): %v", tt.label, err)
			}
			if got != tt.want {
				t.Errorf("ParseLabel(%q) = %v, want %v", tt.label, got, tt.want)
			}
		})
	}
}

func TestParseLabelRejectsUnknown(t *testing.T) {
	for _, label := range []string{"header", "footnote", "", "figur"} {
		_, err := ParseLabel(label)
		if err == nil {
			t.Errorf("ParseLabel(%q) succeeded, want error", label)
			continue
		}
		if !errors.Is(err, ErrUnknownLabel) {
			t.Errorf("ParseLabel(%q) error = %v, want ErrUnknownLabel", label, err)
		}
	}
}

func TestCaptionLabelRouting(t *testing.T) {
	captionish := []string{"caption", "figure_caption", "Table_Caption", "formula_caption"}
	for _, label := range captionish {
		if !IsCaptionLabel(label) {
			t.Errorf("IsCaptionLabel(%q) = false, want true", label)
		}
		// Caption labels are not element labels.
		if _, err := ParseLabel(label); err == nil {
			t.Errorf("ParseLabel(%q) succeeded, caption labels must not map to element types", label)
		}
	}

	if IsCaptionLabel("figure") {
		t.Error("IsCaptionLabel(\"figure\") = true, want false")
	}
}

func TestDetectionValidate(t *testing.T) {
	valid := Detection{
		ID:         "d1",
		Type:       ElementTypeFigure,
		RasterBBox: NewBoundingBox(10, 10, 100, 80, 1),
		Page:       1,
		Confidence: 0.9,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() of valid detection: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Detection)
	}{
		{"invalid type", func(d *Detection) { d.Type = ElementTypeInvalid }},
		{"zero page", func(d *Detection) { d.Page = 0 }},
		{"confidence above one", func(d *Detection) { d.Confidence = 1.5 }},
		{"negative confidence", func(d *Detection) { d.Confidence = -0.1 }},
		{"negative origin", func(d *Detection) { d.RasterBBox.X = -4 }},
		{"zero extent", func(d *Detection) { d.RasterBBox.Width = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid
			tt.mutate(&d)
			if err := d.Validate(); err == nil {
				t.Error("Validate() succeeded, want error")
			}
		})
	}
}

func TestNewElement(t *testing.T) {
	sources := []string{"d2", "d1"}
	el := NewElement(ElementTypeFigure, NewBoundingBox(10, 20, 100, 50, 2), 2, 0.87, sources)

	if el.ID == "" {
		t.Error("NewElement() produced empty id")
	}
	if len(el.SourceDetectionIDs) != 2 {
		t.Fatalf("SourceDetectionIDs = %v, want 2 entries", el.SourceDetectionIDs)
	}
	if el.SourceDetectionIDs[0] != "d1" || el.SourceDetectionIDs[1] != "d2" {
		t.Errorf("SourceDetectionIDs = %v, want sorted [d1 d2]", el.SourceDetectionIDs)
	}

	// The caller's slice is copied, not aliased.
	sources[0] = "mutated"
	if el.SourceDetectionIDs[0] == "mutated" || el.SourceDetectionIDs[1] == "mutated" {
		t.Error("NewElement() aliased the caller's source slice")
	}

	other := NewElement(ElementTypeFigure, el.BBox, 2, 0.5, []string{"d3"})
	if other.ID == el.ID {
		t.Error("NewElement() produced duplicate ids")
	}
}

func TestElementValidate(t *testing.T) {
	valid := NewElement(ElementTypeTable, NewBoundingBox(0, 0, 50, 50, 1), 1, 0.8, []string{"d1"})
	valid.SequenceNumber = 1
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() of valid element: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Element)
	}{
		{"invalid type", func(e *Element) { e.Type = ElementTypeInvalid }},
		{"zero page", func(e *Element) { e.Page = 0 }},
		{"unassigned sequence", func(e *Element) { e.SequenceNumber = 0 }},
		{"confidence above one", func(e *Element) { e.Confidence = 2 }},
		{"no sources", func(e *Element) { e.SourceDetectionIDs = nil }},
		{"degenerate box", func(e *Element) { e.BBox.Height = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid
			tt.mutate(&e)
			if err := e.Validate(); err == nil {
				t.Error("Validate() succeeded, want error")
			}
		})
	}
}
