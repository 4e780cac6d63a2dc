package model

import (
	"fmt"
	"math"
)

// GeometryError reports a detection box that cannot be mapped into page
// space: a zero or non-finite scale factor, or a mapped box with
// non-positive extent. Callers drop the affected detection and continue
// with the rest of the page.
type GeometryError struct {
	Scale  float64
	Box    BoundingBox
	Reason string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("geometry: %s (scale=%g, box=%gx%g at %g,%g page %d)",
		e.Reason, e.Scale, e.Box.Width, e.Box.Height, e.Box.X, e.Box.Y, e.Box.Page)
}

// Mapper converts boxes between raster space and page space using the
// uniform raster scale factor of a page (raster_dim / page_dim). Pages are
// rendered with a single zoom for both axes, so one factor covers X and Y.
type Mapper struct {
	scale float64
}

// NewMapper creates a mapper for the given raster scale factor.
// The factor must be positive and finite.
func NewMapper(scale float64) (Mapper, error) {
	if scale == 0 || math.IsNaN(scale) || math.IsInf(scale, 0) || scale < 0 {
		return Mapper{}, &GeometryError{Scale: scale, Reason: "invalid raster scale factor"}
	}
	return Mapper{scale: scale}, nil
}

// Scale returns the raster scale factor the mapper was created with
func (m Mapper) Scale() float64 {
	return m.scale
}

// ToPage maps a raster-space box into page space. Returns a GeometryError
// when the box has non-positive width or height; such detections carry no
// usable geometry and must be dropped by the caller.
func (m Mapper) ToPage(raster BoundingBox) (BoundingBox, error) {
	if !raster.IsValid() {
		return BoundingBox{}, &GeometryError{Scale: m.scale, Box: raster, Reason: "non-positive box extent"}
	}

	mapped := BoundingBox{
		X:      raster.X / m.scale,
		Y:      raster.Y / m.scale,
		Width:  raster.Width / m.scale,
		Height: raster.Height / m.scale,
		Page:   raster.Page,
	}
	if !mapped.IsValid() {
		return BoundingBox{}, &GeometryError{Scale: m.scale, Box: raster, Reason: "mapped box has non-positive extent"}
	}
	return mapped, nil
}

// ToRaster maps a page-space box back into raster space. This is the exact
// inverse of ToPage; feeding a mapped box through ToRaster reproduces the
// original raster coordinates up to floating-point rounding.
func (m Mapper) ToRaster(page BoundingBox) BoundingBox {
	return BoundingBox{
		X:      page.X * m.scale,
		Y:      page.Y * m.scale,
		Width:  page.Width * m.scale,
		Height: page.Height * m.scale,
		Page:   page.Page,
	}
}
