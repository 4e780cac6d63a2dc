package model

import "math"

// Point represents a 2D point in page space
type Point struct {
	X, Y float64
}

// Distance calculates the Euclidean distance to another point
func (p Point) Distance(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// BoundingBox represents an axis-aligned box on a page.
// Coordinates use a top-left origin with Y increasing downward, matching
// the raster space detections are produced in; a box with a lower Y sits
// higher on the page.
type BoundingBox struct {
	X      float64 // Left
	Y      float64 // Top
	Width  float64
	Height float64
	Page   int // 1-based page number
}

// NewBoundingBox creates a bounding box from coordinates
func NewBoundingBox(x, y, width, height float64, page int) BoundingBox {
	return BoundingBox{X: x, Y: y, Width: width, Height: height, Page: page}
}

// Left returns the left edge X coordinate
func (b BoundingBox) Left() float64 {
	return b.X
}

// Right returns the right edge X coordinate
func (b BoundingBox) Right() float64 {
	return b.X + b.Width
}

// Top returns the top edge Y coordinate
func (b BoundingBox) Top() float64 {
	return b.Y
}

// Bottom returns the bottom edge Y coordinate
func (b BoundingBox) Bottom() float64 {
	return b.Y + b.Height
}

// Center returns the center point
func (b BoundingBox) Center() Point {
	return Point{
		X: b.X + b.Width/2,
		Y: b.Y + b.Height/2,
	}
}

// Contains checks if a point is inside the bounding box
func (b BoundingBox) Contains(p Point) bool {
	return p.X >= b.Left() && p.X <= b.Right() &&
		p.Y >= b.Top() && p.Y <= b.Bottom()
}

// Intersects checks if two bounding boxes on the same page intersect.
// Boxes on different pages never intersect.
func (b BoundingBox) Intersects(other BoundingBox) bool {
	if b.Page != other.Page {
		return false
	}
	return !(b.Right() < other.Left() ||
		b.Left() > other.Right() ||
		b.Bottom() < other.Top() ||
		b.Top() > other.Bottom())
}

// Intersection returns the intersection of two bounding boxes.
// Returns the zero box when they do not intersect.
func (b BoundingBox) Intersection(other BoundingBox) BoundingBox {
	if !b.Intersects(other) {
		return BoundingBox{}
	}

	x := math.Max(b.Left(), other.Left())
	y := math.Max(b.Top(), other.Top())
	right := math.Min(b.Right(), other.Right())
	bottom := math.Min(b.Bottom(), other.Bottom())

	return BoundingBox{
		X:      x,
		Y:      y,
		Width:  right - x,
		Height: bottom - y,
		Page:   b.Page,
	}
}

// Union returns the smallest box containing both boxes.
// Both boxes must lie on the same page.
func (b BoundingBox) Union(other BoundingBox) BoundingBox {
	x := math.Min(b.Left(), other.Left())
	y := math.Min(b.Top(), other.Top())
	right := math.Max(b.Right(), other.Right())
	bottom := math.Max(b.Bottom(), other.Bottom())

	return BoundingBox{
		X:      x,
		Y:      y,
		Width:  right - x,
		Height: bottom - y,
		Page:   b.Page,
	}
}

// Area returns the area of the bounding box
func (b BoundingBox) Area() float64 {
	return b.Width * b.Height
}

// Expand expands the bounding box by a margin on all sides
func (b BoundingBox) Expand(margin float64) BoundingBox {
	return BoundingBox{
		X:      b.X - margin,
		Y:      b.Y - margin,
		Width:  b.Width + 2*margin,
		Height: b.Height + 2*margin,
		Page:   b.Page,
	}
}

// IoU calculates the Intersection-over-Union with another box.
// Returns a value between 0 and 1; 0 when the boxes do not intersect
// or lie on different pages.
func (b BoundingBox) IoU(other BoundingBox) float64 {
	if !b.Intersects(other) {
		return 0
	}

	inter := b.Intersection(other).Area()
	union := b.Area() + other.Area() - inter

	if union <= 0 {
		return 0
	}

	return inter / union
}

// HorizontalOverlap returns the length of the horizontal interval shared
// by the two boxes, ignoring their vertical extents. Returns 0 when the
// intervals are disjoint or the boxes lie on different pages.
func (b BoundingBox) HorizontalOverlap(other BoundingBox) float64 {
	if b.Page != other.Page {
		return 0
	}
	left := math.Max(b.Left(), other.Left())
	right := math.Min(b.Right(), other.Right())
	if right <= left {
		return 0
	}
	return right - left
}

// Clip returns the part of the box inside the given bounds.
// Returns the zero box when the two do not intersect.
func (b BoundingBox) Clip(bounds BoundingBox) BoundingBox {
	return b.Intersection(bounds)
}

// IsValid returns true if the bounding box has positive dimensions
func (b BoundingBox) IsValid() bool {
	return b.Width > 0 && b.Height > 0
}

// IsZero returns true if the bounding box has zero area
func (b BoundingBox) IsZero() bool {
	return b.Width <= 0 || b.Height <= 0
}
