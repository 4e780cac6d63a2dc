// Package model provides the shared data types for document-element
// consolidation.
//
// This package defines the records that flow through the pipeline: raw
// detector output, positioned caption text, and the final consolidated
// elements. All consolidation stages consume and produce these types,
// making them the primary API for inspecting results.
//
// # Coordinate Spaces
//
// Two spaces appear throughout. Raster space is the pixel grid of the
// rendered page image the detector operates on. Page space is the page's
// own geometry in points. Both use a top-left origin with Y increasing
// downward, so a box with a lower Y sits higher on the page. The [Mapper]
// converts between the two using the page's raster scale factor and is the
// only component allowed to do so:
//
//	m, err := model.NewMapper(2.0) // raster rendered at 2x
//	pageBox, err := m.ToPage(det.RasterBBox)
//
// Mapping failures are reported as [GeometryError]; the affected detection
// is dropped and the rest of the page proceeds.
//
// # Records
//
// The pipeline's inputs and outputs are:
//
//   - [Detection] - one raw detector candidate, immutable after creation
//   - [CaptionCandidate] - one positioned text run from the page
//   - [ParsedCaption] - a candidate whose text matched a caption signature
//   - [Element] - one final consolidated element with its sequence number
//   - [SequenceGap] - a reserved sequence slot with no backing detection
//
// # Element Types
//
// [ElementType] is a closed set: figure, table, equation. Detector class
// labels enter through [ParseLabel], which maps the known label vocabulary
// onto the set and rejects everything else with [ErrUnknownLabel]. Labels
// naming caption regions are identified by [IsCaptionLabel] and routed to
// the caption side of the pipeline instead.
package model
