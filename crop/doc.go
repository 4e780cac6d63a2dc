// Package crop writes consolidated elements out as cropped images.
//
// The exporter works in raster space: element boxes are mapped back from
// page space through the same [model.Mapper] the detections came in with,
// padded by a configurable margin, clamped to the page raster and saved one
// file per element. Only realized elements are written; reserved sequence
// slots carry no geometry and produce no file.
//
// Page rasters are supplied as decoded images keyed by page number, or
// loaded from a directory of files whose names end in the page number
// (page_3.png, page-003.jpg, 3.png all map to page 3).
//
// # Example
//
//	exporter := crop.NewExporter(mapper, crop.DefaultConfig())
//	paths, err := exporter.ExportFiles("out/crops", result.Elements, "out/pages")
package crop
