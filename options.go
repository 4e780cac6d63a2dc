package docscalpel

import (
	"log/slog"

	"github.com/zebehn/docscalpel/consolidate"
	"github.com/zebehn/docscalpel/model"
)

// options holds the resolved configuration an Open call produces.
type options struct {
	maxPages      int
	rasterScale   float64
	pageImagesDir string
	engine        consolidate.Config
	logger        *slog.Logger
}

func defaultOptions() options {
	return options{
		maxPages:    0, // all pages
		rasterScale: 2.0,
		engine:      consolidate.DefaultConfig(),
		logger:      slog.Default(),
	}
}

// Option configures Open, ConsolidateFile, and ConsolidatePages.
type Option func(*options)

// WithIoUThreshold sets the overlap ratio at which two same-type detections
// count as duplicates. Default 0.5.
func WithIoUThreshold(threshold float64) Option {
	return func(o *options) { o.engine.IoUThreshold = threshold }
}

// WithMinConfidence drops detections below the given confidence before
// consolidation. Default 0.5.
func WithMinConfidence(confidence float64) Option {
	return func(o *options) { o.engine.MinConfidence = confidence }
}

// WithCaptionMargin sets the vertical caption search distance as a fraction
// of page height. Default 0.125.
func WithCaptionMargin(fraction float64) Option {
	return func(o *options) { o.engine.Captions.VerticalMargin = fraction }
}

// WithMaxForwardGap sets how far past the last detection-backed number a
// text reference may reach and still reserve a sequence slot. Default 1.
func WithMaxForwardGap(gap int) Option {
	return func(o *options) { o.engine.MaxForwardGap = gap }
}

// WithMergeScope sets which element types merge sub-labeled detections
// ("7a", "7b") into one element. Default merges figures only.
func WithMergeScope(types ...model.ElementType) Option {
	return func(o *options) { o.engine.MergeScope = types }
}

// WithWorkers caps how many pages are consolidated concurrently. Default 8.
func WithWorkers(n int) Option {
	return func(o *options) { o.engine.Workers = n }
}

// WithRasterScale declares the raster-to-page scale factor the detections
// were produced at: raster pixels per page unit. Default 2.0.
func WithRasterScale(scale float64) Option {
	return func(o *options) { o.rasterScale = scale }
}

// WithMaxPages limits processing to the first n pages.
func WithMaxPages(n int) Option {
	return func(o *options) { o.maxPages = n }
}

// WithPageImages points at a directory of rendered page rasters. When set,
// pages without a text layer fall back to OCR for caption recovery, and
// crops or thumbnails can be produced from the same images.
func WithPageImages(dir string) Option {
	return func(o *options) { o.pageImagesDir = dir }
}

// WithLogger routes diagnostics to logger instead of slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}
