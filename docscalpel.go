// Package docscalpel consolidates machine-learning layout detections over
// PDF documents into a clean inventory of figures, tables, and equations:
// duplicate detections suppressed, captions parsed and matched, subfigures
// merged, and document-order sequence numbers assigned per type.
//
// Basic usage:
//
//	doc, err := docscalpel.Open("paper.pdf")
//	if err != nil {
//	    // handle error
//	}
//	defer doc.Close()
//
//	detections, err := detect.Open("json", "paper.detections.json")
//	if err != nil {
//	    // handle error
//	}
//	result, err := doc.Consolidate(ctx, detections)
//
// Or in one call:
//
//	result, err := docscalpel.ConsolidateFile(ctx, "paper.pdf", "paper.detections.json",
//	    docscalpel.WithRasterScale(2.0),
//	    docscalpel.WithMaxPages(50))
//
// The lower-level packages remain available for finer control: pdfio reads
// documents, detect loads detector output, consolidate runs the pipeline
// over prepared page inputs, and crop, report, and catalog consume results.
package docscalpel

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sort"
	"time"

	"github.com/zebehn/docscalpel/consolidate"
	"github.com/zebehn/docscalpel/crop"
	"github.com/zebehn/docscalpel/detect"
	"github.com/zebehn/docscalpel/model"
	"github.com/zebehn/docscalpel/ocr"
	"github.com/zebehn/docscalpel/pdfio"
)

// Document is an open PDF prepared for consolidation. It must be closed
// when no longer needed.
type Document struct {
	doc  *pdfio.Document
	opts options
}

// Open opens a PDF and applies the given options.
func Open(path string, opts ...Option) (*Document, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	doc, err := pdfio.Load(path, o.maxPages)
	if err != nil {
		return nil, err
	}
	return &Document{doc: doc, opts: o}, nil
}

// Close releases the underlying file. It is safe to call more than once.
func (d *Document) Close() error {
	return d.doc.Close()
}

// Info returns the document's metadata.
func (d *Document) Info() pdfio.Info {
	return d.doc.Info()
}

// PageCount returns the number of pages Consolidate will process.
func (d *Document) PageCount() int {
	return d.doc.PageCount()
}

// Path returns the file path the document was opened from.
func (d *Document) Path() string {
	return d.doc.Path()
}

// Consolidate runs the pipeline over the document's pages and the given
// detections. Detections and caption boxes beyond the page range are
// dropped with a warning. When ctx is canceled mid-run the returned result
// covers the pages that completed, alongside the context's error.
func (d *Document) Consolidate(ctx context.Context, detections *detect.DetectionSet) (*Result, error) {
	start := time.Now()

	mapper, err := model.NewMapper(d.opts.rasterScale)
	if err != nil {
		return nil, fmt.Errorf("docscalpel: %w", err)
	}

	warnings := ignoredLabelWarnings(detections.Ignored)

	detsByPage, beyond := splitByPage(detections.Elements, d.doc.PageCount())
	if beyond > 0 {
		warnings = append(warnings, fmt.Sprintf("%d detections lie beyond the document's %d pages; dropped", beyond, d.doc.PageCount()))
	}
	boxesByPage := splitBoxesByPage(detections.CaptionBoxes, d.doc.PageCount())

	var pageImages map[int]image.Image
	if d.opts.pageImagesDir != "" {
		images, err := crop.LoadPageImages(d.opts.pageImagesDir)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("page images unavailable: %v", err))
		} else {
			pageImages = images
		}
	}

	var ocrClient *ocr.Client
	ocrUnavailable := false
	defer func() {
		if ocrClient != nil {
			ocrClient.Close()
		}
	}()

	pages := make([]consolidate.PageInput, 0, d.doc.PageCount())
	for n := 1; n <= d.doc.PageCount(); n++ {
		info, err := d.doc.Page(n)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("page %d: %v", n, err))
			continue
		}

		caps, capWarnings := d.pageCaptions(n, mapper, boxesByPage[n])
		warnings = append(warnings, capWarnings...)

		// Pages without a text layer fall back to OCR when a raster is
		// available, so scanned documents still get caption numbering.
		if len(caps) == 0 && pageImages[n] != nil && !ocrUnavailable {
			if ocrClient == nil {
				client, cerr := ocr.New()
				if cerr != nil {
					warnings = append(warnings, fmt.Sprintf("ocr fallback unavailable: %v", cerr))
					ocrUnavailable = true
				} else {
					ocrClient = client
				}
			}
			if ocrClient != nil {
				recovered, rerr := ocrCandidates(ocrClient, pageImages[n], n, mapper)
				if rerr != nil {
					warnings = append(warnings, fmt.Sprintf("page %d: ocr failed: %v", n, rerr))
				} else {
					caps = recovered
				}
			}
		}

		pages = append(pages, consolidate.PageInput{
			Page:       n,
			Width:      info.Width,
			Height:     info.Height,
			Scale:      d.opts.rasterScale,
			Detections: detsByPage[n],
			Captions:   caps,
		})
	}

	engine := consolidate.NewEngine(d.opts.engine, consolidate.WithLogger(d.opts.logger))
	res, err := engine.Consolidate(ctx, pages)

	return &Result{
		Source:   d.doc.Path(),
		Title:    d.doc.Info().Title,
		Pages:    len(pages),
		Elements: res.Elements,
		Gaps:     res.Gaps,
		Warnings: append(warnings, res.Warnings...),
		Notes:    res.Notes,
		Elapsed:  time.Since(start),
	}, err
}

// pageCaptions builds the caption candidate set for one page: every text
// line, plus the joined text under each detector-supplied caption box. Box
// candidates matter for captions that wrap across lines; the parser sees
// the wrapped text as one candidate.
func (d *Document) pageCaptions(n int, mapper model.Mapper, boxes []model.BoundingBox) ([]model.CaptionCandidate, []string) {
	var warnings []string

	runs, err := d.doc.TextRuns(n)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("page %d: text extraction failed: %v", n, err))
	}

	caps := make([]model.CaptionCandidate, 0, len(runs)+len(boxes))
	for _, r := range runs {
		caps = append(caps, model.CaptionCandidate{
			Text: r.Text,
			BBox: model.NewBoundingBox(r.X, r.Y, r.Width, r.Height, n),
			Page: n,
		})
	}

	for _, box := range boxes {
		pageBox, err := mapper.ToPage(box)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("page %d: caption box dropped: %v", n, err))
			continue
		}
		text, err := d.doc.TextInRect(n, pageBox.X, pageBox.Y, pageBox.Width, pageBox.Height)
		if err != nil || text == "" {
			continue
		}
		caps = append(caps, model.CaptionCandidate{Text: text, BBox: pageBox, Page: n})
	}
	return caps, warnings
}

// ocrCandidates recognizes text lines on a rendered page and maps their
// boxes into page space.
func ocrCandidates(client *ocr.Client, img image.Image, page int, mapper model.Mapper) ([]model.CaptionCandidate, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode page raster: %w", err)
	}
	lines, err := client.RecognizeLines(buf.Bytes())
	if err != nil {
		return nil, err
	}

	caps := make([]model.CaptionCandidate, 0, len(lines))
	for _, line := range lines {
		box, err := mapper.ToPage(model.NewBoundingBox(line.X, line.Y, line.Width, line.Height, page))
		if err != nil {
			continue
		}
		caps = append(caps, model.CaptionCandidate{Text: line.Text, BBox: box, Page: page})
	}
	return caps, nil
}

// ConsolidateFile opens the PDF and the detection file and consolidates
// them in one call.
func ConsolidateFile(ctx context.Context, pdfPath, detectionsPath string, opts ...Option) (*Result, error) {
	doc, err := Open(pdfPath, opts...)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	set, err := detect.Open("json", detectionsPath)
	if err != nil {
		return nil, err
	}
	return doc.Consolidate(ctx, set)
}

// ConsolidatePages runs consolidation over caller-assembled page inputs,
// for pipelines that hold page geometry and text outside a PDF.
func ConsolidatePages(ctx context.Context, pages []consolidate.PageInput, opts ...Option) (*Result, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	start := time.Now()
	engine := consolidate.NewEngine(o.engine, consolidate.WithLogger(o.logger))
	res, err := engine.Consolidate(ctx, pages)

	return &Result{
		Pages:    len(pages),
		Elements: res.Elements,
		Gaps:     res.Gaps,
		Warnings: res.Warnings,
		Notes:    res.Notes,
		Elapsed:  time.Since(start),
	}, err
}

// Must wraps a call returning (T, error) and panics on error. It is meant
// for scripts and tests where error handling would be cumbersome.
//
// Example:
//
//	result := docscalpel.Must(docscalpel.ConsolidateFile(ctx, pdf, dets))
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// splitByPage buckets detections by page, counting those outside [1, pageCount].
func splitByPage(dets []model.Detection, pageCount int) (map[int][]model.Detection, int) {
	byPage := make(map[int][]model.Detection)
	beyond := 0
	for _, det := range dets {
		if det.Page < 1 || det.Page > pageCount {
			beyond++
			continue
		}
		byPage[det.Page] = append(byPage[det.Page], det)
	}
	return byPage, beyond
}

func splitBoxesByPage(boxes []model.BoundingBox, pageCount int) map[int][]model.BoundingBox {
	byPage := make(map[int][]model.BoundingBox)
	for _, b := range boxes {
		if b.Page < 1 || b.Page > pageCount {
			continue
		}
		byPage[b.Page] = append(byPage[b.Page], b)
	}
	return byPage
}

// ignoredLabelWarnings folds the detector's unknown labels into one warning
// per distinct label.
func ignoredLabelWarnings(labels []string) []string {
	if len(labels) == 0 {
		return nil
	}
	counts := make(map[string]int)
	for _, l := range labels {
		counts[l]++
	}
	distinct := make([]string, 0, len(counts))
	for l := range counts {
		distinct = append(distinct, l)
	}
	sort.Strings(distinct)

	warnings := make([]string, 0, len(distinct))
	for _, l := range distinct {
		warnings = append(warnings, fmt.Sprintf("detector label %q not recognized; %d boxes ignored", l, counts[l]))
	}
	return warnings
}
