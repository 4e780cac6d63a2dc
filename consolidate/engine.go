package consolidate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/zebehn/docscalpel/captions"
	"github.com/zebehn/docscalpel/model"
)

// PageInput carries one page's raw inputs: detections in raster space, text
// runs in page space, and the geometry needed to map between the two.
type PageInput struct {
	Page       int
	Width      float64
	Height     float64
	Scale      float64
	Detections []model.Detection
	Captions   []model.CaptionCandidate
}

// Result is the outcome of consolidating a document.
type Result struct {
	// Elements is the final list, grouped by type and ordered by sequence
	// number within each type.
	Elements []model.Element

	// Gaps are reserved slots for numbers referenced in text with no
	// backing detection.
	Gaps []model.SequenceGap

	// Warnings report dropped detections, duplicate suppressions, and
	// ambiguous caption pairings.
	Warnings []string

	// Notes report informational events: subfigure merges and reserved
	// sequence slots.
	Notes []string
}

// pageOutcome holds one page's results between the per-page stage and the
// final reduction.
type pageOutcome struct {
	page        int
	matches     []captions.Match
	uncaptioned []model.PlacedDetection
	parsed      []model.ParsedCaption
	warnings    []string
	processed   bool
}

// Engine runs the consolidation pipeline: per-page mapping, duplicate
// suppression, caption parsing and matching in parallel, then a single
// document-wide pass for subfigure merging, gap synthesis, and sequence
// assignment.
type Engine struct {
	config Config
	logger *slog.Logger
	parser captions.Parser
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger routes the engine's diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine creates an Engine with the given configuration.
func NewEngine(config Config, opts ...Option) *Engine {
	if config.Workers < 1 {
		config.Workers = 1
	}
	e := &Engine{
		config: config,
		logger: slog.Default(),
		parser: captions.NewParser(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Consolidate runs the pipeline over pages and produces the final ordered
// element list. Pages are processed concurrently up to the configured worker
// count; synthesis and sequence assignment run once, after every page has
// finished. A malformed detection or caption is dropped with a warning, never
// failing the document, and an empty result is valid. When ctx is canceled
// mid-run, pages not yet started are skipped and the returned result covers
// the pages that completed, alongside the context's error.
func (e *Engine) Consolidate(ctx context.Context, pages []PageInput) (*Result, error) {
	outcomes := make([]pageOutcome, len(pages))
	sem := make(chan struct{}, e.config.Workers)
	var wg sync.WaitGroup

	launched := 0
	for i := range pages {
		select {
		case <-ctx.Done():
		case sem <- struct{}{}:
		}
		if ctx.Err() != nil {
			break
		}
		launched++
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[i] = e.processPage(pages[i])
		}(i)
	}
	wg.Wait()

	res := e.reduce(outcomes[:launched])
	if err := ctx.Err(); err != nil {
		e.logger.Warn("consolidation interrupted",
			"completed_pages", launched, "total_pages", len(pages))
		return res, fmt.Errorf("consolidate: %w", err)
	}
	e.logger.Info("consolidation complete",
		"pages", launched,
		"elements", len(res.Elements),
		"gaps", len(res.Gaps),
		"warnings", len(res.Warnings))
	return res, nil
}

// processPage maps, filters, and matches one page's inputs. It touches no
// shared state.
func (e *Engine) processPage(p PageInput) pageOutcome {
	out := pageOutcome{page: p.Page, processed: true}

	if p.Width <= 0 || p.Height <= 0 {
		out.warnings = append(out.warnings, fmt.Sprintf(
			"page %d: invalid page size %.1fx%.1f; page skipped", p.Page, p.Width, p.Height))
		return out
	}

	mapper, err := model.NewMapper(p.Scale)
	if err != nil {
		out.warnings = append(out.warnings, fmt.Sprintf(
			"page %d: %v; %d detections dropped", p.Page, err, len(p.Detections)))
	}

	var placed []model.PlacedDetection
	if err == nil {
		pageRect := model.NewBoundingBox(0, 0, p.Width, p.Height, p.Page)
		for _, d := range p.Detections {
			if verr := d.Validate(); verr != nil {
				out.warnings = append(out.warnings, fmt.Sprintf(
					"page %d: detection %s dropped: %v", p.Page, d.ID, verr))
				continue
			}
			if d.Confidence < e.config.MinConfidence {
				e.logger.Debug("detection below confidence threshold",
					"page", p.Page, "id", d.ID, "confidence", d.Confidence)
				continue
			}
			raster := d.RasterBBox
			raster.Page = d.Page
			box, merr := mapper.ToPage(raster)
			if merr != nil {
				out.warnings = append(out.warnings, fmt.Sprintf(
					"page %d: detection %s dropped: %v", p.Page, d.ID, merr))
				continue
			}
			clipped := box.Clip(pageRect)
			if !clipped.IsValid() {
				out.warnings = append(out.warnings, fmt.Sprintf(
					"page %d: detection %s dropped: box outside page bounds", p.Page, d.ID))
				continue
			}
			placed = append(placed, model.PlacedDetection{Detection: d, BBox: clipped})
		}
	}

	resolver := NewResolver(e.config.IoUThreshold)
	placed, warns := resolver.Resolve(placed)
	out.warnings = append(out.warnings, warns...)

	parsed, raw := e.parser.ParseAll(p.Captions)
	out.parsed = parsed
	if len(raw) > 0 {
		e.logger.Debug("text runs without caption signatures",
			"page", p.Page, "count", len(raw))
	}

	if len(p.Captions) == 0 && len(placed) > 0 {
		out.warnings = append(out.warnings, fmt.Sprintf(
			"page %d: no text runs available; elements numbered by position only", p.Page))
	}

	matcher := captions.NewMatcherWithConfig(e.config.Captions)
	mres := matcher.MatchPage(placed, parsed, p.Height)
	out.matches = mres.Matches
	out.uncaptioned = mres.Uncaptioned
	out.warnings = append(out.warnings, mres.Warnings...)
	return out
}

// reduce folds all page outcomes into the final element list. It runs on a
// single goroutine after the page barrier.
func (e *Engine) reduce(outcomes []pageOutcome) *Result {
	res := &Result{}
	var cands []candidate
	var parsed []model.ParsedCaption
	for _, out := range outcomes {
		if !out.processed {
			continue
		}
		res.Warnings = append(res.Warnings, out.warnings...)
		parsed = append(parsed, out.parsed...)
		for _, m := range out.matches {
			cands = append(cands, candidate{
				element: model.NewElement(m.Detection.Type, m.Detection.BBox,
					m.Detection.Page, m.Detection.Confidence, []string{m.Detection.ID}),
				number:   m.Caption.Number,
				sublabel: m.Caption.Sublabel,
			})
		}
		for _, d := range out.uncaptioned {
			cands = append(cands, candidate{
				element: model.NewElement(d.Type, d.BBox, d.Page, d.Confidence, []string{d.ID}),
			})
		}
	}

	cands, mergeNotes := mergeSubfigures(cands, e.config)
	gaps, synthNotes := synthesize(parsed, cands, e.config)
	res.Notes = append(res.Notes, mergeNotes...)
	res.Notes = append(res.Notes, synthNotes...)
	res.Elements, res.Gaps = assignSequences(cands, gaps)
	return res
}
