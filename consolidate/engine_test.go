package consolidate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/zebehn/docscalpel/model"
)

func newTestEngine(config Config) *Engine {
	return NewEngine(config, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

// rasterDet builds a detection whose raster box is the page-space box scaled
// by 2, matching the Scale the test pages use.
func rasterDet(id string, et model.ElementType, page int, conf, x, y, w, h float64) model.Detection {
	return model.Detection{
		ID:         id,
		Type:       et,
		Page:       page,
		RasterBBox: model.NewBoundingBox(x*2, y*2, w*2, h*2, page),
		Confidence: conf,
	}
}

func textRun(text string, page int, x, y float64) model.CaptionCandidate {
	return model.CaptionCandidate{
		Text: text,
		BBox: model.NewBoundingBox(x, y, 200, 14, page),
		Page: page,
	}
}

func pageIn(page int, dets []model.Detection, caps []model.CaptionCandidate) PageInput {
	return PageInput{
		Page:       page,
		Width:      612,
		Height:     792,
		Scale:      2,
		Detections: dets,
		Captions:   caps,
	}
}

func TestConsolidateMergesSubfigures(t *testing.T) {
	e := newTestEngine(DefaultConfig())
	pages := []PageInput{
		pageIn(1,
			[]model.Detection{
				rasterDet("left", model.ElementTypeFigure, 1, 0.85, 50, 100, 200, 150),
				rasterDet("right", model.ElementTypeFigure, 1, 0.92, 310, 100, 200, 150),
			},
			[]model.CaptionCandidate{
				textRun("Figure 7(a): before", 1, 50, 260),
				textRun("Figure 7(b): after", 1, 310, 260),
			}),
	}

	res, err := e.Consolidate(context.Background(), pages)
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}

	if len(res.Elements) != 1 {
		t.Fatalf("elements = %d, want 1 merged figure", len(res.Elements))
	}
	el := res.Elements[0]
	if el.Type != model.ElementTypeFigure {
		t.Errorf("type = %s, want figure", el.Type)
	}
	if len(el.SourceDetectionIDs) != 2 {
		t.Fatalf("sources = %v, want both detections", el.SourceDetectionIDs)
	}
	if el.SourceDetectionIDs[0] != "left" || el.SourceDetectionIDs[1] != "right" {
		t.Errorf("sources = %v, want [left right]", el.SourceDetectionIDs)
	}
	if el.SequenceNumber != 1 {
		t.Errorf("sequence = %d, want 1", el.SequenceNumber)
	}
	wantBox := model.NewBoundingBox(50, 100, 460, 150, 1)
	if el.BBox != wantBox {
		t.Errorf("bbox = %+v, want union %+v", el.BBox, wantBox)
	}
	if el.Confidence != 0.92 {
		t.Errorf("confidence = %v, want 0.92", el.Confidence)
	}
	found := false
	for _, n := range res.Notes {
		if strings.Contains(n, "merged 2 detections") {
			found = true
		}
	}
	if !found {
		t.Errorf("notes = %v, want a merge note", res.Notes)
	}
}

func TestConsolidateReservesGapForMissingDetection(t *testing.T) {
	e := newTestEngine(DefaultConfig())
	var pages []PageInput
	for _, n := range []int{1, 2} {
		pages = append(pages, pageIn(n,
			[]model.Detection{rasterDet(fmt.Sprintf("d%d", n), model.ElementTypeFigure, n, 0.9, 50, 100, 200, 150)},
			[]model.CaptionCandidate{textRun(fmt.Sprintf("Figure %d: results", n), n, 50, 260)}))
	}
	pages = append(pages, pageIn(3, nil,
		[]model.CaptionCandidate{textRun("as shown in Figure 3, throughput degrades", 3, 50, 400)}))
	pages = append(pages, pageIn(4,
		[]model.Detection{rasterDet("d4", model.ElementTypeFigure, 4, 0.9, 50, 100, 200, 150)},
		[]model.CaptionCandidate{textRun("Figure 4: recovery", 4, 50, 260)}))

	res, err := e.Consolidate(context.Background(), pages)
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}

	if len(res.Elements) != 3 {
		t.Fatalf("elements = %d, want 3", len(res.Elements))
	}
	if got := seqOf(res.Elements, "d4"); got != 4 {
		t.Errorf("detection after the gap assigned %d, want 4", got)
	}
	if len(res.Gaps) != 1 {
		t.Fatalf("gaps = %d, want 1", len(res.Gaps))
	}
	g := res.Gaps[0]
	if g.Number != 3 || g.SequenceNumber != 3 || g.Page != 3 {
		t.Errorf("gap = %+v, want number 3, sequence 3, page 3", g)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("warnings = %v, want none", res.Warnings)
	}
	found := false
	for _, n := range res.Notes {
		if strings.Contains(n, "never detected") {
			found = true
		}
	}
	if !found {
		t.Errorf("notes = %v, want a reservation note", res.Notes)
	}
}

func TestConsolidateOrdersByVerticalPosition(t *testing.T) {
	e := newTestEngine(DefaultConfig())
	pages := []PageInput{
		pageIn(1,
			[]model.Detection{
				rasterDet("bottom", model.ElementTypeFigure, 1, 0.9, 50, 300, 200, 100),
				rasterDet("top", model.ElementTypeFigure, 1, 0.9, 50, 50, 200, 100),
			},
			[]model.CaptionCandidate{
				textRun("Figure 3: first", 1, 50, 160),
				textRun("Figure 4: second", 1, 50, 410),
			}),
	}

	res, err := e.Consolidate(context.Background(), pages)
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}

	if len(res.Elements) != 2 {
		t.Fatalf("elements = %d, want 2", len(res.Elements))
	}
	if got := seqOf(res.Elements, "top"); got != 1 {
		t.Errorf("top detection assigned %d, want 1", got)
	}
	if got := seqOf(res.Elements, "bottom"); got != 2 {
		t.Errorf("bottom detection assigned %d, want 2", got)
	}
}

func TestConsolidateEmptyDocument(t *testing.T) {
	e := newTestEngine(DefaultConfig())
	pages := []PageInput{pageIn(1, nil, nil), pageIn(2, nil, nil)}

	res, err := e.Consolidate(context.Background(), pages)
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}

	if len(res.Elements) != 0 || len(res.Gaps) != 0 {
		t.Errorf("got %d elements, %d gaps, want none", len(res.Elements), len(res.Gaps))
	}
	if len(res.Warnings) != 0 || len(res.Notes) != 0 {
		t.Errorf("warnings = %v, notes = %v, want none", res.Warnings, res.Notes)
	}
}

func TestConsolidateWarnsOnMissingText(t *testing.T) {
	e := newTestEngine(DefaultConfig())
	pages := []PageInput{
		pageIn(1, []model.Detection{
			rasterDet("d1", model.ElementTypeFigure, 1, 0.9, 50, 100, 200, 150),
		}, nil),
	}

	res, err := e.Consolidate(context.Background(), pages)
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}

	if len(res.Elements) != 1 {
		t.Fatalf("elements = %d, want 1 (positional numbering still applies)", len(res.Elements))
	}
	if res.Elements[0].SequenceNumber != 1 {
		t.Errorf("sequence = %d, want 1", res.Elements[0].SequenceNumber)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "no text runs") {
		t.Errorf("warnings = %v, want one about missing text", res.Warnings)
	}
}

func TestConsolidateDropsMalformedDetection(t *testing.T) {
	e := newTestEngine(DefaultConfig())
	bad := model.Detection{
		ID:         "bad",
		Type:       model.ElementTypeFigure,
		Page:       1,
		RasterBBox: model.NewBoundingBox(100, 100, -40, 300, 1),
		Confidence: 0.9,
	}
	pages := []PageInput{
		pageIn(1, []model.Detection{
			bad,
			rasterDet("good", model.ElementTypeFigure, 1, 0.9, 50, 100, 200, 150),
		}, []model.CaptionCandidate{textRun("Figure 1: survives", 1, 50, 260)}),
	}

	res, err := e.Consolidate(context.Background(), pages)
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}

	if len(res.Elements) != 1 {
		t.Fatalf("elements = %d, want 1", len(res.Elements))
	}
	if res.Elements[0].SourceDetectionIDs[0] != "good" {
		t.Errorf("surviving element sourced from %v, want good", res.Elements[0].SourceDetectionIDs)
	}
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "bad") && strings.Contains(w, "dropped") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want one naming the dropped detection", res.Warnings)
	}
}

func TestConsolidateInvalidScaleDropsPageDetections(t *testing.T) {
	e := newTestEngine(DefaultConfig())
	pages := []PageInput{{
		Page:   1,
		Width:  612,
		Height: 792,
		Scale:  0,
		Detections: []model.Detection{
			rasterDet("d1", model.ElementTypeFigure, 1, 0.9, 50, 100, 200, 150),
		},
		Captions: []model.CaptionCandidate{textRun("Figure 1: orphaned", 1, 50, 260)},
	}}

	res, err := e.Consolidate(context.Background(), pages)
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}

	if len(res.Elements) != 0 {
		t.Fatalf("elements = %d, want 0", len(res.Elements))
	}
	if len(res.Warnings) == 0 || !strings.Contains(res.Warnings[0], "detections dropped") {
		t.Errorf("warnings = %v, want one about dropped detections", res.Warnings)
	}
	// The caption still parsed, so the unbacked reference reserves slot 1.
	if len(res.Gaps) != 1 || res.Gaps[0].Number != 1 {
		t.Errorf("gaps = %v, want slot 1 reserved", res.Gaps)
	}
}

func TestConsolidateCanceledContext(t *testing.T) {
	e := newTestEngine(DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pages := []PageInput{
		pageIn(1, []model.Detection{
			rasterDet("d1", model.ElementTypeFigure, 1, 0.9, 50, 100, 200, 150),
		}, nil),
	}

	res, err := e.Consolidate(ctx, pages)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if res == nil {
		t.Fatal("result is nil, want partial result")
	}
	if len(res.Elements) != 0 {
		t.Errorf("elements = %d, want 0 (no page started)", len(res.Elements))
	}
}

func TestConsolidateRoundTrip(t *testing.T) {
	e := newTestEngine(DefaultConfig())
	raster := model.NewBoundingBox(100, 200, 300, 400, 1)
	pages := []PageInput{
		pageIn(1, []model.Detection{{
			ID:         "d1",
			Type:       model.ElementTypeFigure,
			Page:       1,
			RasterBBox: raster,
			Confidence: 0.9,
		}}, nil),
	}

	res, err := e.Consolidate(context.Background(), pages)
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	if len(res.Elements) != 1 {
		t.Fatalf("elements = %d, want 1", len(res.Elements))
	}

	mapper, err := model.NewMapper(2)
	if err != nil {
		t.Fatalf("NewMapper: %v", err)
	}
	back := mapper.ToRaster(res.Elements[0].BBox)
	for _, d := range []struct {
		name      string
		got, want float64
	}{
		{"x", back.X, raster.X},
		{"y", back.Y, raster.Y},
		{"width", back.Width, raster.Width},
		{"height", back.Height, raster.Height},
	} {
		if math.Abs(d.got-d.want) > 1e-9 {
			t.Errorf("round-trip %s = %v, want %v", d.name, d.got, d.want)
		}
	}
}

func TestConsolidateSuppressesDuplicates(t *testing.T) {
	e := newTestEngine(DefaultConfig())
	pages := []PageInput{
		pageIn(1,
			[]model.Detection{
				rasterDet("strong", model.ElementTypeTable, 1, 0.95, 50, 100, 200, 150),
				rasterDet("weak", model.ElementTypeTable, 1, 0.60, 55, 105, 200, 150),
			},
			[]model.CaptionCandidate{textRun("Table 1: overlap", 1, 50, 260)}),
	}

	res, err := e.Consolidate(context.Background(), pages)
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}

	if len(res.Elements) != 1 {
		t.Fatalf("elements = %d, want 1", len(res.Elements))
	}
	if res.Elements[0].SourceDetectionIDs[0] != "strong" {
		t.Errorf("kept %v, want strong", res.Elements[0].SourceDetectionIDs)
	}
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "suppressed") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want a suppression warning", res.Warnings)
	}
}

func TestConsolidateFiltersLowConfidence(t *testing.T) {
	e := newTestEngine(DefaultConfig())
	pages := []PageInput{
		pageIn(1, []model.Detection{
			rasterDet("noise", model.ElementTypeFigure, 1, 0.3, 50, 100, 200, 150),
		}, nil),
	}

	res, err := e.Consolidate(context.Background(), pages)
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}

	if len(res.Elements) != 0 {
		t.Errorf("elements = %d, want 0", len(res.Elements))
	}
	if len(res.Warnings) != 0 {
		t.Errorf("warnings = %v, want none (confidence filter is silent)", res.Warnings)
	}
}

func TestConsolidateManyPagesInParallel(t *testing.T) {
	config := DefaultConfig()
	config.Workers = 4
	e := newTestEngine(config)

	var pages []PageInput
	for n := 1; n <= 20; n++ {
		pages = append(pages, pageIn(n,
			[]model.Detection{rasterDet(fmt.Sprintf("d%02d", n), model.ElementTypeFigure, n, 0.9, 50, 100, 200, 150)},
			[]model.CaptionCandidate{textRun(fmt.Sprintf("Figure %d: step", n), n, 50, 260)}))
	}

	res, err := e.Consolidate(context.Background(), pages)
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}

	if len(res.Elements) != 20 {
		t.Fatalf("elements = %d, want 20", len(res.Elements))
	}
	for n := 1; n <= 20; n++ {
		if got := seqOf(res.Elements, fmt.Sprintf("d%02d", n)); got != n {
			t.Errorf("page %d element assigned %d, want %d", n, got, n)
		}
	}
	if len(res.Gaps) != 0 || len(res.Warnings) != 0 {
		t.Errorf("gaps = %v, warnings = %v, want none", res.Gaps, res.Warnings)
	}
}

func BenchmarkConsolidate(b *testing.B) {
	config := DefaultConfig()
	e := newTestEngine(config)

	var pages []PageInput
	for n := 1; n <= 16; n++ {
		pages = append(pages, pageIn(n,
			[]model.Detection{
				rasterDet(fmt.Sprintf("f%02d", n), model.ElementTypeFigure, n, 0.9, 50, 100, 200, 150),
				rasterDet(fmt.Sprintf("t%02d", n), model.ElementTypeTable, n, 0.8, 50, 400, 200, 150),
			},
			[]model.CaptionCandidate{
				textRun(fmt.Sprintf("Figure %d: benchmark", n), n, 50, 260),
				textRun(fmt.Sprintf("Table %d: benchmark", n), n, 50, 560),
			}))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Consolidate(context.Background(), pages); err != nil {
			b.Fatal(err)
		}
	}
}
