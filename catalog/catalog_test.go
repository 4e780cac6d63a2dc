package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/zebehn/docscalpel/model"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func catElement(t *testing.T, et model.ElementType, page, seq int, sources ...string) model.Element {
	t.Helper()
	el := model.NewElement(et, model.NewBoundingBox(10, 20, 100, 50, page), page, 0.9, sources)
	el.SequenceNumber = seq
	return el
}

func TestSaveRunRoundTrip(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	elements := []model.Element{
		catElement(t, model.ElementTypeFigure, 1, 1, "d1", "d2"),
		catElement(t, model.ElementTypeTable, 2, 1, "d3"),
	}
	runID, err := c.SaveRun(ctx, Run{
		Source:   "paper.pdf",
		Pages:    12,
		GapCount: 1,
		Elapsed:  340 * time.Millisecond,
		Warnings: []string{"page 1: duplicate figure detection d9 suppressed by d1"},
	}, elements)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if runID == 0 {
		t.Fatal("Expected a non-zero run ID")
	}

	runs, err := c.Runs(ctx)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("Expected 1 run, got %d", len(runs))
	}
	r := runs[0]
	if r.ID != runID || r.Source != "paper.pdf" || r.Pages != 12 {
		t.Errorf("Unexpected run record: %+v", r)
	}
	if r.ElementCount != 2 || r.GapCount != 1 {
		t.Errorf("Expected counts 2/1, got %d/%d", r.ElementCount, r.GapCount)
	}
	if r.Elapsed != 340*time.Millisecond {
		t.Errorf("Expected elapsed 340ms, got %v", r.Elapsed)
	}
	if len(r.Warnings) != 1 || r.Warnings[0] != "page 1: duplicate figure detection d9 suppressed by d1" {
		t.Errorf("Unexpected warnings: %v", r.Warnings)
	}
	if r.CreatedAt.IsZero() {
		t.Error("Expected a created timestamp")
	}
}

func TestElementsScopedToRun(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	first, err := c.SaveRun(ctx, Run{Source: "a.pdf", Pages: 1}, []model.Element{
		catElement(t, model.ElementTypeFigure, 1, 1, "d1"),
	})
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	second, err := c.SaveRun(ctx, Run{Source: "b.pdf", Pages: 1}, []model.Element{
		catElement(t, model.ElementTypeFigure, 1, 1, "d2"),
		catElement(t, model.ElementTypeEquation, 1, 1, "d3"),
	})
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	elements, err := c.Elements(ctx, second)
	if err != nil {
		t.Fatalf("Elements: %v", err)
	}
	if len(elements) != 2 {
		t.Fatalf("Expected 2 elements for run %d, got %d", second, len(elements))
	}
	e := elements[0]
	if e.RunID != second || e.Type != "figure" || e.Sequence != 1 || e.Page != 1 {
		t.Errorf("Unexpected element row: %+v", e)
	}
	if e.X != 10 || e.Y != 20 || e.Width != 100 || e.Height != 50 {
		t.Errorf("Unexpected geometry: %+v", e)
	}
	if len(e.Sources) != 1 || e.Sources[0] != "d2" {
		t.Errorf("Unexpected sources: %v", e.Sources)
	}
	if elements[1].Type != "equation" {
		t.Errorf("Expected saved order preserved, got %+v", elements[1])
	}

	firstElements, err := c.Elements(ctx, first)
	if err != nil {
		t.Fatalf("Elements: %v", err)
	}
	if len(firstElements) != 1 || firstElements[0].Sources[0] != "d1" {
		t.Errorf("Run %d elements leaked across runs: %+v", first, firstElements)
	}
}

func TestRunsNewestFirst(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	for _, source := range []string{"one.pdf", "two.pdf", "three.pdf"} {
		if _, err := c.SaveRun(ctx, Run{Source: source, Pages: 1}, nil); err != nil {
			t.Fatalf("SaveRun %s: %v", source, err)
		}
	}

	runs, err := c.Runs(ctx)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("Expected 3 runs, got %d", len(runs))
	}
	if runs[0].Source != "three.pdf" || runs[2].Source != "one.pdf" {
		t.Errorf("Expected newest first, got %s .. %s", runs[0].Source, runs[2].Source)
	}
}

func TestElementsUnknownRun(t *testing.T) {
	c := openTestCatalog(t)

	elements, err := c.Elements(context.Background(), 999)
	if err != nil {
		t.Fatalf("Elements: %v", err)
	}
	if len(elements) != 0 {
		t.Errorf("Expected no elements for an unknown run, got %d", len(elements))
	}
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "catalog.db")
	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	if _, err := c.SaveRun(context.Background(), Run{Source: "x.pdf", Pages: 1}, nil); err != nil {
		t.Errorf("SaveRun after nested create: %v", err)
	}
}
