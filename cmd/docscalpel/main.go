// Command docscalpel consolidates layout-detector output over a PDF into a
// numbered inventory of figures, tables, and equations.
//
// Usage:
//
//	docscalpel -detections paper.detections.json [flags] paper.pdf
//
// The detections file is the detector's JSON output in raster coordinates;
// -scale declares how many raster pixels correspond to one page unit.
// With -page-images pointing at rendered page rasters, element crops can be
// written (-out) and reports get thumbnails. Reports and persistence are
// opt-in: -report writes HTML, -xlsx a workbook, -catalog records the run
// in a SQLite database.
//
// A .env file in the working directory can supply DOCSCALPEL_OUT and
// DOCSCALPEL_CATALOG as defaults for -out and -catalog.
//
// The exit code is 1 when the document or detections cannot be processed,
// 0 otherwise. A run that consolidates zero elements is a success.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"

	"github.com/zebehn/docscalpel"
	"github.com/zebehn/docscalpel/catalog"
	"github.com/zebehn/docscalpel/crop"
	"github.com/zebehn/docscalpel/model"
	"github.com/zebehn/docscalpel/pdfio"
	"github.com/zebehn/docscalpel/report"
)

func main() {
	// A missing .env is fine; flags and real environment still apply.
	_ = godotenv.Load()

	var (
		detectionsPath = flag.String("detections", "", "Path to detector JSON output (required)")
		outDir         = flag.String("out", "", "Directory for element crops (requires -page-images; default $DOCSCALPEL_OUT)")
		typesArg       = flag.String("types", "", "Comma-separated element types to keep (figure,table,equation; default all)")
		maxPages       = flag.Int("max-pages", 0, "Process only the first N pages (0 = all)")
		confidence     = flag.Float64("confidence", 0.5, "Drop detections below this confidence")
		scale          = flag.Float64("scale", 2.0, "Raster pixels per page unit in the detections")
		reportPath     = flag.String("report", "", "Write an HTML report to this path")
		xlsxPath       = flag.String("xlsx", "", "Write an XLSX inventory to this path")
		catalogPath    = flag.String("catalog", "", "Record the run in this SQLite catalog (default $DOCSCALPEL_CATALOG)")
		pageImagesDir  = flag.String("page-images", "", "Directory of rendered page rasters (page_1.png ...)")
		verbose        = flag.Bool("v", false, "Enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if *outDir == "" {
		*outDir = os.Getenv("DOCSCALPEL_OUT")
	}
	if *catalogPath == "" {
		*catalogPath = os.Getenv("DOCSCALPEL_CATALOG")
	}

	pdfPath := flag.Arg(0)
	if pdfPath == "" || *detectionsPath == "" {
		fmt.Fprintln(os.Stderr, "usage: docscalpel -detections detections.json [flags] document.pdf")
		flag.PrintDefaults()
		os.Exit(1)
	}

	types, err := parseTypes(*typesArg)
	if err != nil {
		slog.Error("bad -types value", "error", err)
		os.Exit(1)
	}

	validation, err := pdfio.Validate(pdfPath)
	if err != nil {
		slog.Error("document validation failed", "path", pdfPath, "error", err)
		os.Exit(1)
	}
	for _, w := range validation.Warnings {
		slog.Warn(w, "path", pdfPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := []docscalpel.Option{
		docscalpel.WithMaxPages(*maxPages),
		docscalpel.WithMinConfidence(*confidence),
		docscalpel.WithRasterScale(*scale),
	}
	if *pageImagesDir != "" {
		opts = append(opts, docscalpel.WithPageImages(*pageImagesDir))
	}

	result, err := docscalpel.ConsolidateFile(ctx, pdfPath, *detectionsPath, opts...)
	exitCode := 0
	if err != nil {
		if result == nil {
			slog.Error("consolidation failed", "error", err)
			os.Exit(1)
		}
		// Interrupted mid-run: report what completed, then exit nonzero.
		slog.Warn("consolidation incomplete", "error", err)
		exitCode = 1
	}

	filterTypes(result, types)
	printSummary(result)

	for _, w := range result.Warnings {
		slog.Warn(w)
	}
	for _, n := range result.Notes {
		slog.Info(n)
	}

	var pageImages map[int]image.Image
	if *pageImagesDir != "" && (*outDir != "" || *reportPath != "") {
		pageImages, err = crop.LoadPageImages(*pageImagesDir)
		if err != nil {
			slog.Warn("page images unavailable; skipping crops and thumbnails", "error", err)
		}
	}

	exporter := newExporter(*scale)
	if *outDir != "" {
		if pageImages == nil {
			slog.Warn("-out requires -page-images; no crops written")
		} else {
			paths, err := exporter.Export(*outDir, result.Elements, pageImages)
			if err != nil {
				slog.Error("crop export failed", "error", err)
				exitCode = 1
			}
			slog.Info("crops written", "dir", *outDir, "count", len(paths))
		}
	}

	if *reportPath != "" {
		var thumbs map[string]image.Image
		if pageImages != nil {
			thumbs = exporter.Images(result.Elements, pageImages)
		}
		if err := report.SaveHTML(*reportPath, result.ReportData(thumbs)); err != nil {
			slog.Error("html report failed", "error", err)
			exitCode = 1
		} else {
			slog.Info("html report written", "path", *reportPath)
		}
	}

	if *xlsxPath != "" {
		if err := report.WriteXLSX(*xlsxPath, result.ReportData(nil)); err != nil {
			slog.Error("xlsx report failed", "error", err)
			exitCode = 1
		} else {
			slog.Info("xlsx inventory written", "path", *xlsxPath)
		}
	}

	if *catalogPath != "" {
		if err := saveToCatalog(ctx, *catalogPath, result); err != nil {
			slog.Error("catalog update failed", "error", err)
			exitCode = 1
		}
	}

	os.Exit(exitCode)
}

func newExporter(scale float64) *crop.Exporter {
	mapper, err := model.NewMapper(scale)
	if err != nil {
		slog.Error("bad -scale value", "error", err)
		os.Exit(1)
	}
	return crop.NewExporter(mapper, crop.DefaultConfig())
}

func parseTypes(s string) ([]model.ElementType, error) {
	if s == "" {
		return nil, nil
	}
	var out []model.ElementType
	for _, part := range strings.Split(s, ",") {
		et, err := model.ParseLabel(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, et)
	}
	return out, nil
}

// filterTypes narrows the result to the requested element types in place.
// An empty filter keeps everything.
func filterTypes(result *docscalpel.Result, types []model.ElementType) {
	if len(types) == 0 {
		return
	}
	keep := make(map[model.ElementType]bool, len(types))
	for _, et := range types {
		keep[et] = true
	}

	elements := result.Elements[:0]
	for _, e := range result.Elements {
		if keep[e.Type] {
			elements = append(elements, e)
		}
	}
	result.Elements = elements

	gaps := result.Gaps[:0]
	for _, g := range result.Gaps {
		if keep[g.Type] {
			gaps = append(gaps, g)
		}
	}
	result.Gaps = gaps
}

func printSummary(result *docscalpel.Result) {
	fmt.Printf("%s: %d pages, %d figures, %d tables, %d equations in %v\n",
		result.Source, result.Pages,
		result.Count(model.ElementTypeFigure),
		result.Count(model.ElementTypeTable),
		result.Count(model.ElementTypeEquation),
		result.Elapsed)

	for _, el := range result.Elements {
		fmt.Printf("  %-9s %3d  page %3d  (%.1f, %.1f, %.1f, %.1f)  conf %.2f\n",
			el.Type, el.SequenceNumber, el.Page,
			el.BBox.X, el.BBox.Y, el.BBox.Width, el.BBox.Height, el.Confidence)
	}
	for _, g := range result.Gaps {
		fmt.Printf("  %-9s %3d  page %3d  reserved slot (referenced in text, not detected)\n",
			g.Type, g.SequenceNumber, g.Page)
	}
}

func saveToCatalog(ctx context.Context, path string, result *docscalpel.Result) error {
	cat, err := catalog.Open(path)
	if err != nil {
		return err
	}
	defer cat.Close()

	runID, err := cat.SaveRun(ctx, catalog.Run{
		Source:   result.Source,
		Pages:    result.Pages,
		GapCount: len(result.Gaps),
		Elapsed:  result.Elapsed,
		Warnings: result.Warnings,
	}, result.Elements)
	if err != nil {
		return err
	}
	slog.Info("run catalogued", "path", path, "run", runID)
	return nil
}
