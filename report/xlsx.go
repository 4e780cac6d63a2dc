package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/zebehn/docscalpel/model"
)

const (
	elementsSheet = "Elements"
	summarySheet  = "Summary"
)

// WriteXLSX writes the element inventory workbook to path: one row per
// element on the Elements sheet, run totals on the Summary sheet.
func WriteXLSX(path string, data Data) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", elementsSheet); err != nil {
		return fmt.Errorf("report: rename sheet: %w", err)
	}
	if err := writeElements(f, data); err != nil {
		return err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("report: add sheet: %w", err)
	}
	if err := writeSummary(f, data); err != nil {
		return err
	}
	f.SetActiveSheet(0)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("report: save %s: %w", path, err)
	}
	return nil
}

func writeElements(f *excelize.File, data Data) error {
	header := []any{"Type", "Sequence", "Page", "X", "Y", "Width", "Height", "Confidence", "Sources"}
	if err := setRow(f, elementsSheet, 1, header); err != nil {
		return err
	}
	for i, e := range data.Elements {
		row := []any{
			e.Type.String(),
			e.SequenceNumber,
			e.Page,
			e.BBox.X,
			e.BBox.Y,
			e.BBox.Width,
			e.BBox.Height,
			e.Confidence,
			strings.Join(e.SourceDetectionIDs, ", "),
		}
		if err := setRow(f, elementsSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(elementsSheet, "A", "A", 12); err != nil {
		return fmt.Errorf("report: set column width: %w", err)
	}
	if err := f.SetColWidth(elementsSheet, "I", "I", 32); err != nil {
		return fmt.Errorf("report: set column width: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, data Data) error {
	if err := setRow(f, summarySheet, 1, []any{"Type", "Elements", "Reserved slots"}); err != nil {
		return err
	}
	row := 2
	for _, et := range model.ElementTypes() {
		if err := setRow(f, summarySheet, row, []any{et.String(), data.elementCount(et), data.gapCount(et)}); err != nil {
			return err
		}
		row++
	}

	row++
	facts := [][]any{
		{"Source", data.Source},
		{"Pages", data.Pages},
		{"Warnings", len(data.Warnings)},
		{"Notes", len(data.Notes)},
	}
	if data.Elapsed > 0 {
		facts = append(facts, []any{"Elapsed", data.Elapsed.String()})
	}
	for _, fact := range facts {
		if err := setRow(f, summarySheet, row, fact); err != nil {
			return err
		}
		row++
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return fmt.Errorf("report: cell name: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("report: set %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}
