// Package export renders the consolidated view and the relocation worklist
// as downloadable CSV and xlsx documents.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/dlacroix/wmslite/internal/ingest"
	"github.com/xuri/excelize/v2"
)

var exportHeaders = []string{
	"Item",
	"Description",
	"Qty Inventory",
	"Qty Reception",
	"Qty Total",
	"Inventory Bins",
	"Reception Bins",
	"Location Types",
}

// formatBins renders bin entries as "R1-01 (5), R2-02 (3)".
func formatBins(entries []ingest.BinQty) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = fmt.Sprintf("%s (%s)", e.Bin, e.Qty.String())
	}
	return strings.Join(parts, ", ")
}

func itemRecord(it ingest.ConsolidatedItem) ingest.Record {
	return ingest.Record{
		"Item":           it.Item,
		"Description":    it.Description,
		"Qty Inventory":  it.QtyInventoryTotal.String(),
		"Qty Reception":  it.QtyReceptionTotal.String(),
		"Qty Total":      it.QtyTotal.String(),
		"Inventory Bins": formatBins(it.InventoryBins),
		"Reception Bins": formatBins(it.ReceptionBins),
		"Location Types": it.LocationTypes,
	}
}

// WriteItemsCSV writes consolidated items as CSV, one row per item, in the
// same fully-quoted dialect imports are parsed with.
func WriteItemsCSV(w io.Writer, items []ingest.ConsolidatedItem) error {
	records := make([]ingest.Record, len(items))
	for i, it := range items {
		records[i] = itemRecord(it)
	}
	return ingest.WriteCSV(w, exportHeaders, records)
}

// Workbook sheet names. The worklist sheet comes first so it opens as the
// active sheet.
const (
	SheetWorklist     = "A_DEPLACER"
	SheetConsolidated = "CONSOLIDE_COMPLET"
)

// WriteWorkbook writes an xlsx workbook with the relocation worklist on the
// first sheet and the full consolidated view on the second.
func WriteWorkbook(w io.Writer, worklist, consolidated []ingest.ConsolidatedItem) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", SheetWorklist)
	if _, err := f.NewSheet(SheetConsolidated); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	if err := writeSheet(f, SheetWorklist, worklist); err != nil {
		return err
	}
	if err := writeSheet(f, SheetConsolidated, consolidated); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, items []ingest.ConsolidatedItem) error {
	header := make([]any, len(exportHeaders))
	for i, h := range exportHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}

	for i, it := range items {
		rec := itemRecord(it)
		row := make([]any, len(exportHeaders))
		for j, h := range exportHeaders {
			row[j] = rec[h]
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}
