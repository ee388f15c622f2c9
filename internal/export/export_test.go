package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dlacroix/wmslite/internal/ingest"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func sampleItems() []ingest.ConsolidatedItem {
	return []ingest.ConsolidatedItem{
		{
			Item:              "A100",
			Description:       "Widget, large",
			QtyInventoryTotal: decimal.NewFromInt(5),
			QtyReceptionTotal: decimal.NewFromInt(10),
			QtyTotal:          decimal.NewFromInt(15),
			InventoryBins: []ingest.BinQty{
				{Bin: "R1-01", Qty: decimal.NewFromInt(2)},
				{Bin: "R2-02", Qty: decimal.NewFromInt(3)},
			},
			ReceptionBins: []ingest.BinQty{{Bin: "DOCK", Qty: decimal.NewFromInt(10)}},
			LocationTypes: "Rack, Dock",
		},
		{
			Item:          "B200",
			QtyTotal:      decimal.RequireFromString("3.5"),
			InventoryBins: []ingest.BinQty{{Bin: "-", Qty: decimal.RequireFromString("3.5")}},
		},
	}
}

func TestWriteItemsCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteItemsCSV(&buf, sampleItems()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, `"Item","Description"`) {
		t.Errorf("header row = %q", strings.SplitN(out, "\n", 2)[0])
	}
	if !strings.Contains(out, `"R1-01 (2), R2-02 (3)"`) {
		t.Errorf("bin formatting missing: %q", out)
	}
	if !strings.Contains(out, `"Widget, large"`) {
		t.Errorf("comma in description not preserved: %q", out)
	}
	if !strings.Contains(out, `"3.5"`) {
		t.Errorf("decimal quantity missing: %q", out)
	}

	// The output parses back with the import dialect.
	table, err := ingest.ParseCSV(buf.Bytes())
	if err != nil {
		t.Fatalf("round trip parse: %v", err)
	}
	if len(table.Records) != 2 {
		t.Fatalf("round trip rows = %d, want 2", len(table.Records))
	}
	if table.Records[0]["Location Types"] != "Rack, Dock" {
		t.Errorf("round trip record = %v", table.Records[0])
	}
}

func TestWriteWorkbook(t *testing.T) {
	items := sampleItems()
	worklist := items[1:]

	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, worklist, items); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != SheetWorklist || sheets[1] != SheetConsolidated {
		t.Fatalf("sheets = %v", sheets)
	}

	wl, err := f.GetRows(SheetWorklist)
	if err != nil {
		t.Fatal(err)
	}
	if len(wl) != 2 { // header + B200
		t.Fatalf("worklist rows = %d, want 2", len(wl))
	}
	if wl[1][0] != "B200" {
		t.Errorf("worklist row = %v", wl[1])
	}

	all, err := f.GetRows(SheetConsolidated)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 { // header + 2 items
		t.Fatalf("consolidated rows = %d, want 3", len(all))
	}
	if all[1][0] != "A100" || all[1][5] != "R1-01 (2), R2-02 (3)" {
		t.Errorf("consolidated row = %v", all[1])
	}
}
