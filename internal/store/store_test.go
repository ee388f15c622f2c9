package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dlacroix/wmslite/internal/ingest"
	"github.com/shopspring/decimal"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStockRowsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rows := []ingest.StockRow{
		{Item: "A100", Qty: decimal.RequireFromString("5.5"), Bin: "R1-01", Description: "Widget"},
		{Item: "B200", Qty: decimal.NewFromInt(3), Bin: "-"},
	}
	if err := s.SaveStockRows(ctx, ingest.RoleInventory, rows); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.StockRows(ctx, ingest.RoleInventory)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	if got[0].Item != "A100" || !got[0].Qty.Equal(decimal.RequireFromString("5.5")) {
		t.Errorf("row 0 = %+v", got[0])
	}

	// Reception is a separate dataset.
	other, err := s.StockRows(ctx, ingest.RoleReception)
	if err != nil {
		t.Fatalf("load reception: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("reception has %d rows, want 0", len(other))
	}
}

func TestSaveStockRowsReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := []ingest.StockRow{{Item: "A", Qty: decimal.NewFromInt(1)}}
	second := []ingest.StockRow{{Item: "B", Qty: decimal.NewFromInt(2)}}
	if err := s.SaveStockRows(ctx, ingest.RoleInventory, first); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveStockRows(ctx, ingest.RoleInventory, second); err != nil {
		t.Fatal(err)
	}

	got, err := s.StockRows(ctx, ingest.RoleInventory)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Item != "B" {
		t.Errorf("got %+v, want single row B", got)
	}
}

func TestLocationsAndConsolidated(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SaveLocations(ctx, []ingest.LocationRow{{Bin: "R1-01", Type: "Rack"}}); err != nil {
		t.Fatal(err)
	}
	locs, err := s.Locations(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(locs) != 1 || locs[0].Type != "Rack" {
		t.Errorf("locations = %+v", locs)
	}

	items := []ingest.ConsolidatedItem{{
		Item:          "A100",
		QtyTotal:      decimal.NewFromInt(8),
		InventoryBins: []ingest.BinQty{{Bin: "R1-01", Qty: decimal.NewFromInt(8)}},
	}}
	if err := s.SaveConsolidated(ctx, items); err != nil {
		t.Fatal(err)
	}
	got, err := s.Consolidated(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !got[0].QtyTotal.Equal(decimal.NewFromInt(8)) {
		t.Errorf("consolidated = %+v", got)
	}
	if len(got[0].InventoryBins) != 1 || got[0].InventoryBins[0].Bin != "R1-01" {
		t.Errorf("bins = %+v", got[0].InventoryBins)
	}
}

func TestImportedAt(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SaveStockRows(ctx, ingest.RoleInventory, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveConsolidated(ctx, nil); err != nil {
		t.Fatal(err)
	}

	times, err := s.ImportedAt(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := times[ingest.RoleInventory]; !ok {
		t.Error("inventory import time missing")
	}
	if _, ok := times[ingest.Role("consolidated")]; ok {
		t.Error("consolidated view should not appear as an import")
	}
}

func TestMappingRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Nil before anything is cached.
	m, err := s.Mapping(ctx, ingest.RoleInventory)
	if err != nil {
		t.Fatal(err)
	}
	if m != nil {
		t.Errorf("expected nil mapping, got %v", m)
	}

	want := ingest.FieldMapping{ingest.FieldItem: "SKU", ingest.FieldQty: "Qty OH"}
	if err := s.SaveMapping(ctx, ingest.RoleInventory, want); err != nil {
		t.Fatal(err)
	}
	m, err = s.Mapping(ctx, ingest.RoleInventory)
	if err != nil {
		t.Fatal(err)
	}
	if m[ingest.FieldItem] != "SKU" || m[ingest.FieldQty] != "Qty OH" {
		t.Errorf("mapping = %v", m)
	}

	all, err := s.Mappings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("mappings = %v", all)
	}
}

func TestSettings(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, ok, err := s.Setting(ctx, "threshold")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("unset key reported as present")
	}

	if err := s.SetSetting(ctx, "threshold", "35"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSetting(ctx, "threshold", "40"); err != nil {
		t.Fatal(err)
	}
	v, ok, err := s.Setting(ctx, "threshold")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || v != "40" {
		t.Errorf("Setting = %q, %v", v, ok)
	}
}

func TestHistoryNewestFirstAndCapped(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < HistoryLimit+10; i++ {
		if err := s.AppendHistory(ctx, "import", map[string]int{"n": i}); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := s.History(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != HistoryLimit {
		t.Fatalf("history has %d entries, want %d", len(entries), HistoryLimit)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].At.After(entries[i-1].At) {
			t.Fatalf("history not newest first at index %d", i)
		}
	}

	limited, err := s.History(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 5 {
		t.Errorf("limited history has %d entries, want 5", len(limited))
	}
}
