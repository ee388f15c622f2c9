package ingest

import (
	"strings"

	"github.com/shopspring/decimal"
)

// BinQty is one contributing row's bin and quantity. Duplicate bins are kept
// as separate entries, in input order.
type BinQty struct {
	Bin string          `json:"bin"`
	Qty decimal.Decimal `json:"qty"`
}

// ConsolidatedItem is the merged view of one item key across the inventory
// and reception datasets.
type ConsolidatedItem struct {
	Item              string          `json:"item"`
	Description       string          `json:"description"`
	QtyInventoryTotal decimal.Decimal `json:"qtyInventoryTotal"`
	QtyReceptionTotal decimal.Decimal `json:"qtyReceptionTotal"`
	QtyTotal          decimal.Decimal `json:"qtyTotal"`
	InventoryBins     []BinQty        `json:"inventoryBins"`
	ReceptionBins     []BinQty        `json:"receptionBins"`
	LocationTypes     string          `json:"locationTypes"`
}

// accumulator carries per-item state while rows are folded. The location
// type set keeps insertion order so output is deterministic.
type accumulator struct {
	item      *ConsolidatedItem
	typeSeen  map[string]bool
	typeOrder []string
}

// Consolidate merges inventory and reception rows by item key and attaches
// location-type annotations from the bin reference.
//
// Inventory rows fold first, then reception rows, each in input order; output
// order is first-seen order. The description is the first non-empty value
// encountered. Empty bins are recorded as "-". Duplicate bins in the
// location reference resolve last-write-wins.
//
// An item is retained only if at least one source total is non-zero AND the
// combined total is non-zero. The second clause is intentional: an item with
// offsetting inventory and reception quantities (+5 / -5) nets to zero and
// is excluded from every view, even though both sides contributed.
func Consolidate(inventory, reception []StockRow, locations []LocationRow) []ConsolidatedItem {
	locType := make(map[string]string, len(locations))
	for _, l := range locations {
		locType[Normalize(l.Bin)] = l.Type
	}

	byItem := make(map[string]*accumulator)
	var order []string

	fold := func(row StockRow, source Role) {
		acc, ok := byItem[row.Item]
		if !ok {
			acc = &accumulator{
				item: &ConsolidatedItem{
					Item:        row.Item,
					Description: row.Description,
				},
				typeSeen: make(map[string]bool),
			}
			byItem[row.Item] = acc
			order = append(order, row.Item)
		}
		it := acc.item

		if it.Description == "" && row.Description != "" {
			it.Description = row.Description
		}

		entry := BinQty{Bin: row.Bin, Qty: row.Qty}
		if entry.Bin == "" {
			entry.Bin = "-"
		}
		if source == RoleInventory {
			it.QtyInventoryTotal = it.QtyInventoryTotal.Add(row.Qty)
			it.InventoryBins = append(it.InventoryBins, entry)
		} else {
			it.QtyReceptionTotal = it.QtyReceptionTotal.Add(row.Qty)
			it.ReceptionBins = append(it.ReceptionBins, entry)
		}
		it.QtyTotal = it.QtyInventoryTotal.Add(it.QtyReceptionTotal)

		if t := locType[Normalize(row.Bin)]; t != "" && !acc.typeSeen[t] {
			acc.typeSeen[t] = true
			acc.typeOrder = append(acc.typeOrder, t)
		}
	}

	for _, row := range inventory {
		fold(row, RoleInventory)
	}
	for _, row := range reception {
		fold(row, RoleReception)
	}

	out := make([]ConsolidatedItem, 0, len(order))
	for _, key := range order {
		acc := byItem[key]
		it := acc.item
		if it.QtyInventoryTotal.IsZero() && it.QtyReceptionTotal.IsZero() {
			continue
		}
		if it.QtyTotal.IsZero() {
			continue
		}
		it.LocationTypes = strings.Join(acc.typeOrder, ", ")
		out = append(out, *it)
	}
	return out
}

// SelectBelowThreshold filters the consolidated set down to the relocation
// worklist: items whose total quantity is strictly below the threshold.
// Input order is preserved; the result is always a subset of the input.
func SelectBelowThreshold(items []ConsolidatedItem, threshold decimal.Decimal) []ConsolidatedItem {
	out := make([]ConsolidatedItem, 0, len(items))
	for _, it := range items {
		if it.QtyTotal.LessThan(threshold) {
			out = append(out, it)
		}
	}
	return out
}
