package ingest

import (
	"strings"

	"github.com/shopspring/decimal"
)

// StockRow is a typed, validated inventory or reception row.
type StockRow struct {
	Item        string          `json:"item"`
	Qty         decimal.Decimal `json:"qty"`
	Bin         string          `json:"bin"`
	Description string          `json:"description"`
	Type        string          `json:"type"`
}

// LocationRow is one entry of the bin-to-location-type reference.
type LocationRow struct {
	Bin  string `json:"bin"`
	Type string `json:"type"`
}

// DiagnosticKind identifies a class of non-fatal import anomaly.
type DiagnosticKind string

// DiagNonNumericQuantity marks a quantity cell that failed numeric coercion.
// The row survives with quantity zero; the diagnostic exists for audit.
const DiagNonNumericQuantity DiagnosticKind = "non_numeric_quantity"

// Diagnostic records one sanitization anomaly. Diagnostics never abort an
// import; they are returned for the caller to log or display.
type Diagnostic struct {
	Kind DiagnosticKind `json:"kind"`
	Role Role           `json:"role"`
	Item string         `json:"item"`
	Raw  string         `json:"raw"`
}

// Sanitize applies a resolved mapping to raw inventory or reception records.
// Item and bin keys are upper-cased and trimmed, free text is trimmed, and
// quantities are coerced to exact decimals. Rows with an empty item key are
// dropped silently: they carry no key to aggregate on.
func Sanitize(role Role, records []Record, mapping FieldMapping) ([]StockRow, []Diagnostic) {
	rows := make([]StockRow, 0, len(records))
	var diags []Diagnostic

	for _, rec := range records {
		item := strings.ToUpper(strings.TrimSpace(rec[mapping[FieldItem]]))
		if item == "" {
			continue
		}

		raw := rec[mapping[FieldQty]]
		qty, ok := parseQuantity(raw)
		if !ok {
			diags = append(diags, Diagnostic{Kind: DiagNonNumericQuantity, Role: role, Item: item, Raw: raw})
		}

		rows = append(rows, StockRow{
			Item:        item,
			Qty:         qty,
			Bin:         strings.ToUpper(strings.TrimSpace(rec[mapping[FieldBin]])),
			Description: strings.TrimSpace(rec[mapping[FieldDescription]]),
			Type:        strings.TrimSpace(rec[mapping[FieldType]]),
		})
	}

	return rows, diags
}

// SanitizeLocations applies a resolved mapping to location reference records.
// Rows with an empty bin are dropped.
func SanitizeLocations(records []Record, mapping FieldMapping) []LocationRow {
	rows := make([]LocationRow, 0, len(records))
	for _, rec := range records {
		bin := strings.ToUpper(strings.TrimSpace(rec[mapping[FieldBin]]))
		if bin == "" {
			continue
		}
		rows = append(rows, LocationRow{
			Bin:  bin,
			Type: strings.TrimSpace(rec[mapping[FieldType]]),
		})
	}
	return rows
}

// parseQuantity coerces a quantity cell to a decimal. An empty cell counts
// as zero without a diagnostic; anything else that fails a locale-agnostic
// numeric parse reports ok=false and substitutes zero.
func parseQuantity(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, true
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
