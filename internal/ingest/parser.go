package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Kind declares how a payload should be decoded.
type Kind string

const (
	KindCSV         Kind = "csv"
	KindSpreadsheet Kind = "spreadsheet"
)

// KindForFilename maps a file name to a payload kind by extension.
// Returns ErrUnsupportedFormat for anything that is neither CSV nor a
// spreadsheet format.
func KindForFilename(name string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return KindCSV, nil
	case ".xlsx", ".xls":
		return KindSpreadsheet, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
}

// Record maps original column headers to cell values for a single row.
// Records are ephemeral: they exist only between parsing and sanitizing.
type Record map[string]string

// Table is a parsed tabular payload: the trimmed header row plus one
// header-keyed record per data row, in file order.
type Table struct {
	Headers []string
	Records []Record
}

// SpreadsheetDecoder decodes a spreadsheet payload into a Table.
// It is pluggable so hosts and tests can run without the workbook codec.
type SpreadsheetDecoder func(payload []byte) (*Table, error)

// Parser decodes delimited-text or spreadsheet payloads.
type Parser struct {
	// Spreadsheet handles KindSpreadsheet payloads. When nil, spreadsheet
	// imports fail with ErrSpreadsheetCodec.
	Spreadsheet SpreadsheetDecoder
}

// NewParser returns a Parser with the default xlsx decoder installed.
func NewParser() *Parser {
	return &Parser{Spreadsheet: DecodeWorkbook}
}

// Parse decodes a fully materialized payload of the declared kind into an
// ordered sequence of header-keyed records.
func (p *Parser) Parse(payload []byte, kind Kind) (*Table, error) {
	switch kind {
	case KindCSV:
		return ParseCSV(payload)
	case KindSpreadsheet:
		if p.Spreadsheet == nil {
			return nil, ErrSpreadsheetCodec
		}
		return p.Spreadsheet(payload)
	}
	return nil, fmt.Errorf("%w: kind %q", ErrUnsupportedFormat, kind)
}

// ParseCSV decodes a comma-delimited payload. Dialect: double-quote quoting
// with doubled quotes as escapes, CRLF or LF record separators, blank lines
// skipped. Rows shorter than the header are padded with empty strings; cells
// beyond the header count are dropped.
func ParseCSV(payload []byte) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(payload))
	// Header and data rows may disagree on width; widths are reconciled
	// against the header row when records are built.
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(rows) == 0 {
		return &Table{}, nil
	}
	return buildTable(rows[0], rows[1:]), nil
}

// buildTable assembles a Table from a header row and data rows, trimming
// headers and reconciling row widths against the header count.
func buildTable(headerRow []string, dataRows [][]string) *Table {
	headers := make([]string, len(headerRow))
	for i, h := range headerRow {
		headers[i] = strings.TrimSpace(h)
	}

	records := make([]Record, 0, len(dataRows))
	for _, row := range dataRows {
		rec := make(Record, len(headers))
		for i, h := range headers {
			if i < len(row) {
				rec[h] = row[i]
			} else {
				rec[h] = ""
			}
		}
		records = append(records, rec)
	}

	return &Table{Headers: headers, Records: records}
}

// WriteCSV serializes records back to CSV in the same dialect ParseCSV reads,
// with every field quoted and embedded quotes doubled. Headers determine the
// column order; values missing from a record serialize as empty fields.
func WriteCSV(w io.Writer, headers []string, records []Record) error {
	var b strings.Builder
	writeRow := func(cells []string) {
		for i, c := range cells {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(c, `"`, `""`))
			b.WriteByte('"')
		}
		b.WriteByte('\n')
	}

	writeRow(headers)
	cells := make([]string, len(headers))
	for _, rec := range records {
		for i, h := range headers {
			cells[i] = rec[h]
		}
		writeRow(cells)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
