package ingest

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// DecodeWorkbook decodes an xlsx payload using excelize. Only the first
// sheet is read; its first row becomes the header row and missing cells
// default to empty strings.
func DecodeWorkbook(payload []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return &Table{}, nil
	}
	return buildTable(rows[0], rows[1:]), nil
}
