package normalize

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// workbookText renders the first maxSheets sheets as comma-delimited text,
// each preceded by a sheet separator line. Remaining sheets are ignored.
func workbookText(data []byte, maxSheets int) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if maxSheets > 0 && len(sheets) > maxSheets {
		sheets = sheets[:maxSheets]
	}

	var sb strings.Builder
	for _, name := range sheets {
		rows, err := f.GetRows(name)
		if err != nil {
			return "", fmt.Errorf("sheet %q: %w", name, err)
		}
		text, err := rowsToCSV(rows)
		if err != nil {
			return "", fmt.Errorf("sheet %q: %w", name, err)
		}
		fmt.Fprintf(&sb, "--- Sheet: %s ---\n%s\n\n", name, text)
	}
	return sb.String(), nil
}

// rowsToCSV pads ragged rows to the widest row so every record has the same
// column count.
func rowsToCSV(rows [][]string) (string, error) {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, r := range rows {
		rec := make([]string, width)
		copy(rec, r)
		if err := w.Write(rec); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
