package loader

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/oakwood-commons/pathbench/pkg/value"
)

// LoadCSV converts CSV data into an array of objects keyed by the header
// row, in column order. Cells stay strings.
func LoadCSV(data []byte) ([]any, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return []any{}, nil
	}
	headers := records[0]
	rows := make([]any, 0, len(records)-1)
	for _, record := range records[1:] {
		row := value.NewObject()
		for j, header := range headers {
			cell := ""
			if j < len(record) {
				cell = record[j]
			}
			row.Set(header, cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// IsCSVFile reports whether path has a .csv extension.
func IsCSVFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}
