// Package export flattens nested JSON into flat records and renders them
// as CSV or pretty JSON.
package export

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/oakwood-commons/pathbench/pkg/value"
)

// ErrCycle is returned when a value refers back to one of its ancestors.
var ErrCycle = errors.New("value contains a reference cycle")

// DefaultMaxDepth bounds how many object levels are expanded into columns.
const DefaultMaxDepth = 5

// RowNumberColumn heads the 1-based row index column.
const RowNumberColumn = "#"

// ScalarColumn holds rows that are not objects.
const ScalarColumn = "value"

// Options controls CSV export.
type Options struct {
	MaxDepth          int
	IncludeRowNumbers bool
}

// DefaultOptions returns the export defaults.
func DefaultOptions() Options {
	return Options{MaxDepth: DefaultMaxDepth, IncludeRowNumbers: true}
}

// Flatten turns one row into a single-level object keyed by dot paths.
// Objects are expanded while depth+1 < maxDepth; arrays and objects past
// the bound become a JSON string in one cell. A row that is not an object
// lands in the "value" column.
func Flatten(row any, maxDepth int) (*value.Object, error) {
	if err := checkAcyclic(row, map[value.Ref]bool{}); err != nil {
		return nil, err
	}
	out := value.NewObject()
	if !value.IsObject(row) {
		cell, err := leaf(row)
		if err != nil {
			return nil, err
		}
		out.Set(ScalarColumn, cell)
		return out, nil
	}
	if err := flattenInto(out, "", row, 0, maxDepth); err != nil {
		return nil, err
	}
	return out, nil
}

func flattenInto(out *value.Object, prefix string, obj any, depth, maxDepth int) error {
	entries, _ := value.Entries(obj)
	for _, e := range entries {
		key := e.Key
		if prefix != "" {
			key = prefix + "." + e.Key
		}
		if value.IsObject(e.Value) && depth+1 < maxDepth {
			if err := flattenInto(out, key, e.Value, depth+1, maxDepth); err != nil {
				return err
			}
			continue
		}
		cell, err := leaf(e.Value)
		if err != nil {
			return err
		}
		out.Set(key, cell)
	}
	return nil
}

// leaf keeps scalars as they are and stringifies containers.
func leaf(v any) (any, error) {
	if !value.IsContainer(v) {
		return v, nil
	}
	b, err := value.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("stringify cell: %w", err)
	}
	return string(b), nil
}

func checkAcyclic(v any, onPath map[value.Ref]bool) error {
	ref, ok := value.Identity(v)
	if !ok {
		return nil
	}
	if onPath[ref] {
		return ErrCycle
	}
	onPath[ref] = true
	defer delete(onPath, ref)
	if entries, isObj := value.Entries(v); isObj {
		for _, e := range entries {
			if err := checkAcyclic(e.Value, onPath); err != nil {
				return err
			}
		}
		return nil
	}
	items, _ := value.Elements(v)
	for _, item := range items {
		if err := checkAcyclic(item, onPath); err != nil {
			return err
		}
	}
	return nil
}

// Table flattens rows into a sorted header and string records. Columns are
// the sorted union of every row's keys; missing cells are empty.
func Table(rows []any, opts Options) ([]string, [][]string, error) {
	flat := make([]*value.Object, 0, len(rows))
	seen := map[string]bool{}
	var columns []string
	for i, row := range rows {
		f, err := Flatten(row, opts.MaxDepth)
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		for pair := f.Oldest(); pair != nil; pair = pair.Next() {
			if !seen[pair.Key] {
				seen[pair.Key] = true
				columns = append(columns, pair.Key)
			}
		}
		flat = append(flat, f)
	}
	sort.Strings(columns)

	header := make([]string, 0, len(columns)+1)
	if opts.IncludeRowNumbers {
		header = append(header, RowNumberColumn)
	}
	header = append(header, columns...)

	records := make([][]string, 0, len(flat))
	for i, f := range flat {
		record := make([]string, 0, len(header))
		if opts.IncludeRowNumbers {
			record = append(record, strconv.Itoa(i+1))
		}
		for _, col := range columns {
			v, _ := f.Get(col)
			record = append(record, cellText(v))
		}
		records = append(records, record)
	}
	return header, records, nil
}

func cellText(v any) string {
	if v == nil {
		return ""
	}
	return value.String(v)
}

// ToCSV renders rows as CSV text. Each line, the header included, ends in
// "\n". With no columns and no rows the result is empty.
func ToCSV(rows []any, opts Options) (string, error) {
	header, records, err := Table(rows, opts)
	if err != nil {
		return "", err
	}
	if len(header) == 0 && len(records) == 0 {
		return "", nil
	}
	var b strings.Builder
	writeCSVRow(&b, header)
	for _, r := range records {
		writeCSVRow(&b, r)
	}
	return b.String(), nil
}

func writeCSVRow(b *strings.Builder, fields []string) {
	for i, field := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(EscapeCSVField(field))
	}
	b.WriteByte('\n')
}

// EscapeCSVField quotes a field that contains a comma, a line break or a
// double quote, doubling any quotes inside.
func EscapeCSVField(field string) string {
	if strings.ContainsAny(field, ",\"\n\r") {
		return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
	}
	return field
}

// ToJSON renders v as indented JSON, keeping object key order.
func ToJSON(v any) (string, error) {
	if err := checkAcyclic(v, map[value.Ref]bool{}); err != nil {
		return "", err
	}
	b, err := value.MarshalIndent(v)
	if err != nil {
		return "", fmt.Errorf("encode JSON: %w", err)
	}
	return string(b), nil
}

// Rows returns the rows to export for a result: the elements of an array,
// or the value itself as a single row.
func Rows(result any) []any {
	if items, ok := value.Elements(result); ok {
		return items
	}
	if result == nil {
		return []any{}
	}
	return []any{result}
}

// Filename builds a download name such as results-2024-03-01T14-05-09.csv.
func Filename(prefix, ext string, now time.Time) string {
	return prefix + "-" + now.Format("2006-01-02T15-04-05") + "." + strings.TrimPrefix(ext, ".")
}
