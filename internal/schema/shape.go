package schema

import (
	"github.com/oakwood-commons/pathbench/pkg/value"
)

// ShapeKind describes the general structure of data.
type ShapeKind string

const (
	ShapeScalar           ShapeKind = "scalar"
	ShapeObject           ShapeKind = "object"
	ShapeArray            ShapeKind = "array"
	ShapeHomogeneousArray ShapeKind = "homogeneous_array" // Array of objects with consistent keys
)

// ShapeInfo describes the structure of data for rendering decisions.
type ShapeInfo struct {
	Kind   ShapeKind
	Fields []string // For homogeneous arrays: the common field names in first-element order
	Length int      // For containers: number of entries or elements
}

// DetectShape analyzes data and returns its structural characteristics.
func DetectShape(data any) ShapeInfo {
	if entries, ok := value.Entries(data); ok {
		return ShapeInfo{Kind: ShapeObject, Length: len(entries)}
	}
	items, ok := value.Elements(data)
	if !ok {
		return ShapeInfo{Kind: ShapeScalar}
	}
	if fields, ok := homogeneousFields(items); ok {
		return ShapeInfo{Kind: ShapeHomogeneousArray, Fields: fields, Length: len(items)}
	}
	return ShapeInfo{Kind: ShapeArray, Length: len(items)}
}

// homogeneousFields reports whether every element is an object with the
// same non-empty key set, returning the keys of the first element.
func homogeneousFields(items []any) ([]string, bool) {
	if len(items) == 0 {
		return nil, false
	}
	first, ok := value.Entries(items[0])
	if !ok || len(first) == 0 {
		return nil, false
	}
	keys := make([]string, len(first))
	want := make(map[string]bool, len(first))
	for i, e := range first {
		keys[i] = e.Key
		want[e.Key] = true
	}
	for _, item := range items[1:] {
		entries, ok := value.Entries(item)
		if !ok || len(entries) != len(keys) {
			return nil, false
		}
		for _, e := range entries {
			if !want[e.Key] {
				return nil, false
			}
		}
	}
	return keys, true
}

// Columns extracts a homogeneous array into a header and rows of display
// strings. It returns nil, nil when data is not homogeneous.
func Columns(data any) ([]string, [][]string) {
	shape := DetectShape(data)
	if shape.Kind != ShapeHomogeneousArray {
		return nil, nil
	}
	items, _ := value.Elements(data)
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		entries, _ := value.Entries(item)
		byKey := make(map[string]any, len(entries))
		for _, e := range entries {
			byKey[e.Key] = e.Value
		}
		row := make([]string, len(shape.Fields))
		for j, col := range shape.Fields {
			row[j] = value.String(byKey[col])
		}
		rows = append(rows, row)
	}
	return shape.Fields, rows
}
