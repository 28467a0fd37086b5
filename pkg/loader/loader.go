package loader

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/go-logr/logr"
	"github.com/pelletier/go-toml/v2"

	"github.com/oakwood-commons/pathbench/pkg/value"
)

// ErrEmptyInput is returned when the input holds nothing but whitespace.
var ErrEmptyInput = errors.New("empty input")

var (
	// TOML section headers: [server], [[items]], ["table name"], [database.credentials].
	// JSON arrays like [1, 2, 3] do not match.
	tomlSectionPattern = regexp.MustCompile(`^\s*\[{1,2}(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\]{1,2}\s*$`)
	// TOML key = value, as opposed to YAML key: value.
	tomlKeyValuePattern = regexp.MustCompile(`^\s*(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\s*=\s*.+$`)
)

// Format names the syntax an input was decoded from.
type Format string

const (
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
	FormatYAML   Format = "yaml"
	FormatTOML   Format = "toml"
)

// LoadData loads structured data from a string, auto-detecting format.
// Supports:
// - Single JSON object/array/scalar
// - Newline-delimited JSON (NDJSON): one JSON value per line
// - YAML: single document or multi-document (separated by ---)
// - TOML
//
// Every format returns one element per document. Objects are *value.Object
// in source key order (TOML keys are sorted) and every number is float64.
func LoadData(input string) ([]any, error) {
	docs, _, err := Detect(input)
	return docs, err
}

// Detect is LoadData that also reports the detected format.
func Detect(input string) ([]any, Format, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, "", ErrEmptyInput
	}

	// Try multi-document YAML first (most restrictive)
	if strings.Contains(input, "\n---") || strings.HasPrefix(input, "---") {
		docs, err := loadMultiDocYAML(input)
		return docs, FormatYAML, err
	}

	lines := strings.Split(input, "\n")
	if len(lines) > 1 && isLikelyNDJSON(lines) && !isJSON(input) {
		docs, err := loadNDJSON(lines)
		return docs, FormatNDJSON, err
	}

	// TOML [section] headers look like JSON arrays, so check them first.
	if isLikelyTOML(lines) {
		docs, err := loadTOML(input)
		return docs, FormatTOML, err
	}

	if strings.HasPrefix(input, "{") || strings.HasPrefix(input, "[") || isJSON(input) {
		doc, err := decodeJSON([]byte(input))
		if err != nil {
			return nil, FormatJSON, fmt.Errorf("invalid JSON: %w", err)
		}
		return []any{doc}, FormatJSON, nil
	}

	docs, err := loadYAML(input)
	return docs, FormatYAML, err
}

// LoadRoot parses input into a single root node. Multi-document inputs are returned as a slice.
func LoadRoot(input string) (any, error) {
	results, err := LoadData(input)
	if err != nil {
		return nil, err
	}
	if len(results) == 1 {
		return results[0], nil
	}
	return results, nil
}

// LoadRootBytes parses input bytes into a single root node.
func LoadRootBytes(data []byte) (any, error) {
	return LoadRoot(string(data))
}

// LoadRootBytesWithLogger is LoadRootBytes with debug output describing the
// detected format.
func LoadRootBytesWithLogger(lgr logr.Logger, data []byte) (any, error) {
	docs, format, err := Detect(string(data))
	if err != nil {
		lgr.V(1).Info("input decode failed", "format", format, "bytes", len(data), "error", err.Error())
		return nil, err
	}
	lgr.V(1).Info("input decoded", "format", format, "documents", len(docs), "bytes", len(data))
	if len(docs) == 1 {
		return docs[0], nil
	}
	return docs, nil
}

// LoadFile reads a file and parses it into a single root node. Files with
// a .csv extension become an array of row objects.
func LoadFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if IsCSVFile(path) {
		rows, err := LoadCSV(data)
		if err != nil {
			return nil, err
		}
		return rows, nil
	}
	return LoadRootBytes(data)
}

// LoadObject accepts an already parsed value. Strings and byte slices are
// parsed with format detection; anything else is normalized into the
// workbench model.
func LoadObject(v any) (any, error) {
	if v == nil {
		return nil, fmt.Errorf("object input is nil")
	}
	switch t := v.(type) {
	case string:
		return LoadRoot(t)
	case []byte:
		return LoadRootBytes(t)
	default:
		return value.Normalize(v), nil
	}
}

// loadNDJSON decodes one JSON value per non-empty line. Lines that are not
// valid JSON are kept as plain strings.
func loadNDJSON(lines []string) ([]any, error) {
	results := make([]any, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		doc, err := decodeJSON([]byte(line))
		if err != nil {
			results = append(results, line)
			continue
		}
		results = append(results, doc)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no data found in input")
	}
	return results, nil
}

// isLikelyNDJSON heuristic: a majority of non-empty lines must start with
// '{' or '[' so YAML lists are not misclassified.
func isLikelyNDJSON(lines []string) bool {
	jsonCount := 0
	nonEmptyCount := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		nonEmptyCount++
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			jsonCount++
		}
	}
	return nonEmptyCount > 1 && jsonCount > nonEmptyCount/2
}

// isLikelyTOML heuristic: any section header, or a majority of key = value lines.
func isLikelyTOML(lines []string) bool {
	sectionCount := 0
	keyValueCount := 0
	nonEmptyCount := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		nonEmptyCount++
		if tomlSectionPattern.MatchString(line) {
			sectionCount++
		}
		if tomlKeyValuePattern.MatchString(line) {
			keyValueCount++
		}
	}
	if sectionCount > 0 {
		return true
	}
	return nonEmptyCount > 0 && keyValueCount > nonEmptyCount/2
}

func loadTOML(input string) ([]any, error) {
	var data map[string]any
	if err := toml.Unmarshal([]byte(input), &data); err != nil {
		return nil, fmt.Errorf("invalid TOML: %w", err)
	}
	return []any{value.Normalize(data)}, nil
}
