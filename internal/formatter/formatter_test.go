package formatter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/pathbench/internal/schema"
	"github.com/oakwood-commons/pathbench/internal/search"
	"github.com/oakwood-commons/pathbench/pkg/value"
)

func TestStringify(t *testing.T) {
	assert.Equal(t, "", Stringify(nil))
	assert.Equal(t, "a\\nb", Stringify("a\r\nb"))
	assert.Equal(t, "30", Stringify(30.0))
	assert.Equal(t, "true", Stringify(true))
	assert.Equal(t, `{"b":1,"a":[1,2]}`, Stringify(value.ObjectOf("b", 1.0, "a", []any{1.0, 2.0})))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 0))
	assert.Equal(t, "hello", truncate("hello", 5))
	assert.Equal(t, "he...", truncate("hello world", 5))
	assert.Equal(t, "he", truncate("hello", 2))
	assert.Equal(t, "日...", truncate("日本語の文", 5))
}

func TestPadding(t *testing.T) {
	assert.Equal(t, "ab  ", padRight("ab", 4))
	assert.Equal(t, "  ab", padLeft("ab", 4))
	assert.Equal(t, "abc", padRight("abcdef", 3))
	assert.Equal(t, "日本  ", padRight("日本", 6))
}

func TestRowsKeepsObjectOrder(t *testing.T) {
	rows := Rows(value.ObjectOf("z", 1.0, "a", "x"))
	assert.Equal(t, [][]string{{"z", "1"}, {"a", "x"}}, rows)

	rows = Rows([]any{"a", nil})
	assert.Equal(t, [][]string{{"[0]", "a"}, {"[1]", ""}}, rows)

	assert.Equal(t, [][]string{{"(value)", "7"}}, Rows(7.0))
}

func TestRenderTableNoColor(t *testing.T) {
	out := RenderTable(value.ObjectOf("name", "Ford", "year", 1999.0), true, 6, 10)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "KEY     VALUE               ", lines[0])
	assert.Equal(t, strings.Repeat("─", 28), lines[1])
	assert.Equal(t, "name    Ford                ", lines[2])
	assert.Equal(t, "year    1999                ", lines[3])
}

func TestRenderTableFitContent(t *testing.T) {
	out := RenderTableFitContent([][]string{{"k", "v"}}, true, 0)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Equal(t, "KEY  VALUE", strings.TrimRight(lines[0], " "))
	assert.Equal(t, "k    v", strings.TrimRight(lines[2], " "))
}

func TestRenderColumnarTable(t *testing.T) {
	out := RenderColumnarTable(
		[]string{"name", "price"},
		[][]string{{"apple", "1.5"}, {"kiwi", "12"}},
		ColumnarOptions{NoColor: true, TotalWidth: 80, RowNumbers: true},
	)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "#  name   price", lines[0])
	assert.Equal(t, "1  apple    1.5", lines[2])
	assert.Equal(t, "2  kiwi      12", lines[3])
}

func TestRenderColumnarTableShrinksToWidth(t *testing.T) {
	long := strings.Repeat("x", 50)
	out := RenderColumnarTable([]string{"a", "b"}, [][]string{{long, "short"}}, ColumnarOptions{NoColor: true, TotalWidth: 20})
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), 20, line)
	}
	assert.Contains(t, out, "...")
}

func TestRenderColumnarTableHiddenColumns(t *testing.T) {
	out := RenderColumnarTable([]string{"a", "b"}, [][]string{{"1", "2"}}, ColumnarOptions{NoColor: true, TotalWidth: 40, HiddenColumns: []string{"a"}})
	assert.True(t, strings.HasPrefix(out, "b\n"))
	assert.Equal(t, "", RenderColumnarTable([]string{"a"}, nil, ColumnarOptions{HiddenColumns: []string{"a"}}))
}

func TestFormatAsTree(t *testing.T) {
	data := value.ObjectOf(
		"name", "Ford",
		"tags", []any{"a", "b"},
		"owner", value.ObjectOf("age", 30.0),
		"empty", []any{},
	)
	out := FormatAsTree(data, TreeOptions{})
	assert.Contains(t, out, `name: "Ford"`)
	assert.Contains(t, out, `tags: ["a","b"]`)
	assert.Contains(t, out, "owner")
	assert.Contains(t, out, "age: 30")
	assert.Contains(t, out, "empty: []")
	assert.Less(t, strings.Index(out, "name"), strings.Index(out, "tags"))

	out = FormatAsTree(data, TreeOptions{NoValues: true, MaxDepth: 1})
	assert.NotContains(t, out, "Ford")
	assert.Contains(t, out, "age: ...")
}

func testSchema() schema.Result {
	return schema.Analyze(value.ObjectOf(
		"make", "Ford",
		"owners", []any{value.ObjectOf("name", "Ann")},
	), schema.DefaultMaxDepth)
}

func TestSchemaTree(t *testing.T) {
	out := SchemaTree(testSchema().Fields, true)
	assert.True(t, strings.HasPrefix(out, "$\n"))
	assert.Contains(t, out, "make (string)  $.make")
	assert.Contains(t, out, "owners (array<object>)  $.owners")
	assert.Contains(t, out, "name (string)  $.owners[*].name")
}

func TestSchemaRows(t *testing.T) {
	rows := SchemaRows(testSchema().Fields)
	assert.Equal(t, [][]string{
		{"$.make", "string"},
		{"$.owners", "array<object>"},
		{"$.owners[*].name", "string"},
	}, rows)
}

func TestSchemaMermaid(t *testing.T) {
	out := SchemaMermaid(testSchema().Fields, MermaidOptions{Direction: "LR"})
	assert.True(t, strings.HasPrefix(out, "graph LR\n"))
	assert.Contains(t, out, `n0["$"]`)
	assert.Contains(t, out, `n1["make: string"]`)
	assert.Contains(t, out, "n0 --> n1")
	assert.Contains(t, out, "n2 --> n3")
}

func TestFormatYAMLKeepsOrder(t *testing.T) {
	out, err := FormatYAML(value.ObjectOf("z", 1.0, "a", []any{"x", 2.5}, "s", "true"), YAMLFormatOptions{})
	require.NoError(t, err)
	assert.Equal(t, "z: 1\na:\n  - x\n  - 2.5\ns: \"true\"\n", out)
}

func TestFormatYAMLLiteralBlocks(t *testing.T) {
	out, err := FormatYAML(value.ObjectOf("text", "a\nb"), YAMLFormatOptions{LiteralBlockStrings: true})
	require.NoError(t, err)
	assert.Contains(t, out, "text: |-")
}

func TestHighlightSegments(t *testing.T) {
	segs := search.Highlight("Ford Focus", "fo", false)
	assert.Equal(t, "[Fo]rd [Fo]cus", HighlightSegments(segs, true))
}
