package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/pathbench/pkg/value"
)

func TestToCSVEmpty(t *testing.T) {
	got, err := ToCSV([]any{}, Options{MaxDepth: 5, IncludeRowNumbers: true})
	require.NoError(t, err)
	assert.Equal(t, "#\n", got)

	got, err = ToCSV(nil, Options{MaxDepth: 5})
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestToCSVQuoting(t *testing.T) {
	got, err := ToCSV([]any{value.ObjectOf("a", 1.0, "b", "x,y")}, Options{MaxDepth: 5})
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,\"x,y\"\n", got)
}

func TestToCSVColumnsSortedAndUnioned(t *testing.T) {
	rows := []any{
		value.ObjectOf("name", "Camry", "year", 2020.0, "specs", value.ObjectOf("hp", 200.0, "fuel", "gas")),
		value.ObjectOf("name", `Civic "Si"`, "tags", []any{"a", "b"}, "owner", nil, "ok", true),
	}
	got, err := ToCSV(rows, DefaultOptions())
	require.NoError(t, err)

	want := "#,name,ok,owner,specs.fuel,specs.hp,tags,year\n" +
		"1,Camry,,,gas,200,,2020\n" +
		"2,\"Civic \"\"Si\"\"\",true,,,,\"[\"\"a\"\",\"\"b\"\"]\",\n"
	assert.Equal(t, want, got)
}

func TestFlattenDepthBound(t *testing.T) {
	row := value.ObjectOf("a", value.ObjectOf("b", value.ObjectOf("c", 1.0)))

	flat, err := Flatten(row, 5)
	require.NoError(t, err)
	v, ok := flat.Get("a.b.c")
	require.True(t, ok)
	assert.Equal(t, 1.0, v)

	flat, err = Flatten(row, 2)
	require.NoError(t, err)
	v, ok = flat.Get("a.b")
	require.True(t, ok)
	assert.Equal(t, `{"c":1}`, v)

	flat, err = Flatten(row, 0)
	require.NoError(t, err)
	v, _ = flat.Get("a")
	assert.Equal(t, `{"b":{"c":1}}`, v)
}

func TestFlattenScalarRows(t *testing.T) {
	got, err := ToCSV([]any{"x", 2.0, nil, []any{1.0}}, Options{MaxDepth: 5})
	require.NoError(t, err)
	assert.Equal(t, "value\nx\n2\n\n[1]\n", got)
}

func TestFlattenCycle(t *testing.T) {
	loop := map[string]any{"a": 1.0}
	loop["self"] = loop

	_, err := Flatten(loop, 5)
	require.ErrorIs(t, err, ErrCycle)

	_, err = ToCSV([]any{value.ObjectOf("ok", 1.0), loop}, DefaultOptions())
	require.ErrorIs(t, err, ErrCycle)
	assert.Contains(t, err.Error(), "row 2")

	_, err = ToJSON(loop)
	require.ErrorIs(t, err, ErrCycle)
}

func TestEscapeCSVField(t *testing.T) {
	tests := map[string]string{
		"plain":      "plain",
		"with space": "with space",
		"a,b":        `"a,b"`,
		`say "hi"`:   `"say ""hi"""`,
		"line\nnext": "\"line\nnext\"",
		"cr\rhere":   "\"cr\rhere\"",
		"":           "",
	}
	for in, want := range tests {
		assert.Equal(t, want, EscapeCSVField(in), in)
	}
}

func TestTable(t *testing.T) {
	header, records, err := Table([]any{value.ObjectOf("b", 1.0, "a", "x")}, Options{MaxDepth: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, header)
	assert.Equal(t, [][]string{{"x", "1"}}, records)
}

func TestToJSON(t *testing.T) {
	got, err := ToJSON(value.ObjectOf("z", 1.0, "a", []any{true}))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"z\": 1,\n  \"a\": [\n    true\n  ]\n}", got)
}

func TestRows(t *testing.T) {
	assert.Equal(t, []any{1.0, 2.0}, Rows([]any{1.0, 2.0}))
	assert.Equal(t, []any{"x"}, Rows("x"))
	assert.Equal(t, []any{}, Rows(nil))
}

func TestFilename(t *testing.T) {
	now := time.Date(2024, 3, 1, 14, 5, 9, 0, time.UTC)
	assert.Equal(t, "results-2024-03-01T14-05-09.csv", Filename("results", "csv", now))
	assert.Equal(t, "metrics-2024-03-01T14-05-09.json", Filename("metrics", ".json", now))
}

func TestToCSVIdempotent(t *testing.T) {
	rows := []any{value.ObjectOf("a", value.ObjectOf("b", 1.0))}
	first, err := ToCSV(rows, DefaultOptions())
	require.NoError(t, err)
	second, err := ToCSV(rows, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
