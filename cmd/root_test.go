package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const storeJSON = `{
  "store": {
    "book": [
      {"category": "reference", "author": "Nigel Rees", "title": "Sayings of the Century", "price": 8.95},
      {"category": "fiction", "author": "J. R. R. Tolkien", "title": "The Lord of the Rings", "price": 22.99}
    ],
    "bicycle": {"color": "red", "price": 19.95}
  }
}`

// isolate points config and workspace lookups at fresh temp directories and
// returns the path of a sample document.
func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte(storeJSON), 0o600))
	return path
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execCLI(t, "", args...)
	require.NoError(t, err, out)
	return out
}

func TestVersion(t *testing.T) {
	isolate(t)
	out := runCLI(t, "version")
	assert.True(t, strings.HasPrefix(out, "pathbench "), out)
}

func TestRunSettingsFollowFlags(t *testing.T) {
	isolate(t)
	runCLI(t, "version", "-o", "json", "--quiet", "--no-color", "--width", "40")

	run := runSettings()
	assert.Equal(t, "json", run.Output)
	assert.True(t, run.IsQuiet)
	assert.True(t, run.NoColor)
	assert.Equal(t, 40, outputWidth())
	assert.True(t, colorDisabled())

	runCLI(t, "version")
	assert.Equal(t, "table", runSettings().Output)
	assert.False(t, runSettings().IsQuiet)
}

func TestSchemaOutputs(t *testing.T) {
	file := isolate(t)

	out := runCLI(t, "schema", file, "--no-color")
	assert.Contains(t, out, "$.store.book")
	assert.Contains(t, out, "array<object>")
	assert.Contains(t, out, "$.store.book[*].price")

	out = runCLI(t, "schema", file, "-o", "json", "--max-depth", "2")
	var got struct {
		Fields []struct {
			Name     string `json:"name"`
			Children []struct {
				Path string `json:"path"`
			} `json:"children"`
		} `json:"fields"`
		Depth int `json:"depth"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Fields, 1)
	assert.Equal(t, "store", got.Fields[0].Name)
	require.Len(t, got.Fields[0].Children, 2)
	assert.Equal(t, "$.store.book", got.Fields[0].Children[0].Path)
	assert.Equal(t, 2, got.Depth)

	out = runCLI(t, "schema", file, "-o", "tree")
	assert.True(t, strings.HasPrefix(out, "$"), out)
	assert.Contains(t, out, "book (array<object>)")

	out = runCLI(t, "schema", file, "-o", "mermaid", "--mermaid-direction", "LR")
	assert.True(t, strings.HasPrefix(out, "graph LR"), out)

	out = runCLI(t, "schema", file, "-o", "raw", "--max-depth", "2")
	assert.Equal(t, "$.store\n$.store.book\n$.store.bicycle\n", out)

	_, err := execCLI(t, "", "schema", file, "--max-depth", "0")
	require.Error(t, err)
}

func TestBuild(t *testing.T) {
	isolate(t)
	out := runCLI(t, "build", "--select", "store,book", "--slice", "*",
		"--filter", "price < 10", "--filter", "or:title contains Lord")
	assert.Equal(t, "$.store.book[*][?(@.price < 10 || @.title =~ /Lord/i)]\n", out)

	out = runCLI(t, "build", "--select", "author", "--recursive", "-o", "json")
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "$..author", got["query"])
	assert.Equal(t, true, got["valid"])
	assert.Equal(t, "Recursive search", got["description"])

	_, err := execCLI(t, "", "build", "--filter", "price")
	require.Error(t, err)
	_, err = execCLI(t, "", "build", "--slice", "1:2:3:4")
	require.Error(t, err)
}

func TestParseFilterFlag(t *testing.T) {
	tests := []struct {
		raw      string
		property string
		operator string
		value    string
		logical  string
	}{
		{"price < 10", "price", "<", "10", "AND"},
		{"price<=10", "price", "<=", "10", "AND"},
		{"or:make == 'Ford'", "make", "==", "Ford", "OR"},
		{"AND:a.b != x", "a.b", "!=", "x", "AND"},
		{"title contains sea", "title", "contains", "sea", "AND"},
		{"isbn regex ^0-", "isbn", "regex", "^0-", "AND"},
		{"isbn exists", "isbn", "exists", "", "AND"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			c, err := parseFilterFlag(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.property, c.Property)
			assert.Equal(t, tt.operator, string(c.Operator))
			assert.Equal(t, tt.value, c.Value)
			assert.Equal(t, tt.logical, string(c.LogicalOperator))
			assert.NotEmpty(t, c.ID)
		})
	}

	for _, raw := range []string{"", "price", "< 10"} {
		_, err := parseFilterFlag(raw)
		assert.Error(t, err, raw)
	}
}

func TestParseValidateDescribe(t *testing.T) {
	isolate(t)

	out := runCLI(t, "parse", "$..book[?(@.price < 10 && @.title =~ /sea/i)]", "-o", "json")
	var parsed struct {
		Filters []struct {
			Property string `json:"property"`
			Operator string `json:"operator"`
		} `json:"filters"`
		RecursiveDescent bool `json:"recursiveDescent"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	require.Len(t, parsed.Filters, 2)
	assert.Equal(t, "contains", parsed.Filters[1].Operator)
	assert.True(t, parsed.RecursiveDescent)

	out = runCLI(t, "parse", "$.a", "--no-color")
	assert.Contains(t, out, "filters:    none")

	assert.Equal(t, "valid\n", runCLI(t, "validate", "$.a[0]"))
	_, err := execCLI(t, "", "validate", "$.a[0")
	require.Error(t, err)
	assert.JSONEq(t, `{"valid":false}`, runCLI(t, "validate", "$.a[0", "-o", "json"))

	assert.Equal(t, "Recursive search\n", runCLI(t, "describe", "$..price"))
}

func TestRunRecordsHistoryAndMetrics(t *testing.T) {
	file := isolate(t)

	out := runCLI(t, "run", file, "-q", "$.store.book[*].title", "-o", "json")
	var titles []string
	require.NoError(t, json.Unmarshal([]byte(out), &titles))
	assert.Equal(t, []string{"Sayings of the Century", "The Lord of the Rings"}, titles)

	out = runCLI(t, "run", file, "-q", "$.store.book[*].title", "-o", "json", "--tail", "1")
	require.NoError(t, json.Unmarshal([]byte(out), &titles))
	assert.Equal(t, []string{"The Lord of the Rings"}, titles)

	out = runCLI(t, "history", "-o", "json")
	var items []struct {
		Query       string `json:"query"`
		ResultCount int    `json:"resultCount"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 1, "repeated query collapses into one history entry")
	assert.Equal(t, "$.store.book[*].title", items[0].Query)
	assert.Equal(t, 2, items[0].ResultCount)

	out = runCLI(t, "stats", "-o", "json")
	var report struct {
		Stats struct {
			Count int `json:"count"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.Stats.Count)

	out = runCLI(t, "stats", "--no-color")
	assert.Contains(t, out, "queries")
	assert.Contains(t, out, "SLOWEST QUERY")

	out = runCLI(t, "stats", "report")
	assert.Contains(t, out, "# Query performance report")
	out = runCLI(t, "stats", "export", "--format", "csv")
	assert.Contains(t, out, "$.store.book[*].title")

	assert.Equal(t, "metrics cleared\n", runCLI(t, "stats", "clear"))
	assert.Equal(t, "no queries recorded yet\n", runCLI(t, "stats"))

	assert.Equal(t, "history cleared\n", runCLI(t, "history", "clear"))
	assert.Equal(t, "no history yet\n", runCLI(t, "history"))
}

func TestRunWhereAndStdin(t *testing.T) {
	isolate(t)

	out, err := execCLI(t, storeJSON, "run", "-", "-q", "$.store.book[*]", "--where", "_.price < 10", "-o", "json")
	require.NoError(t, err, out)
	var books []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &books))
	require.Len(t, books, 1)
	assert.Equal(t, "Nigel Rees", books[0]["author"])

	_, err = execCLI(t, storeJSON, "run", "-", "-q", "$.store.bicycle", "--where", "_.price < 10")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--where needs an array result")
}

func TestRunErrors(t *testing.T) {
	file := isolate(t)

	_, err := execCLI(t, "", "run", file, "-q", "$.store", "--limit", "1", "--tail", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")

	_, err = execCLI(t, "", "run", file, "-q", "$.store[?(@.x <")
	require.Error(t, err)

	_, err = execCLI(t, "", "run", filepath.Join(t.TempDir(), "missing.json"), "-q", "$")
	require.Error(t, err)

	_, err = execCLI(t, "", "run", file)
	require.Error(t, err, "query flag is required")

	assert.Equal(t, "no history yet\n", runCLI(t, "history"))
}

func TestSearch(t *testing.T) {
	file := isolate(t)

	out := runCLI(t, "search", file, "tolkien")
	assert.Equal(t, "store.book[1].author  J. R. R. [Tolkien]\n", out)

	out = runCLI(t, "search", file, "tolkien", "--case-sensitive")
	assert.Empty(t, out)

	out = runCLI(t, "search", file, "price", "-o", "json", "--limit", "2")
	var matches []struct {
		Path string `json:"path"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &matches))
	require.Len(t, matches, 2)
	assert.Equal(t, "store.book[0].price", matches[0].Path)
}

func TestExport(t *testing.T) {
	file := isolate(t)

	out := runCLI(t, "export", file, "-q", "$.store.book[*]", "--no-row-numbers")
	assert.Equal(t, "author,category,price,title\n"+
		"Nigel Rees,reference,8.95,Sayings of the Century\n"+
		"J. R. R. Tolkien,fiction,22.99,The Lord of the Rings\n", out)

	out = runCLI(t, "export", file, "-q", "$.store.bicycle", "--format", "json")
	assert.Equal(t, "{\n  \"color\": \"red\",\n  \"price\": 19.95\n}\n", out)

	dir := t.TempDir()
	out = runCLI(t, "export", file, "--out-dir", dir, "--prefix", "books")
	path := strings.TrimSpace(out)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "books-"))
	assert.Equal(t, ".csv", filepath.Ext(path))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "#,"), string(content))

	_, err = execCLI(t, "", "export", file, "--format", "xml")
	require.Error(t, err)

	items := runCLI(t, "history", "-o", "json")
	assert.Contains(t, items, "$.store.bicycle")
}

func TestFavorites(t *testing.T) {
	isolate(t)

	assert.Equal(t, "no favorites yet\n", runCLI(t, "favorites"))

	id := strings.TrimSpace(runCLI(t, "favorites", "add", "$..author", "--name", "authors"))
	require.NotEmpty(t, id)

	out := runCLI(t, "favorites", "add", "$..author")
	assert.Equal(t, "already saved as "+id+"\n", out)

	out = runCLI(t, "favorites", "list", "-o", "json")
	var favs []struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Query string `json:"query"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &favs))
	require.Len(t, favs, 1)
	assert.Equal(t, "authors", favs[0].Name)

	assert.Equal(t, "removed\n", runCLI(t, "favorites", "rm", id))
	_, err := execCLI(t, "", "favorites", "remove", id)
	require.Error(t, err)
}

func TestStoreDrivers(t *testing.T) {
	file := isolate(t)
	dir := t.TempDir()

	runCLI(t, "run", file, "-q", "$..price", "--store-driver", "duckdb", "--store-path", dir, "-o", "json")
	_, err := os.Stat(filepath.Join(dir, "pathbench.duckdb"))
	require.NoError(t, err)
	out := runCLI(t, "history", "-o", "json", "--store-driver", "duckdb", "--store-path", dir)
	assert.Contains(t, out, "$..price")

	runCLI(t, "run", file, "-q", "$..author", "--store-driver", "memory", "-o", "json")
	assert.Equal(t, "no history yet\n", runCLI(t, "history", "--store-driver", "memory"))

	_, err = execCLI(t, "", "history", "--store-driver", "bogus")
	require.Error(t, err)
}
