package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/pathbench/pkg/value"
)

func garage() *value.Object {
	return value.ObjectOf(
		"owner", "Jane Toyoda",
		"cars", []any{
			value.ObjectOf("brand", "Toyota", "model", "Camry", "year", 2020.0),
			value.ObjectOf("brand", "Honda", "model", "Civic", "notes", nil),
		},
		"toyotaClub", true,
	)
}

func paths(matches []Match) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.PathString()
	}
	return out
}

func TestSearchOrderAndPaths(t *testing.T) {
	matches := Search(garage(), "toyo", Options{})

	assert.Equal(t, []string{"owner", "cars[0].brand", "toyotaClub"}, paths(matches))
	assert.Equal(t, "Toyo", matches[0].Matched)
	assert.Equal(t, "Jane Toyoda", matches[0].Value)
	assert.Equal(t, []string{"cars", "[0]", "brand"}, matches[1].Path)

	// key hit carries the value, matched text comes from the key
	assert.Equal(t, true, matches[2].Value)
	assert.Equal(t, "toyo", matches[2].Matched)
}

func TestSearchCaseSensitive(t *testing.T) {
	matches := Search(garage(), "toyo", Options{CaseSensitive: true})
	assert.Equal(t, []string{"toyotaClub"}, paths(matches))

	matches = Search(garage(), "Toyo", Options{CaseSensitive: true})
	assert.Equal(t, []string{"owner", "cars[0].brand"}, paths(matches))
}

func TestSearchScalars(t *testing.T) {
	matches := Search(garage(), "null", Options{})
	require.Len(t, matches, 1)
	assert.Equal(t, "cars[1].notes", matches[0].PathString())
	assert.Nil(t, matches[0].Value)

	matches = Search(garage(), "202", Options{})
	require.Len(t, matches, 1)
	assert.Equal(t, 2020.0, matches[0].Value)
	assert.Equal(t, "202", matches[0].Matched)

	matches = Search("plain", "LAI", Options{})
	require.Len(t, matches, 1)
	assert.Empty(t, matches[0].Path)
	assert.Equal(t, "", matches[0].PathString())
}

func TestSearchEmptyTerm(t *testing.T) {
	assert.Empty(t, Search(garage(), "", Options{}))
}

func TestSearchMaxMatches(t *testing.T) {
	matches := Search(garage(), "o", Options{MaxMatches: 2})
	assert.Len(t, matches, 2)
}

func TestSearchCircularReferenceTerminates(t *testing.T) {
	loop := map[string]any{"name": "loop"}
	loop["self"] = loop
	list := []any{"item"}
	list = append(list, nil)
	list[1] = list

	matches := Search(loop, "loop", Options{})
	assert.NotEmpty(t, matches)

	matches = Search(list, "item", Options{})
	assert.Len(t, matches, 1)
}

func TestSearchSharedSubtreeVisitedTwice(t *testing.T) {
	shared := value.ObjectOf("v", "hit")
	data := value.ObjectOf("a", shared, "b", shared)
	assert.Equal(t, []string{"a.v", "b.v"}, paths(Search(data, "hit", Options{})))
}

func TestSearchIdempotent(t *testing.T) {
	data := garage()
	assert.Equal(t, Search(data, "o", Options{}), Search(data, "o", Options{}))
}

func TestSearchUnicodeKeepsOriginalCase(t *testing.T) {
	matches := Search(value.ObjectOf("city", "İstanbul ÅRHUS"), "århus", Options{})
	require.Len(t, matches, 1)
	assert.Equal(t, "ÅRHUS", matches[0].Matched)
}

func TestFilterResults(t *testing.T) {
	results := []any{
		value.ObjectOf("name", "Toyota Camry"),
		value.ObjectOf("name", "Honda"),
	}
	got := FilterResults(results, "Toyota", false)
	require.Len(t, got, 1)
	assert.Same(t, results[0], got[0])

	assert.Equal(t, results, FilterResults(results, "", false))
	assert.Empty(t, FilterResults(results, "toyota", true))
	assert.Len(t, FilterResults(results, "name", false), 2)
}

func TestHighlight(t *testing.T) {
	assert.Equal(t, []Segment{
		{Text: "Toyota", Match: true},
		{Text: " and "},
		{Text: "TOYOTA", Match: true},
		{Text: "!"},
	}, Highlight("Toyota and TOYOTA!", "toyota", false))

	assert.Equal(t, []Segment{{Text: "aaa", Match: true}, {Text: "a"}}, Highlight("aaaa", "aaa", false)[:2])
	assert.Equal(t, []Segment{{Text: "abc"}}, Highlight("abc", "", false))
	assert.Equal(t, []Segment{{Text: "abc"}}, Highlight("abc", "x", false))
	assert.Equal(t, []Segment{{Text: "Abc"}}, Highlight("Abc", "a", true))
}

func TestHighlightMarkup(t *testing.T) {
	assert.Equal(t, "[Ca]mry [ca]r", HighlightMarkup("Camry car", "ca", false, "[", "]"))
}

func TestHighlightJSONText(t *testing.T) {
	got := HighlightJSONText(`{"name":"<Toyota>"}`, "toyota", false)
	assert.Equal(t, `{&#34;name&#34;:&#34;&lt;<mark>Toyota</mark>&gt;&#34;}`, got)
}
