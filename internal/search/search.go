// Package search finds substring matches in keys and leaf values of JSON
// data and marks them up for display.
package search

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/oakwood-commons/pathbench/pkg/value"
)

// Options tunes a search.
type Options struct {
	CaseSensitive bool
	// MaxMatches stops the walk once this many matches are found. Zero means no limit.
	MaxMatches int
}

// Match is one hit. Path holds object keys as-is and array indices as [i].
// For a key hit, Value is the entry's value and Matched is taken from the key.
type Match struct {
	Path    []string `json:"path"`
	Value   any      `json:"value"`
	Matched string   `json:"matched"`
}

// PathString joins the path as a.b[0].c.
func (m Match) PathString() string {
	var b strings.Builder
	for _, p := range m.Path {
		if strings.HasPrefix(p, "[") || b.Len() == 0 {
			b.WriteString(p)
			continue
		}
		b.WriteByte('.')
		b.WriteString(p)
	}
	return b.String()
}

// Search walks v depth-first and returns every key and leaf that contains
// term. Arrays are visited in index order and objects in key order, testing
// each key before its value. A container already on the current path is
// not entered again, so cyclic data terminates.
func Search(v any, term string, opts Options) []Match {
	if term == "" {
		return []Match{}
	}
	s := &searcher{
		term:   term,
		opts:   opts,
		onPath: map[value.Ref]bool{},
	}
	s.walk(v, nil)
	if s.matches == nil {
		return []Match{}
	}
	return s.matches
}

type searcher struct {
	term    string
	opts    Options
	onPath  map[value.Ref]bool
	matches []Match
}

func (s *searcher) full() bool {
	return s.opts.MaxMatches > 0 && len(s.matches) >= s.opts.MaxMatches
}

func (s *searcher) add(path []string, v any, matched string) {
	p := make([]string, len(path))
	copy(p, path)
	s.matches = append(s.matches, Match{Path: p, Value: v, Matched: matched})
}

func (s *searcher) walk(v any, path []string) {
	if s.full() {
		return
	}
	if ref, ok := value.Identity(v); ok {
		if s.onPath[ref] {
			return
		}
		s.onPath[ref] = true
		defer delete(s.onPath, ref)
	}

	if entries, ok := value.Entries(v); ok {
		for _, e := range entries {
			if s.full() {
				return
			}
			child := append(path, e.Key) //nolint:gocritic // copied in add
			if m, ok := find(e.Key, s.term, s.opts.CaseSensitive); ok {
				s.add(child, e.Value, m)
			}
			s.walk(e.Value, child)
		}
		return
	}
	if items, ok := value.Elements(v); ok {
		for i, item := range items {
			if s.full() {
				return
			}
			s.walk(item, append(path, "["+strconv.Itoa(i)+"]"))
		}
		return
	}
	if m, ok := find(value.String(v), s.term, s.opts.CaseSensitive); ok {
		s.add(path, v, m)
	}
}

// Contains reports whether any key or leaf in v contains term.
func Contains(v any, term string, caseSensitive bool) bool {
	return len(Search(v, term, Options{CaseSensitive: caseSensitive, MaxMatches: 1})) > 0
}

// FilterResults keeps the elements with at least one match anywhere in
// their subtree. An empty term returns results unchanged.
func FilterResults(results []any, term string, caseSensitive bool) []any {
	if term == "" {
		return results
	}
	out := make([]any, 0, len(results))
	for _, r := range results {
		if Contains(r, term, caseSensitive) {
			out = append(out, r)
		}
	}
	return out
}

// find returns the first occurrence of term in s, in the original casing of s.
func find(s, term string, caseSensitive bool) (string, bool) {
	start, end := indexFold(s, term, 0, caseSensitive)
	if start < 0 {
		return "", false
	}
	return s[start:end], true
}

// indexFold finds term in s at or after byte offset from. Case folding is
// done rune by rune so offsets always point into s itself.
func indexFold(s, term string, from int, caseSensitive bool) (int, int) {
	if term == "" {
		return -1, -1
	}
	if caseSensitive {
		i := strings.Index(s[from:], term)
		if i < 0 {
			return -1, -1
		}
		return from + i, from + i + len(term)
	}
	for i := from; i < len(s); {
		if end, ok := prefixFold(s[i:], term); ok {
			return i, i + end
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return -1, -1
}

// prefixFold reports whether s starts with term ignoring case and returns
// the byte length of the matching prefix of s.
func prefixFold(s, term string) (int, bool) {
	si := 0
	for _, tr := range term {
		if si >= len(s) {
			return 0, false
		}
		sr, size := utf8.DecodeRuneInString(s[si:])
		if unicode.ToLower(sr) != unicode.ToLower(tr) {
			return 0, false
		}
		si += size
	}
	return si, true
}
