package search

import (
	"html"
	"strings"
)

// Segment is a run of text that either matched the term or did not.
type Segment struct {
	Text  string `json:"text"`
	Match bool   `json:"match"`
}

// Highlight splits text around every non-overlapping occurrence of term,
// keeping the original casing. Without a term or a hit the whole text is a
// single unmatched segment.
func Highlight(text, term string, caseSensitive bool) []Segment {
	var out []Segment
	pos := 0
	for pos <= len(text) {
		start, end := indexFold(text, term, pos, caseSensitive)
		if start < 0 || end == start {
			break
		}
		if start > pos {
			out = append(out, Segment{Text: text[pos:start]})
		}
		out = append(out, Segment{Text: text[start:end], Match: true})
		pos = end
	}
	if pos < len(text) || len(out) == 0 {
		out = append(out, Segment{Text: text[pos:]})
	}
	return out
}

// HighlightMarkup wraps every occurrence of term in openTag and closeTag.
func HighlightMarkup(text, term string, caseSensitive bool, openTag, closeTag string) string {
	var b strings.Builder
	for _, seg := range Highlight(text, term, caseSensitive) {
		if seg.Match {
			b.WriteString(openTag)
			b.WriteString(seg.Text)
			b.WriteString(closeTag)
			continue
		}
		b.WriteString(seg.Text)
	}
	return b.String()
}

// HighlightJSONText renders text as HTML with every occurrence of term in
// a <mark> element. All text is escaped.
func HighlightJSONText(text, term string, caseSensitive bool) string {
	var b strings.Builder
	for _, seg := range Highlight(text, term, caseSensitive) {
		if seg.Match {
			b.WriteString("<mark>")
			b.WriteString(html.EscapeString(seg.Text))
			b.WriteString("</mark>")
			continue
		}
		b.WriteString(html.EscapeString(seg.Text))
	}
	return b.String()
}
