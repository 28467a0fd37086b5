package query

import (
	"regexp"
	"strings"
)

var (
	slicePattern     = regexp.MustCompile(`\[\d*:\d*(:\d+)?\]`)
	filterPattern    = regexp.MustCompile(`\[\?\((.*?)\)\]`)
	logicalSeparator = regexp.MustCompile(`\s*(&&|\|\|)\s*`)
	clausePattern    = regexp.MustCompile(`^@\.(\w+)\s*(==|!=|<=|>=|<|>|=~)\s*(.+)$`)
	regexLiteral     = regexp.MustCompile(`^/(.*)/([a-z]*)$`)
	numericSlice     = regexp.MustCompile(`\[\d+:\d+\]`)
)

// Parse recovers what it can from query text. Only the first filter block
// is read, and clauses that are not of the form @.name op value are
// dropped without error.
func Parse(text string) ParseResult {
	res := ParseResult{
		RootPath:         DefaultRootPath,
		Filters:          []FilterCondition{},
		HasArraySlice:    slicePattern.MatchString(text),
		RecursiveDescent: strings.Contains(text, ".."),
	}

	m := filterPattern.FindStringSubmatch(text)
	if m == nil {
		return res
	}
	body := m[1]

	seps := logicalSeparator.FindAllStringSubmatchIndex(body, -1)
	start := 0
	var pending LogicalOperator
	for i := 0; i <= len(seps); i++ {
		end := len(body)
		var next LogicalOperator
		if i < len(seps) {
			end = seps[i][0]
			next = And
			if body[seps[i][2]:seps[i][3]] == "||" {
				next = Or
			}
		}
		if c, ok := parseClause(strings.TrimSpace(body[start:end])); ok {
			if len(res.Filters) > 0 {
				c.LogicalOperator = pending
			}
			res.Filters = append(res.Filters, c)
		}
		if i < len(seps) {
			start = seps[i][1]
			pending = next
		}
	}
	res.Filters = Restitch(res.Filters)
	return res
}

func parseClause(clause string) (FilterCondition, bool) {
	m := clausePattern.FindStringSubmatch(clause)
	if m == nil {
		return FilterCondition{}, false
	}
	op := Operator(m[2])
	raw := strings.TrimSpace(m[3])
	val := stripQuotes(raw)
	if op == "=~" {
		op = OpRegex
		if lit := regexLiteral.FindStringSubmatch(raw); lit != nil {
			val = lit[1]
			if strings.Contains(lit[2], "i") {
				op = OpContains
			}
		}
	}
	return FilterCondition{ID: NewID(), Property: m[1], Operator: op, Value: val}, true
}

func stripQuotes(s string) string {
	s = strings.TrimLeft(s, `'"`)
	return strings.TrimRight(s, `'"`)
}

// IsValid is a structural check: the text starts with $ or @ and its
// brackets and parentheses never close more than they open and end
// balanced. Quoted text is not special.
func IsValid(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	if text[0] != '$' && text[0] != '@' {
		return false
	}
	depth := 0
	for _, r := range text {
		switch r {
		case '[', '(':
			depth++
		case ']', ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

// Describe gives a short plain-language summary of what the query selects.
func Describe(text string) string {
	if strings.TrimSpace(text) == "$" {
		return "Root object"
	}
	var parts []string
	if strings.Contains(text, "..") {
		parts = append(parts, "Recursive search")
	}
	if strings.Contains(text, "[*]") {
		parts = append(parts, "All array elements")
	}
	if numericSlice.MatchString(text) {
		parts = append(parts, "Array slice")
	}
	if strings.Contains(text, "[?(") {
		parts = append(parts, "Filtered results")
	}
	if len(parts) == 0 {
		return "Property selection"
	}
	return strings.Join(parts, ", ")
}
