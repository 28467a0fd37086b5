package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
)

type AnalyzeSchemaInput struct {
	MaxDepth int `json:"maxDepth,omitempty" jsonschema:"default=5,description=Deepest level of nested fields to report"`
}

func AnalyzeSchemaSpec() mcp.Tool {
	return mcp.NewTool("analyze-schema",
		mcp.WithDescription("analyze-schema infers the field tree of the loaded dataset: names, JSONPath paths, JSON types, and array item types. An array root is described by its first element."),
		mcp.WithInputSchema[AnalyzeSchemaInput](),
		mcp.WithTitleAnnotation("Analyze Schema"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}

type FilterInput struct {
	Property        string `json:"property" jsonschema:"description=Property of the iterated item (dotted for nested fields)"`
	Operator        string `json:"operator" jsonschema:"description=One of == != < > <= >= contains regex exists"`
	Value           string `json:"value,omitempty" jsonschema:"description=Comparison value; numbers and true/false/null are emitted unquoted"`
	LogicalOperator string `json:"logicalOperator,omitempty" jsonschema:"enum=AND,enum=OR,description=How this condition joins the previous one; ignored on the first"`
}

type BuildQueryInput struct {
	RootPath     string        `json:"rootPath,omitempty" jsonschema:"default=$,description=Path the query starts from"`
	SelectedPath []string      `json:"selectedPath,omitempty" jsonschema:"description=Field names to descend into after the root"`
	Filters      []FilterInput `json:"filters,omitempty" jsonschema:"description=Filter conditions applied to each array item"`
	Slice        string        `json:"slice,omitempty" jsonschema:"description=Array slice as start:end or start:end:step"`
	Recursive    bool          `json:"recursive,omitempty" jsonschema:"description=Use recursive descent (..) before the selected path"`
}

func BuildQuerySpec() mcp.Tool {
	return mcp.NewTool("build-query",
		mcp.WithDescription("build-query turns a root path, selected fields, filter conditions and an optional slice into a JSONPath expression."),
		mcp.WithInputSchema[BuildQueryInput](),
		mcp.WithTitleAnnotation("Build Query"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}

type QueryInput struct {
	Query string `json:"query" jsonschema:"description=JSONPath expression such as $.items[?(@.price > 10)]"`
}

func ParseQuerySpec() mcp.Tool {
	return mcp.NewTool("parse-query",
		mcp.WithDescription("parse-query recovers filter conditions, slice presence and recursive descent from JSONPath text."),
		mcp.WithInputSchema[QueryInput](),
		mcp.WithTitleAnnotation("Parse Query"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}

func ValidateQuerySpec() mcp.Tool {
	return mcp.NewTool("validate-query",
		mcp.WithDescription("validate-query reports whether JSONPath text is structurally well formed: it starts with $ or @ and its brackets and parentheses balance."),
		mcp.WithInputSchema[QueryInput](),
		mcp.WithTitleAnnotation("Validate Query"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}

func DescribeQuerySpec() mcp.Tool {
	return mcp.NewTool("describe-query",
		mcp.WithDescription("describe-query explains a JSONPath expression in plain language."),
		mcp.WithInputSchema[QueryInput](),
		mcp.WithTitleAnnotation("Describe Query"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}

type RunQueryInput struct {
	Query  string `json:"query" jsonschema:"description=JSONPath expression to evaluate against the loaded dataset"`
	Limit  int    `json:"limit,omitempty" jsonschema:"description=Return at most this many results; 0 means unlimited"`
	Offset int    `json:"offset,omitempty" jsonschema:"description=Skip this many results first"`
	Tail   int    `json:"tail,omitempty" jsonschema:"description=Return only the last N results; cannot be combined with limit"`
}

func RunQuerySpec() mcp.Tool {
	return mcp.NewTool("run-query",
		mcp.WithDescription("run-query evaluates a JSONPath expression against the loaded dataset, records its execution metrics and history, and returns the results with the result count and execution time."),
		mcp.WithInputSchema[RunQueryInput](),
		mcp.WithTitleAnnotation("Run Query"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}

type SearchDataInput struct {
	Term          string `json:"term" jsonschema:"description=Substring to find in keys and scalar values"`
	CaseSensitive *bool  `json:"caseSensitive,omitempty" jsonschema:"description=Match case exactly; defaults to the configured setting"`
	MaxMatches    int    `json:"maxMatches,omitempty" jsonschema:"description=Stop after this many matches; 0 means unlimited"`
}

func SearchDataSpec() mcp.Tool {
	return mcp.NewTool("search-data",
		mcp.WithDescription("search-data walks the loaded dataset in document order and returns every key or scalar value containing the term, with its path."),
		mcp.WithInputSchema[SearchDataInput](),
		mcp.WithTitleAnnotation("Search Data"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}
