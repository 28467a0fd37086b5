package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/oakwood-commons/pathbench/internal/limiter"
	"github.com/oakwood-commons/pathbench/internal/query"
	"github.com/oakwood-commons/pathbench/internal/schema"
	"github.com/oakwood-commons/pathbench/internal/search"
	"github.com/oakwood-commons/pathbench/pkg/logger"
	"github.com/oakwood-commons/pathbench/pkg/value"
)

const errNoDataset = "no dataset loaded; start the server with a data file"

// jsonResult encodes v as indented JSON, keeping object key order.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := value.MarshalIndent(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func bind[T any](request mcp.CallToolRequest) (T, *mcp.CallToolResult) {
	var args T
	if err := request.BindArguments(&args); err != nil {
		return args, mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err))
	}
	return args, nil
}

func AnalyzeSchemaHandler(deps *Dependencies) server.ToolHandlerFunc {
	return func(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if deps.Data == nil {
			return mcp.NewToolResultError(errNoDataset), nil
		}
		args, errResult := bind[AnalyzeSchemaInput](request)
		if errResult != nil {
			return errResult, nil
		}
		depth := args.MaxDepth
		if depth <= 0 {
			depth = deps.SchemaMaxDepth
		}
		return jsonResult(schema.Analyze(deps.Data, depth))
	}
}

func BuildQueryHandler(_ *Dependencies) server.ToolHandlerFunc {
	return func(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, errResult := bind[BuildQueryInput](request)
		if errResult != nil {
			return errResult, nil
		}
		var filters []query.FilterCondition
		for _, f := range args.Filters {
			op := query.Operator(f.Operator)
			if !op.Valid() {
				return mcp.NewToolResultError(fmt.Sprintf("unknown operator %q", f.Operator)), nil
			}
			c := query.NewCondition(f.Property, op, f.Value)
			c.LogicalOperator = query.LogicalOperator(f.LogicalOperator)
			filters = query.AddFilter(filters, c)
		}
		var slice *query.ArraySlice
		if args.Slice != "" {
			s, err := query.ParseSlice(args.Slice)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			slice = s
		}
		q := query.Build(args.RootPath, args.SelectedPath, filters, slice, args.Recursive)
		return jsonResult(value.ObjectOf("query", q, "valid", query.IsValid(q)))
	}
}

func ParseQueryHandler(_ *Dependencies) server.ToolHandlerFunc {
	return func(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, errResult := bind[QueryInput](request)
		if errResult != nil {
			return errResult, nil
		}
		return jsonResult(query.Parse(args.Query))
	}
}

func ValidateQueryHandler(_ *Dependencies) server.ToolHandlerFunc {
	return func(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, errResult := bind[QueryInput](request)
		if errResult != nil {
			return errResult, nil
		}
		return jsonResult(map[string]bool{"valid": query.IsValid(args.Query)})
	}
}

func DescribeQueryHandler(_ *Dependencies) server.ToolHandlerFunc {
	return func(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, errResult := bind[QueryInput](request)
		if errResult != nil {
			return errResult, nil
		}
		return mcp.NewToolResultText(query.Describe(args.Query)), nil
	}
}

func RunQueryHandler(deps *Dependencies) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if deps.Workbench == nil {
			return mcp.NewToolResultError("workbench is not initialized"), nil
		}
		if deps.Data == nil {
			return mcp.NewToolResultError(errNoDataset), nil
		}
		args, errResult := bind[RunQueryInput](request)
		if errResult != nil {
			return errResult, nil
		}
		window := limiter.Config{Limit: args.Limit, Offset: args.Offset, Tail: args.Tail}
		if err := window.Validate(); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		ctx = logger.WithLogger(ctx, &deps.Logger)
		exec, err := deps.Workbench.Execute(ctx, args.Query, deps.Data)
		if err != nil {
			deps.Logger.V(1).Info("run-query failed", logger.QueryKey, args.Query, "error", err.Error())
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(value.ObjectOf(
			"query", args.Query,
			"resultCount", exec.ResultCount,
			"executionTime", exec.Metric.ExecutionTime,
			"result", window.Apply(exec.Result),
		))
	}
}

type searchMatch struct {
	Path    string `json:"path"`
	Value   any    `json:"value"`
	Matched string `json:"matched"`
	// Highlighted is Matched with every occurrence of the term in **bold**.
	Highlighted string `json:"highlighted"`
}

func SearchDataHandler(deps *Dependencies) server.ToolHandlerFunc {
	return func(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if deps.Data == nil {
			return mcp.NewToolResultError(errNoDataset), nil
		}
		args, errResult := bind[SearchDataInput](request)
		if errResult != nil {
			return errResult, nil
		}
		if args.Term == "" {
			return mcp.NewToolResultError("term is required"), nil
		}
		opts := search.Options{CaseSensitive: deps.CaseSensitive, MaxMatches: args.MaxMatches}
		if args.CaseSensitive != nil {
			opts.CaseSensitive = *args.CaseSensitive
		}
		matches := search.Search(deps.Data, args.Term, opts)
		out := make([]searchMatch, len(matches))
		for i, m := range matches {
			out[i] = searchMatch{
				Path:        m.PathString(),
				Value:       m.Value,
				Matched:     m.Matched,
				Highlighted: search.HighlightMarkup(m.Matched, args.Term, opts.CaseSensitive, "**", "**"),
			}
		}
		return jsonResult(value.ObjectOf("term", args.Term, "count", len(out), "matches", out))
	}
}
