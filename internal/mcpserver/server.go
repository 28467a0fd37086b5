// Package mcpserver exposes the workbench operations as MCP tools over stdio.
package mcpserver

import (
	"context"
	"io"

	"github.com/go-logr/logr"
	"github.com/mark3labs/mcp-go/server"

	"github.com/oakwood-commons/pathbench/pkg/core"
	"github.com/oakwood-commons/pathbench/pkg/settings"
)

// Name is the server name reported during the MCP handshake.
const Name = "pathbench"

// Dependencies is what the tool handlers need.
type Dependencies struct {
	Workbench      *core.Workbench
	Data           any
	SchemaMaxDepth int
	CaseSensitive  bool
	Logger         logr.Logger
}

// PathbenchMCPServer wraps an MCP server with every workbench tool registered.
type PathbenchMCPServer struct {
	MCPServer *server.MCPServer
	deps      *Dependencies
}

// New builds the server and registers the tools.
func New(deps *Dependencies) *PathbenchMCPServer {
	if deps.SchemaMaxDepth <= 0 {
		deps.SchemaMaxDepth = 5
	}
	if deps.Logger.GetSink() == nil {
		deps.Logger = logr.Discard()
	}
	s := &PathbenchMCPServer{
		MCPServer: server.NewMCPServer(
			Name,
			settings.VersionInformation.BuildVersion,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
		deps: deps,
	}
	s.MCPServer.AddTools(Tools(deps)...)
	return s
}

// Serve speaks MCP over the given streams until ctx is cancelled or in is closed.
func (s *PathbenchMCPServer) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.deps.Logger.Info("mcp server listening on stdio", "tools", len(Tools(s.deps)))
	return server.NewStdioServer(s.MCPServer).Listen(ctx, in, out)
}

// Tools returns every tool definition bound to deps.
func Tools(deps *Dependencies) []server.ServerTool {
	return []server.ServerTool{
		{Tool: AnalyzeSchemaSpec(), Handler: AnalyzeSchemaHandler(deps)},
		{Tool: BuildQuerySpec(), Handler: BuildQueryHandler(deps)},
		{Tool: ParseQuerySpec(), Handler: ParseQueryHandler(deps)},
		{Tool: ValidateQuerySpec(), Handler: ValidateQueryHandler(deps)},
		{Tool: DescribeQuerySpec(), Handler: DescribeQueryHandler(deps)},
		{Tool: RunQuerySpec(), Handler: RunQueryHandler(deps)},
		{Tool: SearchDataSpec(), Handler: SearchDataHandler(deps)},
	}
}
