package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Tool is an MCP tool definition together with its handler.
type Tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// Register adds every tool to srv.
func Register(srv *server.MCPServer, tools ...Tool) {
	for _, tool := range tools {
		srv.AddTool(tool.Definition(), tool.Handle)
	}
}
