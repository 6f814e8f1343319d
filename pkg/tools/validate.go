package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// ValidateTool answers the host's ownership check with the configured number.
type ValidateTool struct {
	number string
}

func NewValidateTool(number string) *ValidateTool {
	return &ValidateTool{number: number}
}

func (vt *ValidateTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"validate",
		mcp.WithDescription("Returns the phone number of the server owner so the host can verify it."),
	)
}

func (vt *ValidateTool) Handle(
	ctx context.Context, req mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(vt.number), nil
}
