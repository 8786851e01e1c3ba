package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/zeddy89/Context-Engine/internal/tasks"
)

// NextTool handles the context_next MCP tool.
type NextTool struct {
	engine Engine
}

// NewNextTool creates a NextTool.
func NewNextTool(e Engine) *NextTool {
	return &NextTool{engine: e}
}

// Definition returns the MCP tool definition for registration.
func (t *NextTool) Definition() mcp.Tool {
	return mcp.NewTool("context_next",
		mcp.WithDescription(
			"Reconcile the task list with the commit history and return the next task to work on. "+
				"Reports when every task is done or when the remaining work is blocked. "+
				"Call this at the start of a session, before compiling the working context.",
		),
	)
}

// Handle processes the context_next tool call.
func (t *NextTool) Handle(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, p, err := t.engine.Next(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scheduling failed: %v", err)), nil
	}

	var b strings.Builder
	switch d.Kind {
	case tasks.Ready:
		b.WriteString("## Next Task\n\n")
		writeTask(&b, d.Task)
	case tasks.Blocked:
		b.WriteString("## Blocked\n\n")
		writeBlocked(&b, d.Blocked)
	case tasks.Done:
		b.WriteString("## Done\n\nAll tasks complete.\n")
	}
	fmt.Fprintf(&b, "\n%s\n", progressLine(p))
	return mcp.NewToolResultText(b.String()), nil
}
