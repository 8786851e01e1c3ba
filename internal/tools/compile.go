package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// CompileTool handles the context_compile MCP tool.
type CompileTool struct {
	engine Engine
}

// NewCompileTool creates a CompileTool.
func NewCompileTool(e Engine) *CompileTool {
	return &CompileTool{engine: e}
}

// Definition returns the MCP tool definition for registration.
func (t *CompileTool) Definition() mcp.Tool {
	return mcp.NewTool("context_compile",
		mcp.WithDescription(
			"Compile the bounded working context for the next task: the current task, recent "+
				"constraints, failures, strategies and entities, and the reference section, fitted "+
				"into a character budget. The result replaces .agent/working-context/current.md.",
		),
		mcp.WithNumber("budget",
			mcp.Description("Character budget override. Omit to use the configured budget."),
		),
	)
}

// Handle processes the context_compile tool call.
func (t *CompileTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	budget := intArg(req, "budget", 0)
	if budget < 0 {
		return mcp.NewToolResultError("'budget' must be positive"), nil
	}

	res, err := t.engine.Compile(ctx, budget)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("compile failed: %v", err)), nil
	}

	var b strings.Builder
	b.WriteString(res.Text)
	fmt.Fprintf(&b, "\n\n---\n%d/%d chars (~%d tokens)", res.Chars, res.Budget, res.EstimatedTokens)
	if len(res.Evicted) > 0 {
		fmt.Fprintf(&b, " | evicted: %s", strings.Join(res.Evicted, ", "))
	}
	if len(res.Truncated) > 0 {
		fmt.Fprintf(&b, " | truncated: %s", strings.Join(res.Truncated, ", "))
	}
	if len(res.Degraded) > 0 {
		fmt.Fprintf(&b, " | unavailable: %s", strings.Join(res.Degraded, ", "))
	}
	b.WriteString("\n")
	return mcp.NewToolResultText(b.String()), nil
}
