package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// CompleteTool handles the task_complete MCP tool.
type CompleteTool struct {
	engine Engine
}

// NewCompleteTool creates a CompleteTool.
func NewCompleteTool(e Engine) *CompleteTool {
	return &CompleteTool{engine: e}
}

// Definition returns the MCP tool definition for registration.
func (t *CompleteTool) Definition() mcp.Tool {
	return mcp.NewTool("task_complete",
		mcp.WithDescription(
			"Mark a task as passing. Only call this after the task's tests pass. "+
				"A commit whose message contains the completion marker and the task id has the same effect.",
		),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("Id of the task to complete"),
		),
	)
}

// Handle processes the task_complete tool call.
func (t *CompleteTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(req.GetString("task_id", ""))
	if id == "" {
		return mcp.NewToolResultError("'task_id' is required"), nil
	}
	if err := t.engine.Complete(id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("completing %s failed: %v", id, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Task %s marked complete.", id)), nil
}

// BlockTool handles the task_block MCP tool.
type BlockTool struct {
	engine Engine
}

// NewBlockTool creates a BlockTool.
func NewBlockTool(e Engine) *BlockTool {
	return &BlockTool{engine: e}
}

// Definition returns the MCP tool definition for registration.
func (t *BlockTool) Definition() mcp.Tool {
	return mcp.NewTool("task_block",
		mcp.WithDescription(
			"Flag a task as blocked so the scheduler skips it. Use after repeated failed attempts, "+
				"and record what failed with context_remember first.",
		),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("Id of the task to block"),
		),
		mcp.WithString("reason",
			mcp.Required(),
			mcp.Description("Why the task cannot proceed"),
		),
	)
}

// Handle processes the task_block tool call.
func (t *BlockTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(req.GetString("task_id", ""))
	if id == "" {
		return mcp.NewToolResultError("'task_id' is required"), nil
	}
	reason := strings.TrimSpace(req.GetString("reason", ""))
	if reason == "" {
		return mcp.NewToolResultError("'reason' is required"), nil
	}
	if err := t.engine.Block(id, reason); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("blocking %s failed: %v", id, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Task %s blocked: %s", id, reason)), nil
}
