package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// RememberTool handles the context_remember MCP tool.
type RememberTool struct {
	engine Engine
}

// NewRememberTool creates a RememberTool.
func NewRememberTool(e Engine) *RememberTool {
	return &RememberTool{engine: e}
}

// Definition returns the MCP tool definition for registration.
func (t *RememberTool) Definition() mcp.Tool {
	return mcp.NewTool("context_remember",
		mcp.WithDescription(
			"Append a knowledge record. Records are never edited: to correct one, record a newer one. "+
				"Use 'failure' for approaches that did not work, 'constraint' for rules the project must "+
				"follow, 'strategy' for approaches that worked, and 'entity' for important names and places.",
		),
		mcp.WithString("category",
			mcp.Required(),
			mcp.Description(categoryDescription),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.Description("The record text"),
		),
		mcp.WithString("task_id",
			mcp.Description("Task the record relates to"),
		),
	)
}

// Handle processes the context_remember tool call.
func (t *RememberTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, err := categoryArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body := strings.TrimSpace(req.GetString("body", ""))
	if body == "" {
		return mcp.NewToolResultError("'body' is required"), nil
	}

	rec, err := t.engine.Remember(ctx, c, body, req.GetString("task_id", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("recording failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Recorded %s %s.", rec.Category, rec.ID)), nil
}

// RecallTool handles the context_recall MCP tool.
type RecallTool struct {
	engine Engine
}

// NewRecallTool creates a RecallTool.
func NewRecallTool(e Engine) *RecallTool {
	return &RecallTool{engine: e}
}

// Definition returns the MCP tool definition for registration.
func (t *RecallTool) Definition() mcp.Tool {
	return mcp.NewTool("context_recall",
		mcp.WithDescription("List the most recent knowledge records of one category, newest first."),
		mcp.WithString("category",
			mcp.Required(),
			mcp.Description(categoryDescription),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max records (default: 10, max: 50)"),
		),
	)
}

// maxRecall caps the limit argument.
const maxRecall = 50

// Handle processes the context_recall tool call.
func (t *RecallTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, err := categoryArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := intArg(req, "limit", 10)
	if limit <= 0 {
		limit = 10
	}
	if limit > maxRecall {
		limit = maxRecall
	}

	recs, err := t.engine.Recall(ctx, c, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("recall failed: %v", err)), nil
	}
	if len(recs) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No %s records.", c)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d %s records:\n\n", len(recs), c)
	for i, r := range recs {
		task := ""
		if r.Task != "" {
			task = " | task: " + r.Task
		}
		fmt.Fprintf(&b, "[%d] %s (%s%s)\n    %s\n\n",
			i+1, r.ID, r.CreatedAt.UTC().Format("2006-01-02 15:04:05"), task,
			strings.ReplaceAll(r.Body, "\n", "\n    "),
		)
	}
	return mcp.NewToolResultText(b.String()), nil
}
