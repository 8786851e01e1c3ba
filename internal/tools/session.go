package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/zeddy89/Context-Engine/internal/knowledge"
	"github.com/zeddy89/Context-Engine/internal/tasks"
)

// SnapshotTool handles the context_snapshot MCP tool.
type SnapshotTool struct {
	engine Engine
}

// NewSnapshotTool creates a SnapshotTool.
func NewSnapshotTool(e Engine) *SnapshotTool {
	return &SnapshotTool{engine: e}
}

// Definition returns the MCP tool definition for registration.
func (t *SnapshotTool) Definition() mcp.Tool {
	return mcp.NewTool("context_snapshot",
		mcp.WithDescription(
			"Store a copy of the last compiled working context under .agent/snapshots. "+
				"Call this before ending a session or before anything that discards the working context.",
		),
	)
}

// Handle processes the context_snapshot tool call.
func (t *SnapshotTool) Handle(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := t.engine.Snapshot(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("snapshot failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Snapshot %s written.", id)), nil
}

// StatusTool handles the context_status MCP tool.
type StatusTool struct {
	engine Engine
}

// NewStatusTool creates a StatusTool.
func NewStatusTool(e Engine) *StatusTool {
	return &StatusTool{engine: e}
}

// Definition returns the MCP tool definition for registration.
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("context_status",
		mcp.WithDescription(
			"Show project progress, the scheduling decision, knowledge record counts and "+
				"snapshots, without compiling.",
		),
	)
}

// Handle processes the context_status tool call.
func (t *StatusTool) Handle(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := t.engine.Status(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("status failed: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Status: %s\n\n%s\n\n", st.Project, progressLine(st.Progress))

	b.WriteString("## Schedule\n\n")
	switch {
	case st.ScheduleError != "":
		fmt.Fprintf(&b, "Error: %s\n", st.ScheduleError)
	case st.Decision.Kind == tasks.Ready && st.Decision.Task != nil:
		fmt.Fprintf(&b, "Next: %s (%s)\n", st.Decision.Task.ID, st.Decision.Task.Name)
	case st.Decision.Kind == tasks.Blocked:
		writeBlocked(&b, st.Decision.Blocked)
	case st.Decision.Kind == tasks.Done:
		b.WriteString("All tasks complete.\n")
	}

	b.WriteString("\n## Knowledge\n\n")
	for _, c := range knowledge.Categories() {
		fmt.Fprintf(&b, "- %s: %d\n", c.Dir(), st.Knowledge[c])
	}

	fmt.Fprintf(&b, "\n## Snapshots\n\n%d stored", len(st.Snapshots))
	if len(st.Snapshots) > 0 {
		fmt.Fprintf(&b, ", latest %s", st.Snapshots[0])
	}
	b.WriteString("\n")

	if len(st.Sync.Fixed) > 0 {
		fmt.Fprintf(&b, "\nReconciled from commit history: %s\n", strings.Join(st.Sync.Fixed, ", "))
	}
	if !st.Sync.LogAvailable {
		b.WriteString("\nCommit history unavailable; task state was not reconciled.\n")
	}
	if st.Sync.Degraded {
		b.WriteString("\nTask list unreadable; showing an empty list.\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}
