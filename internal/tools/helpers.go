// Package tools implements MCP tool handlers over the context engine.
//
// Each tool is a struct holding its dependency (the Engine interface),
// with Definition returning the mcp.Tool schema and Handle processing a
// call. Failures an agent can act on are returned as tool errors, not Go
// errors, so the conversation continues.
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/zeddy89/Context-Engine/internal/compiler"
	"github.com/zeddy89/Context-Engine/internal/engine"
	"github.com/zeddy89/Context-Engine/internal/knowledge"
	"github.com/zeddy89/Context-Engine/internal/tasks"
)

// Engine is the subset of *engine.Engine the tools call.
type Engine interface {
	Next(ctx context.Context) (tasks.Decision, tasks.Progress, error)
	Compile(ctx context.Context, budget int) (*compiler.Result, error)
	Remember(ctx context.Context, c knowledge.Category, body, task string) (knowledge.Record, error)
	Recall(ctx context.Context, c knowledge.Category, n int) ([]knowledge.Record, error)
	Snapshot(ctx context.Context) (string, error)
	Status(ctx context.Context) (*engine.Status, error)
	Complete(id string) error
	Block(id, reason string) error
}

var _ Engine = (*engine.Engine)(nil)

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// categoryDescription is shared by the tools taking a category argument.
const categoryDescription = "Knowledge category: constraint, failure, strategy or entity (plural spellings accepted)"

func categoryArg(req mcp.CallToolRequest) (knowledge.Category, error) {
	raw := strings.TrimSpace(req.GetString("category", ""))
	if raw == "" {
		return "", fmt.Errorf("'category' is required")
	}
	return knowledge.ParseCategory(raw)
}

// writeTask renders a task as a short markdown block.
func writeTask(b *strings.Builder, t *tasks.Task) {
	fmt.Fprintf(b, "**%s**: %s\n", t.ID, t.Name)
	fmt.Fprintf(b, "- Priority: %d\n", t.Priority)
	fmt.Fprintf(b, "- Complexity: %s\n", t.Level())
	if len(t.Dependencies) > 0 {
		fmt.Fprintf(b, "- Depends on: %s\n", strings.Join(t.Dependencies, ", "))
	}
	if d := strings.TrimSpace(t.Description); d != "" {
		fmt.Fprintf(b, "\n%s\n", d)
	}
	if len(t.Tests) > 0 {
		b.WriteString("\nTests:\n")
		for _, s := range t.Tests {
			fmt.Fprintf(b, "- %s\n", s)
		}
	}
}

// writeBlocked renders a blocked report.
func writeBlocked(b *strings.Builder, report []tasks.BlockedTask) {
	b.WriteString("No eligible task: all remaining work is blocked.\n\n")
	for _, bt := range report {
		switch {
		case bt.Flagged && bt.Reason != "":
			fmt.Fprintf(b, "- %s is blocked: %s\n", bt.ID, bt.Reason)
		case bt.Flagged:
			fmt.Fprintf(b, "- %s is blocked\n", bt.ID)
		default:
			fmt.Fprintf(b, "- %s waits on %s\n", bt.ID, strings.Join(bt.Unmet, ", "))
		}
	}
}

func progressLine(p tasks.Progress) string {
	return fmt.Sprintf("Progress: %d/%d complete (%d%%), %d remaining, %d blocked",
		p.Completed, p.Total, p.Percent(), p.Remaining, p.Blocked)
}
