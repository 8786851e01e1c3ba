package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/zeddy89/Context-Engine/internal/config"
	"github.com/zeddy89/Context-Engine/internal/engine"
	"github.com/zeddy89/Context-Engine/internal/knowledge"
	"github.com/zeddy89/Context-Engine/internal/tasks"
)

// --- Test helpers ---

// noCommits is a completion log with no events.
type noCommits struct{}

func (noCommits) Events(context.Context) ([]tasks.CompletionEvent, error) { return nil, nil }

const taskList = `{
  "project": "shop",
  "features": [
    {"id": "F1", "name": "Login", "priority": 1, "passes": true},
    {"id": "F2", "name": "Cart", "priority": 2, "dependencies": ["F1"], "tests": ["add item"]},
    {"id": "F3", "name": "Checkout", "priority": 1, "dependencies": ["F2"]}
  ]
}`

func setupEngine(t *testing.T, taskJSON string) *engine.Engine {
	t.Helper()
	root := t.TempDir()
	if taskJSON != "" {
		if err := os.WriteFile(filepath.Join(root, config.DefaultTaskFile), []byte(taskJSON), 0o644); err != nil {
			t.Fatalf("setup: write task list: %v", err)
		}
	}
	e, err := engine.Open(root, engine.WithEventLog(noCommits{}))
	if err != nil {
		t.Fatalf("setup: open engine: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func isErrorResult(result *mcp.CallToolResult) bool {
	return result != nil && result.IsError
}

// getResultText extracts the text content from a CallToolResult.
func getResultText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func call(t *testing.T, handle func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	result, err := handle(context.Background(), makeReq(args))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	return result
}

// --- NextTool ---

func TestNextTool_Handle_Ready(t *testing.T) {
	tool := NewNextTool(setupEngine(t, taskList))

	result := call(t, tool.Handle, nil)
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}
	text := getResultText(result)
	for _, want := range []string{"## Next Task", "**F2**: Cart", "Depends on: F1", "- add item", "Progress: 1/3 complete (33%)"} {
		if !strings.Contains(text, want) {
			t.Errorf("result missing %q:\n%s", want, text)
		}
	}
}

func TestNextTool_Handle_Blocked(t *testing.T) {
	tool := NewNextTool(setupEngine(t, `{"features":[
		{"id":"A","name":"a","blocked":true,"blocked_reason":"needs credentials"},
		{"id":"B","name":"b","dependencies":["A"]}
	]}`))

	text := getResultText(call(t, tool.Handle, nil))
	for _, want := range []string{"## Blocked", "A is blocked: needs credentials", "B waits on A"} {
		if !strings.Contains(text, want) {
			t.Errorf("result missing %q:\n%s", want, text)
		}
	}
}

func TestNextTool_Handle_CycleIsToolError(t *testing.T) {
	tool := NewNextTool(setupEngine(t, `{"features":[
		{"id":"X","name":"x","dependencies":["Y"]},
		{"id":"Y","name":"y","dependencies":["X"]}
	]}`))

	result := call(t, tool.Handle, nil)
	if !isErrorResult(result) {
		t.Fatalf("expected error result, got: %s", getResultText(result))
	}
	if text := getResultText(result); !strings.Contains(text, "cycle") {
		t.Errorf("error should mention the cycle, got: %s", text)
	}
}

func TestNextTool_Handle_Done(t *testing.T) {
	tool := NewNextTool(setupEngine(t, `{"features":[{"id":"A","name":"a","passes":true}]}`))

	text := getResultText(call(t, tool.Handle, nil))
	if !strings.Contains(text, "All tasks complete.") {
		t.Errorf("result = %q, want completion message", text)
	}
}

// --- CompileTool ---

func TestCompileTool_Handle(t *testing.T) {
	e := setupEngine(t, taskList)
	tool := NewCompileTool(e)

	result := call(t, tool.Handle, map[string]interface{}{"budget": float64(4000)})
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}
	text := getResultText(result)
	if !strings.Contains(text, "# Working Context: shop") {
		t.Errorf("result should contain the compiled header:\n%s", text)
	}
	if !strings.Contains(text, "/4000 chars") {
		t.Errorf("result should report the budget override:\n%s", text)
	}

	cached, err := e.LastCompiled()
	if err != nil {
		t.Fatalf("LastCompiled: %v", err)
	}
	if !strings.HasPrefix(text, strings.TrimSuffix(cached, "\n")) {
		t.Error("tool output should start with the cached working context")
	}
}

func TestCompileTool_Handle_InfeasibleBudget(t *testing.T) {
	tool := NewCompileTool(setupEngine(t, taskList))

	result := call(t, tool.Handle, map[string]interface{}{"budget": float64(10)})
	if !isErrorResult(result) {
		t.Fatalf("expected error result, got: %s", getResultText(result))
	}
}

func TestCompileTool_Handle_NegativeBudget(t *testing.T) {
	tool := NewCompileTool(setupEngine(t, taskList))

	if result := call(t, tool.Handle, map[string]interface{}{"budget": float64(-5)}); !isErrorResult(result) {
		t.Error("expected error result for a negative budget")
	}
}

// --- RememberTool / RecallTool ---

func TestRememberAndRecall(t *testing.T) {
	e := setupEngine(t, taskList)
	remember := NewRememberTool(e)
	recall := NewRecallTool(e)

	for _, body := range []string{"mock clock drifts", "retry loop never exits"} {
		result := call(t, remember.Handle, map[string]interface{}{
			"category": "failures",
			"body":     body,
			"task_id":  "F2",
		})
		if isErrorResult(result) {
			t.Fatalf("remember: %s", getResultText(result))
		}
		if !strings.Contains(getResultText(result), "Recorded failure") {
			t.Errorf("remember result = %q", getResultText(result))
		}
	}

	text := getResultText(call(t, recall.Handle, map[string]interface{}{"category": "failure", "limit": float64(1)}))
	if !strings.Contains(text, "Found 1 failure records") {
		t.Errorf("recall should honor the limit:\n%s", text)
	}
	if !strings.Contains(text, "retry loop never exits") || !strings.Contains(text, "task: F2") {
		t.Errorf("recall should return the newest record with its task:\n%s", text)
	}

	n, err := e.Knowledge().Count(context.Background(), knowledge.Failure)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("stored failures = %d, want 2", n)
	}
}

func TestRememberTool_Handle_Validation(t *testing.T) {
	tool := NewRememberTool(setupEngine(t, taskList))

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"missing category", map[string]interface{}{"body": "x"}},
		{"unknown category", map[string]interface{}{"category": "gossip", "body": "x"}},
		{"missing body", map[string]interface{}{"category": "constraint"}},
		{"blank body", map[string]interface{}{"category": "constraint", "body": "   "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := call(t, tool.Handle, tt.args); !isErrorResult(result) {
				t.Errorf("expected error result, got: %s", getResultText(result))
			}
		})
	}
}

func TestRecallTool_Handle_Empty(t *testing.T) {
	tool := NewRecallTool(setupEngine(t, taskList))

	text := getResultText(call(t, tool.Handle, map[string]interface{}{"category": "entities"}))
	if text != "No entity records." {
		t.Errorf("result = %q", text)
	}
}

func TestIntArg(t *testing.T) {
	tests := []struct {
		name     string
		args     map[string]interface{}
		key      string
		def      int
		expected int
	}{
		{"present", map[string]interface{}{"n": float64(7)}, "n", 3, 7},
		{"missing", map[string]interface{}{}, "n", 3, 3},
		{"wrong type", map[string]interface{}{"n": "7"}, "n", 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := intArg(makeReq(tt.args), tt.key, tt.def); got != tt.expected {
				t.Errorf("intArg() = %d, want %d", got, tt.expected)
			}
		})
	}
}

// --- SnapshotTool / StatusTool ---

func TestSnapshotTool_Handle(t *testing.T) {
	e := setupEngine(t, taskList)
	tool := NewSnapshotTool(e)

	result := call(t, tool.Handle, nil)
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}
	ids, err := e.Snapshots().List()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 {
		t.Fatalf("snapshots = %v, want one", ids)
	}
	if !strings.Contains(getResultText(result), ids[0]) {
		t.Errorf("result should name snapshot %s: %s", ids[0], getResultText(result))
	}
}

func TestStatusTool_Handle(t *testing.T) {
	e := setupEngine(t, taskList)
	if _, err := e.Remember(context.Background(), knowledge.Constraint, "no network in tests", ""); err != nil {
		t.Fatal(err)
	}
	tool := NewStatusTool(e)

	text := getResultText(call(t, tool.Handle, nil))
	for _, want := range []string{"# Status: shop", "Next: F2 (Cart)", "- constraints: 1", "- failures: 0", "0 stored"} {
		if !strings.Contains(text, want) {
			t.Errorf("status missing %q:\n%s", want, text)
		}
	}
}

// --- CompleteTool / BlockTool ---

func TestCompleteTool_Handle(t *testing.T) {
	e := setupEngine(t, taskList)
	tool := NewCompleteTool(e)

	result := call(t, tool.Handle, map[string]interface{}{"task_id": "F2"})
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}

	d, _, err := e.Next(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if d.Task == nil || d.Task.ID != "F3" {
		t.Errorf("next after completing F2 = %+v, want F3", d.Task)
	}
}

func TestCompleteTool_Handle_UnknownTask(t *testing.T) {
	tool := NewCompleteTool(setupEngine(t, taskList))

	result := call(t, tool.Handle, map[string]interface{}{"task_id": "F9"})
	if !isErrorResult(result) {
		t.Fatalf("expected error result, got: %s", getResultText(result))
	}
	if !strings.Contains(getResultText(result), "not found") {
		t.Errorf("error = %q", getResultText(result))
	}
}

func TestBlockTool_Handle(t *testing.T) {
	e := setupEngine(t, taskList)
	tool := NewBlockTool(e)

	if result := call(t, tool.Handle, map[string]interface{}{"task_id": "F2"}); !isErrorResult(result) {
		t.Error("blocking without a reason should fail")
	}

	result := call(t, tool.Handle, map[string]interface{}{"task_id": "F2", "reason": "payment sandbox down"})
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}

	d, _, err := e.Next(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if d.Kind != tasks.Blocked {
		t.Fatalf("decision = %v, want blocked", d.Kind)
	}
}
