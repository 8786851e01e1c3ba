// Package prompts implements MCP prompt handlers for the context engine.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// TaskLeveler reports a task's complexity level: "high", "medium" or
// "low". An empty id means the task that would be scheduled next.
type TaskLeveler interface {
	TaskLevel(ctx context.Context, id string) (string, error)
}

// SessionPrompt handles the context-session MCP prompt.
// It walks the AI through one work session on the next task.
type SessionPrompt struct {
	completionPattern string
	testCommand       string
	levels            TaskLeveler
}

// NewSessionPrompt creates a SessionPrompt. completionPattern is the
// commit message marker that records a completion; testCommand may be
// empty. levels may be nil, in which case the verification step assumes
// medium complexity unless the request names one.
func NewSessionPrompt(completionPattern, testCommand string, levels TaskLeveler) *SessionPrompt {
	return &SessionPrompt{completionPattern: completionPattern, testCommand: testCommand, levels: levels}
}

// Definition returns the MCP prompt definition for registration.
func (p *SessionPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("context-session",
		mcp.WithPromptDescription(
			"Start a work session: compile a fresh working context, check known failures, "+
				"implement the next task, verify it according to its complexity and record the completion.",
		),
		mcp.WithArgument("task_id",
			mcp.ArgumentDescription("Work on this task instead of the scheduled one"),
		),
		mcp.WithArgument("complexity",
			mcp.ArgumentDescription("Override the task's complexity: 'high', 'medium' or 'low'"),
		),
	)
}

// Handle processes the context-session prompt request.
func (p *SessionPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	var taskID, level string
	if args := req.Params.Arguments; args != nil {
		taskID = strings.TrimSpace(args["task_id"])
		level = strings.ToLower(strings.TrimSpace(args["complexity"]))
	}
	if level == "" && p.levels != nil {
		// A list that cannot be read just falls back to the medium step.
		level, _ = p.levels.TaskLevel(ctx, taskID)
	}

	pick := "Run `context_next` to find the task to work on."
	ref := "<task-id>"
	if taskID != "" {
		pick = fmt.Sprintf("Work on task %s. Run `context_next` anyway so the task list is reconciled.", taskID)
		ref = taskID
	}

	test := "Run the project's tests."
	if p.testCommand != "" {
		test = fmt.Sprintf("Run `%s`.", p.testCommand)
	}

	return &mcp.GetPromptResult{
		Description: "Context engine work session",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"Start a work session.\n\n"+
						"1. %s\n"+
						"2. Run `context_compile` and read the working context it returns. Treat the active "+
						"constraints as rules.\n"+
						"3. Run `context_recall` with category 'failure' and avoid those approaches.\n"+
						"4. Implement the task.\n"+
						"5. %s Fix failures before moving on.\n"+
						"6. %s\n"+
						"7. Record what you learned with `context_remember`: 'strategy' for what worked, "+
						"'failure' for what did not.\n"+
						"8. If the tests still fail after 3 attempts, record the failure and run `task_block` "+
						"with the reason.\n"+
						"9. Otherwise commit with the message `%s %s`. The session is not complete until "+
						"that commit exists.\n"+
						"10. Run `context_snapshot` before ending the session.",
					pick, test, verifyStep(level, ref), p.completionPattern, ref,
				)),
			},
		},
	}, nil
}

// verifyStep scales the verification effort with the task's complexity.
func verifyStep(level, ref string) string {
	switch level {
	case "high":
		return fmt.Sprintf("Verify (high complexity): review the diff for %s as a code reviewer would and "+
			"address every issue, run the full test suite and analyze the results, then confirm the "+
			"feature works end to end against its description and listed tests.", ref)
	case "low":
		return "Verify (low complexity): the tests from step 5 should already pass. No further review " +
			"is needed for a simple change."
	default:
		return "Verify (medium complexity): run the full test suite, not just the new tests, and " +
			"analyze any failures before continuing."
	}
}
