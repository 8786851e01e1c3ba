// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it takes an opened engine and injects it
// into the tools, prompts and resources that depend on it. No business
// logic lives here, only wiring.
package server

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/zeddy89/Context-Engine/internal/engine"
	"github.com/zeddy89/Context-Engine/internal/prompts"
	"github.com/zeddy89/Context-Engine/internal/resources"
	"github.com/zeddy89/Context-Engine/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. The caller owns e and closes it on shutdown.
func New(e *engine.Engine) *server.MCPServer {
	s := server.NewMCPServer(
		"context-engine",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions),
	)

	// --- Register tools ---

	nextTool := tools.NewNextTool(e)
	s.AddTool(nextTool.Definition(), nextTool.Handle)

	compileTool := tools.NewCompileTool(e)
	s.AddTool(compileTool.Definition(), compileTool.Handle)

	rememberTool := tools.NewRememberTool(e)
	s.AddTool(rememberTool.Definition(), rememberTool.Handle)

	recallTool := tools.NewRecallTool(e)
	s.AddTool(recallTool.Definition(), recallTool.Handle)

	snapshotTool := tools.NewSnapshotTool(e)
	s.AddTool(snapshotTool.Definition(), snapshotTool.Handle)

	statusTool := tools.NewStatusTool(e)
	s.AddTool(statusTool.Definition(), statusTool.Handle)

	completeTool := tools.NewCompleteTool(e)
	s.AddTool(completeTool.Definition(), completeTool.Handle)

	blockTool := tools.NewBlockTool(e)
	s.AddTool(blockTool.Definition(), blockTool.Handle)

	// --- Register prompts ---

	sessionPrompt := prompts.NewSessionPrompt(e.Config().Git.CompletionPattern, engine.DetectTestCommand(e.Root()), e)
	s.AddPrompt(sessionPrompt.Definition(), sessionPrompt.Handle)

	statusPrompt := prompts.NewStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(e)
	s.AddResource(resourceHandler.WorkingContextResource(), resourceHandler.HandleWorkingContext)
	s.AddResource(resourceHandler.StatusResource(), resourceHandler.HandleStatus)

	return s
}

const serverInstructions = `# Context Engine

You work through a task list one task at a time. Each session starts from
a bounded working context compiled from the task list and from knowledge
recorded in earlier sessions. Nothing else carries over between sessions.

## Workflow

1. context_next: reconcile the task list with the commit history and pick
   the next task.
2. context_compile: read the working context. Active constraints are
   rules; known failures are approaches not to repeat.
3. Implement and test the task.
4. context_remember: record strategies that worked, failures that did not,
   new constraints and important entities. Records are append-only.
5. Record the completion with a commit whose message contains the
   completion marker and the task id, or call task_complete.
6. task_block after repeated failed attempts, with the reason.
7. context_snapshot before ending the session.

## Rules

- Never mark a task complete before its tests pass.
- Do not edit knowledge records. Record a newer one instead.
- Do not edit .agent/working-context/current.md; it is regenerated.`
