package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the context-status MCP prompt.
// It instructs the AI to read and present the current project state.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("context-status",
		mcp.WithPromptDescription(
			"Check project progress: completed and remaining tasks, blockers, "+
				"recorded knowledge and what to do next.",
		),
	)
}

// Handle processes the context-status prompt request.
func (p *StatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Project Status",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `context_status` to check the project.\n\n" +
						"Then:\n" +
						"1. Show progress in a clear, visual format\n" +
						"2. List blocked tasks with their reasons or unmet dependencies\n" +
						"3. Tell me which task comes next",
				),
			},
		},
	}, nil
}
