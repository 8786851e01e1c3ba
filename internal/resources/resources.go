// Package resources implements MCP resource handlers for the context engine.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (context://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/zeddy89/Context-Engine/internal/compiler"
	"github.com/zeddy89/Context-Engine/internal/engine"
)

// URIs served by Handler.
const (
	WorkingContextURI = "context://working/current"
	StatusURI         = "context://project/status"
)

// Engine is the subset of *engine.Engine the resources read.
type Engine interface {
	LastCompiled() (string, error)
	Compile(ctx context.Context, budget int) (*compiler.Result, error)
	Status(ctx context.Context) (*engine.Status, error)
}

// Handler manages the context engine resource endpoints.
type Handler struct {
	engine Engine
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(e Engine) *Handler {
	return &Handler{engine: e}
}

// WorkingContextResource returns the MCP resource definition for the
// working view.
func (h *Handler) WorkingContextResource() mcp.Resource {
	return mcp.NewResource(
		WorkingContextURI,
		"Working Context",
		mcp.WithResourceDescription("The last compiled working context for the next task"),
		mcp.WithMIMEType("text/markdown"),
	)
}

// HandleWorkingContext returns the cached working view, compiling one
// when nothing is cached yet.
func (h *Handler) HandleWorkingContext(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	text, err := h.engine.LastCompiled()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	if text == "" {
		res, err := h.engine.Compile(ctx, 0)
		if err != nil {
			return errorResource(req.Params.URI, err.Error()), nil
		}
		text = res.Text
	}
	return textResource(req.Params.URI, "text/markdown", text), nil
}

// StatusResource returns the MCP resource definition for project status.
func (h *Handler) StatusResource() mcp.Resource {
	return mcp.NewResource(
		StatusURI,
		"Project Status",
		mcp.WithResourceDescription("Task progress, scheduling decision, knowledge counts and snapshots"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStatus returns the current project status as JSON.
func (h *Handler) HandleStatus(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	st, err := h.engine.Status(ctx)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling status: %w", err)
	}
	return textResource(req.Params.URI, "application/json", string(data)), nil
}
