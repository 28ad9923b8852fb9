// Package mcptools declares the MCP tools served by image-mcp and routes
// tools/call requests to them. Nothing here knows which transport carried
// the request.
package mcptools

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"github.com/janhq/image-mcp/internal/infrastructure/metrics"
	"github.com/janhq/image-mcp/utils/platformerrors"
)

// ToolHandler is one entry of the dispatch table. Invoke builds the request,
// runs it and wraps the outcome as MCP content.
type ToolHandler interface {
	Descriptor() *mcp.Tool
	Invoke(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error)
}

// Dispatcher maps tool names to handlers.
type Dispatcher struct {
	handlers map[string]ToolHandler
	order    []string
	provider string
}

// NewDispatcher builds the dispatch table. Later handlers with a duplicate
// name replace earlier ones.
func NewDispatcher(provider string, handlers ...ToolHandler) *Dispatcher {
	d := &Dispatcher{
		handlers: make(map[string]ToolHandler, len(handlers)),
		provider: provider,
	}
	for _, h := range handlers {
		if h == nil {
			continue
		}
		name := h.Descriptor().Name
		if _, exists := d.handlers[name]; !exists {
			d.order = append(d.order, name)
		}
		d.handlers[name] = h
	}
	return d
}

// Tools returns the descriptors in registration order.
func (d *Dispatcher) Tools() []*mcp.Tool {
	tools := make([]*mcp.Tool, 0, len(d.order))
	for _, name := range d.order {
		tools = append(tools, d.handlers[name].Descriptor())
	}
	return tools
}

// Call routes one invocation. Unknown names are invocation errors.
func (d *Dispatcher) Call(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	startTime := time.Now()

	handler, ok := d.handlers[name]
	if !ok {
		err := platformerrors.NewErrorWithContext(
			ctx,
			platformerrors.LayerTool,
			platformerrors.ErrorTypeNotFound,
			"Unknown tool: "+name,
			nil,
			"b2d6a4e1-0c3f-4b8e-9a51-7e2f6d3c1a90",
			map[string]any{"tool": name},
		)
		platformerrors.LogError(log.Logger, err)
		metrics.RecordToolCall(name, d.provider, "invalid", time.Since(startTime).Seconds())
		return nil, err
	}

	log.Info().
		Str("tool", name).
		Int("arg_count", len(args)).
		Msg("MCP tool call received")

	result, err := handler.Invoke(ctx, args)
	status := "success"
	switch {
	case err != nil:
		status = "invalid"
		log.Warn().Err(err).Str("tool", name).Msg("MCP tool call rejected")
	case failedResult(result):
		status = "error"
		log.Warn().Str("tool", name).Dur("duration", time.Since(startTime)).Msg("MCP tool call returned error content")
	default:
		log.Info().Str("tool", name).Dur("duration", time.Since(startTime)).Msg("MCP tool call completed")
	}
	metrics.RecordToolCall(name, d.provider, status, time.Since(startTime).Seconds())
	return result, err
}

// Register installs every handler on server. Raw registration keeps the SDK
// from validating arguments against the schema, so string-typed numbers and
// booleans reach the coercion layer.
func (d *Dispatcher) Register(server *mcp.Server) {
	for _, tool := range d.Tools() {
		server.AddTool(tool, d.handle)
		log.Debug().Str("tool", tool.Name).Msg("Registered MCP tool")
	}
}

func (d *Dispatcher) handle(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if req.Session != nil {
		ctx = platformerrors.WithSessionID(ctx, req.Session.ID())
	}

	var name string
	if req.Params != nil {
		name = req.Params.Name
	}

	args, err := extractArguments(req)
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerTool,
			platformerrors.ErrorTypeValidation,
			"tool arguments must be a JSON object",
			err,
			"9c1e7b52-3d4a-4f6e-8b20-5a7d9e0f1c34",
		)
	}
	return d.Call(ctx, name, args)
}

// failedResult reports whether a tool answered with failure text. Tools here
// reply with plain text instead of setting IsError, so a result carrying only
// text counts as a failure too.
func failedResult(result *mcp.CallToolResult) bool {
	if result == nil || len(result.Content) == 0 {
		return false
	}
	if result.IsError {
		return true
	}
	for _, c := range result.Content {
		if _, ok := c.(*mcp.TextContent); !ok {
			return false
		}
	}
	return true
}
