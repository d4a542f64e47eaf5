package mcp

import (
	"context"
	"encoding/json"

	"backlogmcp/server/internal/jsonrpc"
	"backlogmcp/server/internal/modules"
)

// ServerName is reported in initialize.
const ServerName = "backlog-mcp"

// Handler implements the MCP methods on top of a tool registry.
type Handler struct {
	registry *modules.Registry
	version  string
}

func NewHandler(registry *modules.Registry, version string) *Handler {
	return &Handler{registry: registry, version: version}
}

// ProcessRequest routes a JSON-RPC request to the appropriate handler.
// Called by the transports. A nil result and nil error means no response.
func (h *Handler) ProcessRequest(ctx context.Context, req *jsonrpc.Request) (interface{}, *jsonrpc.Error) {
	switch req.Method {
	case "initialize":
		return h.handleInitialize(), nil
	case "initialized", "notifications/initialized":
		return nil, nil
	case "ping":
		return PingResult{}, nil
	case "tools/list":
		return &ToolsListResult{Tools: h.registry.Tools()}, nil
	case "tools/call":
		return h.handleToolCall(ctx, req)
	default:
		return nil, &jsonrpc.Error{Code: MethodNotFound, Message: "Method not found"}
	}
}

func (h *Handler) handleInitialize() *InitializeResult {
	return &InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities: ServerCapabilities{
			Tools: &ToolsCapability{},
		},
		ServerInfo: ServerInfo{
			Name:    ServerName,
			Version: h.version,
		},
	}
}

func (h *Handler) handleToolCall(ctx context.Context, req *jsonrpc.Request) (*ToolCallResult, *jsonrpc.Error) {
	paramsBytes, err := json.Marshal(req.Params)
	if err != nil {
		return nil, &jsonrpc.Error{Code: InvalidParams, Message: "Invalid params"}
	}

	var params ToolCallParams
	if err := json.Unmarshal(paramsBytes, &params); err != nil {
		return nil, &jsonrpc.Error{Code: InvalidParams, Message: "Invalid params structure"}
	}
	if params.Name == "" {
		return nil, &jsonrpc.Error{Code: InvalidParams, Message: "name is required"}
	}

	result, terr := h.registry.Call(ctx, params.Name, params.Arguments)
	if terr != nil {
		return nil, terr.RPC()
	}
	return result, nil
}
