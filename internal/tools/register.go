package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Credential argument names accepted alongside every tool's domain
// parameters when per-request credential mode is enabled.
var credentialParams = []Param{
	{Name: "_userCredentials", Type: TypeObject, Description: "Per-request OAuth credentials (accessToken, refreshToken, expiryDate, tokenType, scope, idToken)"},
	{Name: "userCredentials", Type: TypeObject, Description: "Alternative location for per-request OAuth credentials"},
	{Name: "_userContext", Type: TypeObject, Description: "Request context object carrying credentials under the credentials key"},
}

// Register declares every tool in the registry on the MCP server, routing
// calls through the dispatcher. With userMode enabled the credential
// parameters are declared on every tool so schema validation admits them.
func Register(s *mcpserver.MCPServer, d *Dispatcher, userMode bool) {
	for _, def := range All() {
		opts := []mcp.ToolOption{mcp.WithDescription(def.Description)}
		params := def.Params
		if userMode {
			params = append(append([]Param{}, params...), credentialParams...)
		}
		for _, p := range params {
			opts = append(opts, propertyOption(p))
		}

		tool := mcp.NewTool(def.Name, opts...)
		s.AddTool(tool, toolHandler(d, def))
	}
}

func toolHandler(d *Dispatcher, def Definition) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := d.Dispatch(ctx, def, request.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(result), nil
	}
}

func propertyOption(p Param) mcp.ToolOption {
	var opts []mcp.PropertyOption
	if p.Description != "" {
		opts = append(opts, mcp.Description(p.Description))
	}
	if p.Required {
		opts = append(opts, mcp.Required())
	}
	if len(p.Enum) > 0 {
		opts = append(opts, mcp.Enum(p.Enum...))
	}

	switch p.Type {
	case TypeNumber:
		return mcp.WithNumber(p.Name, opts...)
	case TypeBoolean:
		return mcp.WithBoolean(p.Name, opts...)
	case TypeArray:
		opts = append(opts, mcp.Items(map[string]any{"type": "string"}))
		return mcp.WithArray(p.Name, opts...)
	case TypeObject:
		return mcp.WithObject(p.Name, opts...)
	default:
		return mcp.WithString(p.Name, opts...)
	}
}
