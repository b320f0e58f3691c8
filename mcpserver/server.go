// Package mcpserver exposes the codechain catalog over the Model Context
// Protocol.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonwraymond/codechain/catalog"
)

// Implementation identifies the server to MCP clients.
var Implementation = &mcp.Implementation{Name: "codechain", Version: "v0.1.0"}

// New returns an MCP server with one tool per catalog entry. Tool errors
// are returned as error results, not protocol errors.
func New(c *catalog.Catalog) *mcp.Server {
	server := mcp.NewServer(Implementation, nil)
	for _, tool := range c.Tools() {
		t := tool.Tool
		id := catalog.ToolID(t.Name)
		server.AddTool(&t, handler(c, id))
	}
	return server
}

// Serve runs the server on stdin/stdout until the client disconnects or
// ctx is done.
func Serve(ctx context.Context, c *catalog.Catalog) error {
	return New(c).Run(ctx, &mcp.StdioTransport{})
}

func handler(c *catalog.Catalog, id string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := map[string]any{}
		if raw := req.Params.Arguments; len(raw) > 0 {
			if err := json.Unmarshal(raw, &args); err != nil {
				return errorResult(fmt.Errorf("decode arguments: %w", err)), nil
			}
		}
		out, err := c.Call(ctx, id, args)
		if err != nil {
			return errorResult(err), nil
		}
		text, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return errorResult(fmt.Errorf("encode result: %w", err)), nil
		}
		res := &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(text)}},
		}
		// Structured content must be a JSON object.
		if len(text) > 0 && text[0] == '{' {
			res.StructuredContent = json.RawMessage(text)
		}
		return res, nil
	}
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		IsError: true,
	}
}
