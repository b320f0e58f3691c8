package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonwraymond/codechain/catalog"
	"github.com/jonwraymond/codechain/deps"
	"github.com/jonwraymond/codechain/session"
)

func connect(t *testing.T) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	runner, err := session.NewRunner(session.Config{
		ScratchRoot: t.TempDir(),
		Registry:    deps.NewRegistry(),
	})
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	c, err := catalog.NewCodechain(runner)
	if err != nil {
		t.Fatalf("NewCodechain() error = %v", err)
	}

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	ss, err := New(c).Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server Connect() error = %v", err)
	}
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client Connect() error = %v", err)
	}
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("len(Content) = %d, want 1", len(res.Content))
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("Content[0] = %T, want *mcp.TextContent", res.Content[0])
	}
	return text.Text
}

func TestServer_ListTools(t *testing.T) {
	cs := connect(t)

	res, err := cs.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools() error = %v", err)
	}
	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	got := strings.Join(names, ",")
	for _, want := range []string{catalog.ToolRunFragments, catalog.ToolClassifyLines, catalog.ToolSample} {
		if !strings.Contains(got, want) {
			t.Errorf("tools = %s, missing %s", got, want)
		}
	}
}

func TestServer_RunFragments(t *testing.T) {
	cs := connect(t)

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name: catalog.ToolRunFragments,
		Arguments: map[string]any{"fragments": []any{map[string]any{
			"unit_name":   "calc",
			"source_text": "def mul(a, b):\n    return a * b\n",
			"call_chain":  []any{"mul(6, 7)", "1/0"},
		}}},
	})
	if err != nil {
		t.Fatalf("CallTool() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("CallTool() returned error result: %s", textOf(t, res))
	}
	text := textOf(t, res)
	if !strings.Contains(text, `"repr": "42"`) || !strings.Contains(text, "division by zero") {
		t.Errorf("result text = %s", text)
	}
}

func TestServer_ToolErrorsAreResults(t *testing.T) {
	cs := connect(t)

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      catalog.ToolClassifyLines,
		Arguments: map[string]any{"lines": []any{7}},
	})
	if err != nil {
		t.Fatalf("CallTool() error = %v", err)
	}
	if !res.IsError || !strings.Contains(textOf(t, res), "expected string") {
		t.Errorf("result = %+v, want error result", res)
	}
}
