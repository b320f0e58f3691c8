// Package catalog registers codechain operations as discoverable tools.
//
// Every tool lives in one namespace, is indexed for BM25 search through
// tooldiscovery, carries documentation in a tooldoc store, and is executed
// through a local handler. The MCP server lists and calls tools from here.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jonwraymond/tooldiscovery/index"
	"github.com/jonwraymond/tooldiscovery/search"
	"github.com/jonwraymond/tooldiscovery/tooldoc"
	"github.com/jonwraymond/toolfoundation/model"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Namespace is the namespace of every codechain tool.
const Namespace = "codechain"

// Errors returned by the catalog.
var (
	ErrToolNotFound = errors.New("tool not found")
	ErrInvalidTool  = errors.New("invalid tool definition")
)

// Handler executes a tool.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// ToolDef defines a tool with its documentation and handler.
type ToolDef struct {
	Name        string
	Title       string
	Description string
	InputSchema map[string]any
	Tags        []string

	// Summary and Notes populate the tool documentation.
	Summary  string
	Notes    string
	Examples []tooldoc.ToolExample

	Handler Handler
}

type entry struct {
	tool    model.Tool
	handler Handler
}

// Catalog is an index of tools plus their handlers.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: unknown IDs return ErrToolNotFound.
type Catalog struct {
	idx  index.Index
	docs *tooldoc.InMemoryStore

	mu    sync.RWMutex
	tools map[string]entry
}

// New creates an empty catalog backed by a BM25 in-memory index.
func New() *Catalog {
	idx := index.NewInMemoryIndex(index.IndexOptions{
		Searcher: search.NewBM25Searcher(search.BM25Config{}),
	})
	return &Catalog{
		idx:   idx,
		docs:  tooldoc.NewInMemoryStore(tooldoc.StoreOptions{Index: idx}),
		tools: make(map[string]entry),
	}
}

// ToolID returns the catalog ID of a tool.
func ToolID(name string) string {
	return Namespace + ":" + name
}

// Register adds a tool. Registering an existing name replaces its handler.
func (c *Catalog) Register(def ToolDef) error {
	if def.Name == "" || def.Handler == nil {
		return fmt.Errorf("%w: name and handler are required", ErrInvalidTool)
	}
	schema := def.InputSchema
	if schema == nil {
		schema = map[string]any{"type": "object"}
	}
	tool := model.Tool{
		Tool: mcp.Tool{
			Name:        def.Name,
			Title:       def.Title,
			Description: def.Description,
			InputSchema: schema,
		},
		Namespace: Namespace,
		Tags:      model.NormalizeTags(def.Tags),
	}
	id := ToolID(def.Name)
	if err := c.idx.RegisterTool(tool, model.NewLocalBackend(Namespace+"-"+def.Name)); err != nil {
		return fmt.Errorf("register %s: %w", id, err)
	}
	if err := c.docs.RegisterDoc(id, tooldoc.DocEntry{
		Summary:  def.Summary,
		Notes:    def.Notes,
		Examples: def.Examples,
	}); err != nil {
		return fmt.Errorf("register doc %s: %w", id, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.tools[id] = entry{tool: tool, handler: def.Handler}
	return nil
}

// Tools returns every registered tool ordered by ID.
func (c *Catalog) Tools() []model.Tool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.tools))
	for id := range c.tools {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]model.Tool, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.tools[id].tool)
	}
	return out
}

// Search finds tools matching a query.
func (c *Catalog) Search(query string, limit int) ([]index.Summary, error) {
	return c.idx.Search(query, limit)
}

// Describe returns tool documentation at the given detail level.
func (c *Catalog) Describe(id string, level tooldoc.DetailLevel) (tooldoc.ToolDoc, error) {
	return c.docs.DescribeTool(id, level)
}

// Call runs the tool with the given ID.
func (c *Catalog) Call(ctx context.Context, id string, args map[string]any) (any, error) {
	c.mu.RLock()
	e, ok := c.tools[id]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, id)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.handler(ctx, args)
}
