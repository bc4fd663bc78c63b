package client

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonwraymond/toolgraph/embed"
	"github.com/jonwraymond/toolgraph/fingerprint"
	"github.com/jonwraymond/toolgraph/graph"
	"github.com/jonwraymond/toolgraph/schema"
	"github.com/jonwraymond/toolgraph/selector"
	"github.com/jonwraymond/toolgraph/toolset"
)

// Error values for client construction.
var (
	ErrNilGenerator = errors.New("generator is required")
)

// Options configures a Client.
type Options struct {
	// Generator is the text-generation capability. Required.
	Generator Generator

	// Model is passed through to the generator on every request.
	Model string

	// Store is the graph+vector store. Required.
	Store graph.Store

	// Embedder is the embedding capability. Required.
	Embedder embed.Embedder

	// Tools is the initial registry.
	Tools map[string]schema.Definition

	// MaxActiveTools caps the semantically selected subset per request.
	// Default: 10. An explicit ActiveTools list on a request bypasses it.
	MaxActiveTools int

	// Dimensions is the vector index dimensionality. Default: 1536.
	Dimensions int

	// IndexName names the vector index. Default: "tool_embeddings".
	IndexName string

	// HashFunc overrides the default fingerprint hash.
	HashFunc fingerprint.HashFunc

	// Overrides customizes the sync pipeline.
	Overrides toolset.MigrationOverrides

	// Selector replaces the default semantic selection strategy, for
	// lexical or hybrid selection from the selector package.
	Selector selector.Selector

	// Logger receives warning-level signals. Default: no-op.
	Logger *zap.Logger
}

// Client is the embedding-facing surface: it keeps the toolset synced,
// selects the active tool subset per request, and delegates generation.
type Client struct {
	generator Generator
	model     string
	toolset   *toolset.Toolset
	selector  selector.Selector
	maxActive int
	logger    *zap.Logger
}

// New creates a Client and its underlying toolset coordinator.
func New(opts Options) (*Client, error) {
	if opts.Generator == nil {
		return nil, ErrNilGenerator
	}

	maxActive := opts.MaxActiveTools
	if maxActive <= 0 {
		maxActive = 10
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ts, err := toolset.New(toolset.Options{
		Store:      opts.Store,
		Embedder:   opts.Embedder,
		Tools:      opts.Tools,
		Dimensions: opts.Dimensions,
		IndexName:  opts.IndexName,
		HashFunc:   opts.HashFunc,
		Overrides:  opts.Overrides,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		generator: opts.Generator,
		model:     opts.Model,
		toolset:   ts,
		selector:  opts.Selector,
		maxActive: maxActive,
		logger:    logger,
	}, nil
}

// Request is one generation request. Prompt and Messages are mutually
// exclusive ways to carry the user input; Options passes through to the
// generator untouched.
type Request struct {
	Prompt   string
	Messages []Message

	// ActiveTools, when non-nil, is used verbatim (intersected with the
	// registry, unknown names dropped) instead of semantic selection.
	ActiveTools []string

	Options map[string]any
}

// GenerateText syncs the toolset if needed, selects the active tool subset,
// and delegates to the generation capability with only that subset.
func (c *Client) GenerateText(ctx context.Context, req Request) (*GenerateResponse, error) {
	if err := c.toolset.EnsureSynced(ctx); err != nil {
		return nil, fmt.Errorf("sync before generate: %w", err)
	}

	names, err := c.activeTools(ctx, req)
	if err != nil {
		return nil, err
	}

	registry := c.toolset.Tools()
	active := make(map[string]schema.Definition, len(names))
	for _, name := range names {
		active[name] = registry[name]
	}

	c.logger.Debug("generating with active tools",
		zap.Int("registry", len(registry)),
		zap.Strings("active", names))

	return c.generator.Generate(ctx, GenerateRequest{
		Model:    c.model,
		Prompt:   req.Prompt,
		Messages: req.Messages,
		Tools:    active,
		Options:  req.Options,
	})
}

// activeTools resolves the tool subset for one request: an explicit list
// wins, then a configured selector, then the semantic default.
func (c *Client) activeTools(ctx context.Context, req Request) ([]string, error) {
	if req.ActiveTools != nil {
		return c.toolset.FilterKnown(req.ActiveTools), nil
	}

	prompt := promptText(req)

	if c.selector != nil {
		names, err := c.selector.Select(ctx, prompt, c.toolset.Tools(), c.maxActive)
		if err != nil {
			return nil, fmt.Errorf("select active tools: %w", err)
		}
		return c.toolset.FilterKnown(names), nil
	}

	names, err := c.toolset.SelectActiveTools(ctx, prompt, c.maxActive)
	if err != nil {
		return nil, fmt.Errorf("select active tools: %w", err)
	}
	// The vector index spans every historical snapshot, so hits can name
	// tools that left the registry; keep only current ones.
	return c.toolset.FilterKnown(names), nil
}

// promptText picks the text to select tools against: the prompt when set,
// otherwise the latest message content.
func promptText(req Request) string {
	if req.Prompt != "" {
		return req.Prompt
	}
	if len(req.Messages) > 0 {
		return req.Messages[len(req.Messages)-1].Content
	}
	return ""
}

// Sync forces a re-sync and returns the now-current fingerprint.
func (c *Client) Sync(ctx context.Context, opts toolset.SyncOptions) (string, error) {
	return c.toolset.Sync(ctx, opts)
}

// AddTool registers or replaces a tool and marks the toolset unsynced.
func (c *Client) AddTool(name string, def schema.Definition) error {
	return c.toolset.AddTool(name, def)
}

// RemoveTool drops a tool and marks the toolset unsynced.
func (c *Client) RemoveTool(name string) error {
	return c.toolset.RemoveTool(name)
}

// Tools returns a copy of the registry.
func (c *Client) Tools() map[string]schema.Definition {
	return c.toolset.Tools()
}

// Fingerprint returns the current (possibly unsynced) fingerprint.
func (c *Client) Fingerprint() string {
	return c.toolset.Fingerprint()
}

// ToolsetByHash fetches any persisted snapshot; nil when absent.
func (c *Client) ToolsetByHash(ctx context.Context, hash string) (*toolset.Info, error) {
	return c.toolset.ToolsetByHash(ctx, hash)
}

// DeleteToolsetByHash deletes any persisted snapshot, reporting counts.
func (c *Client) DeleteToolsetByHash(ctx context.Context, hash string) (toolset.DeleteResult, error) {
	return c.toolset.DeleteToolsetByHash(ctx, hash)
}

// Toolset exposes the underlying coordinator for advanced operations
// (deeper searches, custom sync flows).
func (c *Client) Toolset() *toolset.Toolset {
	return c.toolset
}
