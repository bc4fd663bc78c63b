package toolset

import (
	"context"
	"fmt"

	"github.com/jonwraymond/toolgraph/cypher"
	"github.com/jonwraymond/toolgraph/graph"
	"github.com/jonwraymond/toolgraph/schema"
)

// SearchResult is one retrieval hit. Schema and Matches are only populated
// at the traversing depths.
type SearchResult struct {
	Name        string
	Description string
	Schema      string
	Relevance   float64
	Matches     int64
}

// SearchOptions configures a retrieval query.
type SearchOptions struct {
	// Limit caps results. Zero uses the builder default (5).
	Limit int
	// MinScore filters hits below this similarity. Zero means no filter.
	MinScore float64
	// Depth selects how much graph context is attached. Empty means low.
	Depth cypher.Depth
}

// Search embeds the prompt and runs a vector search at the requested depth,
// returning hits in descending relevance order.
func (ts *Toolset) Search(ctx context.Context, prompt string, opts SearchOptions) ([]SearchResult, error) {
	vector, err := ts.orchestrator.EmbedText(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	stmt := cypher.VectorSearch(cypher.SearchQuery{
		Vector:    vector,
		Limit:     opts.Limit,
		IndexName: ts.indexName,
		MinScore:  opts.MinScore,
		Depth:     opts.Depth,
	})

	var results []SearchResult
	err = ts.withSession(ctx, func(s graph.Session) error {
		rows, err := s.Run(ctx, stmt.Query, stmt.Params)
		if err != nil {
			return err
		}
		results = make([]SearchResult, 0, len(rows))
		for _, row := range rows {
			results = append(results, SearchResult{
				Name:        graph.StringValue(row, "name"),
				Description: graph.StringValue(row, "description"),
				Schema:      graph.StringValue(row, "schema"),
				Relevance:   graph.FloatValue(row, "relevance"),
				Matches:     graph.IntValue(row, "matches"),
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return results, nil
}

// SelectActiveTools picks the tool subset most relevant to the prompt: a
// low-depth vector search capped at maxTools, returning ordered names.
func (ts *Toolset) SelectActiveTools(ctx context.Context, prompt string, maxTools int) ([]string, error) {
	results, err := ts.Search(ctx, prompt, SearchOptions{
		Limit: maxTools,
		Depth: cypher.DepthLow,
	})
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
	}
	return names, nil
}

// ToolInfo is one reconstructed tool from a persisted snapshot.
type ToolInfo struct {
	Name        string
	Description string
	Parameters  []schema.Parameter
	ReturnType  schema.ReturnType
}

// Info is the metadata and reconstructed contents of one persisted ToolSet
// snapshot.
type Info struct {
	Hash      string
	UpdatedAt string
	ToolCount int64
	Tools     []ToolInfo
}

// ToolsetByHash fetches a snapshot by fingerprint. Any fingerprint works,
// not only this instance's current one, which is what makes historical
// snapshots inspectable. A miss returns (nil, nil).
func (ts *Toolset) ToolsetByHash(ctx context.Context, hash string) (*Info, error) {
	stmt := cypher.ToolsetByHash(hash)

	var info *Info
	err := ts.withSession(ctx, func(s graph.Session) error {
		rows, err := s.Run(ctx, stmt.Query, stmt.Params)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		info = parseInfo(rows[0])
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch toolset %s: %w", hash, err)
	}
	return info, nil
}

// DeleteResult reports what a cascade delete removed, for verification.
type DeleteResult struct {
	Toolsets    int64
	Tools       int64
	Params      int64
	ReturnTypes int64
}

// DeleteToolsetByHash deletes a snapshot and everything it owns. Deleting a
// fingerprint that does not exist returns all-zero counts, not an error.
func (ts *Toolset) DeleteToolsetByHash(ctx context.Context, hash string) (DeleteResult, error) {
	stmt := cypher.DeleteToolsetByHash(hash)

	var result DeleteResult
	err := ts.withSession(ctx, func(s graph.Session) error {
		rows, err := s.Run(ctx, stmt.Query, stmt.Params)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		result = DeleteResult{
			Toolsets:    graph.IntValue(rows[0], "deletedToolsets"),
			Tools:       graph.IntValue(rows[0], "deletedTools"),
			Params:      graph.IntValue(rows[0], "deletedParams"),
			ReturnTypes: graph.IntValue(rows[0], "deletedReturnTypes"),
		}
		return nil
	})
	if err != nil {
		return DeleteResult{}, fmt.Errorf("delete toolset %s: %w", hash, err)
	}
	return result, nil
}

func parseInfo(row graph.Record) *Info {
	info := &Info{
		Hash:      graph.StringValue(row, "hash"),
		UpdatedAt: graph.StringValue(row, "updatedAt"),
		ToolCount: graph.IntValue(row, "toolCount"),
	}

	for _, raw := range graph.SliceValue(row, "tools") {
		tool, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		info.Tools = append(info.Tools, parseToolInfo(tool))
	}
	return info
}

func parseToolInfo(tool map[string]any) ToolInfo {
	out := ToolInfo{
		Name:        stringField(tool, "name"),
		Description: stringField(tool, "description"),
	}

	if params, ok := tool["parameters"].([]any); ok {
		for _, raw := range params {
			p, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			required, _ := p["required"].(bool)
			out.Parameters = append(out.Parameters, schema.Parameter{
				Name:        stringField(p, "name"),
				Type:        stringField(p, "type"),
				Description: stringField(p, "description"),
				Required:    required,
			})
		}
	}

	if ret, ok := tool["returnType"].(map[string]any); ok {
		out.ReturnType = schema.ReturnType{
			Type:        stringField(ret, "type"),
			Description: stringField(ret, "description"),
		}
	}
	return out
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
