package selector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/jonwraymond/toolgraph/fingerprint"
	"github.com/jonwraymond/toolgraph/schema"
)

// Error values for selector construction.
var (
	ErrNilSelector  = errors.New("selector is nil")
	ErrInvalidAlpha = errors.New("alpha must be between 0 and 1")
)

// Selector picks the active tool subset for a prompt from a registry. The
// returned names are ordered most-relevant first and capped at maxTools.
type Selector interface {
	Select(ctx context.Context, prompt string, tools map[string]schema.Definition, maxTools int) ([]string, error)
}

// Func adapts a function to the Selector interface.
type Func func(ctx context.Context, prompt string, tools map[string]schema.Definition, maxTools int) ([]string, error)

// Select implements Selector.
func (f Func) Select(ctx context.Context, prompt string, tools map[string]schema.Definition, maxTools int) ([]string, error) {
	return f(ctx, prompt, tools, maxTools)
}

// toolDoc is the shape indexed per tool for lexical matching.
type toolDoc struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  string `json:"parameters"`
}

// Lexical selects tools by BM25 full-text relevance over tool names,
// descriptions, and parameter text. It needs no embedding provider and no
// store round-trip, which makes it a practical fallback when the vector
// index is unavailable and a cheap first stage for hybrid selection.
//
// The in-memory index is cached by registry fingerprint and rebuilt only
// when the registry changes. Safe for concurrent use.
type Lexical struct {
	mu    sync.Mutex
	index bleve.Index
	fp    string
}

// NewLexical creates a lexical selector.
func NewLexical() *Lexical {
	return &Lexical{}
}

// Select implements Selector.
func (l *Lexical) Select(_ context.Context, prompt string, tools map[string]schema.Definition, maxTools int) ([]string, error) {
	if maxTools <= 0 {
		return []string{}, nil
	}

	idx, err := l.indexFor(tools)
	if err != nil {
		return nil, err
	}

	query := bleve.NewMatchQuery(prompt)
	req := bleve.NewSearchRequestOptions(query, maxTools, 0, false)
	res, err := idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}

	names := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		names = append(names, hit.ID)
	}
	return names, nil
}

func (l *Lexical) indexFor(tools map[string]schema.Definition) (bleve.Index, error) {
	fp, err := fingerprint.Compute(tools, nil)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.index != nil && l.fp == fp {
		return l.index, nil
	}

	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("build lexical index: %w", err)
	}

	decomposer := schema.NewDecomposer(nil)
	for name, def := range tools {
		dec := decomposer.Decompose(name, def)

		var params []string
		for _, p := range dec.Parameters {
			params = append(params, schema.ParameterText(p.Name, p.Description))
		}

		doc := toolDoc{
			Name:        name,
			Description: def.Description,
			Parameters:  strings.Join(params, " "),
		}
		if err := idx.Index(name, doc); err != nil {
			return nil, fmt.Errorf("index tool %s: %w", name, err)
		}
	}

	if l.index != nil {
		_ = l.index.Close()
	}
	l.index = idx
	l.fp = fp
	return idx, nil
}

// Hybrid fuses the rankings of two selectors with reciprocal-rank scoring.
// Alpha is the primary selector's weight; the secondary gets 1-alpha. Tools
// surfaced by either selector are eligible; ties break by name for
// determinism.
type Hybrid struct {
	primary   Selector
	secondary Selector
	alpha     float64
}

// rrfK dampens the rank contribution so tail positions still matter.
const rrfK = 60

// NewHybrid combines two selectors. An alpha of 0.5 weighs them equally.
func NewHybrid(primary, secondary Selector, alpha float64) (*Hybrid, error) {
	if primary == nil || secondary == nil {
		return nil, ErrNilSelector
	}
	if alpha < 0 || alpha > 1 {
		return nil, ErrInvalidAlpha
	}
	return &Hybrid{primary: primary, secondary: secondary, alpha: alpha}, nil
}

// Select implements Selector.
func (h *Hybrid) Select(ctx context.Context, prompt string, tools map[string]schema.Definition, maxTools int) ([]string, error) {
	if maxTools <= 0 {
		return []string{}, nil
	}

	// Over-fetch from both stages so fusion has enough overlap to reorder.
	primaryNames, err := h.primary.Select(ctx, prompt, tools, maxTools*2)
	if err != nil {
		return nil, err
	}
	secondaryNames, err := h.secondary.Select(ctx, prompt, tools, maxTools*2)
	if err != nil {
		return nil, err
	}

	scores := make(map[string]float64)
	for rank, name := range primaryNames {
		scores[name] += h.alpha / float64(rrfK+rank+1)
	}
	for rank, name := range secondaryNames {
		scores[name] += (1 - h.alpha) / float64(rrfK+rank+1)
	}

	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if scores[names[i]] != scores[names[j]] {
			return scores[names[i]] > scores[names[j]]
		}
		return names[i] < names[j]
	})

	if len(names) > maxTools {
		names = names[:maxTools]
	}
	return names, nil
}
