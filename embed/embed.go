package embed

import (
	"context"
	"errors"
	"fmt"

	"github.com/sourcegraph/conc/pool"

	"github.com/jonwraymond/toolgraph/schema"
)

// Error values for embedding operations.
var (
	ErrNilEmbedder       = errors.New("embedder is nil")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Embedder generates a vector embedding for a piece of text. The
// dimensionality must stay fixed for the lifetime of one toolset's index.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ToolVectors holds the parallel embeddings for one decomposed tool.
type ToolVectors struct {
	Tool       []float32
	Parameters map[string][]float32
	ReturnType []float32
}

// Orchestrator fans out embedding calls for a toolset and enforces the
// configured dimensionality. It has no retry policy of its own: provider
// failures cancel the whole operation and propagate unchanged.
type Orchestrator struct {
	embedder    Embedder
	dimensions  int
	concurrency int
}

// OrchestratorOptions configures an Orchestrator.
type OrchestratorOptions struct {
	// Embedder is the embedding capability. Required.
	Embedder Embedder

	// Dimensions is the vector index dimensionality every embedding must
	// match. Required.
	Dimensions int

	// Concurrency bounds parallel embedding calls. Default: 8.
	Concurrency int
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(opts OrchestratorOptions) (*Orchestrator, error) {
	if opts.Embedder == nil {
		return nil, ErrNilEmbedder
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Orchestrator{
		embedder:    opts.Embedder,
		dimensions:  opts.Dimensions,
		concurrency: concurrency,
	}, nil
}

// EmbedText embeds one text (typically a user prompt) and checks its
// dimensionality.
func (o *Orchestrator) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vec, err := o.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := o.checkDimensions(vec); err != nil {
		return nil, err
	}
	return vec, nil
}

// EmbedToolset embeds every component of the decomposed toolset: one call
// per tool text, one per parameter text, and one shared call for the
// constant return-type description.
//
// Calls run with bounded concurrency; the first failure cancels the rest
// and is returned as-is.
func (o *Orchestrator) EmbedToolset(ctx context.Context, decs []schema.Decomposition) (map[string]ToolVectors, error) {
	// The return-type description is the same constant for every tool, so
	// it is embedded once up front and shared.
	returnVec, err := o.EmbedText(ctx, schema.ReturnTypeDescription)
	if err != nil {
		return nil, fmt.Errorf("embed return type: %w", err)
	}

	results := make([]ToolVectors, len(decs))

	p := pool.New().WithMaxGoroutines(o.concurrency).WithContext(ctx).WithCancelOnError()
	for i, dec := range decs {
		p.Go(func(ctx context.Context) error {
			vectors, err := o.embedTool(ctx, dec)
			if err != nil {
				return err
			}
			vectors.ReturnType = returnVec
			results[i] = vectors
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]ToolVectors, len(decs))
	for i, dec := range decs {
		out[dec.Name] = results[i]
	}
	return out, nil
}

func (o *Orchestrator) embedTool(ctx context.Context, dec schema.Decomposition) (ToolVectors, error) {
	toolVec, err := o.embedder.Embed(ctx, dec.ToolText)
	if err != nil {
		return ToolVectors{}, fmt.Errorf("embed tool %s: %w", dec.Name, err)
	}
	if err := o.checkDimensions(toolVec); err != nil {
		return ToolVectors{}, fmt.Errorf("tool %s: %w", dec.Name, err)
	}

	params := make(map[string][]float32, len(dec.Parameters))
	for _, param := range dec.Parameters {
		vec, err := o.embedder.Embed(ctx, schema.ParameterText(param.Name, param.Description))
		if err != nil {
			return ToolVectors{}, fmt.Errorf("embed parameter %s.%s: %w", dec.Name, param.Name, err)
		}
		if err := o.checkDimensions(vec); err != nil {
			return ToolVectors{}, fmt.Errorf("parameter %s.%s: %w", dec.Name, param.Name, err)
		}
		params[param.Name] = vec
	}

	return ToolVectors{Tool: toolVec, Parameters: params}, nil
}

func (o *Orchestrator) checkDimensions(vec []float32) error {
	if len(vec) != o.dimensions {
		return fmt.Errorf("%w: got %d, index expects %d", ErrDimensionMismatch, len(vec), o.dimensions)
	}
	return nil
}
