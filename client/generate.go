package client

import (
	"context"

	"github.com/jonwraymond/toolgraph/schema"
)

// Message is one chat turn passed through to the generation capability.
type Message struct {
	Role    string
	Content string
}

// ToolCall is one tool invocation the model asked for.
type ToolCall struct {
	ToolName string
	Input    map[string]any
}

// Usage carries the token accounting reported by the model.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// GenerateRequest is what the external generation capability receives. The
// tool map is already filtered down to the active subset.
type GenerateRequest struct {
	Model    string
	Prompt   string
	Messages []Message
	Tools    map[string]schema.Definition
	Options  map[string]any
}

// GenerateResponse is the generation capability's result, passed back to
// the caller unchanged.
type GenerateResponse struct {
	Text      string
	ToolCalls []ToolCall
	Usage     Usage
}

// Generator is the external text-generation capability: prompt plus a tool
// subset in, text plus tool calls and usage out. The orchestration loop
// behind it (prompt construction, streaming, multi-step execution) is not
// this module's concern.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}
