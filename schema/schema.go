package schema

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// ReturnTypeDescription is the constant description attached to every
// synthesized return type. Tool execution is opaque to the index, so the
// return shape is never inferred from the tool itself.
const ReturnTypeDescription = "Tool execution result"

// TypeUnknown is the parameter type recorded when a property declares no
// usable "type" field.
const TypeUnknown = "unknown"

// Definition describes one callable tool as registered by the application.
//
// Execute holds the executable behavior (a handler, closure, or backend
// reference). It is carried for the caller's convenience only: fingerprinting
// and decomposition both ignore it, since it is not part of the tool's
// observable contract.
type Definition struct {
	Description string
	InputSchema map[string]any
	Execute     any
}

// Parameter is one declared input field of a tool, flattened from its
// input schema.
type Parameter struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

// ReturnType is the synthesized result descriptor attached to every tool.
type ReturnType struct {
	Type        string
	Description string
}

// Decomposition is the embeddable breakdown of a single tool: one text for
// the tool as a whole, one record per declared parameter, and one synthesized
// return type.
type Decomposition struct {
	Name        string
	Description string
	ToolText    string
	Parameters  []Parameter
	ReturnType  ReturnType
}

// Decomposer flattens tool definitions into embeddable sub-components.
// The zero value is usable; Logger defaults to a no-op logger.
type Decomposer struct {
	logger *zap.Logger
}

// NewDecomposer creates a Decomposer. A nil logger disables warning output.
func NewDecomposer(logger *zap.Logger) *Decomposer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decomposer{logger: logger}
}

// Decompose flattens a tool definition into its embeddable components.
//
// The tool text is "<name>: <description>" (empty description leaves a
// trailing space-free colon form intact; the text is still embeddable).
// Parameters are read from the schema's property map, unwrapping a nested
// "jsonSchema" indirection when present. A tool with no declared properties
// decomposes to zero parameters.
func (d *Decomposer) Decompose(name string, def Definition) Decomposition {
	props, required := d.properties(name, def.InputSchema)

	params := make([]Parameter, 0, len(props))
	for _, propName := range sortedKeys(props) {
		params = append(params, d.parameter(name, propName, props[propName], required))
	}

	return Decomposition{
		Name:        name,
		Description: def.Description,
		ToolText:    ToolText(name, def.Description),
		Parameters:  params,
		ReturnType: ReturnType{
			Type:        "object",
			Description: ReturnTypeDescription,
		},
	}
}

// ToolText builds the text embedded to represent a tool as a whole.
func ToolText(name, description string) string {
	return fmt.Sprintf("%s: %s", name, description)
}

// ParameterText builds the text embedded for a single parameter.
func ParameterText(name, description string) string {
	return fmt.Sprintf("%s: %s", name, description)
}

// properties extracts the declared property map and required-name set from a
// raw input schema, tolerating the wrapper shapes that arrive from different
// providers.
func (d *Decomposer) properties(toolName string, raw map[string]any) (map[string]any, map[string]bool) {
	schema := unwrap(raw)
	if schema == nil {
		return nil, nil
	}

	props, ok := schema["properties"].(map[string]any)
	if !ok {
		if rawProps, present := schema["properties"]; present && rawProps != nil {
			// Non-object property map. Index something rather than nothing.
			d.logger.Warn("tool schema has non-object properties; wrapping as value",
				zap.String("tool", toolName))
			props = map[string]any{"value": rawProps}
		} else {
			return nil, nil
		}
	}

	required := make(map[string]bool)
	switch req := schema["required"].(type) {
	case []any:
		for _, r := range req {
			if s, ok := r.(string); ok {
				required[s] = true
			}
		}
	case []string:
		for _, s := range req {
			required[s] = true
		}
	}

	return props, required
}

// parameter builds one Parameter record from a raw property value,
// defaulting missing or malformed fields instead of failing.
func (d *Decomposer) parameter(toolName, propName string, raw any, required map[string]bool) Parameter {
	p := Parameter{
		Name:     propName,
		Type:     TypeUnknown,
		Required: required[propName],
	}

	prop, ok := raw.(map[string]any)
	if !ok {
		d.logger.Warn("tool schema property is not an object; defaulting type",
			zap.String("tool", toolName),
			zap.String("parameter", propName))
		return p
	}

	if t, ok := prop["type"].(string); ok && t != "" {
		p.Type = t
	}
	if desc, ok := prop["description"].(string); ok {
		p.Description = desc
	}

	return p
}

// unwrap resolves provider-specific indirections around the real schema.
// The ai-sdk style wrapper nests the schema under a "jsonSchema" key; when no
// known wrapper is present the raw schema is used as-is.
func unwrap(raw map[string]any) map[string]any {
	if raw == nil {
		return nil
	}
	if inner, ok := raw["jsonSchema"].(map[string]any); ok {
		return inner
	}
	return raw
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
