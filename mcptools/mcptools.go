package mcptools

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonwraymond/toolgraph/schema"
)

// Definitions converts an MCP tools/list result into a tool registry. Tools
// without a name are skipped. The input schema is round-tripped through JSON
// so the SDK's schema representation lands as the plain map form the rest of
// the module works with.
func Definitions(tools []*mcp.Tool) (map[string]schema.Definition, error) {
	defs := make(map[string]schema.Definition, len(tools))
	for _, tool := range tools {
		if tool == nil || tool.Name == "" {
			continue
		}

		inputSchema, err := schemaMap(tool.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", tool.Name, err)
		}

		defs[tool.Name] = schema.Definition{
			Description: tool.Description,
			InputSchema: inputSchema,
		}
	}
	return defs, nil
}

// Definition converts a single MCP tool.
func Definition(tool *mcp.Tool) (schema.Definition, error) {
	if tool == nil {
		return schema.Definition{}, nil
	}
	inputSchema, err := schemaMap(tool.InputSchema)
	if err != nil {
		return schema.Definition{}, err
	}
	return schema.Definition{
		Description: tool.Description,
		InputSchema: inputSchema,
	}, nil
}

func schemaMap(s any) (map[string]any, error) {
	if s == nil {
		return nil, nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal input schema: %w", err)
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("input schema is not an object: %w", err)
	}
	return obj, nil
}
