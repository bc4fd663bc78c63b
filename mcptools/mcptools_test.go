package mcptools

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonwraymond/toolgraph/schema"
)

func TestDefinitions(t *testing.T) {
	tools := []*mcp.Tool{
		{
			Name:        "get_weather",
			Description: "Get the current weather for a location",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"location": map[string]any{"type": "string", "description": "City name"},
				},
				"required": []string{"location"},
			},
		},
		{Name: "ping", Description: "Check connectivity"},
	}

	defs, err := Definitions(tools)
	if err != nil {
		t.Fatalf("definitions: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("got %d definitions, want 2", len(defs))
	}

	weather := defs["get_weather"]
	if weather.Description != "Get the current weather for a location" {
		t.Errorf("description = %q", weather.Description)
	}
	props, _ := weather.InputSchema["properties"].(map[string]any)
	if _, ok := props["location"]; !ok {
		t.Errorf("input schema lost properties: %v", weather.InputSchema)
	}
	req, _ := weather.InputSchema["required"].([]any)
	if len(req) != 1 || req[0] != "location" {
		t.Errorf("required = %v", req)
	}
}

func TestDefinitions_FeedsDecomposer(t *testing.T) {
	defs, err := Definitions([]*mcp.Tool{
		{
			Name:        "search",
			Description: "Search records",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string", "description": "Query text"},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("definitions: %v", err)
	}

	dec := schema.NewDecomposer(nil).Decompose("search", defs["search"])
	want := []schema.Parameter{
		{Name: "query", Type: "string", Description: "Query text"},
	}
	if diff := cmp.Diff(want, dec.Parameters); diff != "" {
		t.Errorf("decomposed parameters (-want +got):\n%s", diff)
	}
}

func TestDefinitions_SkipsNilAndUnnamed(t *testing.T) {
	defs, err := Definitions([]*mcp.Tool{
		nil,
		{Description: "anonymous"},
		{Name: "keep", Description: "kept"},
	})
	if err != nil {
		t.Fatalf("definitions: %v", err)
	}
	if len(defs) != 1 {
		t.Errorf("got %d definitions, want 1", len(defs))
	}
	if _, ok := defs["keep"]; !ok {
		t.Errorf("named tool dropped: %v", defs)
	}
}

func TestDefinitions_RejectsNonObjectSchema(t *testing.T) {
	_, err := Definitions([]*mcp.Tool{
		{Name: "bad", InputSchema: "not a schema"},
	})
	if err == nil {
		t.Fatal("non-object schema accepted")
	}
}

func TestDefinition_Nil(t *testing.T) {
	def, err := Definition(nil)
	if err != nil {
		t.Fatalf("definition: %v", err)
	}
	if def.Description != "" || def.InputSchema != nil {
		t.Errorf("nil tool produced %+v", def)
	}
}
