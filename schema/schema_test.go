package schema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecompose_ToolText(t *testing.T) {
	d := NewDecomposer(nil)

	dec := d.Decompose("get_weather", Definition{
		Description: "Get the current weather for a location",
	})

	want := "get_weather: Get the current weather for a location"
	if dec.ToolText != want {
		t.Errorf("tool text = %q, want %q", dec.ToolText, want)
	}
}

func TestDecompose_Parameters(t *testing.T) {
	d := NewDecomposer(nil)

	dec := d.Decompose("get_weather", Definition{
		Description: "Get the current weather for a location",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"location": map[string]any{
					"type":        "string",
					"description": "City name",
				},
				"unit": map[string]any{
					"type": "string",
				},
			},
			"required": []any{"location"},
		},
	})

	want := []Parameter{
		{Name: "location", Type: "string", Description: "City name", Required: true},
		{Name: "unit", Type: "string"},
	}
	if diff := cmp.Diff(want, dec.Parameters); diff != "" {
		t.Errorf("parameters mismatch (-want +got):\n%s", diff)
	}
}

func TestDecompose_UnwrapsJSONSchemaWrapper(t *testing.T) {
	d := NewDecomposer(nil)

	dec := d.Decompose("search", Definition{
		InputSchema: map[string]any{
			"jsonSchema": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string"},
				},
			},
		},
	})

	if len(dec.Parameters) != 1 || dec.Parameters[0].Name != "query" {
		t.Errorf("expected single query parameter, got %+v", dec.Parameters)
	}
}

func TestDecompose_NoProperties(t *testing.T) {
	d := NewDecomposer(nil)

	for _, def := range []Definition{
		{Description: "no schema at all"},
		{InputSchema: map[string]any{"type": "object"}},
		{InputSchema: map[string]any{"type": "object", "properties": map[string]any{}}},
	} {
		dec := d.Decompose("tool", def)
		if len(dec.Parameters) != 0 {
			t.Errorf("expected zero parameters for %+v, got %d", def, len(dec.Parameters))
		}
	}
}

func TestDecompose_MissingTypeDefaultsToUnknown(t *testing.T) {
	d := NewDecomposer(nil)

	dec := d.Decompose("tool", Definition{
		InputSchema: map[string]any{
			"properties": map[string]any{
				"untyped": map[string]any{"description": "no type here"},
			},
		},
	})

	if dec.Parameters[0].Type != TypeUnknown {
		t.Errorf("type = %q, want %q", dec.Parameters[0].Type, TypeUnknown)
	}
}

func TestDecompose_NonObjectPropertiesWrapped(t *testing.T) {
	d := NewDecomposer(nil)

	dec := d.Decompose("tool", Definition{
		InputSchema: map[string]any{
			"properties": "not-an-object",
		},
	})

	if len(dec.Parameters) != 1 || dec.Parameters[0].Name != "value" {
		t.Errorf("expected synthetic value parameter, got %+v", dec.Parameters)
	}
}

func TestDecompose_ReturnType(t *testing.T) {
	d := NewDecomposer(nil)

	dec := d.Decompose("tool", Definition{})

	if dec.ReturnType.Type != "object" {
		t.Errorf("return type = %q, want object", dec.ReturnType.Type)
	}
	if dec.ReturnType.Description != ReturnTypeDescription {
		t.Errorf("return description = %q, want %q", dec.ReturnType.Description, ReturnTypeDescription)
	}
}

func TestDecompose_ExecuteIgnored(t *testing.T) {
	d := NewDecomposer(nil)

	withExec := d.Decompose("tool", Definition{
		Description: "desc",
		Execute:     func() {},
	})
	withoutExec := d.Decompose("tool", Definition{Description: "desc"})

	if withExec.ToolText != withoutExec.ToolText {
		t.Error("executable field should not affect decomposition")
	}
	if diff := cmp.Diff(withoutExec.Parameters, withExec.Parameters); diff != "" {
		t.Errorf("parameters mismatch (-want +got):\n%s", diff)
	}
}

func TestDecompose_ParameterOrderDeterministic(t *testing.T) {
	d := NewDecomposer(nil)

	def := Definition{
		InputSchema: map[string]any{
			"properties": map[string]any{
				"charlie": map[string]any{"type": "string"},
				"alpha":   map[string]any{"type": "number"},
				"bravo":   map[string]any{"type": "boolean"},
			},
		},
	}

	first := d.Decompose("tool", def)
	for i := 0; i < 10; i++ {
		again := d.Decompose("tool", def)
		if diff := cmp.Diff(first.Parameters, again.Parameters); diff != "" {
			t.Fatalf("parameter order unstable (-first +again):\n%s", diff)
		}
	}

	names := []string{first.Parameters[0].Name, first.Parameters[1].Name, first.Parameters[2].Name}
	want := []string{"alpha", "bravo", "charlie"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("parameter order (-want +got):\n%s", diff)
	}
}
