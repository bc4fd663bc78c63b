// Package mcptools bridges MCP tool listings into this module's registry
// form. A tools/list result from an MCP server becomes a
// map[string]schema.Definition that can seed a toolset or client directly:
//
//	result, err := session.ListTools(ctx, nil)
//	defs, err := mcptools.Definitions(result.Tools)
//	ts, err := toolset.New(toolset.Options{Store: store, Embedder: emb, Tools: defs})
package mcptools
