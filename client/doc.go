// Package client is the application-facing facade: a synced, searchable
// toolset in front of an external text-generation capability.
//
// A [Client] owns a toolset coordinator and a [Generator]. Each
// [Client.GenerateText] call auto-syncs the toolset, resolves the active
// tool subset (an explicit list, a configured selector, or the default
// semantic search), and hands the generator only that subset — which is the
// whole point: a registry of hundreds of tools stays out of the model's
// context, and each request sees the handful that matter for it.
//
//	c, err := client.New(client.Options{
//	    Generator: myModel,
//	    Store:     graph.NewNeo4jStore(driver, ""),
//	    Embedder:  embed.NewOpenAIEmbedder(apiKey, "", ""),
//	    Tools:     tools,
//	})
//	resp, err := c.GenerateText(ctx, client.Request{
//	    Prompt: "What is the temperature in New York?",
//	})
//
// Toolset lifecycle operations (Sync, AddTool, RemoveTool, ToolsetByHash,
// DeleteToolsetByHash) pass through to the toolset package.
package client
