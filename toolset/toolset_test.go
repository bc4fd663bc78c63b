package toolset

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/jonwraymond/toolgraph/cypher"
	"github.com/jonwraymond/toolgraph/graph"
	"github.com/jonwraymond/toolgraph/schema"
)

// fakeRecord is a named-column row.
type fakeRecord map[string]any

func (r fakeRecord) Get(key string) (any, bool) {
	v, ok := r[key]
	return v, ok
}

// fakeStore routes statements by shape and records everything it ran.
type fakeStore struct {
	mu sync.Mutex

	existing   map[string]bool
	indexState string
	population float64
	searchRows []graph.Record
	runErr     error

	queries    []string
	migrations []cypher.Statement
	opened     int
	closed     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		existing:   map[string]bool{},
		indexState: "ONLINE",
		population: 100,
	}
}

func (f *fakeStore) OpenSession(context.Context) (graph.Session, error) {
	f.mu.Lock()
	f.opened++
	f.mu.Unlock()
	return &fakeSession{store: f}, nil
}

type fakeSession struct {
	store *fakeStore
}

func (s *fakeSession) Close(context.Context) error {
	s.store.mu.Lock()
	s.store.closed++
	s.store.mu.Unlock()
	return nil
}

func (s *fakeSession) Run(_ context.Context, query string, params map[string]any) ([]graph.Record, error) {
	f := s.store
	f.mu.Lock()
	defer f.mu.Unlock()

	f.queries = append(f.queries, query)
	if f.runErr != nil {
		return nil, f.runErr
	}

	switch {
	case strings.Contains(query, "SHOW INDEXES"):
		return []graph.Record{fakeRecord{
			"name":              params["indexName"],
			"state":             f.indexState,
			"populationPercent": f.population,
		}}, nil

	case strings.Contains(query, "db.index.vector.queryNodes"):
		limit, _ := params["limit"].(int)
		rows := f.searchRows
		if limit > 0 && len(rows) > limit {
			rows = rows[:limit]
		}
		return rows, nil

	case strings.Contains(query, "MERGE (ts:ToolSet"):
		hash, _ := params["toolsetHash"].(string)
		f.existing[hash] = true
		f.migrations = append(f.migrations, cypher.Statement{Query: query, Params: params})
		return nil, nil

	case strings.Contains(query, "FOREACH"):
		hash, _ := params["hash"].(string)
		if !f.existing[hash] {
			return nil, nil
		}
		delete(f.existing, hash)
		return []graph.Record{fakeRecord{
			"deletedToolsets":    int64(1),
			"deletedTools":       int64(2),
			"deletedParams":      int64(3),
			"deletedReturnTypes": int64(2),
		}}, nil

	case strings.Contains(query, "MATCH (ts:ToolSet"):
		hash, _ := params["hash"].(string)
		if !f.existing[hash] {
			return nil, nil
		}
		return []graph.Record{fakeRecord{
			"hash":      hash,
			"updatedAt": "2026-01-01T00:00:00Z",
			"toolCount": int64(2),
			"tools": []any{
				map[string]any{
					"name":        "get_weather",
					"description": "Get the current weather for a location",
					"parameters": []any{
						map[string]any{"name": "location", "type": "string", "description": "City name", "required": true},
					},
					"returnType": map[string]any{"type": "object", "description": "Tool execution result"},
				},
			},
		}}, nil
	}

	return nil, nil
}

func (f *fakeStore) sessionCounts() (opened, closed int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened, f.closed
}

func (f *fakeStore) setRunErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runErr = err
}

func (f *fakeStore) ranQuery(fragment string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, q := range f.queries {
		if strings.Contains(q, fragment) {
			n++
		}
	}
	return n
}

// fakeEmbedder produces fixed-dimension deterministic vectors.
type fakeEmbedder struct {
	dims int
	err  error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	vec := make([]float32, f.dims)
	for i := range vec {
		vec[i] = float32((len(text) + i) % 7)
	}
	return vec, nil
}

func registry() map[string]schema.Definition {
	return map[string]schema.Definition{
		"get_weather": {
			Description: "Get the current weather for a location",
			InputSchema: map[string]any{
				"properties": map[string]any{
					"location": map[string]any{"type": "string", "description": "City name"},
				},
				"required": []any{"location"},
			},
		},
		"search_database": {
			Description: "Search the user database",
			InputSchema: map[string]any{
				"properties": map[string]any{
					"query": map[string]any{"type": "string"},
				},
			},
		},
	}
}

func newToolset(t *testing.T, store *fakeStore) *Toolset {
	t.Helper()
	ts, err := New(Options{
		Store:        store,
		Embedder:     &fakeEmbedder{dims: 4},
		Tools:        registry(),
		Dimensions:   4,
		PollInterval: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new toolset: %v", err)
	}
	return ts
}

func TestNew_RequiredOptions(t *testing.T) {
	if _, err := New(Options{Embedder: &fakeEmbedder{dims: 4}}); !errors.Is(err, ErrNilStore) {
		t.Errorf("missing store: err = %v", err)
	}
	if _, err := New(Options{Store: newFakeStore()}); !errors.Is(err, ErrNilEmbedder) {
		t.Errorf("missing embedder: err = %v", err)
	}
}

func TestEnsureSynced_MigratesNewFingerprint(t *testing.T) {
	store := newFakeStore()
	ts := newToolset(t, store)

	if err := ts.EnsureSynced(context.Background()); err != nil {
		t.Fatalf("ensure synced: %v", err)
	}

	if ts.State() != StateSynced {
		t.Errorf("state = %v, want synced", ts.State())
	}
	if store.ranQuery("CREATE VECTOR INDEX") != 1 {
		t.Error("vector index not created")
	}
	if len(store.migrations) != 1 {
		t.Fatalf("migration count = %d, want 1", len(store.migrations))
	}
	if store.migrations[0].Params["toolCount"] != 2 {
		t.Errorf("migrated toolCount = %v", store.migrations[0].Params["toolCount"])
	}
}

func TestEnsureSynced_SkipsExistingFingerprint(t *testing.T) {
	store := newFakeStore()
	ts := newToolset(t, store)
	store.existing[ts.Fingerprint()] = true

	if err := ts.EnsureSynced(context.Background()); err != nil {
		t.Fatalf("ensure synced: %v", err)
	}

	if ts.State() != StateSynced {
		t.Errorf("state = %v, want synced", ts.State())
	}
	if len(store.migrations) != 0 {
		t.Error("existing fingerprint must not be re-migrated")
	}
}

func TestEnsureSynced_NoOpWhenSynced(t *testing.T) {
	store := newFakeStore()
	ts := newToolset(t, store)

	if err := ts.EnsureSynced(context.Background()); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	before := store.ranQuery("MATCH (ts:ToolSet")

	if err := ts.EnsureSynced(context.Background()); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if store.ranQuery("MATCH (ts:ToolSet") != before {
		t.Error("synced toolset should not hit the store again")
	}
}

func TestEnsureSynced_FailureRestoresState(t *testing.T) {
	store := newFakeStore()
	ts := newToolset(t, store)
	boom := errors.New("store down")
	store.runErr = boom

	err := ts.EnsureSynced(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want store error", err)
	}
	if ts.State() != StateUnsynced {
		t.Errorf("state after failure = %v, want unsynced", ts.State())
	}
}

func TestEnsureSynced_EmbedderFailureAborts(t *testing.T) {
	store := newFakeStore()
	boom := errors.New("embedder down")
	ts, err := New(Options{
		Store:    store,
		Embedder: &fakeEmbedder{dims: 4, err: boom},
		Tools:      registry(),
		Dimensions: 4,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if err := ts.EnsureSynced(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want embedder error", err)
	}
	if len(store.migrations) != 0 {
		t.Error("migration must not run after embedding failure")
	}
}

func TestAddRemoveTool_FingerprintAndState(t *testing.T) {
	ts := newToolset(t, newFakeStore())
	if err := ts.EnsureSynced(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}
	original := ts.Fingerprint()

	if err := ts.AddTool("send_email", schema.Definition{Description: "Send an email"}); err != nil {
		t.Fatalf("add tool: %v", err)
	}
	if ts.State() != StateUnsynced {
		t.Error("add did not mark unsynced")
	}
	if ts.Fingerprint() == original {
		t.Error("add did not change fingerprint")
	}

	if err := ts.RemoveTool("send_email"); err != nil {
		t.Fatalf("remove tool: %v", err)
	}
	if ts.Fingerprint() != original {
		t.Error("removing the added tool should restore the fingerprint")
	}
}

func TestSync_ReturnsFingerprintAndWaits(t *testing.T) {
	store := newFakeStore()
	ts := newToolset(t, store)

	fp, err := ts.Sync(context.Background(), SyncOptions{})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if fp != ts.Fingerprint() {
		t.Errorf("sync returned %q, fingerprint is %q", fp, ts.Fingerprint())
	}
	if store.ranQuery("SHOW INDEXES") == 0 {
		t.Error("sync did not poll index status")
	}
}

func TestSync_IndexNotReadyTimeout(t *testing.T) {
	store := newFakeStore()
	store.indexState = "POPULATING"
	store.population = 40
	ts := newToolset(t, store)

	_, err := ts.Sync(context.Background(), SyncOptions{MaxWait: 5 * time.Millisecond})

	var notReady *IndexNotReadyError
	if !errors.As(err, &notReady) {
		t.Fatalf("err = %v, want IndexNotReadyError", err)
	}
	if notReady.IndexName != ts.IndexName() {
		t.Errorf("error index = %q, want %q", notReady.IndexName, ts.IndexName())
	}
	if notReady.Elapsed <= 0 {
		t.Error("error must carry elapsed time")
	}
}

func TestSync_SkipIndexWait(t *testing.T) {
	store := newFakeStore()
	store.indexState = "POPULATING"
	ts := newToolset(t, store)

	if _, err := ts.Sync(context.Background(), SyncOptions{SkipIndexWait: true}); err != nil {
		t.Fatalf("sync without wait: %v", err)
	}
}

func TestSync_PicksUpRegistryChanges(t *testing.T) {
	store := newFakeStore()
	ts := newToolset(t, store)

	first, err := ts.Sync(context.Background(), SyncOptions{SkipIndexWait: true})
	if err != nil {
		t.Fatalf("first sync: %v", err)
	}

	if err := ts.AddTool("send_email", schema.Definition{Description: "Send an email"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	second, err := ts.Sync(context.Background(), SyncOptions{SkipIndexWait: true})
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}

	if first == second {
		t.Error("sync after registry change returned the old fingerprint")
	}
	if len(store.migrations) != 2 {
		t.Errorf("migration count = %d, want 2 (one per fingerprint)", len(store.migrations))
	}
}

func TestMigrationOverrides(t *testing.T) {
	store := newFakeStore()
	var gateAsked, hookRan, migrateRan bool

	ts, err := New(Options{
		Store:      store,
		Embedder:   &fakeEmbedder{dims: 4},
		Tools:      registry(),
		Dimensions: 4,
		Overrides: MigrationOverrides{
			ShouldMigrate: func(_ context.Context, hash string) (bool, error) {
				gateAsked = true
				return true, nil
			},
			OnBeforeMigrate: func(_ context.Context, hash string) error {
				hookRan = true
				return nil
			},
			Migrate: func(_ context.Context, s graph.Session, stmt cypher.Statement) error {
				migrateRan = true
				_, err := s.Run(context.Background(), stmt.Query, stmt.Params)
				return err
			},
		},
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if err := ts.EnsureSynced(context.Background()); err != nil {
		t.Fatalf("ensure synced: %v", err)
	}
	if !gateAsked || !hookRan || !migrateRan {
		t.Errorf("overrides not exercised: gate=%v hook=%v migrate=%v", gateAsked, hookRan, migrateRan)
	}
}

func TestSelectActiveTools(t *testing.T) {
	store := newFakeStore()
	store.searchRows = []graph.Record{
		fakeRecord{"name": "get_weather", "description": "Get the current weather for a location", "relevance": 0.92},
		fakeRecord{"name": "search_database", "description": "Search the user database", "relevance": 0.41},
	}
	ts := newToolset(t, store)

	names, err := ts.SelectActiveTools(context.Background(), "What is the temperature in New York?", 10)
	if err != nil {
		t.Fatalf("select: %v", err)
	}

	want := []string{"get_weather", "search_database"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("selected tools (-want +got):\n%s", diff)
	}
}

func TestSearch_ParsesDeepResults(t *testing.T) {
	store := newFakeStore()
	store.searchRows = []graph.Record{
		fakeRecord{
			"name":        "get_weather",
			"description": "Get the current weather for a location",
			"schema":      "location (string, required): City name",
			"relevance":   0.92,
			"matches":     int64(1),
		},
	}
	ts := newToolset(t, store)

	results, err := ts.Search(context.Background(), "weather", SearchOptions{Depth: cypher.DepthMid, Limit: 3})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("result count = %d", len(results))
	}
	if results[0].Schema == "" || results[0].Matches != 1 {
		t.Errorf("deep result not parsed: %+v", results[0])
	}
}

func TestFilterKnown(t *testing.T) {
	ts := newToolset(t, newFakeStore())

	got := ts.FilterKnown([]string{"get_weather", "unknown_tool", "search_database"})
	want := []string{"get_weather", "search_database"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("filter (-want +got):\n%s", diff)
	}
}

func TestToolsetByHash(t *testing.T) {
	store := newFakeStore()
	ts := newToolset(t, store)
	store.existing["toolset-known"] = true

	info, err := ts.ToolsetByHash(context.Background(), "toolset-known")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if info == nil {
		t.Fatal("known hash returned nil")
	}
	if info.ToolCount != 2 || len(info.Tools) != 1 {
		t.Errorf("info = %+v", info)
	}
	tool := info.Tools[0]
	if tool.Name != "get_weather" || len(tool.Parameters) != 1 || !tool.Parameters[0].Required {
		t.Errorf("tool not reconstructed: %+v", tool)
	}
	if tool.ReturnType.Type != "object" {
		t.Errorf("return type = %+v", tool.ReturnType)
	}

	missing, err := ts.ToolsetByHash(context.Background(), "toolset-nope")
	if err != nil {
		t.Fatalf("fetch missing: %v", err)
	}
	if missing != nil {
		t.Error("missing hash should return nil, not error or value")
	}
}

func TestDeleteToolsetByHash(t *testing.T) {
	store := newFakeStore()
	ts := newToolset(t, store)
	store.existing["toolset-known"] = true

	result, err := ts.DeleteToolsetByHash(context.Background(), "toolset-known")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	want := DeleteResult{Toolsets: 1, Tools: 2, Params: 3, ReturnTypes: 2}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Errorf("delete counts (-want +got):\n%s", diff)
	}

	zero, err := ts.DeleteToolsetByHash(context.Background(), "toolset-nope")
	if err != nil {
		t.Fatalf("delete missing: %v", err)
	}
	if zero != (DeleteResult{}) {
		t.Errorf("missing hash counts = %+v, want zeros", zero)
	}
}

func TestSessionsAlwaysClosed(t *testing.T) {
	store := newFakeStore()
	ts := newToolset(t, store)

	_, _ = ts.Sync(context.Background(), SyncOptions{SkipIndexWait: true})
	_, _ = ts.SelectActiveTools(context.Background(), "weather", 5)
	_, _ = ts.ToolsetByHash(context.Background(), "toolset-x")
	_, _ = ts.DeleteToolsetByHash(context.Background(), "toolset-x")

	if opened, closed := store.sessionCounts(); opened != closed {
		t.Errorf("sessions opened = %d, closed = %d", opened, closed)
	}

	// Error paths close too.
	store.setRunErr(errors.New("down"))
	_, _ = ts.SelectActiveTools(context.Background(), "weather", 5)
	if opened, closed := store.sessionCounts(); opened != closed {
		t.Errorf("after error: opened = %d, closed = %d", opened, closed)
	}
}
