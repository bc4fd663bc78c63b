package toolset

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/jonwraymond/toolgraph/cypher"
	"github.com/jonwraymond/toolgraph/embed"
	"github.com/jonwraymond/toolgraph/fingerprint"
	"github.com/jonwraymond/toolgraph/graph"
	"github.com/jonwraymond/toolgraph/schema"
)

// State tracks whether the in-memory registry matches what is persisted.
type State int

const (
	// StateUnsynced means the registry has pending changes (or has never
	// been written) relative to the store.
	StateUnsynced State = iota
	// StateSyncing means a sync is in flight.
	StateSyncing
	// StateSynced means the current fingerprint is known to exist in the
	// store.
	StateSynced
)

func (s State) String() string {
	switch s {
	case StateSyncing:
		return "syncing"
	case StateSynced:
		return "synced"
	default:
		return "unsynced"
	}
}

// MigrationOverrides lets a caller replace pieces of the sync pipeline.
type MigrationOverrides struct {
	// ShouldMigrate replaces the default fingerprint-existence check.
	// Returning false skips the write and marks the toolset synced.
	ShouldMigrate func(ctx context.Context, hash string) (bool, error)

	// Migrate replaces the default execution of the rendered migration
	// statement.
	Migrate func(ctx context.Context, session graph.Session, stmt cypher.Statement) error

	// OnBeforeMigrate runs after embeddings are computed and before the
	// migration statement executes.
	OnBeforeMigrate func(ctx context.Context, hash string) error
}

// Options configures a Toolset.
type Options struct {
	// Store is the graph+vector store. Required.
	Store graph.Store

	// Embedder is the embedding capability. Required.
	Embedder embed.Embedder

	// Tools is the initial registry. May be nil.
	Tools map[string]schema.Definition

	// Dimensions is the vector index dimensionality. Default: 1536.
	Dimensions int

	// IndexName names the vector index. Default: "tool_embeddings".
	IndexName string

	// HashFunc overrides the default fingerprint hash.
	HashFunc fingerprint.HashFunc

	// Overrides customizes the migration pipeline.
	Overrides MigrationOverrides

	// PollInterval is the index status poll cadence. Default: 500ms.
	PollInterval time.Duration

	// EmbedConcurrency bounds parallel embedding calls. Default: 8.
	EmbedConcurrency int

	// Logger receives warning-level signals. Default: no-op.
	Logger *zap.Logger
}

// Toolset coordinates the lifecycle of one tool registry against the store:
// fingerprinting, sync gating, migration, retrieval, and fingerprint-
// addressed fetch/delete.
//
// A Toolset expects a single owning context: AddTool and RemoveTool are not
// guarded by a lock, and concurrent Sync calls from separate processes can
// race on the check-then-write existence gate. See the package
// documentation for the full caveat.
type Toolset struct {
	store        graph.Store
	orchestrator *embed.Orchestrator
	decomposer   *schema.Decomposer
	logger       *zap.Logger

	tools       map[string]schema.Definition
	hashFn      fingerprint.HashFunc
	fingerprint string
	state       State

	indexName    string
	dimensions   int
	pollInterval time.Duration
	overrides    MigrationOverrides
}

// New creates a Toolset and computes the initial fingerprint.
func New(opts Options) (*Toolset, error) {
	if opts.Store == nil {
		return nil, ErrNilStore
	}
	if opts.Embedder == nil {
		return nil, ErrNilEmbedder
	}

	dimensions := opts.Dimensions
	if dimensions <= 0 {
		dimensions = 1536
	}
	indexName := opts.IndexName
	if indexName == "" {
		indexName = "tool_embeddings"
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	orchestrator, err := embed.NewOrchestrator(embed.OrchestratorOptions{
		Embedder:    opts.Embedder,
		Dimensions:  dimensions,
		Concurrency: opts.EmbedConcurrency,
	})
	if err != nil {
		return nil, err
	}

	tools := make(map[string]schema.Definition, len(opts.Tools))
	for name, def := range opts.Tools {
		tools[name] = def
	}

	ts := &Toolset{
		store:        opts.Store,
		orchestrator: orchestrator,
		decomposer:   schema.NewDecomposer(logger),
		logger:       logger,
		tools:        tools,
		hashFn:       opts.HashFunc,
		state:        StateUnsynced,
		indexName:    indexName,
		dimensions:   dimensions,
		pollInterval: pollInterval,
		overrides:    opts.Overrides,
	}

	if err := ts.recomputeFingerprint(); err != nil {
		return nil, err
	}
	return ts, nil
}

// Fingerprint returns the fingerprint of the registry as it stands now,
// including mutations that have not been synced yet.
func (ts *Toolset) Fingerprint() string {
	return ts.fingerprint
}

// State returns the current sync state.
func (ts *Toolset) State() State {
	return ts.state
}

// IndexName returns the vector index name in use.
func (ts *Toolset) IndexName() string {
	return ts.indexName
}

// Tools returns a copy of the registry.
func (ts *Toolset) Tools() map[string]schema.Definition {
	out := make(map[string]schema.Definition, len(ts.tools))
	for name, def := range ts.tools {
		out[name] = def
	}
	return out
}

// AddTool registers or replaces a tool, recomputes the fingerprint, and
// marks the toolset unsynced.
func (ts *Toolset) AddTool(name string, def schema.Definition) error {
	ts.tools[name] = def
	ts.state = StateUnsynced
	return ts.recomputeFingerprint()
}

// RemoveTool drops a tool from the registry. Removing an unknown name is a
// no-op but still recomputes state, keeping the fingerprint observable.
func (ts *Toolset) RemoveTool(name string) error {
	delete(ts.tools, name)
	ts.state = StateUnsynced
	return ts.recomputeFingerprint()
}

// FilterKnown intersects an explicit tool-name list with the registry,
// preserving order and silently dropping unknown names.
func (ts *Toolset) FilterKnown(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := ts.tools[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

func (ts *Toolset) recomputeFingerprint() error {
	fp, err := fingerprint.Compute(ts.tools, ts.hashFn)
	if err != nil {
		return fmt.Errorf("compute fingerprint: %w", err)
	}
	ts.fingerprint = fp
	return nil
}

// decompositions flattens the registry in name order so migrations are
// rendered deterministically.
func (ts *Toolset) decompositions() []schema.Decomposition {
	names := make([]string, 0, len(ts.tools))
	for name := range ts.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	decs := make([]schema.Decomposition, 0, len(names))
	for _, name := range names {
		decs = append(decs, ts.decomposer.Decompose(name, ts.tools[name]))
	}
	return decs
}

// withSession opens one short-lived session, runs fn, and closes the
// session on every path.
func (ts *Toolset) withSession(ctx context.Context, fn func(graph.Session) error) error {
	session, err := ts.store.OpenSession(ctx)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer session.Close(ctx)
	return fn(session)
}
