package toolset

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonwraymond/toolgraph/cypher"
	"github.com/jonwraymond/toolgraph/graph"
)

// SyncOptions configures a forced sync.
type SyncOptions struct {
	// SkipIndexWait disables the post-migration poll for index
	// population. By default Sync blocks until the index reports online
	// and fully populated.
	SkipIndexWait bool

	// MaxWait bounds the index poll. Default: 30s.
	MaxWait time.Duration
}

// EnsureSynced makes the current fingerprint exist in the store. It is a
// no-op when already synced. Otherwise it checks whether the fingerprint is
// already persisted (the default gate that keeps the create-only migration
// path from duplicating nodes) and, on a miss, creates the vector index,
// embeds the toolset, and executes the migration.
//
// A failure anywhere aborts the operation, restores the prior state, and
// propagates the error. Partial writes are not rolled back; a failed
// migration means "did not complete" and wants a fresh Sync.
func (ts *Toolset) EnsureSynced(ctx context.Context) error {
	if ts.state == StateSynced {
		return nil
	}

	prior := ts.state
	ts.state = StateSyncing

	if err := ts.ensureSynced(ctx); err != nil {
		ts.state = prior
		return err
	}

	ts.state = StateSynced
	return nil
}

func (ts *Toolset) ensureSynced(ctx context.Context) error {
	hash := ts.fingerprint

	migrate, err := ts.shouldMigrate(ctx, hash)
	if err != nil {
		return fmt.Errorf("check toolset %s: %w", hash, err)
	}
	if !migrate {
		ts.logger.Debug("toolset already persisted", zap.String("fingerprint", hash))
		return nil
	}

	if err := ts.withSession(ctx, func(s graph.Session) error {
		stmt := cypher.CreateVectorIndex(ts.indexName, ts.dimensions)
		_, err := s.Run(ctx, stmt.Query, stmt.Params)
		return err
	}); err != nil {
		return fmt.Errorf("create vector index %s: %w", ts.indexName, err)
	}

	decs := ts.decompositions()
	vectors, err := ts.orchestrator.EmbedToolset(ctx, decs)
	if err != nil {
		return fmt.Errorf("embed toolset %s: %w", hash, err)
	}

	tools := make([]cypher.MigrationTool, 0, len(decs))
	for _, dec := range decs {
		v := vectors[dec.Name]

		params := make([]cypher.MigrationParameter, 0, len(dec.Parameters))
		for _, p := range dec.Parameters {
			params = append(params, cypher.MigrationParameter{
				Name:        p.Name,
				Type:        p.Type,
				Description: p.Description,
				Required:    p.Required,
				Embedding:   v.Parameters[p.Name],
			})
		}

		tools = append(tools, cypher.MigrationTool{
			Name:        dec.Name,
			Description: dec.Description,
			Embedding:   v.Tool,
			Parameters:  params,
			Return: cypher.MigrationReturn{
				Type:        dec.ReturnType.Type,
				Description: dec.ReturnType.Description,
				Embedding:   v.ReturnType,
			},
		})
	}

	if ts.overrides.OnBeforeMigrate != nil {
		if err := ts.overrides.OnBeforeMigrate(ctx, hash); err != nil {
			return fmt.Errorf("before migrate %s: %w", hash, err)
		}
	}

	stmt := cypher.Migrate(hash, tools)
	if err := ts.withSession(ctx, func(s graph.Session) error {
		if ts.overrides.Migrate != nil {
			return ts.overrides.Migrate(ctx, s, stmt)
		}
		_, err := s.Run(ctx, stmt.Query, stmt.Params)
		return err
	}); err != nil {
		return fmt.Errorf("migrate toolset %s: %w", hash, err)
	}

	ts.logger.Info("toolset migrated",
		zap.String("fingerprint", hash),
		zap.Int("tools", len(tools)))
	return nil
}

// shouldMigrate decides whether the store needs a write for this hash. The
// default is an existence check by fingerprint; callers can override it.
func (ts *Toolset) shouldMigrate(ctx context.Context, hash string) (bool, error) {
	if ts.overrides.ShouldMigrate != nil {
		return ts.overrides.ShouldMigrate(ctx, hash)
	}

	var exists bool
	err := ts.withSession(ctx, func(s graph.Session) error {
		stmt := cypher.ToolsetByHash(hash)
		rows, err := s.Run(ctx, stmt.Query, stmt.Params)
		if err != nil {
			return err
		}
		exists = len(rows) > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// Sync forces a fingerprint recomputation (picking up registry changes) and
// re-runs the existence check and, when needed, the migration. Unless
// disabled, it then polls the vector index until it is online and fully
// populated. Returns the fingerprint that is now current.
func (ts *Toolset) Sync(ctx context.Context, opts SyncOptions) (string, error) {
	if err := ts.recomputeFingerprint(); err != nil {
		return "", err
	}
	if ts.state == StateSynced {
		ts.state = StateUnsynced
	}

	if err := ts.EnsureSynced(ctx); err != nil {
		return "", err
	}

	if !opts.SkipIndexWait {
		maxWait := opts.MaxWait
		if maxWait <= 0 {
			maxWait = 30 * time.Second
		}
		if err := ts.waitForIndex(ctx, maxWait); err != nil {
			return "", err
		}
	}

	return ts.fingerprint, nil
}

// waitForIndex polls the index status at a fixed interval until the index
// reports online and 100% populated, the deadline passes, or the context is
// canceled.
func (ts *Toolset) waitForIndex(ctx context.Context, maxWait time.Duration) error {
	start := time.Now()
	deadline := start.Add(maxWait)

	for {
		ready, err := ts.indexReady(ctx)
		if err != nil {
			return fmt.Errorf("check index %s: %w", ts.indexName, err)
		}
		if ready {
			return nil
		}

		if time.Now().After(deadline) {
			return &IndexNotReadyError{IndexName: ts.indexName, Elapsed: time.Since(start)}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(ts.pollInterval):
		}
	}
}

func (ts *Toolset) indexReady(ctx context.Context) (bool, error) {
	var ready bool
	err := ts.withSession(ctx, func(s graph.Session) error {
		stmt := cypher.CheckVectorIndexStatus(ts.indexName)
		rows, err := s.Run(ctx, stmt.Query, stmt.Params)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		state := graph.StringValue(rows[0], "state")
		population := graph.FloatValue(rows[0], "populationPercent")
		ready = strings.EqualFold(state, "ONLINE") && population >= 100
		return nil
	})
	return ready, err
}
