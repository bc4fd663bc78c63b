package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jStore adapts a neo4j driver to the Store interface. The driver's
// lifecycle (connection pool, Close) stays with the caller.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4jStore wraps an existing driver. database may be empty to use the
// server default.
func NewNeo4jStore(driver neo4j.DriverWithContext, database string) *Neo4jStore {
	return &Neo4jStore{driver: driver, database: database}
}

// OpenSession opens one short-lived session.
func (s *Neo4jStore) OpenSession(ctx context.Context) (Session, error) {
	if s.driver == nil {
		return nil, ErrNilStore
	}
	inner := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
	return &neo4jSession{inner: inner}, nil
}

type neo4jSession struct {
	inner neo4j.SessionWithContext
}

func (s *neo4jSession) Run(ctx context.Context, query string, params map[string]any) ([]Record, error) {
	result, err := s.inner.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("run statement: %w", err)
	}

	raw, err := result.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect rows: %w", err)
	}

	records := make([]Record, len(raw))
	for i, r := range raw {
		records[i] = r
	}
	return records, nil
}

func (s *neo4jSession) Close(ctx context.Context) error {
	return s.inner.Close(ctx)
}
