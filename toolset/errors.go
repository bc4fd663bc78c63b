package toolset

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for lifecycle operations. Configuration errors are
// returned immediately and are never worth retrying.
var (
	ErrNilStore    = errors.New("graph store is required")
	ErrNilEmbedder = errors.New("embedder is required")
)

// IndexNotReadyError reports that the vector index did not come online
// within the allotted wait. It is distinct from generic store errors so
// callers can choose to extend the wait or proceed without it.
type IndexNotReadyError struct {
	IndexName string
	Elapsed   time.Duration
}

func (e *IndexNotReadyError) Error() string {
	return fmt.Sprintf("vector index %s not ready after %s", e.IndexName, e.Elapsed)
}
