package query

import (
	"context"
	"errors"
	"log"

	"github.com/docport-io/docport/internal/apperrors"
	"github.com/docport-io/docport/internal/metrics"
	"github.com/docport-io/docport/internal/models"
)

// ErrIndexUnavailable is reported by a store whose planner cannot run a
// spec (typically a missing composite index). It triggers the full-scan
// fallback; it is never surfaced to callers.
var ErrIndexUnavailable = errors.New("store index unavailable for query")

// Store is the slice of the document store the executor needs.
type Store interface {
	// Query runs the spec on the store's planner.
	Query(ctx context.Context, spec Spec) ([]models.Document, error)
	// Scan retrieves the full collection, unfiltered and unordered.
	Scan(ctx context.Context, collection string) ([]models.Document, error)
	// Count counts spec matches without materializing rows.
	Count(ctx context.Context, spec Spec) (int, error)
}

// Executor runs specs with the indexed/fallback strategy: the planner
// first, and on ErrIndexUnavailable an in-process evaluation of the same
// spec over a full scan. The two paths return identical logical results;
// the fallback never drops a filter and is never silent (logged and
// counted).
type Executor struct {
	store Store
}

func NewExecutor(store Store) *Executor {
	return &Executor{store: store}
}

// Run executes the spec and returns the ordered, truncated result set.
func (e *Executor) Run(ctx context.Context, spec Spec) ([]models.Document, error) {
	docs, err := e.store.Query(ctx, spec)
	if err == nil {
		return docs, nil
	}
	if !errors.Is(err, ErrIndexUnavailable) {
		return nil, apperrors.Wrap(apperrors.KindUnavailable, "store_unreachable", err)
	}

	log.Printf("query planner unavailable for %s, falling back to full scan: %v", spec.Collection, err)
	metrics.FallbackScans.WithLabelValues(spec.Collection).Inc()

	all, scanErr := e.store.Scan(ctx, spec.Collection)
	if scanErr != nil {
		return nil, apperrors.Wrap(apperrors.KindUnavailable, "store_unreachable", scanErr)
	}
	return Evaluate(all, spec), nil
}

// RunCount counts spec matches, with the same fallback strategy as Run.
// Count semantics ignore the result cap.
func (e *Executor) RunCount(ctx context.Context, spec Spec) (int, error) {
	n, err := e.store.Count(ctx, spec.Unlimited())
	if err == nil {
		return n, nil
	}
	if !errors.Is(err, ErrIndexUnavailable) {
		return 0, apperrors.Wrap(apperrors.KindUnavailable, "store_unreachable", err)
	}

	log.Printf("count planner unavailable for %s, falling back to full scan: %v", spec.Collection, err)
	metrics.FallbackScans.WithLabelValues(spec.Collection).Inc()

	all, scanErr := e.store.Scan(ctx, spec.Collection)
	if scanErr != nil {
		return 0, apperrors.Wrap(apperrors.KindUnavailable, "store_unreachable", scanErr)
	}
	return len(Evaluate(all, spec.Unlimited())), nil
}
