package query_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docport-io/docport/internal/apperrors"
	"github.com/docport-io/docport/internal/models"
	"github.com/docport-io/docport/internal/query"
	"github.com/docport-io/docport/internal/store/memory"
)

func seedReceipts(t *testing.T, s *memory.Store) {
	t.Helper()
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	docs := []models.Document{
		{ID: "r1", ClientID: "cl-1", Status: "pending", CreatedAt: base.Add(1 * time.Hour)},
		{ID: "r2", ClientID: "cl-2", Status: "pending", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "r3", ClientID: "cl-1", Status: "paid", CreatedAt: base.Add(3 * time.Hour)},
		{ID: "r4", ClientID: "cl-1", Status: "pending", CreatedAt: base.Add(4 * time.Hour)},
		{ID: "r5", ClientID: "cl-1", Status: "pending", CreatedAt: time.Time{}},
	}
	for i := range docs {
		require.NoError(t, s.Insert(context.Background(), "receipts", &docs[i]))
	}
}

func clientSpec(limit int) query.Spec {
	return query.Spec{
		Collection: "receipts",
		Filters:    []query.Filter{{Field: models.FieldClientID, Value: "cl-1"}},
		OrderBy:    models.FieldCreatedAt,
		Descending: true,
		Limit:      limit,
	}
}

func TestExecutorPrimaryPath(t *testing.T) {
	s := memory.NewStore()
	seedReceipts(t, s)
	exec := query.NewExecutor(s)

	docs, err := exec.Run(context.Background(), clientSpec(50))
	require.NoError(t, err)
	require.Len(t, docs, 4)
	assert.Equal(t, "r4", docs[0].ID)
	assert.Equal(t, "r3", docs[1].ID)
	assert.Equal(t, "r1", docs[2].ID)
	assert.Equal(t, "r5", docs[3].ID) // zero creation time sorts last
}

func TestExecutorFallbackMatchesPrimary(t *testing.T) {
	// The property from the design: given identical inputs, both paths
	// produce identical ordered, truncated result sets.
	for _, limit := range []int{0, 2, 50} {
		primary := memory.NewStore()
		seedReceipts(t, primary)
		degraded := memory.NewStore()
		seedReceipts(t, degraded)
		degraded.FailPlannedQueries = true

		spec := clientSpec(limit)
		fromPrimary, err := query.NewExecutor(primary).Run(context.Background(), spec)
		require.NoError(t, err)
		fromFallback, err := query.NewExecutor(degraded).Run(context.Background(), spec)
		require.NoError(t, err)

		assert.Equal(t, fromPrimary, fromFallback, "limit=%d", limit)
	}
}

func TestExecutorFallbackKeepsOwnershipFilter(t *testing.T) {
	s := memory.NewStore()
	seedReceipts(t, s)
	s.FailPlannedQueries = true
	exec := query.NewExecutor(s)

	docs, err := exec.Run(context.Background(), clientSpec(50))
	require.NoError(t, err)
	require.NotEmpty(t, docs)
	for _, d := range docs {
		assert.Equal(t, "cl-1", d.ClientID)
	}
}

func TestExecutorBothPathsDown(t *testing.T) {
	s := memory.NewStore()
	seedReceipts(t, s)
	s.Unavailable = true
	exec := query.NewExecutor(s)

	_, err := exec.Run(context.Background(), clientSpec(50))
	require.Error(t, err)
	assert.Equal(t, apperrors.KindUnavailable, apperrors.KindOf(err))

	_, err = exec.RunCount(context.Background(), clientSpec(50))
	require.Error(t, err)
	assert.Equal(t, apperrors.KindUnavailable, apperrors.KindOf(err))
}

func TestExecutorCountIgnoresLimit(t *testing.T) {
	s := memory.NewStore()
	seedReceipts(t, s)
	exec := query.NewExecutor(s)

	n, err := exec.RunCount(context.Background(), clientSpec(2))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	s.FailPlannedQueries = true
	n, err = exec.RunCount(context.Background(), clientSpec(2))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}
