package store

import (
	"context"

	"github.com/docport-io/docport/internal/models"
	"github.com/docport-io/docport/internal/query"
)

// DocumentStore is the full surface this core needs from the hosted
// document store. The store itself is an external collaborator; both
// bundled implementations (sqlstore, memory) satisfy this interface.
//
// Query and Count report query.ErrIndexUnavailable when the planner
// cannot serve the spec; the executor then falls back to Scan.
type DocumentStore interface {
	query.Store

	Get(ctx context.Context, collection, id string) (*models.Document, error)
	Insert(ctx context.Context, collection string, doc *models.Document) error
	Update(ctx context.Context, collection string, doc *models.Document) error
	Delete(ctx context.Context, collection, id string) error
	Ping(ctx context.Context) error
}
