// Package memory is an in-process document store used by the dev profile
// and by tests. It can be told to refuse planned queries, which forces
// the executor onto the full-scan fallback path.
package memory

import (
	"context"
	"sync"

	"github.com/docport-io/docport/internal/apperrors"
	"github.com/docport-io/docport/internal/models"
	"github.com/docport-io/docport/internal/query"
)

type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]models.Document

	// FailPlannedQueries makes Query and Count report
	// query.ErrIndexUnavailable, simulating a store without the needed
	// composite index.
	FailPlannedQueries bool

	// Unavailable makes every call fail, simulating an outage.
	Unavailable bool
}

func NewStore() *Store {
	return &Store{
		collections: make(map[string]map[string]models.Document),
	}
}

func (s *Store) collection(name string) map[string]models.Document {
	c, ok := s.collections[name]
	if !ok {
		c = make(map[string]models.Document)
		s.collections[name] = c
	}
	return c
}

func (s *Store) down() error {
	if s.Unavailable {
		return apperrors.E(apperrors.KindUnavailable, "store_unreachable")
	}
	return nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.down(); err != nil {
		return nil, err
	}
	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, apperrors.E(apperrors.KindNotFound, "document_not_found")
	}
	clone := doc
	return &clone, nil
}

func (s *Store) Insert(ctx context.Context, collection string, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.down(); err != nil {
		return err
	}
	s.collection(collection)[doc.ID] = *doc
	return nil
}

func (s *Store) Update(ctx context.Context, collection string, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.down(); err != nil {
		return err
	}
	c := s.collection(collection)
	if _, ok := c[doc.ID]; !ok {
		return apperrors.E(apperrors.KindNotFound, "document_not_found")
	}
	c[doc.ID] = *doc
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.down(); err != nil {
		return err
	}
	c := s.collection(collection)
	if _, ok := c[id]; !ok {
		return apperrors.E(apperrors.KindNotFound, "document_not_found")
	}
	delete(c, id)
	return nil
}

func (s *Store) Query(ctx context.Context, spec query.Spec) ([]models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.down(); err != nil {
		return nil, err
	}
	if s.FailPlannedQueries {
		return nil, query.ErrIndexUnavailable
	}
	return query.Evaluate(s.snapshot(spec.Collection), spec), nil
}

func (s *Store) Scan(ctx context.Context, collection string) ([]models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.down(); err != nil {
		return nil, err
	}
	return s.snapshot(collection), nil
}

func (s *Store) Count(ctx context.Context, spec query.Spec) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.down(); err != nil {
		return 0, err
	}
	if s.FailPlannedQueries {
		return 0, query.ErrIndexUnavailable
	}
	return len(query.Evaluate(s.snapshot(spec.Collection), spec.Unlimited())), nil
}

func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.down()
}

// snapshot copies the collection; callers sort and truncate their copy.
func (s *Store) snapshot(collection string) []models.Document {
	c := s.collections[collection]
	docs := make([]models.Document, 0, len(c))
	for _, doc := range c {
		docs = append(docs, doc)
	}
	return docs
}
