package query

import (
	"sort"

	"github.com/docport-io/docport/internal/models"
)

// Filter is a single equality condition on a document field.
type Filter struct {
	Field string
	Value any
}

// Spec is the one shared description of a document query: equality
// filters, ordering and cap. It is evaluated either by the store's
// planner (primary path) or by Evaluate over a full scan (fallback).
// Both paths must produce the same logical result set.
type Spec struct {
	Collection string
	Filters    []Filter

	// OrderBy is always creation time for router-built specs; kept as a
	// field so the evaluator stays generic.
	OrderBy    string
	Descending bool

	Limit int
}

// WithFilter returns a copy of the spec with one more equality filter.
func (s Spec) WithFilter(field string, value any) Spec {
	filters := make([]Filter, len(s.Filters), len(s.Filters)+1)
	copy(filters, s.Filters)
	s.Filters = append(filters, Filter{Field: field, Value: value})
	return s
}

// Unlimited returns a copy of the spec with the cap removed, for count
// semantics.
func (s Spec) Unlimited() Spec {
	s.Limit = 0
	return s
}

// Matches reports whether the document satisfies every equality filter.
func (s Spec) Matches(doc models.Document) bool {
	for _, f := range s.Filters {
		v, ok := doc.Field(f.Field)
		if !ok || v != f.Value {
			return false
		}
	}
	return true
}

// Evaluate applies the spec in-process: equality filtering, creation-time
// ordering and truncation. Documents with a missing (zero) creation time
// sort after everything else in descending order. The input slice is not
// modified.
func Evaluate(docs []models.Document, spec Spec) []models.Document {
	matched := make([]models.Document, 0, len(docs))
	for _, doc := range docs {
		if spec.Matches(doc) {
			matched = append(matched, doc)
		}
	}

	if spec.OrderBy != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			a, b := matched[i].CreatedAt, matched[j].CreatedAt
			if spec.Descending {
				if b.IsZero() {
					return !a.IsZero()
				}
				if a.IsZero() {
					return false
				}
				return a.After(b)
			}
			if a.IsZero() {
				return !b.IsZero()
			}
			if b.IsZero() {
				return false
			}
			return a.Before(b)
		})
	}

	if spec.Limit > 0 && len(matched) > spec.Limit {
		matched = matched[:spec.Limit]
	}
	return matched
}
