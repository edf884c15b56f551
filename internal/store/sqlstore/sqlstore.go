// Package sqlstore adapts a SQL database to the DocumentStore interface:
// one table per collection, the routed fields as columns, the
// category-specific payload as a JSON column.
//
// Collections listed as unindexed report query.ErrIndexUnavailable for
// planned (filtered and sorted) queries, which sends the executor down
// the full-scan fallback path — the same degradation a hosted document
// store exhibits when a composite index is missing.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/docport-io/docport/internal/apperrors"
	"github.com/docport-io/docport/internal/models"
	"github.com/docport-io/docport/internal/query"
)

const docColumns = `id, client_id, assigned_to, status, created_at, created_by, modified_at, modified_by, payload`

// routedColumns are the fields the planner can filter on; anything else
// lives inside the payload and needs the in-process fallback.
var routedColumns = map[string]bool{
	models.FieldClientID:   true,
	models.FieldAssignedTo: true,
	models.FieldStatus:     true,
}

var identifier = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

type Store struct {
	db        *sqlx.DB
	unindexed map[string]bool
}

// NewStore wraps the database. Collections named in unindexed lack the
// composite (filter, created_at) index and refuse planned queries.
func NewStore(db *sqlx.DB, unindexed ...string) *Store {
	s := &Store{
		db:        db,
		unindexed: make(map[string]bool, len(unindexed)),
	}
	for _, c := range unindexed {
		s.unindexed[c] = true
	}
	return s
}

type docRow struct {
	ID         string         `db:"id"`
	ClientID   string         `db:"client_id"`
	AssignedTo sql.NullString `db:"assigned_to"`
	Status     string         `db:"status"`
	CreatedAt  sql.NullTime   `db:"created_at"`
	CreatedBy  sql.NullString `db:"created_by"`
	ModifiedAt sql.NullTime   `db:"modified_at"`
	ModifiedBy sql.NullString `db:"modified_by"`
	Payload    []byte         `db:"payload"`
}

func (r docRow) document() (models.Document, error) {
	doc := models.Document{
		ID:         r.ID,
		ClientID:   r.ClientID,
		AssignedTo: r.AssignedTo.String,
		Status:     r.Status,
		CreatedBy:  r.CreatedBy.String,
		ModifiedBy: r.ModifiedBy.String,
	}
	if r.CreatedAt.Valid {
		doc.CreatedAt = r.CreatedAt.Time
	}
	if r.ModifiedAt.Valid {
		doc.ModifiedAt = r.ModifiedAt.Time
	}
	if len(r.Payload) > 0 {
		if err := json.Unmarshal(r.Payload, &doc.Fields); err != nil {
			return models.Document{}, fmt.Errorf("decode payload for %s: %w", r.ID, err)
		}
	}
	return doc, nil
}

func tableFor(collection string) (string, error) {
	if !identifier.MatchString(collection) {
		return "", apperrors.E(apperrors.KindBadRequest, "unknown_document_type")
	}
	return collection, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (s *Store) Get(ctx context.Context, collection, id string) (*models.Document, error) {
	table, err := tableFor(collection)
	if err != nil {
		return nil, err
	}

	var row docRow
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, docColumns, table)
	if err := s.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.E(apperrors.KindNotFound, "document_not_found")
		}
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	doc, err := row.document()
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *Store) Insert(ctx context.Context, collection string, doc *models.Document) error {
	table, err := tableFor(collection)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("encode payload for %s: %w", doc.ID, err)
	}

	q := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, table, docColumns)
	_, err = s.db.ExecContext(ctx, q,
		doc.ID, doc.ClientID, nullString(doc.AssignedTo), doc.Status,
		nullTime(doc.CreatedAt), nullString(doc.CreatedBy),
		nullTime(doc.ModifiedAt), nullString(doc.ModifiedBy), payload)
	if err != nil {
		return fmt.Errorf("insert %s/%s: %w", collection, doc.ID, err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, collection string, doc *models.Document) error {
	table, err := tableFor(collection)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("encode payload for %s: %w", doc.ID, err)
	}

	q := fmt.Sprintf(`UPDATE %s
		SET client_id = $2, assigned_to = $3, status = $4,
		    created_at = $5, created_by = $6,
		    modified_at = $7, modified_by = $8, payload = $9
		WHERE id = $1`, table)
	result, err := s.db.ExecContext(ctx, q,
		doc.ID, doc.ClientID, nullString(doc.AssignedTo), doc.Status,
		nullTime(doc.CreatedAt), nullString(doc.CreatedBy),
		nullTime(doc.ModifiedAt), nullString(doc.ModifiedBy), payload)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, doc.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, doc.ID, err)
	}
	if affected == 0 {
		return apperrors.E(apperrors.KindNotFound, "document_not_found")
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	table, err := tableFor(collection)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table), id)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	if affected == 0 {
		return apperrors.E(apperrors.KindNotFound, "document_not_found")
	}
	return nil
}

// planned reports whether the spec needs the planner (filters or
// ordering) rather than a plain scan.
func planned(spec query.Spec) bool {
	return len(spec.Filters) > 0 || spec.OrderBy != ""
}

// plannable reports whether every filter touches a routed column; payload
// fields cannot be filtered in SQL.
func plannable(spec query.Spec) bool {
	for _, f := range spec.Filters {
		if !routedColumns[f.Field] {
			return false
		}
	}
	return true
}

func (s *Store) buildWhere(spec query.Spec) (string, []any) {
	if len(spec.Filters) == 0 {
		return "", nil
	}
	var clauses []string
	var args []any
	for i, f := range spec.Filters {
		clauses = append(clauses, fmt.Sprintf("%s = $%d", f.Field, i+1))
		args = append(args, f.Value)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (s *Store) Query(ctx context.Context, spec query.Spec) ([]models.Document, error) {
	table, err := tableFor(spec.Collection)
	if err != nil {
		return nil, err
	}
	if planned(spec) && (s.unindexed[spec.Collection] || !plannable(spec)) {
		return nil, query.ErrIndexUnavailable
	}

	where, args := s.buildWhere(spec)
	q := fmt.Sprintf(`SELECT %s FROM %s%s`, docColumns, table, where)
	if spec.OrderBy != "" {
		if spec.Descending {
			q += " ORDER BY created_at DESC NULLS LAST"
		} else {
			q += " ORDER BY created_at ASC NULLS FIRST"
		}
	}
	if spec.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", spec.Limit)
	}

	var rows []docRow
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("query %s: %w", spec.Collection, err)
	}
	docs := make([]models.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := row.document()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *Store) Scan(ctx context.Context, collection string) ([]models.Document, error) {
	table, err := tableFor(collection)
	if err != nil {
		return nil, err
	}

	var rows []docRow
	q := fmt.Sprintf(`SELECT %s FROM %s`, docColumns, table)
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("scan %s: %w", collection, err)
	}
	docs := make([]models.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := row.document()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *Store) Count(ctx context.Context, spec query.Spec) (int, error) {
	table, err := tableFor(spec.Collection)
	if err != nil {
		return 0, err
	}
	if planned(spec) && (s.unindexed[spec.Collection] || !plannable(spec)) {
		return 0, query.ErrIndexUnavailable
	}

	where, args := s.buildWhere(spec)
	var count int
	q := fmt.Sprintf(`SELECT COUNT(*) FROM %s%s`, table, where)
	if err := s.db.GetContext(ctx, &count, q, args...); err != nil {
		return 0, fmt.Errorf("count %s: %w", spec.Collection, err)
	}
	return count, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
