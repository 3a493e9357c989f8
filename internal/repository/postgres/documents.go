package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/and161185/framez/internal/errs"
	"github.com/and161185/framez/internal/repository"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// DocumentStore implements repository.DocumentStore on a jsonb table.
type DocumentStore struct{ db *DB }

var _ repository.DocumentStore = (*DocumentStore)(nil)

// NewDocumentStore constructs a document store.
func NewDocumentStore(db *DB) *DocumentStore { return &DocumentStore{db: db} }

// Get selects a document by collection and key.
func (s *DocumentStore) Get(ctx context.Context, collection, id string) (*repository.Document, error) {
	const q = `
SELECT id, data, created_at
FROM documents WHERE collection=$1 AND id=$2`
	var (
		raw     []byte
		created *time.Time
		doc     repository.Document
	)
	if err := s.db.Pool.QueryRow(ctx, q, collection, id).Scan(&doc.ID, &raw, &created); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	data, err := decodeData(raw)
	if err != nil {
		return nil, err
	}
	doc.Data, doc.CreatedAt = data, created
	return &doc, nil
}

// Set upserts a document; created_at keeps its first value.
func (s *DocumentStore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	const q = `
INSERT INTO documents (collection, id, data)
VALUES ($1, $2, $3)
ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data`
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = s.db.Pool.Exec(ctx, q, collection, id, raw)
	return err
}

// Add inserts a document under a new UUID key; created_at is set by the database.
func (s *DocumentStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	const q = `
INSERT INTO documents (collection, id, data)
VALUES ($1, $2, $3)`
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	if _, err := s.db.Pool.Exec(ctx, q, collection, id.String(), raw); err != nil {
		if isUniqueViolation(err) {
			return "", errs.ErrAlreadyExists
		}
		return "", err
	}
	return id.String(), nil
}

// Query runs equality filters on top-level jsonb fields. Ordering by
// createdAt uses the created_at column; missing values sort last.
func (s *DocumentStore) Query(ctx context.Context, collection string, filters []repository.Filter, order repository.Order) ([]repository.Document, error) {
	q, args, err := buildQuery(collection, filters, order)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.Document
	for rows.Next() {
		var (
			doc     repository.Document
			raw     []byte
			created *time.Time
		)
		if err = rows.Scan(&doc.ID, &raw, &created); err != nil {
			return nil, err
		}
		if doc.Data, err = decodeData(raw); err != nil {
			return nil, err
		}
		doc.CreatedAt = created
		out = append(out, doc)
	}
	return out, rows.Err()
}

func buildQuery(collection string, filters []repository.Filter, order repository.Order) (string, []any, error) {
	var b strings.Builder
	b.WriteString("SELECT id, data, created_at FROM documents WHERE collection=$1")
	args := []any{collection}
	param := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	for _, f := range filters {
		if !fieldName.MatchString(f.Field) {
			return "", nil, fmt.Errorf("query: bad filter field %q", f.Field)
		}
		fmt.Fprintf(&b, " AND data->>%s::text = %s", param(f.Field), param(f.Value))
	}

	dir := "ASC"
	if order.Desc {
		dir = "DESC"
	}
	switch order.Field {
	case "":
		b.WriteString(" ORDER BY created_at ASC NULLS LAST, id")
	case repository.FieldCreatedAt:
		fmt.Fprintf(&b, " ORDER BY created_at %s NULLS LAST, id", dir)
	default:
		if !fieldName.MatchString(order.Field) {
			return "", nil, fmt.Errorf("query: bad order field %q", order.Field)
		}
		fmt.Fprintf(&b, " ORDER BY data->>%s::text %s NULLS LAST, id", param(order.Field), dir)
	}
	return b.String(), args, nil
}

func decodeData(raw []byte) (map[string]any, error) {
	data := map[string]any{}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrMalformed, err)
	}
	return data, nil
}
