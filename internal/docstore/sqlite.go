package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// SQLite is a Store over the documents table of a SQLite database.
// Filters and ordering run in SQL through json_extract; live queries are
// woken by an in-process broker after each commit, so only writes made
// through this SQLite value are observed.
type SQLite struct {
	db     *sql.DB
	broker *broker
	closed atomic.Bool
}

// NewSQLite wraps a database that already has the documents schema.
// The caller keeps ownership of db.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db, broker: newBroker()}
}

var _ Store = (*SQLite)(nil)

// NewID returns a random UUID.
func (s *SQLite) NewID(string) string {
	return uuid.NewString()
}

// Create stores a new document under a generated id.
func (s *SQLite) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id := s.NewID(collection)
	if err := s.Batch(ctx, []Op{CreateOp(collection, id, fields)}); err != nil {
		return "", err
	}
	return id, nil
}

// Set replaces a document.
func (s *SQLite) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	return s.Batch(ctx, []Op{SetOp(collection, id, fields)})
}

// Update merges fields into an existing document.
func (s *SQLite) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	return s.Batch(ctx, []Op{UpdateOp(collection, id, fields)})
}

// Delete removes a document.
func (s *SQLite) Delete(ctx context.Context, collection, id string) error {
	return s.Batch(ctx, []Op{DeleteOp(collection, id)})
}

// Get returns a document by id.
func (s *SQLite) Get(ctx context.Context, collection, id string) (*Document, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting %s/%s: %w", collection, id, err)
	}
	fields, err := unmarshalFields(data)
	if err != nil {
		return nil, err
	}
	return &Document{ID: id, Fields: fields}, nil
}

// Query returns the documents matching q.
func (s *SQLite) Query(ctx context.Context, q Query) ([]Document, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if err := q.validate(); err != nil {
		return nil, err
	}
	return s.query(ctx, q)
}

func (s *SQLite) query(ctx context.Context, q Query) ([]Document, error) {
	stmt, args, err := buildQuery(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", q.Collection, err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scanning %s document: %w", q.Collection, err)
		}
		fields, err := unmarshalFields(data)
		if err != nil {
			return nil, fmt.Errorf("%s/%s: %w", q.Collection, id, err)
		}
		docs = append(docs, Document{ID: id, Fields: fields})
	}
	return docs, rows.Err()
}

func buildQuery(q Query) (string, []any, error) {
	var sb strings.Builder
	args := []any{q.Collection}
	sb.WriteString(`SELECT id, data FROM documents WHERE collection = ?`)

	for _, f := range q.Filters {
		v, err := sqlValue(f.Value)
		if err != nil {
			return "", nil, fmt.Errorf("filter %s: %w", f, err)
		}
		op := string(f.Op)
		if f.Op == Eq {
			op = "="
		}
		fmt.Fprintf(&sb, ` AND %s %s ?`, extract(f.Field), op)
		args = append(args, v)
	}
	for _, o := range q.OrderBy {
		fmt.Fprintf(&sb, ` AND %s IS NOT NULL`, extract(o.Field))
	}

	sb.WriteString(` ORDER BY `)
	for _, o := range q.OrderBy {
		sb.WriteString(extract(o.Field))
		if o.Desc {
			sb.WriteString(` DESC`)
		}
		sb.WriteString(`, `)
	}
	sb.WriteString(`rowid`)

	if q.Limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, q.Limit)
	}
	return sb.String(), args, nil
}

// extract renders the json_extract expression of a field. The path is
// inlined so expression indexes apply; fields are checked against
// fieldPattern before they get here.
func extract(field string) string {
	return "json_extract(data, '$." + field + "')"
}

// sqlValue converts a filter value to what json_extract yields for it.
func sqlValue(v any) (any, error) {
	switch t := v.(type) {
	case bool:
		if t {
			return int64(1), nil
		}
		return int64(0), nil
	case string, int, int32, int64, float32, float64:
		return t, nil
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

// Batch applies ops in one transaction.
func (s *SQLite) Batch(ctx context.Context, ops []Op) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if len(ops) == 0 {
		return nil
	}
	for _, op := range ops {
		if err := op.validate(); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	touched := make(map[string]struct{})
	for _, op := range ops {
		if err := applyOp(ctx, tx, op); err != nil {
			return fmt.Errorf("%s %s/%s: %w", op.Kind, op.Collection, op.ID, err)
		}
		touched[op.Collection] = struct{}{}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}

	collections := make([]string, 0, len(touched))
	for c := range touched {
		collections = append(collections, c)
	}
	sort.Strings(collections)
	s.broker.publish(collections...)
	return nil
}

func applyOp(ctx context.Context, tx *sql.Tx, op Op) error {
	current, err := loadTx(ctx, tx, op.Collection, op.ID)
	if err != nil {
		return err
	}

	for _, cond := range op.Preconditions {
		if current == nil || !cond.Match(current) {
			return fmt.Errorf("%w: %s", ErrPrecondition, cond)
		}
	}

	switch op.Kind {
	case OpCreate:
		if current != nil {
			return ErrExists
		}
		return writeTx(ctx, tx, op.Collection, op.ID, op.Fields)
	case OpSet:
		return writeTx(ctx, tx, op.Collection, op.ID, op.Fields)
	case OpUpdate:
		if current == nil {
			return ErrNotFound
		}
		keys := make([]string, 0, len(op.Fields))
		for k := range op.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			setPath(current, k, op.Fields[k])
		}
		return writeTx(ctx, tx, op.Collection, op.ID, current)
	case OpDelete:
		_, err := tx.ExecContext(ctx,
			`DELETE FROM documents WHERE collection = ? AND id = ?`,
			op.Collection, op.ID,
		)
		if err != nil {
			return fmt.Errorf("deleting: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unknown operation %s", op.Kind)
}

func loadTx(ctx context.Context, tx *sql.Tx, collection, id string) (map[string]any, error) {
	var data string
	err := tx.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading current document: %w", err)
	}
	return unmarshalFields(data)
}

func writeTx(ctx context.Context, tx *sql.Tx, collection, id string, fields map[string]any) error {
	data, err := marshalFields(fields)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data) VALUES (?, ?, ?)
		 ON CONFLICT (collection, id) DO UPDATE SET data = excluded.data`,
		collection, id, data,
	)
	if err != nil {
		return fmt.Errorf("writing: %w", err)
	}
	return nil
}

// Subscribe re-runs q after every commit to its collection and emits the
// result when it differs from the previous one.
func (s *SQLite) Subscribe(ctx context.Context, q Query) (*Subscription, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if err := q.validate(); err != nil {
		return nil, err
	}

	signal, stop := s.broker.watch(q.Collection)
	return newSubscription(ctx, func(ctx context.Context, emit func(Snapshot) bool) error {
		defer stop()

		var last []Document
		for first := true; ; first = false {
			docs, err := s.query(ctx, q)
			if err != nil {
				return err
			}
			if first || !reflect.DeepEqual(docs, last) {
				if !emit(Snapshot{Documents: docs}) {
					return nil
				}
				last = docs
			}

			select {
			case <-ctx.Done():
				return nil
			case _, ok := <-signal:
				if !ok {
					return ErrClosed
				}
			}
		}
	}), nil
}

// Close ends all subscriptions. The database is left open.
func (s *SQLite) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.broker.close()
	return nil
}
