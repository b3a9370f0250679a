// Package docstore defines the document database the application runs on:
// collections of schemaless documents with one-shot queries, live
// subscriptions, and all-or-nothing batches with per-document preconditions.
//
// Two backends implement Store: Firestore for hosted deployments and SQLite
// for local ones. Both keep the same field names and query semantics, so the
// data written by one reads the same through the other.
package docstore

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrExists is returned when creating a document whose id is taken.
	ErrExists = errors.New("document already exists")
	// ErrPrecondition is returned when a batch precondition does not hold.
	// No operation of the batch is applied.
	ErrPrecondition = errors.New("precondition failed")
	// ErrClosed is returned after the store has been closed.
	ErrClosed = errors.New("store closed")
)

// Document is one stored document.
type Document struct {
	ID     string
	Fields map[string]any
}

// Store is a document database.
type Store interface {
	// NewID returns a fresh document id for collection.
	NewID(collection string) string
	// Create stores a new document under a generated id.
	Create(ctx context.Context, collection string, fields map[string]any) (string, error)
	// Set stores a document under id, replacing any previous content.
	Set(ctx context.Context, collection, id string, fields map[string]any) error
	// Update merges fields into an existing document. Keys may be dotted
	// paths into nested maps. Returns ErrNotFound if the document is absent.
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	// Delete removes a document. Deleting an absent document is not an error.
	Delete(ctx context.Context, collection, id string) error
	// Get returns a document, or ErrNotFound.
	Get(ctx context.Context, collection, id string) (*Document, error)
	// Query returns the documents matching q.
	Query(ctx context.Context, q Query) ([]Document, error)
	// Subscribe streams the full result of q every time it changes.
	Subscribe(ctx context.Context, q Query) (*Subscription, error)
	// Batch applies ops atomically.
	Batch(ctx context.Context, ops []Op) error
	// Close releases the store. Open subscriptions end with ErrClosed.
	Close() error
}

// OpKind is the kind of a batch operation.
type OpKind int

// Batch operation kinds.
const (
	OpCreate OpKind = iota + 1
	OpSet
	OpUpdate
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpCreate:
		return "create"
	case OpSet:
		return "set"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	}
	return fmt.Sprintf("OpKind(%d)", int(k))
}

// Op is one write of a batch. Preconditions must all hold on the document's
// current content, otherwise the whole batch fails with ErrPrecondition. A
// precondition on an absent document never holds.
type Op struct {
	Kind          OpKind
	Collection    string
	ID            string
	Fields        map[string]any
	Preconditions []Filter
}

// CreateOp creates a document that must not exist yet.
func CreateOp(collection, id string, fields map[string]any) Op {
	return Op{Kind: OpCreate, Collection: collection, ID: id, Fields: fields}
}

// SetOp replaces a document.
func SetOp(collection, id string, fields map[string]any) Op {
	return Op{Kind: OpSet, Collection: collection, ID: id, Fields: fields}
}

// UpdateOp merges fields into an existing document.
func UpdateOp(collection, id string, fields map[string]any) Op {
	return Op{Kind: OpUpdate, Collection: collection, ID: id, Fields: fields}
}

// DeleteOp removes a document.
func DeleteOp(collection, id string) Op {
	return Op{Kind: OpDelete, Collection: collection, ID: id}
}

// If returns a copy of op guarded by the given preconditions.
func (op Op) If(conds ...Filter) Op {
	op.Preconditions = append(append([]Filter(nil), op.Preconditions...), conds...)
	return op
}

func (op Op) validate() error {
	if op.Collection == "" || op.ID == "" {
		return fmt.Errorf("%s: collection and id required", op.Kind)
	}
	if op.Kind < OpCreate || op.Kind > OpDelete {
		return fmt.Errorf("unknown operation %s", op.Kind)
	}
	for _, f := range op.Preconditions {
		if err := f.validate(); err != nil {
			return err
		}
	}
	if op.Kind == OpUpdate {
		for k := range op.Fields {
			if !validField(k) {
				return fmt.Errorf("invalid field path %q", k)
			}
		}
	}
	return nil
}

// Order sorts query results by a field. Documents missing the field are
// excluded from an ordered query.
type Order struct {
	Field string
	Desc  bool
}

// Asc orders by field ascending.
func Asc(field string) Order { return Order{Field: field} }

// Desc orders by field descending.
func Desc(field string) Order { return Order{Field: field, Desc: true} }

// Query selects documents of one collection.
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    []Order
	Limit      int
}

// From starts a query over collection.
func From(collection string) Query {
	return Query{Collection: collection}
}

// Where adds a filter.
func (q Query) Where(field string, op Operator, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Op: op, Value: value})
	return q
}

// Order adds a sort key.
func (q Query) Order(orders ...Order) Query {
	q.OrderBy = append(append([]Order(nil), q.OrderBy...), orders...)
	return q
}

// Take limits the number of results.
func (q Query) Take(n int) Query {
	q.Limit = n
	return q
}

func (q Query) validate() error {
	if q.Collection == "" {
		return errors.New("query: collection required")
	}
	for _, f := range q.Filters {
		if err := f.validate(); err != nil {
			return err
		}
	}
	for _, o := range q.OrderBy {
		if !validField(o.Field) {
			return fmt.Errorf("invalid order field %q", o.Field)
		}
	}
	if q.Limit < 0 {
		return fmt.Errorf("negative limit %d", q.Limit)
	}
	return nil
}
