package docstore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore is a Store backed by Cloud Firestore.
type Firestore struct {
	client *firestore.Client
}

var _ Store = (*Firestore)(nil)

// NewFirestore connects to the Firestore database of a Firebase project.
// Credentials come from opts or the environment; FIRESTORE_EMULATOR_HOST
// redirects the client to an emulator.
func NewFirestore(ctx context.Context, projectID string, opts ...option.ClientOption) (*Firestore, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}
	return &Firestore{client: client}, nil
}

// NewFirestoreClient wraps an existing client.
func NewFirestoreClient(client *firestore.Client) *Firestore {
	return &Firestore{client: client}
}

// NewID returns a Firestore auto-id.
func (f *Firestore) NewID(collection string) string {
	return f.client.Collection(collection).NewDoc().ID
}

// Create stores a new document under a generated id.
func (f *Firestore) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	ref := f.client.Collection(collection).NewDoc()
	if _, err := ref.Create(ctx, fields); err != nil {
		return "", fmt.Errorf("creating %s document: %w", collection, mapError(err))
	}
	return ref.ID, nil
}

// Set replaces a document.
func (f *Firestore) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	if _, err := f.client.Collection(collection).Doc(id).Set(ctx, fields); err != nil {
		return fmt.Errorf("setting %s/%s: %w", collection, id, mapError(err))
	}
	return nil
}

// Update merges fields into an existing document.
func (f *Firestore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	if _, err := f.client.Collection(collection).Doc(id).Update(ctx, toUpdates(fields)); err != nil {
		return fmt.Errorf("updating %s/%s: %w", collection, id, mapError(err))
	}
	return nil
}

// Delete removes a document.
func (f *Firestore) Delete(ctx context.Context, collection, id string) error {
	if _, err := f.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("deleting %s/%s: %w", collection, id, mapError(err))
	}
	return nil
}

// Get returns a document by id.
func (f *Firestore) Get(ctx context.Context, collection, id string) (*Document, error) {
	snap, err := f.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting %s/%s: %w", collection, id, mapError(err))
	}
	return &Document{ID: snap.Ref.ID, Fields: snap.Data()}, nil
}

// Query returns the documents matching q.
func (f *Firestore) Query(ctx context.Context, q Query) ([]Document, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	snaps, err := f.build(q).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", q.Collection, mapError(err))
	}
	return toDocuments(snaps), nil
}

func (f *Firestore) build(q Query) firestore.Query {
	fq := f.client.Collection(q.Collection).Query
	for _, filter := range q.Filters {
		fq = fq.Where(filter.Field, string(filter.Op), filter.Value)
	}
	for _, o := range q.OrderBy {
		dir := firestore.Asc
		if o.Desc {
			dir = firestore.Desc
		}
		fq = fq.OrderBy(o.Field, dir)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}
	return fq
}

// Subscribe streams query snapshots from Firestore's listener.
func (f *Firestore) Subscribe(ctx context.Context, q Query) (*Subscription, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	fq := f.build(q)

	return newSubscription(ctx, func(ctx context.Context, emit func(Snapshot) bool) error {
		it := fq.Snapshots(ctx)
		defer it.Stop()

		for {
			qs, err := it.Next()
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, iterator.Done) || status.Code(err) == codes.Canceled {
					return nil
				}
				return fmt.Errorf("listening on %s: %w", q.Collection, mapError(err))
			}
			snaps, err := qs.Documents.GetAll()
			if err != nil {
				return fmt.Errorf("reading %s snapshot: %w", q.Collection, mapError(err))
			}
			if !emit(Snapshot{Documents: toDocuments(snaps), ReadAt: qs.ReadTime}) {
				return nil
			}
		}
	}), nil
}

// Batch applies ops in a Firestore transaction. Preconditions are checked
// against documents read inside the same transaction.
func (f *Firestore) Batch(ctx context.Context, ops []Op) error {
	if len(ops) == 0 {
		return nil
	}
	for _, op := range ops {
		if err := op.validate(); err != nil {
			return err
		}
	}

	err := f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		// Firestore requires every read to happen before the first write.
		for _, op := range ops {
			if len(op.Preconditions) == 0 {
				continue
			}
			ref := f.client.Collection(op.Collection).Doc(op.ID)
			snap, err := tx.Get(ref)
			if err != nil && status.Code(err) != codes.NotFound {
				return fmt.Errorf("reading %s/%s: %w", op.Collection, op.ID, err)
			}
			var current map[string]any
			if snap != nil && snap.Exists() {
				current = snap.Data()
			}
			for _, cond := range op.Preconditions {
				if current == nil || !cond.Match(current) {
					return fmt.Errorf("%s %s/%s: %w: %s", op.Kind, op.Collection, op.ID, ErrPrecondition, cond)
				}
			}
		}

		for _, op := range ops {
			ref := f.client.Collection(op.Collection).Doc(op.ID)
			var err error
			switch op.Kind {
			case OpCreate:
				err = tx.Create(ref, op.Fields)
			case OpSet:
				err = tx.Set(ref, op.Fields)
			case OpUpdate:
				err = tx.Update(ref, toUpdates(op.Fields))
			case OpDelete:
				err = tx.Delete(ref)
			}
			if err != nil {
				return fmt.Errorf("%s %s/%s: %w", op.Kind, op.Collection, op.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return mapError(err)
	}
	return nil
}

// Close closes the client.
func (f *Firestore) Close() error {
	return f.client.Close()
}

func toUpdates(fields map[string]any) []firestore.Update {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	updates := make([]firestore.Update, 0, len(keys))
	for _, k := range keys {
		updates = append(updates, firestore.Update{Path: k, Value: fields[k]})
	}
	return updates
}

func toDocuments(snaps []*firestore.DocumentSnapshot) []Document {
	docs := make([]Document, 0, len(snaps))
	for _, s := range snaps {
		docs = append(docs, Document{ID: s.Ref.ID, Fields: s.Data()})
	}
	return docs
}

// mapError translates Firestore status codes into the package's errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrPrecondition) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrExists) {
		return err
	}
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %v", ErrExists, err)
	}
	return err
}
