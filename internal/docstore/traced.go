package docstore

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/erazemk/igralnica/internal/docstore"

type traced struct {
	next   Store
	tracer trace.Tracer
}

// Traced wraps s so every operation records a span on the global tracer
// provider.
func Traced(s Store) Store {
	return TracedWith(s, otel.Tracer(tracerName))
}

// TracedWith wraps s with spans from tracer.
func TracedWith(s Store, tracer trace.Tracer) Store {
	return &traced{next: s, tracer: tracer}
}

func (t *traced) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "docstore."+name, trace.WithAttributes(attrs...))
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (t *traced) NewID(collection string) string {
	return t.next.NewID(collection)
}

func (t *traced) Create(ctx context.Context, collection string, fields map[string]any) (id string, err error) {
	ctx, span := t.start(ctx, "create", attribute.String("collection", collection))
	defer func() {
		span.SetAttributes(attribute.String("document.id", id))
		finish(span, err)
	}()
	return t.next.Create(ctx, collection, fields)
}

func (t *traced) Set(ctx context.Context, collection, id string, fields map[string]any) (err error) {
	ctx, span := t.start(ctx, "set", attribute.String("collection", collection), attribute.String("document.id", id))
	defer func() { finish(span, err) }()
	return t.next.Set(ctx, collection, id, fields)
}

func (t *traced) Update(ctx context.Context, collection, id string, fields map[string]any) (err error) {
	ctx, span := t.start(ctx, "update",
		attribute.String("collection", collection),
		attribute.String("document.id", id),
		attribute.Int("field.count", len(fields)),
	)
	defer func() { finish(span, err) }()
	return t.next.Update(ctx, collection, id, fields)
}

func (t *traced) Delete(ctx context.Context, collection, id string) (err error) {
	ctx, span := t.start(ctx, "delete", attribute.String("collection", collection), attribute.String("document.id", id))
	defer func() { finish(span, err) }()
	return t.next.Delete(ctx, collection, id)
}

func (t *traced) Get(ctx context.Context, collection, id string) (doc *Document, err error) {
	ctx, span := t.start(ctx, "get", attribute.String("collection", collection), attribute.String("document.id", id))
	defer func() { finish(span, err) }()
	return t.next.Get(ctx, collection, id)
}

func (t *traced) Query(ctx context.Context, q Query) (docs []Document, err error) {
	ctx, span := t.start(ctx, "query",
		attribute.String("collection", q.Collection),
		attribute.Int("filter.count", len(q.Filters)),
		attribute.Int("limit", q.Limit),
	)
	defer func() {
		span.SetAttributes(attribute.Int("result.count", len(docs)))
		finish(span, err)
	}()
	return t.next.Query(ctx, q)
}

// Subscribe traces only the registration; the stream outlives the span.
func (t *traced) Subscribe(ctx context.Context, q Query) (sub *Subscription, err error) {
	_, span := t.start(ctx, "subscribe", attribute.String("collection", q.Collection))
	defer func() { finish(span, err) }()
	return t.next.Subscribe(ctx, q)
}

func (t *traced) Batch(ctx context.Context, ops []Op) (err error) {
	collections := make([]string, 0, len(ops))
	for _, op := range ops {
		collections = append(collections, op.Collection)
	}
	ctx, span := t.start(ctx, "batch",
		attribute.Int("op.count", len(ops)),
		attribute.StringSlice("collections", collections),
	)
	defer func() { finish(span, err) }()
	return t.next.Batch(ctx, ops)
}

func (t *traced) Close() error {
	return t.next.Close()
}
