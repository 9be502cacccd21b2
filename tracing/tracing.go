// Package tracing wraps a dictcache.Source and a provider.Provider with
// OpenTelemetry client spans. Cache keys are never recorded; they may carry
// looked-up values.
package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/unkn0wn-root/dictcache"
	pr "github.com/unkn0wn-root/dictcache/provider"
)

const instrumentation = "github.com/unkn0wn-root/dictcache/tracing"

func tracer(tp trace.TracerProvider) trace.Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(instrumentation)
}

func start(ctx context.Context, t trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(attrs...))
}

// end records err on span and ends it.
func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Source traces every call to the wrapped Source.
type Source struct {
	next   dictcache.Source
	tracer trace.Tracer
}

var _ dictcache.Source = (*Source)(nil)

// WrapSource returns next with tracing. A nil tp uses the global provider.
func WrapSource(next dictcache.Source, tp trace.TracerProvider) *Source {
	return &Source{next: next, tracer: tracer(tp)}
}

func (s *Source) ConvertByDictionary(ctx context.Context, table, fromColumn, toColumn, value string, asOf time.Time) (string, error) {
	ctx, span := start(ctx, s.tracer, "dictcache.source.convert",
		attribute.String("dictcache.table", table),
		attribute.String("dictcache.from_column", fromColumn),
		attribute.String("dictcache.to_column", toColumn),
	)
	v, err := s.next.ConvertByDictionary(ctx, table, fromColumn, toColumn, value, asOf)
	end(span, err)
	return v, err
}

func (s *Source) DateListByFilters(ctx context.Context, table string, filters dictcache.Filters) ([]dictcache.Interval, error) {
	ctx, span := start(ctx, s.tracer, "dictcache.source.dates",
		attribute.String("dictcache.table", table),
		attribute.Int("dictcache.filters", len(filters)),
	)
	list, err := s.next.DateListByFilters(ctx, table, filters)
	span.SetAttributes(attribute.Int("dictcache.items", len(list)))
	end(span, err)
	return list, err
}

// Store traces every primitive of the wrapped provider.
type Store struct {
	next   pr.Provider
	tracer trace.Tracer
}

var _ pr.Provider = (*Store)(nil)

// WrapStore returns next with tracing. A nil tp uses the global provider.
func WrapStore(next pr.Provider, tp trace.TracerProvider) *Store {
	return &Store{next: next, tracer: tracer(tp)}
}

func (s *Store) op(ctx context.Context, name string) (context.Context, trace.Span) {
	return start(ctx, s.tracer, "dictcache.store."+name, attribute.String("dictcache.op", name))
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	ctx, span := s.op(ctx, "exists")
	ok, err := s.next.Exists(ctx, key)
	span.SetAttributes(attribute.Bool("dictcache.found", ok))
	end(span, err)
	return ok, err
}

func (s *Store) GetScalar(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, span := s.op(ctx, "get")
	b, ok, err := s.next.GetScalar(ctx, key)
	span.SetAttributes(attribute.Bool("dictcache.found", ok))
	end(span, err)
	return b, ok, err
}

func (s *Store) SetScalar(ctx context.Context, key string, value []byte) error {
	ctx, span := s.op(ctx, "set")
	err := s.next.SetScalar(ctx, key, value)
	end(span, err)
	return err
}

func (s *Store) AppendToList(ctx context.Context, key string, values ...[]byte) error {
	ctx, span := s.op(ctx, "append")
	span.SetAttributes(attribute.Int("dictcache.items", len(values)))
	err := s.next.AppendToList(ctx, key, values...)
	end(span, err)
	return err
}

func (s *Store) RangeList(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	ctx, span := s.op(ctx, "range")
	items, err := s.next.RangeList(ctx, key, start, stop)
	span.SetAttributes(attribute.Int("dictcache.items", len(items)))
	end(span, err)
	return items, err
}

func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) error {
	ctx, span := s.op(ctx, "expire")
	span.SetAttributes(attribute.Int64("dictcache.ttl_seconds", int64(ttl/time.Second)))
	err := s.next.Expire(ctx, key, ttl)
	end(span, err)
	return err
}

// Close is not traced.
func (s *Store) Close(ctx context.Context) error { return s.next.Close(ctx) }
