package scopez

import (
	"context"
	"time"
)

// Tracer is the thin façade for span creation and in-process context
// interaction. It composes one ContextSpanHandler and one SpanFactory,
// selected once at construction and never replaced, so no locking guards
// their use. Safe for concurrent use by multiple goroutines.
//
// A nil required argument (the span passed to WithSpan, any span name) is a
// programmer error and panics at the façade boundary before reaching a
// backend, with no observable state change.
type Tracer struct {
	handler ContextSpanHandler
	factory SpanFactory
}

// New creates a Tracer backed by the given handler and factory. A nil
// handler or factory selects the corresponding no-op implementation, which
// makes the Tracer safely usable with zero tracing infrastructure
// configured.
func New(handler ContextSpanHandler, factory SpanFactory) *Tracer {
	if handler == nil {
		handler = NoopContextSpanHandler()
	}
	if factory == nil {
		factory = NoopSpanFactory()
	}
	return &Tracer{handler: handler, factory: factory}
}

// Now returns the composed factory's reading of the current time. The
// no-op factory reports the zero time.
func (t *Tracer) Now() time.Time {
	return t.factory.Now()
}

// CurrentSpan returns the span associated with ctx, or the shared no-op
// span when none is associated. Never returns nil.
//
// Spans created by StartSpan and StartSpanWithRemoteParent do NOT become
// current; use WithSpan or the StartScopedSpan operations for that.
func (t *Tracer) CurrentSpan(ctx context.Context) Span {
	if span := t.handler.SpanFromContext(ctx); span != nil {
		return span
	}
	return blankSpan
}

// WithSpan installs an already started span as current and returns the
// derived context together with the scope handle. Closing the handle
// restores the previous current span; it does not end the span, which the
// caller still owns.
//
// Can be called with NoopSpan() to enter a region where tracing is stopped.
// Panics if span is nil.
func (t *Tracer) WithSpan(ctx context.Context, span Span) (context.Context, Scope) {
	if span == nil {
		panic("scopez: WithSpan called with nil span")
	}
	return t.handler.ContextWithSpan(ctx, span)
}

// StartScopedSpan starts a span named name as a child of the current span
// (a root span when none is current), installs it as current, and returns
// the derived context and the scope handle. Closing the handle restores the
// previous current span and then ends the span.
//
// Panics if name is empty.
func (t *Tracer) StartScopedSpan(ctx context.Context, name string) (context.Context, Scope) {
	return t.startScoped(ctx, t.CurrentSpan(ctx), name, StartOptions{})
}

// StartScopedSpanWithOptions is StartScopedSpan with explicit start
// options.
func (t *Tracer) StartScopedSpanWithOptions(ctx context.Context, name string, opts StartOptions) (context.Context, Scope) {
	return t.startScoped(ctx, t.CurrentSpan(ctx), name, opts)
}

// StartScopedSpanWithParent is StartScopedSpan with an explicit parent. A
// nil parent is legal and forces a root span, which is distinct from
// StartScopedSpan's use of whatever span is current.
func (t *Tracer) StartScopedSpanWithParent(ctx context.Context, parent Span, name string) (context.Context, Scope) {
	return t.startScoped(ctx, parent, name, StartOptions{})
}

// StartScopedSpanWithParentAndOptions is StartScopedSpanWithParent with
// explicit start options.
func (t *Tracer) StartScopedSpanWithParentAndOptions(ctx context.Context, parent Span, name string, opts StartOptions) (context.Context, Scope) {
	return t.startScoped(ctx, parent, name, opts)
}

func (t *Tracer) startScoped(ctx context.Context, parent Span, name string, opts StartOptions) (context.Context, Scope) {
	span := t.StartSpan(parent, name, opts)
	ctx, raw := t.handler.ContextWithSpan(ctx, span)
	return ctx, newScopedSpan(raw, span)
}

// StartSpan starts a span named name as a child of parent, or a root span
// when parent is nil. The span is not installed as current and the caller
// must end it manually - useful for spans whose lifetime outlives lexical
// scope, such as async fan-out.
//
// Panics if name is empty.
func (t *Tracer) StartSpan(parent Span, name string, opts StartOptions) Span {
	if name == "" {
		panic("scopez: StartSpan called with empty name")
	}
	return t.factory.StartSpan(parent, name, opts)
}

// StartSpanWithRemoteParent starts a span whose parent executed in a
// different process, identified by its portable context. An invalid remote
// context yields a root span. As with StartSpan, the caller owns the span's
// lifecycle and it does not become current.
//
// Panics if name is empty.
func (t *Tracer) StartSpanWithRemoteParent(remote SpanContext, name string, opts StartOptions) Span {
	if name == "" {
		panic("scopez: StartSpanWithRemoteParent called with empty name")
	}
	return t.factory.StartSpanWithRemoteParent(remote, name, opts)
}
