package scopez

import "time"

// StartOptions carries the start-time options for a new span. The zero
// value selects backend defaults.
type StartOptions struct {
	// Sampled hints whether the span should be sampled. Nil defers the
	// decision to the backend.
	Sampled *bool

	// RecordEvents requests that the span record annotations and
	// attributes even when it is not sampled.
	RecordEvents bool
}

// SpanFactory creates spans. Implementations are provided by backends and
// composed into a Tracer; application code never calls a factory directly.
//
// Implementations must treat a nil parent, or a parent whose context is
// invalid (the no-op span), as absent and create a root span.
type SpanFactory interface {
	// Now returns the backend's reading of the current time, used for
	// span start and end timestamps. The no-op factory returns the zero
	// time.
	Now() time.Time

	// StartSpan creates a new span as a child of parent, or a root span
	// when parent is absent. The result is not installed as current and
	// is not recorded anywhere; the caller owns its lifecycle.
	StartSpan(parent Span, name string, opts StartOptions) Span

	// StartSpanWithRemoteParent is StartSpan for a parent that executed
	// in a different process, identified by its portable context.
	StartSpanWithRemoteParent(remote SpanContext, name string, opts StartOptions) Span
}
