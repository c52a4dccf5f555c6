// Package scopez provides the in-process context propagation core for
// distributed tracing.
//
// scopez answers one question - "what is the current span right now" - and
// guarantees that entering and exiting a span scope is symmetric and safe on
// every exit path. Span creation and current-span tracking are delegated to
// two capability interfaces, SpanFactory and ContextSpanHandler, so backends
// can be swapped without touching call sites. When no backend is configured
// every operation degrades to a no-op: callers never branch on "is tracing
// enabled".
//
// Core Components:.
//   - Tracer: façade composing one ContextSpanHandler and one SpanFactory.
//   - Span: a named, timed unit of traced work (capability interface).
//   - ContextSpanHandler: tracks the current span through context.Context.
//   - Scope: single-use handle that restores the previous current span.
//
// Basic Usage:.
//
//	tracer := scopez.New(scopez.NewContextHandler(), recording.NewFactory())
//
//	// Start a span and make it current for the duration of the scope.
//	ctx, scope := tracer.StartScopedSpan(ctx, "MyClass.DoWork")
//	defer scope.Close()
//
//	// Nested code reads the current span back out of the context.
//	tracer.CurrentSpan(ctx).AddAnnotation(scopez.Annotation{Message: "did the work"})
//
// Manual span lifecycle, for work that outlives a lexical scope:
//
//	span := tracer.StartSpan(nil, "fan-out", scopez.StartOptions{})
//	// ... hand span to the goroutines that share it ...
//	span.End()
//
// Closing a Scope restores the previous current span first and only then
// ends the span, so code observing the current span during teardown never
// sees an ended span reported as active.
//
// Thread Safety:.
//
// A Tracer is safe for concurrent use by multiple goroutines. The current
// span is tracked per context chain: goroutines holding independent contexts
// never observe each other's current span. Within one chain, scopes must be
// closed in reverse order of entry; closing a handle twice is a safe no-op.
package scopez
