package scopez

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	defaultMu      sync.Mutex
	defaultTracer  *Tracer
	defaultHandler ContextSpanHandler
	defaultFactory SpanFactory

	log = zap.NewNop()
)

// SetLogger directs scopez's own logging, which is limited to backend
// selection notices. The default discards everything.
func SetLogger(l *zap.Logger) {
	if l == nil {
		return
	}
	defaultMu.Lock()
	defer defaultMu.Unlock()
	log = l
}

// Configure installs the backend implementations composed by Default. It
// must be called before the first use of Default; once the default tracer
// has been built it is never replaced, and later calls are ignored.
func Configure(handler ContextSpanHandler, factory SpanFactory) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultTracer != nil {
		log.Warn("scopez already in use, ignoring Configure")
		return
	}
	defaultHandler = handler
	defaultFactory = factory
}

// Default returns the process-wide Tracer, building it on first use from
// the backends passed to Configure. Missing backends fall back to the no-op
// implementations, so Default is always safe to use even with zero tracing
// infrastructure configured.
func Default() *Tracer {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultTracer == nil {
		if defaultHandler == nil {
			log.Debug("no ContextSpanHandler configured, using no-op implementation")
		}
		if defaultFactory == nil {
			log.Debug("no SpanFactory configured, using no-op implementation")
		}
		defaultTracer = New(defaultHandler, defaultFactory)
	}
	return defaultTracer
}

// CurrentSpan calls CurrentSpan on the default tracer.
func CurrentSpan(ctx context.Context) Span {
	return Default().CurrentSpan(ctx)
}

// WithSpan calls WithSpan on the default tracer.
func WithSpan(ctx context.Context, span Span) (context.Context, Scope) {
	return Default().WithSpan(ctx, span)
}

// StartScopedSpan calls StartScopedSpan on the default tracer.
func StartScopedSpan(ctx context.Context, name string) (context.Context, Scope) {
	return Default().StartScopedSpan(ctx, name)
}

// StartSpan calls StartSpan on the default tracer.
func StartSpan(parent Span, name string, opts StartOptions) Span {
	return Default().StartSpan(parent, name, opts)
}

// StartSpanWithRemoteParent calls StartSpanWithRemoteParent on the default
// tracer.
func StartSpanWithRemoteParent(remote SpanContext, name string, opts StartOptions) Span {
	return Default().StartSpanWithRemoteParent(remote, name, opts)
}

// Now calls Now on the default tracer.
func Now() time.Time {
	return Default().Now()
}
