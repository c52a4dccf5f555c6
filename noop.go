package scopez

import (
	"context"
	"time"
)

// noopSpan records nothing and carries the invalid zero context. It is the
// safe default every Tracer operation falls back to.
type noopSpan struct{}

var blankSpan Span = noopSpan{}

// NoopSpan returns the shared no-op span. It is what CurrentSpan reports
// when no span is installed, and what the no-op factory creates.
func NoopSpan() Span {
	return blankSpan
}

func (noopSpan) Context() SpanContext { return SpanContext{} }

func (noopSpan) Name() string { return "" }

func (noopSpan) AddAnnotation(Annotation) {}

func (noopSpan) AddAttributes(map[string]string) {}

func (noopSpan) SetStatus(Status) {}

func (noopSpan) IsRecording() bool { return false }

func (noopSpan) End() {}

// noopFactory returns the shared no-op span irrespective of inputs.
type noopFactory struct{}

// NoopSpanFactory returns the factory a Tracer composes when no real
// factory is configured.
func NoopSpanFactory() SpanFactory {
	return noopFactory{}
}

func (noopFactory) Now() time.Time { return time.Time{} }

func (noopFactory) StartSpan(Span, string, StartOptions) Span {
	return blankSpan
}

func (noopFactory) StartSpanWithRemoteParent(SpanContext, string, StartOptions) Span {
	return blankSpan
}

// noopHandler reports no current span and installs nothing.
type noopHandler struct{}

// NoopContextSpanHandler returns the handler a Tracer composes when no real
// handler is configured.
func NoopContextSpanHandler() ContextSpanHandler {
	return noopHandler{}
}

func (noopHandler) SpanFromContext(context.Context) Span {
	return nil
}

func (noopHandler) ContextWithSpan(ctx context.Context, _ Span) (context.Context, Scope) {
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx, noopScope{}
}

// noopScope is the inert scope handed out by the no-op handler.
type noopScope struct{}

func (noopScope) Close() {}

var (
	_ Span               = noopSpan{}
	_ SpanFactory        = noopFactory{}
	_ ContextSpanHandler = noopHandler{}
	_ Scope              = noopScope{}
)
