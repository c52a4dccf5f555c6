// Package otelscope bridges scopez to the OpenTelemetry trace API. Its
// Factory and Handler satisfy the scopez capability interfaces on top of a
// trace.TracerProvider, so application code written against scopez can feed
// any configured OpenTelemetry SDK.
package otelscope

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zoobzio/scopez"
)

// instrumentationName identifies this bridge to the OpenTelemetry SDK.
const instrumentationName = "github.com/zoobzio/scopez/otelscope"

// Factory is a scopez.SpanFactory that creates spans through an
// OpenTelemetry tracer.
//
// The Sampled start-option hint is ignored: sampling belongs to the SDK's
// sampler. RecordEvents is likewise SDK policy.
type Factory struct {
	tracer trace.Tracer
}

// NewFactory creates a factory over the given provider.
func NewFactory(tp trace.TracerProvider) *Factory {
	return &Factory{tracer: tp.Tracer(instrumentationName)}
}

// Now returns the wall clock time. The OpenTelemetry API takes timestamps
// from the caller, so there is no SDK clock to defer to.
func (f *Factory) Now() time.Time {
	return time.Now()
}

// StartSpan creates a span as a child of parent, or a root span when
// parent is nil or carries an invalid context.
func (f *Factory) StartSpan(parent scopez.Span, name string, _ scopez.StartOptions) scopez.Span {
	ctx := context.Background()
	if ps, ok := parent.(*Span); ok {
		ctx = trace.ContextWithSpan(ctx, ps.otel)
	} else if parent != nil {
		if psc := parent.Context(); psc.IsValid() {
			ctx = trace.ContextWithSpanContext(ctx, ToSpanContext(psc, false))
		}
	}
	return f.start(ctx, name)
}

// StartSpanWithRemoteParent creates a span parented on a cross-process
// context. An invalid remote context yields a root span.
func (f *Factory) StartSpanWithRemoteParent(remote scopez.SpanContext, name string, _ scopez.StartOptions) scopez.Span {
	ctx := context.Background()
	if remote.IsValid() {
		ctx = trace.ContextWithRemoteSpanContext(ctx, ToSpanContext(remote, true))
	}
	return f.start(ctx, name)
}

func (f *Factory) start(ctx context.Context, name string) scopez.Span {
	_, sp := f.tracer.Start(ctx, name)
	return &Span{otel: sp, name: name}
}

// Span wraps an OpenTelemetry span behind the scopez.Span interface.
type Span struct {
	otel trace.Span
	name string
}

// Unwrap returns the underlying OpenTelemetry span.
func (s *Span) Unwrap() trace.Span {
	return s.otel
}

// Context returns the span's identity, converted from the OpenTelemetry
// span context.
func (s *Span) Context() scopez.SpanContext {
	return FromSpanContext(s.otel.SpanContext())
}

// Name returns the name the span was started with. Spans recovered from a
// foreign context report an empty name: the OpenTelemetry API does not
// expose one.
func (s *Span) Name() string {
	return s.name
}

// AddAnnotation records the annotation as a span event.
func (s *Span) AddAnnotation(a scopez.Annotation) {
	opts := make([]trace.EventOption, 0, 2)
	if len(a.Attributes) > 0 {
		opts = append(opts, trace.WithAttributes(toAttributes(a.Attributes)...))
	}
	if !a.Time.IsZero() {
		opts = append(opts, trace.WithTimestamp(a.Time))
	}
	s.otel.AddEvent(a.Message, opts...)
}

// AddAttributes sets string attributes on the span.
func (s *Span) AddAttributes(attrs map[string]string) {
	if len(attrs) == 0 {
		return
	}
	s.otel.SetAttributes(toAttributes(attrs)...)
}

// SetStatus maps the scopez status onto OpenTelemetry status codes. An
// unset status leaves the span's status untouched.
func (s *Span) SetStatus(st scopez.Status) {
	switch st.Code {
	case scopez.StatusOK:
		s.otel.SetStatus(codes.Ok, st.Message)
	case scopez.StatusError:
		s.otel.SetStatus(codes.Error, st.Message)
	case scopez.StatusUnset:
	}
}

// IsRecording reports whether the underlying span records events.
func (s *Span) IsRecording() bool {
	return s.otel.IsRecording()
}

// End ends the underlying span.
func (s *Span) End() {
	s.otel.End()
}

// Handler is a scopez.ContextSpanHandler that stores the current span both
// behind its own context key and where the OpenTelemetry API looks for it,
// so scopez scopes and native otel instrumentation observe each other's
// spans.
//
// Restoration on scope close follows from context descent: the context
// derived for the scope is abandoned when the scope ends. The returned
// Scope's Close is therefore inert.
type Handler struct{}

// NewHandler returns a handler backed by OpenTelemetry context storage.
func NewHandler() Handler {
	return Handler{}
}

type spanKeyType struct{}

var spanKey spanKeyType

// SpanFromContext returns the span installed in ctx, or nil when none is
// installed. A span installed by native otel instrumentation below the
// last scopez scope wins over the scope's own span.
func (Handler) SpanFromContext(ctx context.Context) scopez.Span {
	if ctx == nil {
		return nil
	}
	native := trace.SpanFromContext(ctx)
	if span, ok := ctx.Value(spanKey).(scopez.Span); ok {
		if FromSpanContext(native.SpanContext()) == span.Context() {
			return span
		}
	}
	if !native.SpanContext().IsValid() && !native.IsRecording() {
		// The otel no-op span; report absence and let the Tracer
		// substitute its own blank span.
		return nil
	}
	return &Span{otel: native}
}

// ContextWithSpan installs span as current for the derived context.
func (Handler) ContextWithSpan(ctx context.Context, span scopez.Span) (context.Context, scopez.Scope) {
	if ctx == nil {
		ctx = context.Background()
	}
	if s, ok := span.(*Span); ok {
		ctx = trace.ContextWithSpan(ctx, s.otel)
	} else {
		// Foreign span implementation: carry its identity so downstream
		// otel instrumentation still parents correctly.
		ctx = trace.ContextWithSpanContext(ctx, ToSpanContext(span.Context(), false))
	}
	return context.WithValue(ctx, spanKey, span), inertScope{}
}

type inertScope struct{}

func (inertScope) Close() {}

// ToSpanContext converts a scopez span context to its OpenTelemetry form.
func ToSpanContext(sc scopez.SpanContext, remote bool) trace.SpanContext {
	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID(sc.TraceID),
		SpanID:     trace.SpanID(sc.SpanID),
		TraceFlags: trace.FlagsSampled,
		Remote:     remote,
	})
}

// FromSpanContext converts an OpenTelemetry span context to its scopez
// form.
func FromSpanContext(sc trace.SpanContext) scopez.SpanContext {
	return scopez.SpanContext{
		TraceID: scopez.TraceID(sc.TraceID()),
		SpanID:  scopez.SpanID(sc.SpanID()),
	}
}

func toAttributes(attrs map[string]string) []attribute.KeyValue {
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		kvs = append(kvs, attribute.String(k, v))
	}
	return kvs
}

var (
	_ scopez.SpanFactory        = (*Factory)(nil)
	_ scopez.Span               = (*Span)(nil)
	_ scopez.ContextSpanHandler = Handler{}
)
