package scopez

import (
	"encoding/hex"
	"time"
)

// TraceID identifies a whole trace. The zero value is invalid.
type TraceID [16]byte

// String returns the hex form of the trace ID.
func (t TraceID) String() string {
	return hex.EncodeToString(t[:])
}

// IsValid reports whether the trace ID is non-zero.
func (t TraceID) IsValid() bool {
	return t != TraceID{}
}

// SpanID identifies a single span within a trace. The zero value is invalid.
type SpanID [8]byte

// String returns the hex form of the span ID.
func (s SpanID) String() string {
	return hex.EncodeToString(s[:])
}

// IsValid reports whether the span ID is non-zero.
func (s SpanID) IsValid() bool {
	return s != SpanID{}
}

// SpanContext is the portable identity of a span. It is the form a parent
// takes when it executed in a different process. The zero value is the
// invalid context carried by the no-op span.
type SpanContext struct {
	TraceID TraceID
	SpanID  SpanID
}

// IsValid reports whether both the trace ID and the span ID are non-zero.
func (sc SpanContext) IsValid() bool {
	return sc.TraceID.IsValid() && sc.SpanID.IsValid()
}

// StatusCode classifies the outcome of a span.
type StatusCode int32

const (
	// StatusUnset is the default status of a span.
	StatusUnset StatusCode = iota
	// StatusOK marks the operation as completed successfully.
	StatusOK
	// StatusError marks the operation as failed.
	StatusError
)

// Status describes the outcome of a span.
type Status struct {
	Message string     `json:"message,omitempty"`
	Code    StatusCode `json:"code"`
}

// Annotation is a timestamped event recorded on a span. A zero Time means
// "now" as observed by the span's backend.
type Annotation struct {
	Attributes map[string]string `json:"attributes,omitempty"`
	Time       time.Time         `json:"time"`
	Message    string            `json:"message"`
}

// Span is a named, timed unit of traced work. Implementations are provided
// by backends; application code obtains spans from a Tracer.
//
// A span's name and parent link are fixed at creation. Annotations,
// attributes and status may be recorded until End is called; ending a span
// twice is a no-op. A span's mutable state is owned by whichever single
// logical owner holds the reference between start and end - scopez does not
// arbitrate concurrent mutation of one span.
type Span interface {
	// Context returns the span's identity. The no-op span returns the
	// invalid zero context.
	Context() SpanContext

	// Name returns the name the span was started with.
	Name() string

	// AddAnnotation records a timestamped event on the span.
	AddAnnotation(a Annotation)

	// AddAttributes records key-value attributes on the span.
	AddAttributes(attrs map[string]string)

	// SetStatus sets the span's outcome. The last call before End wins.
	SetStatus(s Status)

	// IsRecording reports whether the span records annotations and
	// attributes. The no-op span reports false, as does any span that
	// has ended.
	IsRecording() bool

	// End finalizes the span's timing and state. Subsequent calls are
	// no-ops, and subsequent mutations are discarded.
	End()
}

// SpanData is the immutable exported form of a finished span, as handed to
// collectors and completion handlers.
//
//nolint:govet // Field order follows JSON serialization order
type SpanData struct {
	Attributes   map[string]string `json:"attributes,omitempty"`
	Annotations  []Annotation      `json:"annotations,omitempty"`
	StartTime    time.Time         `json:"start_time"`
	EndTime      time.Time         `json:"end_time"`
	Duration     time.Duration     `json:"duration"`
	TraceID      string            `json:"trace_id"`
	SpanID       string            `json:"span_id"`
	ParentID     string            `json:"parent_id,omitempty"`
	Name         string            `json:"name"`
	Status       Status            `json:"status"`
	RemoteParent bool              `json:"remote_parent,omitempty"`
}
