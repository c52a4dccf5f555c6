// Package recording provides the built-in scopez backend: a SpanFactory
// whose spans record names, timestamps, attributes, annotations and status
// in memory, and a Collector that buffers completed spans for export.
//
// The factory uses a clockz.Clock for all timestamps, so tests can inject a
// fake clock, and hands every completed span to registered completion
// handlers and collectors.
package recording

import (
	"sync"

	"github.com/zoobzio/scopez"
)

// Span is a recording implementation of scopez.Span. Identity and parent
// link are fixed at creation; annotations, attributes and status may be
// recorded until End.
//
// Mutating operations are safe for concurrent use, but a span is meant to
// have a single logical owner between start and end.
type Span struct {
	factory *Factory
	sc      scopez.SpanContext
	mu      sync.Mutex
	data    scopez.SpanData
	record  bool
	ended   bool
}

// Context returns the span's identity.
func (s *Span) Context() scopez.SpanContext {
	return s.sc
}

// Name returns the name the span was started with.
func (s *Span) Name() string {
	return s.data.Name
}

// AddAnnotation records a timestamped event. A zero annotation time is
// filled in from the factory clock. No-op once the span has ended.
func (s *Span) AddAnnotation(a scopez.Annotation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended || !s.record {
		return
	}
	if a.Time.IsZero() {
		a.Time = s.factory.clock.Now()
	}
	s.data.Annotations = append(s.data.Annotations, a)
}

// AddAttributes records key-value attributes, overwriting existing keys.
// No-op once the span has ended.
func (s *Span) AddAttributes(attrs map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended || !s.record {
		return
	}
	if s.data.Attributes == nil {
		s.data.Attributes = make(map[string]string, len(attrs))
	}
	for k, v := range attrs {
		s.data.Attributes[k] = v
	}
}

// SetStatus sets the span's outcome. The last call before End wins. No-op
// once the span has ended.
func (s *Span) SetStatus(st scopez.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.data.Status = st
}

// IsRecording reports whether the span still accepts annotations and
// attributes.
func (s *Span) IsRecording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record && !s.ended
}

// End finalizes the span's timing and hands it to the factory's collectors
// and completion handlers. Safe to call multiple times - subsequent calls
// are no-ops.
func (s *Span) End() {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.ended = true
	s.data.EndTime = s.factory.clock.Now()
	s.data.Duration = s.data.EndTime.Sub(s.data.StartTime)
	data := s.data
	record := s.record
	s.mu.Unlock()

	// Unsampled spans keep their identity for propagation but are never
	// exported.
	if record {
		s.factory.complete(data)
	}
}

var _ scopez.Span = (*Span)(nil)
