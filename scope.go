package scopez

import "sync"

// scopedSpan couples a newly started span with the scope that made it
// current. Closing it exits the scope first and ends the span second, so
// code observing the current span during teardown never sees an ended span
// reported as active.
type scopedSpan struct {
	scope Scope
	span  Span
	once  sync.Once
}

func newScopedSpan(scope Scope, span Span) *scopedSpan {
	return &scopedSpan{scope: scope, span: span}
}

// Close restores the previous current span, then ends the span. Fires at
// most once.
func (s *scopedSpan) Close() {
	s.once.Do(func() {
		s.scope.Close()
		s.span.End()
	})
}

var _ Scope = (*scopedSpan)(nil)
