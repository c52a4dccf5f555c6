package scopez

import (
	"context"
	"sync/atomic"
)

// Scope is a single-use handle returned by scope-entry operations. Closing
// it restores the previous current span. Close is idempotent: the second
// and later calls are no-ops.
type Scope interface {
	Close()
}

// ContextSpanHandler tracks the current span per execution context. The
// execution context is a context.Context chain: goroutines holding
// independent contexts never observe each other's current span.
//
// Scopes entered on one chain must be closed in reverse order of entry.
// Closing an outer scope before an inner one leaves the association
// unspecified for the chain, but must not affect other, correctly nested
// scopes.
type ContextSpanHandler interface {
	// SpanFromContext returns the span installed in ctx, or nil when
	// none is installed. Must not fail; nil never reaches application
	// code because the Tracer substitutes the no-op span.
	SpanFromContext(ctx context.Context) Span

	// ContextWithSpan installs span as current, remembering the prior
	// association, and returns the derived context together with a Scope
	// whose Close restores the prior association. span is non-nil; the
	// Tracer rejects nil before it reaches the handler.
	ContextWithSpan(ctx context.Context, span Span) (context.Context, Scope)
}

// spanCell is one entry in the current-span association for a context
// chain. The span reference is fixed at creation; closing marks the cell
// dead so lookups fall through to the cell it shadowed.
type spanCell struct {
	parent *spanCell
	span   Span
	closed atomic.Bool
}

// Close restores the previous current span. Idempotent.
func (c *spanCell) Close() {
	c.closed.Store(true)
}

type cellKeyType struct{}

var cellKey cellKeyType

// ContextHandler is the default ContextSpanHandler. It threads the current
// span through context values: each scope entry derives a context holding a
// new cell that shadows the previous one, and closing the scope revives the
// shadowed cell. Restoration is therefore observable both through the outer
// context and through the context the scope itself returned.
type ContextHandler struct{}

// NewContextHandler returns the default context-value based handler.
func NewContextHandler() ContextHandler {
	return ContextHandler{}
}

// SpanFromContext returns the span installed in ctx, skipping closed
// scopes, or nil when none is installed.
func (ContextHandler) SpanFromContext(ctx context.Context) Span {
	if ctx == nil {
		return nil
	}
	cell, _ := ctx.Value(cellKey).(*spanCell)
	for cell != nil && cell.closed.Load() {
		cell = cell.parent
	}
	if cell == nil {
		return nil
	}
	return cell.span
}

// ContextWithSpan installs span as current for the derived context.
func (ContextHandler) ContextWithSpan(ctx context.Context, span Span) (context.Context, Scope) {
	if ctx == nil {
		ctx = context.Background()
	}
	prev, _ := ctx.Value(cellKey).(*spanCell)
	cell := &spanCell{parent: prev, span: span}
	return context.WithValue(ctx, cellKey, cell), cell
}

var _ ContextSpanHandler = ContextHandler{}
