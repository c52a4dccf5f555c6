// Package scopezhttp traces HTTP servers and clients with scopez. The
// server middleware starts a span per request, parented on the W3C
// traceparent header when the caller sent one, and installs it as current
// in the request context. Inject writes the current span's identity onto
// outgoing request headers.
package scopezhttp

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/zoobzio/scopez"
)

// TraceparentHeader is the W3C trace context header carrying the remote
// parent identity.
const TraceparentHeader = "traceparent"

// ParseTraceparent extracts a span context from a version-00 traceparent
// header value ("00-<32 hex trace id>-<16 hex span id>-<2 hex flags>").
// Reports false for malformed values and for the all-zero identities the
// format forbids.
func ParseTraceparent(value string) (scopez.SpanContext, bool) {
	parts := strings.Split(strings.TrimSpace(value), "-")
	if len(parts) != 4 || parts[0] != "00" {
		return scopez.SpanContext{}, false
	}
	if len(parts[1]) != 32 || len(parts[2]) != 16 || len(parts[3]) != 2 {
		return scopez.SpanContext{}, false
	}

	var sc scopez.SpanContext
	traceID, err := hex.DecodeString(parts[1])
	if err != nil {
		return scopez.SpanContext{}, false
	}
	copy(sc.TraceID[:], traceID)

	spanID, err := hex.DecodeString(parts[2])
	if err != nil {
		return scopez.SpanContext{}, false
	}
	copy(sc.SpanID[:], spanID)

	if _, err := hex.DecodeString(parts[3]); err != nil {
		return scopez.SpanContext{}, false
	}

	if !sc.IsValid() {
		return scopez.SpanContext{}, false
	}
	return sc, true
}

// FormatTraceparent renders a span context as a version-00 traceparent
// header value with the sampled flag set.
func FormatTraceparent(sc scopez.SpanContext) string {
	return fmt.Sprintf("00-%s-%s-01", sc.TraceID, sc.SpanID)
}

// Inject writes the current span's identity from ctx onto h. No-op when no
// span with a valid context is current.
func Inject(tracer *scopez.Tracer, ctx context.Context, h http.Header) {
	sc := tracer.CurrentSpan(ctx).Context()
	if !sc.IsValid() {
		return
	}
	h.Set(TraceparentHeader, FormatTraceparent(sc))
}

// Middleware returns middleware that traces each request through tracer.
// When registered on a mux router the span is named after the matched route
// template, falling back to the raw URL path.
//
// The span ends when the handler returns; responses with a 5xx status mark
// it with an error status.
func Middleware(tracer *scopez.Tracer) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name := spanName(r)

			var span scopez.Span
			if remote, ok := ParseTraceparent(r.Header.Get(TraceparentHeader)); ok {
				span = tracer.StartSpanWithRemoteParent(remote, name, scopez.StartOptions{})
			} else {
				span = tracer.StartSpan(nil, name, scopez.StartOptions{})
			}

			ctx, scope := tracer.WithSpan(r.Context(), span)
			defer func() {
				scope.Close()
				span.End()
			}()

			span.AddAttributes(map[string]string{
				"http.method": r.Method,
				"http.target": r.URL.Path,
			})

			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r.WithContext(ctx))

			status := sw.status
			if status == 0 {
				status = http.StatusOK
			}
			span.AddAttributes(map[string]string{
				"http.status_code": strconv.Itoa(status),
			})
			if status >= http.StatusInternalServerError {
				span.SetStatus(scopez.Status{
					Code:    scopez.StatusError,
					Message: http.StatusText(status),
				})
			}
		})
	}
}

func spanName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return r.Method + " " + tpl
		}
	}
	return r.Method + " " + r.URL.Path
}

// statusWriter captures the status code written by the handler.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}
