package scopezhttp_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoobzio/scopez"
	"github.com/zoobzio/scopez/recording"
	"github.com/zoobzio/scopez/scopezhttp"
)

func newTestTracer(t *testing.T) (*scopez.Tracer, *recording.Collector) {
	t.Helper()

	factory := recording.NewFactory()
	t.Cleanup(factory.Close)

	collector := recording.NewCollector("test", 16)
	collector.SetSyncMode(true)
	t.Cleanup(collector.Close)
	factory.AddCollector("test", collector)

	return scopez.New(scopez.NewContextHandler(), factory), collector
}

func remoteContext() scopez.SpanContext {
	return scopez.SpanContext{
		TraceID: scopez.TraceID{0x0a, 0x0b, 0x0c, 0x0d, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
		SpanID:  scopez.SpanID{0xde, 0xad, 0xbe, 0xef, 1, 2, 3, 4},
	}
}

func TestParseTraceparent(t *testing.T) {
	want := remoteContext()
	value := "00-" + want.TraceID.String() + "-" + want.SpanID.String() + "-01"

	got, ok := scopezhttp.ParseTraceparent(value)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestParseTraceparentRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":            "",
		"missing parts":    "00-abc",
		"bad version":      "01-0a0b0c0d0102030405060708090a0b0c-deadbeef01020304-01",
		"short trace id":   "00-0a0b0c0d-deadbeef01020304-01",
		"short span id":    "00-0a0b0c0d0102030405060708090a0b0c-dead-01",
		"non-hex trace id": "00-zz0b0c0d0102030405060708090a0b0c-deadbeef01020304-01",
		"non-hex span id":  "00-0a0b0c0d0102030405060708090a0b0c-zzadbeef01020304-01",
		"non-hex flags":    "00-0a0b0c0d0102030405060708090a0b0c-deadbeef01020304-zz",
		"zero trace id":    "00-00000000000000000000000000000000-deadbeef01020304-01",
		"zero span id":     "00-0a0b0c0d0102030405060708090a0b0c-0000000000000000-01",
	}
	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok := scopezhttp.ParseTraceparent(value)
			assert.False(t, ok)
		})
	}
}

func TestFormatTraceparentRoundTrip(t *testing.T) {
	want := remoteContext()

	got, ok := scopezhttp.ParseTraceparent(scopezhttp.FormatTraceparent(want))
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func serve(t *testing.T, tracer *scopez.Tracer, handler http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	router := mux.NewRouter()
	router.Use(scopezhttp.Middleware(tracer))
	router.HandleFunc("/users/{id}", handler)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestMiddlewareNamesSpanFromRouteTemplate(t *testing.T) {
	tracer, collector := newTestTracer(t)

	req := httptest.NewRequest(http.MethodGet, "/users/42", nil)
	serve(t, tracer, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, req)

	spans := collector.Export()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /users/{id}", spans[0].Name)
	assert.Equal(t, "GET", spans[0].Attributes["http.method"])
	assert.Equal(t, "/users/42", spans[0].Attributes["http.target"])
	assert.Equal(t, "200", spans[0].Attributes["http.status_code"])
	assert.Equal(t, scopez.StatusUnset, spans[0].Status.Code)
}

func TestMiddlewareInstallsCurrentSpan(t *testing.T) {
	tracer, collector := newTestTracer(t)

	var inHandler scopez.SpanContext
	req := httptest.NewRequest(http.MethodGet, "/users/42", nil)
	serve(t, tracer, func(w http.ResponseWriter, r *http.Request) {
		inHandler = tracer.CurrentSpan(r.Context()).Context()
	}, req)

	require.True(t, inHandler.IsValid())

	spans := collector.Export()
	require.Len(t, spans, 1)
	assert.Equal(t, inHandler.TraceID.String(), spans[0].TraceID)
	assert.Equal(t, inHandler.SpanID.String(), spans[0].SpanID)
}

func TestMiddlewareAdoptsRemoteParent(t *testing.T) {
	tracer, collector := newTestTracer(t)
	remote := remoteContext()

	req := httptest.NewRequest(http.MethodGet, "/users/42", nil)
	req.Header.Set(scopezhttp.TraceparentHeader, scopezhttp.FormatTraceparent(remote))
	serve(t, tracer, func(w http.ResponseWriter, r *http.Request) {}, req)

	spans := collector.Export()
	require.Len(t, spans, 1)
	assert.Equal(t, remote.TraceID.String(), spans[0].TraceID)
	assert.Equal(t, remote.SpanID.String(), spans[0].ParentID)
	assert.True(t, spans[0].RemoteParent)
}

func TestMiddlewareIgnoresMalformedTraceparent(t *testing.T) {
	tracer, collector := newTestTracer(t)

	req := httptest.NewRequest(http.MethodGet, "/users/42", nil)
	req.Header.Set(scopezhttp.TraceparentHeader, "00-bogus")
	serve(t, tracer, func(w http.ResponseWriter, r *http.Request) {}, req)

	spans := collector.Export()
	require.Len(t, spans, 1)
	assert.Empty(t, spans[0].ParentID)
	assert.False(t, spans[0].RemoteParent)
}

func TestMiddlewareMarksServerErrors(t *testing.T) {
	tracer, collector := newTestTracer(t)

	req := httptest.NewRequest(http.MethodGet, "/users/42", nil)
	serve(t, tracer, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}, req)

	spans := collector.Export()
	require.Len(t, spans, 1)
	assert.Equal(t, "503", spans[0].Attributes["http.status_code"])
	assert.Equal(t, scopez.StatusError, spans[0].Status.Code)
	assert.Equal(t, http.StatusText(http.StatusServiceUnavailable), spans[0].Status.Message)
}

func TestMiddlewareDefaultsImplicitOK(t *testing.T) {
	tracer, collector := newTestTracer(t)

	req := httptest.NewRequest(http.MethodGet, "/users/42", nil)
	serve(t, tracer, func(w http.ResponseWriter, r *http.Request) {
		// Never touches the writer; the middleware reports 200.
	}, req)

	spans := collector.Export()
	require.Len(t, spans, 1)
	assert.Equal(t, "200", spans[0].Attributes["http.status_code"])
}

func TestInjectWritesCurrentSpan(t *testing.T) {
	tracer, _ := newTestTracer(t)

	ctx, scope := tracer.StartScopedSpan(context.Background(), "client-call")
	defer scope.Close()
	want := tracer.CurrentSpan(ctx).Context()

	header := http.Header{}
	scopezhttp.Inject(tracer, ctx, header)

	got, ok := scopezhttp.ParseTraceparent(header.Get(scopezhttp.TraceparentHeader))
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestInjectWithoutSpanLeavesHeaderUnset(t *testing.T) {
	tracer, _ := newTestTracer(t)

	header := http.Header{}
	scopezhttp.Inject(tracer, context.Background(), header)

	assert.Empty(t, header.Get(scopezhttp.TraceparentHeader))
}
