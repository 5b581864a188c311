package httpmiddleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-faster/sdk/zctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestWrap_Order(t *testing.T) {
	var trace []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				trace = append(trace, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Wrap(okHandler(), mark("outer"), mark("middle"), mark("inner"))
	serve(h, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "middle", "inner"}, trace)
}

func TestMakeRouteFinder(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("GET /api/products/{id}", okHandler())
	find := MakeRouteFinder(mux)

	route, ok := find(httptest.NewRequest(http.MethodGet, "/api/products/42", nil))
	require.True(t, ok)
	assert.Equal(t, "GET /api/products/{id}", route)

	_, ok = find(httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.False(t, ok)
	assert.Equal(t, "unknown", routeOf(find, httptest.NewRequest(http.MethodGet, "/nowhere", nil)))
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	t.Run("Generated", func(t *testing.T) {
		w := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Len(t, seen, 36)
		assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
	})
	t.Run("Reused", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(RequestIDHeader, "edge-7f3a")
		w := serve(h, r)
		assert.Equal(t, "edge-7f3a", seen)
		assert.Equal(t, "edge-7f3a", w.Header().Get(RequestIDHeader))
	})
	t.Run("Rejected", func(t *testing.T) {
		for _, bad := range []string{strings.Repeat("a", 129), "tab\there", "snow☃"} {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set(RequestIDHeader, bad)
			serve(h, r)
			assert.NotEqual(t, bad, seen)
			assert.Len(t, seen, 36)
		}
	})
	assert.Empty(t, RequestIDFromContext(context.Background()))
}

func TestInjectLogger_AndLogRequests(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		zctx.From(r.Context()).Info("Inside handler")
		w.WriteHeader(http.StatusTeapot)
	})
	h := Wrap(mux,
		RequestID(),
		InjectLogger(zap.New(core)),
		LogRequests(MakeRouteFinder(mux)),
	)

	r := httptest.NewRequest(http.MethodGet, "/api/products/5", nil)
	r.Header.Set(RequestIDHeader, "req-1")
	w := serve(h, r)
	require.Equal(t, http.StatusTeapot, w.Code)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "Inside handler", entries[0].Message)
	assert.Equal(t, "req-1", entries[0].ContextMap()["request_id"])

	access := entries[1].ContextMap()
	assert.Equal(t, "Request", entries[1].Message)
	assert.Equal(t, "GET /api/products/{id}", access["route"])
	assert.EqualValues(t, http.StatusTeapot, access["status"])
	assert.Equal(t, "req-1", access["request_id"])
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := Wrap(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), InjectLogger(zap.New(core)), Recovery())

	w := serve(h, httptest.NewRequest(http.MethodPost, "/api/products/checkout", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"internal server error"}`, w.Body.String())
	require.Equal(t, 1, logs.FilterMessage("Panic recovered").Len())

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		abort := Recovery()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic(http.ErrAbortHandler)
		}))
		serve(abort, httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestCORS(t *testing.T) {
	h := CORS(CORSConfig{AllowOrigins: []string{"https://Shop.example.com"}, MaxAge: 600})(okHandler())

	t.Run("Preflight", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodOptions, "/api/products/cart/add", nil)
		r.Header.Set("Origin", "https://shop.example.com")
		r.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := serve(h, r)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://Shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "Authorization, Content-Type", w.Header().Get("Access-Control-Allow-Headers"))
		assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
	})
	t.Run("DisallowedOrigin", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		r.Header.Set("Origin", "https://evil.example.com")
		w := serve(h, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Values("Vary"), "Origin")
	})
	t.Run("Wildcard", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		r.Header.Set("Origin", "https://any.example.com")
		w := serve(CORS(CORSConfig{})(okHandler()), r)

		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, RequestIDHeader, w.Header().Get("Access-Control-Expose-Headers"))
	})
}
