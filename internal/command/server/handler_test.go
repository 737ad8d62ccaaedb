package server_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/lwmacct/251207-go-pkg-strbuf/internal/command/server"
	"github.com/lwmacct/251207-go-pkg-strbuf/internal/config"
	"github.com/lwmacct/251207-go-pkg-strbuf/internal/metrics"
)

const groupTemplate = `group\$1,gr$4oup$3, group $2 gr$3oup $5form$2at$1end`

// recorder 记录调用，便于断言缓存命中与操作名。
type recorder struct {
	metrics.Noop

	mu     sync.Mutex
	cached []bool
	ops    []string
}

func (r *recorder) RecordCompile(_ context.Context, cached bool, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cached = append(r.cached, cached)
}

func (r *recorder) RecordSubstitute(_ context.Context, op string, _ int, _ time.Duration, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}

func newHandler(t *testing.T, mutate func(*config.Config)) (http.Handler, *recorder) {
	t.Helper()

	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	rec := &recorder{}

	return server.NewHandler(&cfg, rec, slog.New(slog.DiscardHandler)), rec
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var payload string
	switch v := body.(type) {
	case nil:
	case string:
		payload = v
	default:
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		payload = string(raw)
	}

	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	return w
}

func decodeResult(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var res server.Result
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))

	return res.Result
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var res server.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))

	return res.Error
}

func TestHandler_Health(t *testing.T) {
	h, _ := newHandler(t, nil)

	w := do(t, h, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["version"])
}

func TestHandler_Expand(t *testing.T) {
	h, _ := newHandler(t, nil)

	tests := []struct {
		name string
		req  server.ExpandRequest
		want string
	}{
		{
			name: "group template",
			req:  server.ExpandRequest{Template: groupTemplate, MaxSlot: 5, Values: []string{"R1", "R2", "R3", "R4", "R5"}},
			want: `group\$1,grR4oupR3, group R2 grR3oup R5formR2atR1end`,
		},
		{
			name: "missing values expand empty",
			req:  server.ExpandRequest{Template: groupTemplate, MaxSlot: 5, Values: []string{"R1"}},
			want: `group\$1,group, group  group formatR1end`,
		},
		{
			name: "default max slot",
			req:  server.ExpandRequest{Template: "$1-$9", Values: []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"}},
			want: "a-i",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/v1/expand", tt.req)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, tt.want, decodeResult(t, w))
		})
	}
}

func TestHandler_ExpandCache(t *testing.T) {
	h, rec := newHandler(t, nil)
	req := server.ExpandRequest{Template: "hi $1", MaxSlot: 1, Values: []string{"you"}}

	for range 3 {
		w := do(t, h, http.MethodPost, "/v1/expand", req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "hi you", decodeResult(t, w))
	}
	assert.Equal(t, []bool{false, true, true}, rec.cached)

	// 不同 max_slot 视为不同模板
	req.MaxSlot = 2
	w := do(t, h, http.MethodPost, "/v1/expand", req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []bool{false, true, true, false}, rec.cached)
}

func TestHandler_ExpandCacheDisabled(t *testing.T) {
	h, rec := newHandler(t, func(c *config.Config) { c.Server.CacheSize = 0 })
	req := server.ExpandRequest{Template: "hi $1", MaxSlot: 1}

	for range 2 {
		w := do(t, h, http.MethodPost, "/v1/expand", req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "hi ", decodeResult(t, w))
	}
	assert.Equal(t, []bool{false, false}, rec.cached)
}

func TestHandler_ExpandErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		body   any
		status int
		errMsg string
	}{
		{
			name:   "empty template",
			body:   server.ExpandRequest{Template: "", MaxSlot: 1},
			status: http.StatusBadRequest,
		},
		{
			name:   "max slot above 255",
			body:   server.ExpandRequest{Template: "$1", MaxSlot: 256},
			status: http.StatusBadRequest,
		},
		{
			name:   "slot id overflow",
			body:   server.ExpandRequest{Template: "$300", MaxSlot: 9},
			status: http.StatusBadRequest,
		},
		{
			name:   "malformed json",
			body:   `{"template":`,
			status: http.StatusBadRequest,
		},
		{
			name:   "output limit",
			mutate: func(c *config.Config) { c.Template.Limit = 16 },
			body:   server.ExpandRequest{Template: "$1", MaxSlot: 1, Values: []string{strings.Repeat("x", 64)}},
			status: http.StatusRequestEntityTooLarge,
		},
		{
			name:   "body too large",
			mutate: func(c *config.Config) { c.Server.MaxBody = 8 },
			body:   server.ExpandRequest{Template: "hello $1", MaxSlot: 1},
			status: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newHandler(t, tt.mutate)

			w := do(t, h, http.MethodPost, "/v1/expand", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, decodeError(t, w))
		})
	}
}

func TestHandler_Substitute(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
		op   string
	}{
		{
			name: "replace all",
			body: `{"text":"hello world","match":"o","replacement":"0"}`,
			want: "hell0 w0rld",
			op:   "replace-all",
		},
		{
			name: "replace first n",
			body: `{"text":"a-b-c-d","match":"-","replacement":"+","count":2}`,
			want: "a+b+c-d",
			op:   "replace-first-n",
		},
		{
			name: "range then insert",
			body: `{"text":"hello world","range":{"from":0,"to":5,"text":"bye"},"insert":{"at":3,"text":" big"}}`,
			want: "bye big world",
			op:   "range+insert",
		},
		{
			name: "delete matches",
			body: `{"text":"a, b, c","match":", ","replacement":""}`,
			want: "abc",
			op:   "replace-all",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, rec := newHandler(t, nil)

			w := do(t, h, http.MethodPost, "/v1/substitute", tt.body)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, tt.want, decodeResult(t, w))
			assert.Equal(t, []string{tt.op}, rec.ops)
		})
	}
}

func TestHandler_SubstituteErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		body   string
		status int
	}{
		{name: "nothing to do", body: `{"text":"abc"}`, status: http.StatusBadRequest},
		{name: "empty text", body: `{"text":"","match":"a"}`, status: http.StatusBadRequest},
		{name: "negative count", body: `{"text":"abc","match":"a","count":-1}`, status: http.StatusBadRequest},
		{name: "range out of bounds", body: `{"text":"abc","range":{"from":1,"to":9}}`, status: http.StatusBadRequest},
		{name: "insert at end", body: `{"text":"abc","insert":{"at":3,"text":"x"}}`, status: http.StatusBadRequest},
		{
			name:   "buffer limit",
			mutate: func(c *config.Config) { c.Buffer.Unit = 8; c.Buffer.Limit = 16 },
			body:   `{"text":"aaaa","match":"a","replacement":"bbbbbbbb"}`,
			status: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newHandler(t, tt.mutate)

			w := do(t, h, http.MethodPost, "/v1/substitute", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, decodeError(t, w))
		})
	}
}

func TestHandler_RequestID(t *testing.T) {
	h, _ := newHandler(t, nil)

	w := do(t, h, http.MethodGet, "/health", nil)
	generated := w.Header().Get(server.RequestIDHeader)
	assert.Len(t, generated, 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(server.RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(server.RequestIDHeader))
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h, _ := newHandler(t, nil)

	w := do(t, h, http.MethodGet, "/v1/expand", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandler_ExpandCacheClearedWhenFull(t *testing.T) {
	h, rec := newHandler(t, func(c *config.Config) { c.Server.CacheSize = 1 })

	for _, src := range []string{"a$1", "a$1", "b$1", "a$1"} {
		w := do(t, h, http.MethodPost, "/v1/expand", server.ExpandRequest{Template: src, MaxSlot: 1})
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, []bool{false, true, false, false}, rec.cached)
}

func TestHandler_Metrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	rec, err := metrics.NewFromProvider(provider)
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	h := server.NewHandler(&cfg, rec, slog.New(slog.DiscardHandler), server.WithMetrics(reader))

	for range 2 {
		w := do(t, h, http.MethodPost, "/v1/expand", server.ExpandRequest{Template: "hi $1", MaxSlot: 1, Values: []string{"x"}})
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := do(t, h, http.MethodPost, "/v1/substitute", `{"text":"abc","match":"b","replacement":"B"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var points []metrics.Point
	require.NoError(t, json.NewDecoder(w.Body).Decode(&points))

	values := map[string]float64{}
	for _, p := range points {
		if p.Count == 0 {
			values[p.Name+"/"+p.Attributes["cached"]] += p.Value
		}
	}
	assert.InDelta(t, 1.0, values["strbuf.template.compiles/false"], 0)
	assert.InDelta(t, 1.0, values["strbuf.template.compiles/true"], 0)
	assert.InDelta(t, 2.0, values["strbuf.template.expands/"], 0)
	assert.InDelta(t, 1.0, values["strbuf.buffer.substitutes/"], 0)
}

func TestHandler_MetricsDisabledWithoutCollector(t *testing.T) {
	h, _ := newHandler(t, nil)

	w := do(t, h, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_TrailingData(t *testing.T) {
	h, _ := newHandler(t, nil)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{name: "second object", path: "/v1/expand", body: `{"template":"a$1","max_slot":1}{"template":"b"}`, status: http.StatusBadRequest},
		{name: "garbage", path: "/v1/substitute", body: `{"text":"abc","match":"b"} x`, status: http.StatusBadRequest},
		{name: "trailing whitespace", path: "/v1/expand", body: "{\"template\":\"a$1\",\"max_slot\":1}\n  ", status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}
