package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lwmacct/251207-go-pkg-strbuf/internal/config"
	"github.com/lwmacct/251207-go-pkg-strbuf/internal/edit"
	"github.com/lwmacct/251207-go-pkg-strbuf/internal/metrics"
	"github.com/lwmacct/251207-go-pkg-strbuf/internal/version"
	"github.com/lwmacct/251207-go-pkg-strbuf/pkg/strbuf"
	"github.com/lwmacct/251207-go-pkg-strbuf/pkg/templexp"
)

// RequestIDHeader 请求 ID 头，缺省时由服务端生成。
const RequestIDHeader = "X-Request-ID"

// ExpandRequest POST /v1/expand 请求体。
type ExpandRequest struct {
	Template string   `json:"template"`
	MaxSlot  int      `json:"max_slot,omitempty"` // 0 使用服务端配置
	Values   []string `json:"values"`
}

// SubstituteRequest POST /v1/substitute 请求体。
type SubstituteRequest struct {
	Text string `json:"text"`
	edit.Ops
}

// Result 成功响应。
type Result struct {
	Result string `json:"result"`
}

// ErrorResponse 失败响应。
type ErrorResponse struct {
	Error string `json:"error"`
}

type handler struct {
	cfg       *config.Config
	cache     *templateCache
	recorder  metrics.Recorder
	collector metrics.Collector
	logger    *slog.Logger
}

// HandlerOption 处理器选项。
type HandlerOption func(*handler)

// WithMetrics 注册 GET /metrics，返回 c 的指标快照。
func WithMetrics(c metrics.Collector) HandlerOption {
	return func(h *handler) {
		h.collector = c
	}
}

// NewHandler 创建 HTTP 处理器，路由 /health、/v1/expand 与 /v1/substitute。
func NewHandler(cfg *config.Config, recorder metrics.Recorder, logger *slog.Logger, opts ...HandlerOption) http.Handler {
	h := &handler{
		cfg:      cfg,
		cache:    newTemplateCache(cfg.Server.CacheSize),
		recorder: recorder,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(h)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("POST /v1/expand", h.expand)
	mux.HandleFunc("POST /v1/substitute", h.substitute)
	if h.collector != nil {
		mux.HandleFunc("GET /metrics", h.snapshot)
	}

	return h.withRequestID(mux)
}

func (h *handler) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		start := time.Now()
		next.ServeHTTP(w, r)
		h.logger.Debug("Request handled", "id", id, "method", r.Method, "path", r.URL.Path, "elapsed", time.Since(start))
	})
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.GetVersion(),
	})
}

func (h *handler) snapshot(w http.ResponseWriter, r *http.Request) {
	points, err := metrics.Snapshot(r.Context(), h.collector)
	if err != nil {
		h.fail(w, r, "metrics", err)

		return
	}

	writeJSON(w, http.StatusOK, points)
}

func (h *handler) expand(w http.ResponseWriter, r *http.Request) {
	var req ExpandRequest
	if !h.decode(w, r, &req) {
		return
	}

	maxSlot := req.MaxSlot
	if maxSlot == 0 {
		maxSlot = h.cfg.Template.MaxSlot
	}

	tpl, cached, err := h.cache.get(req.Template, maxSlot, func() (*templexp.Template, error) {
		return templexp.CompileString(req.Template, maxSlot,
			templexp.WithUnit(h.cfg.Template.Unit),
			templexp.WithLimit(h.cfg.Template.Limit),
		)
	})
	h.recorder.RecordCompile(r.Context(), cached, err)
	if err != nil {
		h.fail(w, r, "compile", err)

		return
	}

	start := time.Now()
	out, err := tpl.ExpandString(req.Values...)
	h.recorder.RecordExpand(r.Context(), len(out), time.Since(start), err)
	if err != nil {
		h.fail(w, r, "expand", err)

		return
	}

	writeJSON(w, http.StatusOK, Result{Result: out})
}

func (h *handler) substitute(w http.ResponseWriter, r *http.Request) {
	var req SubstituteRequest
	if !h.decode(w, r, &req) {
		return
	}

	op := req.Name()
	start := time.Now()
	out, err := h.apply(req)
	h.recorder.RecordSubstitute(r.Context(), op, len(out), time.Since(start), err)
	if err != nil {
		h.fail(w, r, op, err)

		return
	}

	writeJSON(w, http.StatusOK, Result{Result: out})
}

func (h *handler) apply(req SubstituteRequest) (string, error) {
	if req.Empty() {
		return "", fmt.Errorf("nothing to do: set range, insert or match: %w", strbuf.ErrInvalidArgument)
	}

	b, err := strbuf.New(h.cfg.Buffer.Unit, strbuf.WithLimit(h.cfg.Buffer.Limit))
	if err != nil {
		return "", err
	}
	defer b.Release()

	if err := b.SetString(req.Text); err != nil {
		return "", err
	}
	if err := edit.Apply(b, req.Ops); err != nil {
		return "", err
	}

	return b.String(), nil
}

func (h *handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Server.MaxBody)
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(v)
	if err == nil {
		// 请求体只允许一个 JSON 值
		if err = dec.Decode(&struct{}{}); errors.Is(err, io.EOF) {
			return true
		}
		if err == nil {
			err = errors.New("unexpected data after JSON body")
		}
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.fail(w, r, "decode", errors.Join(strbuf.ErrAllocation, err))

		return false
	}
	h.fail(w, r, "decode", errors.Join(strbuf.ErrInvalidArgument, err))

	return false
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	h.logger.Warn("Request failed",
		"id", w.Header().Get(RequestIDHeader),
		"path", r.URL.Path,
		"op", op,
		"status", status,
		"error", err,
	)
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, strbuf.ErrAllocation):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, strbuf.ErrInvalidArgument), errors.Is(err, strbuf.ErrRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
