package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inletmail/gmail-mcp/internal/auth"
	"github.com/inletmail/gmail-mcp/internal/instrumentation"
	"github.com/inletmail/gmail-mcp/internal/logging"
	"github.com/inletmail/gmail-mcp/internal/tools"
)

// DefaultRequestTimeout bounds a single HTTP tool invocation.
const DefaultRequestTimeout = 120 * time.Second

const maxRequestBody = 4 << 20

// HTTPOptions configures the HTTP transport.
type HTTPOptions struct {
	Addr string

	// RequestTimeout is the per-request deadline for tool invocations.
	// Zero means DefaultRequestTimeout.
	RequestTimeout time.Duration

	// ServeMetrics mounts the Prometheus handler on /metrics.
	ServeMetrics bool
}

// HTTPServer is the HTTP API surface. It dispatches into the same closed
// tool registry as the stdio transport.
type HTTPServer struct {
	sc         *ServerContext
	dispatcher *tools.Dispatcher
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
	timeout    time.Duration
	srv        *http.Server
}

// NewHTTPServer builds the HTTP transport around the shared server context
// and tool dispatcher.
func NewHTTPServer(sc *ServerContext, dispatcher *tools.Dispatcher, logger *slog.Logger, metrics *instrumentation.Metrics, opts HTTPOptions) *HTTPServer {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	hs := &HTTPServer{
		sc:         sc,
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
		timeout:    timeout,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", hs.instrument("/health", hs.handleHealth))
	mux.HandleFunc("GET /tools", hs.instrument("/tools", hs.handleToolCatalogue))
	mux.HandleFunc("POST /api/mcp", hs.instrument("/api/mcp", hs.handleMCP))
	mux.HandleFunc("POST /api/tools/{tool}", hs.instrument("/api/tools/{tool}", hs.handleToolCall))
	if opts.ServeMetrics {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	hs.srv = &http.Server{
		Addr:              opts.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return hs
}

// Handler exposes the routing mux, primarily for tests.
func (hs *HTTPServer) Handler() http.Handler {
	return hs.srv.Handler
}

// ListenAndServe blocks until the listener fails or Shutdown is called.
func (hs *HTTPServer) ListenAndServe() error {
	hs.logger.Info("HTTP server listening",
		slog.String("addr", hs.srv.Addr),
		slog.Bool("user_credentials", hs.sc.UserCredentialMode()))
	if err := hs.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (hs *HTTPServer) Shutdown(ctx context.Context) error {
	return hs.srv.Shutdown(ctx)
}

// statusRecorder captures the response status for the request metric.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

func (hs *HTTPServer) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		hs.metrics.RecordHTTPRequest(r.Context(), r.Method, route, rec.status, time.Since(start))
	}
}

type healthResponse struct {
	Status          string `json:"status"`
	Version         string `json:"version"`
	UptimeSeconds   int64  `json:"uptime_seconds"`
	UserCredentials bool   `json:"user_credentials"`
}

func (hs *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:          "ok",
		Version:         hs.sc.Version(),
		UptimeSeconds:   int64(hs.sc.Uptime().Seconds()),
		UserCredentials: hs.sc.UserCredentialMode(),
	})
}

type toolSchema struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Params      []paramSchema `json:"params"`
}

type paramSchema struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Required    bool     `json:"required"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

func (hs *HTTPServer) handleToolCatalogue(w http.ResponseWriter, r *http.Request) {
	defs := tools.All()
	catalogue := make([]toolSchema, 0, len(defs))
	for _, def := range defs {
		schema := toolSchema{
			Name:        def.Name,
			Description: def.Description,
			Params:      make([]paramSchema, 0, len(def.Params)),
		}
		for _, p := range def.Params {
			schema.Params = append(schema.Params, paramSchema{
				Name:        p.Name,
				Type:        p.Type,
				Required:    p.Required,
				Description: p.Description,
				Enum:        p.Enum,
			})
		}
		catalogue = append(catalogue, schema)
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": catalogue})
}

type mcpRequest struct {
	Method string `json:"method"`
	Params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"params"`
}

// handleMCP implements the minimal JSON dispatch subset of the MCP protocol
// over plain HTTP: tools/list and tools/call.
func (hs *HTTPServer) handleMCP(w http.ResponseWriter, r *http.Request) {
	var req mcpRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrorStatus(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	switch req.Method {
	case "tools/list":
		hs.handleToolCatalogue(w, r)
	case "tools/call":
		if req.Params.Name == "" {
			writeErrorStatus(w, http.StatusBadRequest, "bad_request", "tool name is required")
			return
		}
		hs.invokeTool(w, r, req.Params.Name, req.Params.Arguments)
	default:
		writeErrorStatus(w, http.StatusBadRequest, "bad_request",
			fmt.Sprintf("unsupported method: %q", req.Method))
	}
}

func (hs *HTTPServer) handleToolCall(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("tool")

	args := map[string]any{}
	if r.ContentLength != 0 {
		if err := decodeBody(r, &args); err != nil {
			writeErrorStatus(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
	}
	hs.invokeTool(w, r, name, args)
}

func (hs *HTTPServer) invokeTool(w http.ResponseWriter, r *http.Request, name string, args map[string]any) {
	if args == nil {
		args = map[string]any{}
	}

	ctx, cancel := context.WithTimeout(r.Context(), hs.timeout)
	defer cancel()

	result, err := hs.dispatcher.Call(ctx, name, args)
	if err != nil {
		hs.logger.Warn("tool call failed",
			logging.Tool(name),
			logging.Err(err),
			slog.Int("status", auth.StatusCodeOf(err)))
		writeError(w, err)
		return
	}
	writeResult(w, result)
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
