package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer serves the Prometheus endpoint on its own listener. The
// stdio transport uses it because the MCP protocol owns stdout and there is
// no API mux to mount /metrics on.
type MetricsServer struct {
	srv    *http.Server
	logger *slog.Logger
}

// NewMetricsServer creates a metrics server listening on addr.
func NewMetricsServer(addr string, logger *slog.Logger) *MetricsServer {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return &MetricsServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Start serves in a background goroutine and returns immediately.
func (ms *MetricsServer) Start() {
	go func() {
		ms.logger.Info("metrics server listening", slog.String("addr", ms.srv.Addr))
		if err := ms.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			ms.logger.Error("metrics server failed", slog.Any("error", err))
		}
	}()
}

// Shutdown stops the listener.
func (ms *MetricsServer) Shutdown(ctx context.Context) error {
	if err := ms.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("metrics server shutdown: %w", err)
	}
	return nil
}
