package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/justjake/kvbench/pkg/config"
)

// MetricsServer serves Prometheus metrics over HTTP.
type MetricsServer struct {
	server *http.Server
	logger *slog.Logger
	addr   string // bound address, set by Start
}

// NewMetricsServer creates a new MetricsServer from the given configuration,
// serving metrics gathered from g.
// Returns nil if config is nil (metrics disabled).
func NewMetricsServer(cfg *config.PrometheusConfig, g prometheus.Gatherer, logger *slog.Logger) *MetricsServer {
	if cfg == nil {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.GetPath(), promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	return &MetricsServer{
		server: &http.Server{
			Addr:    cfg.GetListen(),
			Handler: mux,
		},
		logger: logger,
	}
}

// Start binds the listen address and serves in a goroutine.
// Returns once the listener is bound. Use Shutdown to stop the server.
func (s *MetricsServer) Start() error {
	if s == nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("metrics server listen on %s: %w", s.server.Addr, err)
	}
	s.addr = ln.Addr().String()

	go func() {
		s.logger.Info("serving metrics", "addr", s.addr)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server error", "error", err)
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the metrics server.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Addr returns the address the server is listening on. Before Start it
// returns the configured address.
func (s *MetricsServer) Addr() string {
	if s == nil || s.server == nil {
		return ""
	}
	if s.addr != "" {
		return s.addr
	}
	return s.server.Addr
}

// Enabled returns true if the metrics server is configured.
func (s *MetricsServer) Enabled() bool {
	return s != nil && s.server != nil
}

// String returns a string representation for logging.
func (s *MetricsServer) String() string {
	if s == nil {
		return "MetricsServer(disabled)"
	}
	return fmt.Sprintf("MetricsServer(addr=%s)", s.Addr())
}
