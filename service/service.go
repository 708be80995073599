// Package service exposes the report hook over HTTP for harnesses that are not written in Go.
package service

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/ethereum-optimism/infra/farmsync"
	"github.com/ethereum-optimism/infra/farmsync/metrics"
)

// Config holds the server settings
type Config struct {
	Addr            string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

// Service serves the report API, health checks and metrics. It implements cliapp.Lifecycle.
type Service struct {
	cfg      Config
	server   *http.Server
	listener net.Listener
	stopped  atomic.Bool
	log      log.Logger
}

// New builds the router. Nothing listens until Start.
func New(hook *farmsync.Hook, cfg Config, logger log.Logger) *Service {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}
	h := &handlers{hook: hook, log: logger}

	api := mux.NewRouter()
	api.HandleFunc("/v1/report", h.report).Methods(http.MethodPost)
	api.HandleFunc("/v1/capabilities", h.capabilities).Methods(http.MethodPost)

	// cross-origin calls to /v1 are refused unless origins are configured
	var apiHandler http.Handler = api
	if len(cfg.AllowedOrigins) > 0 {
		apiHandler = cors.New(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodPost},
			AllowedHeaders: []string{"Content-Type"},
		}).Handler(api)
	}

	health := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	})

	r := mux.NewRouter()
	r.PathPrefix("/v1/").Handler(apiHandler)
	r.Handle("/healthz", health.Handler(http.HandlerFunc(h.healthz))).Methods(http.MethodGet, http.MethodOptions)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return &Service{
		cfg: cfg,
		server: &http.Server{
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: logger,
	}
}

// Handler returns the root handler, for tests
func (s *Service) Handler() http.Handler {
	return s.server.Handler
}

// Start listens on the configured address and serves in the background
func (s *Service) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.server.BaseContext = func(net.Listener) context.Context { return ctx }

	go func() {
		s.log.Info("starting report server", "addr", ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("error serving report API", "err", err)
			metrics.RecordErrorDetails("error serving report API", err)
		}
	}()
	return nil
}

// Addr returns the bound address once started
func (s *Service) Addr() string {
	if s.listener == nil {
		return s.cfg.Addr
	}
	return s.listener.Addr().String()
}

// Stop waits for in-flight reports up to the shutdown timeout
func (s *Service) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	s.log.Info("report server stopping")
	defer s.stopped.Store(true)
	return s.server.Shutdown(ctx)
}

// Stopped reports whether Stop has completed
func (s *Service) Stopped() bool {
	return s.stopped.Load()
}
