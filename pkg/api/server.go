// Package api exposes the struct codec and the storage binding over HTTP.
//
// All routes under /api/v1 require an X-API-Key header. /metrics is left
// unprotected for scraping.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ssargent/bytekit/internal/logger"
	"github.com/ssargent/bytekit/pkg/storage"
)

const (
	defaultShutdownTimeout = 10 * time.Second
	defaultStatsInterval   = 30 * time.Second
)

// Router builds the HTTP handler tree. gatherer backs /metrics.
func (s *Server) Router(gatherer prometheus.Gatherer) http.Handler {
	m := s.metrics
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(m.InstrumentAuthMiddleware(apiKeyMiddleware(s.config.APIKey)))

		r.Get("/health", m.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))

		// Codec
		r.Post("/pack", m.InstrumentHandler("POST", "/api/v1/pack", s.handlePack))
		r.Post("/unpack", m.InstrumentHandler("POST", "/api/v1/unpack", s.handleUnpack))

		// Trees
		r.Get("/trees", m.InstrumentHandler("GET", "/api/v1/trees", s.handleListTrees))
		r.Get("/trees/{tree}/kv/{key}", m.InstrumentHandler("GET", "/api/v1/trees/{tree}/kv/{key}", s.handleGet))
		r.Put("/trees/{tree}/kv/{key}", m.InstrumentHandler("PUT", "/api/v1/trees/{tree}/kv/{key}", s.handlePut))
		r.Delete("/trees/{tree}/kv/{key}", m.InstrumentHandler("DELETE", "/api/v1/trees/{tree}/kv/{key}", s.handleDelete))
		r.Get("/trees/{tree}/scan", m.InstrumentHandler("GET", "/api/v1/trees/{tree}/scan", s.handleScan))

		// Database
		r.Get("/checksum", m.InstrumentHandler("GET", "/api/v1/checksum", s.handleChecksum))
		r.Post("/ids", m.InstrumentHandler("POST", "/api/v1/ids", s.handleGenerateID))
	})

	return r
}

// StartServer serves the API until ctx is cancelled, then shuts down
// gracefully.
func StartServer(ctx context.Context, db *storage.DB, config ServerConfig, log logger.Logger) error {
	if config.APIKey == "" {
		return errors.New("an API key is required to start the server")
	}
	if log == nil {
		log = logger.Default()
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = defaultShutdownTimeout
	}
	if config.StatsInterval <= 0 {
		config.StatsInterval = defaultStatsInterval
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	server := NewServer(db, config, NewMetrics(reg), log)

	addr := net.JoinHostPort(config.Bind, strconv.Itoa(config.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.Router(reg),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	statsCtx, stopStats := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		server.startMetricsUpdater(statsCtx)
	}()
	defer func() {
		stopStats()
		wg.Wait()
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting bytekit API server", "addr", addr, "metrics", fmt.Sprintf("http://%s/metrics", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// startMetricsUpdater refreshes the storage gauges until ctx is done.
func (s *Server) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(s.config.StatsInterval)
	defer ticker.Stop()

	for {
		s.updateDBStats()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) updateDBStats() {
	names, err := s.db.TreeNames()
	if err != nil {
		s.logger.Warn("failed to collect tree stats", "error", err)
		return
	}
	size, err := s.db.SizeOnDisk()
	if err != nil {
		s.logger.Warn("failed to collect disk stats", "error", err)
		return
	}
	s.metrics.UpdateDBStats(len(names), size)
}
