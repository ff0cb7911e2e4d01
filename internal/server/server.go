// Package server exposes the shipping service over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/parcelgrid/shipping/internal/labels"
	"github.com/parcelgrid/shipping/internal/rates"
	"github.com/parcelgrid/shipping/internal/tracking"
	"github.com/parcelgrid/shipping/pkg/carrier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Server is the HTTP server for the shipping service.
type Server struct {
	port       int
	registry   *carrier.Registry
	aggregator *rates.Aggregator
	issuer     *labels.Issuer
	tracker    *tracking.Service
	logger     *otelzap.Logger
}

// Config holds server configuration.
type Config struct {
	Port int
}

// New creates a new server instance.
func New(cfg Config, registry *carrier.Registry, aggregator *rates.Aggregator, issuer *labels.Issuer, tracker *tracking.Service, logger *otelzap.Logger) *Server {
	return &Server{
		port:       cfg.Port,
		registry:   registry,
		aggregator: aggregator,
		issuer:     issuer,
		tracker:    tracker,
		logger:     logger,
	}
}

// Handler builds the HTTP routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("POST /rates", s.handleRates)
	mux.HandleFunc("POST /validate-address", s.handleValidateAddress)
	mux.HandleFunc("POST /labels", s.handleCreateLabel)
	mux.HandleFunc("POST /labels/batch", s.handleCreateBatch)
	mux.HandleFunc("GET /tracking/{id}", s.handleTracking)

	return mux
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
