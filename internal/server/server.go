// Package server exposes footprint estimations over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	carbonfootprint "github.com/superdango/carbon-footprint"
	"github.com/superdango/carbon-footprint/internal/monitoring"
	"github.com/superdango/carbon-footprint/internal/render"
)

type Option func(s *Server)

// WithFallback sets the inputs used when a request carries none.
func WithFallback(fallback carbonfootprint.InputsSource) Option {
	return func(s *Server) {
		s.source = NewRequestSource(fallback)
	}
}

// WithLabels adds labels to every exported OpenMetrics sample.
func WithLabels(labels map[string]string) Option {
	return func(s *Server) {
		s.labels = carbonfootprint.MergeLabels(s.labels, labels)
	}
}

func WithShutdownTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		s.shutdownTimeout = timeout
	}
}

type Server struct {
	source          carbonfootprint.InputsSource
	labels          map[string]string
	shutdownTimeout time.Duration
}

func New(opts ...Option) *Server {
	s := &Server{
		source:          NewRequestSource(nil),
		labels:          make(map[string]string),
		shutdownTimeout: 5 * time.Second,
	}

	for _, option := range opts {
		option(s)
	}

	return s
}

// Handler returns the routes of the service.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /api/v1/footprint", instrument("footprint", http.HandlerFunc(s.handleFootprint)))
	mux.Handle("POST /api/v1/footprint", instrument("footprint", http.HandlerFunc(s.handleFootprint)))
	mux.Handle("GET /report", instrument("report", http.HandlerFunc(s.handleReport)))
	mux.Handle("GET /metrics", instrument("metrics", carbonfootprint.NewOpenMetricsHandler(s.countingSource("openmetrics"), s.labels)))
	mux.Handle("GET /internal/metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", handleHealth)
	return mux
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	if _, err := w.Write([]byte("ok")); err != nil {
		slog.Error("failed to write health response", "err", err)
	}
}

// Run serves the routes on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errg, errgctx := errgroup.WithContext(ctx)

	errg.Go(func() error {
		slog.Info("starting carbon footprint server", "listen", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve http: %w", err)
		}
		return nil
	})

	errg.Go(func() error {
		<-errgctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		slog.Info("shutting down carbon footprint server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown http server: %w", err)
		}
		return nil
	})

	return errg.Wait()
}

func (s *Server) handleFootprint(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	inputs, err := s.inputs(r, "json")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	footprint := carbonfootprint.Compute(inputs)
	elapsed := time.Since(start)
	now := time.Now().UTC()

	resp := FootprintResponse{
		CalculationMetadata: CalculationMetadata{
			CalculationID:          uuid.New().String(),
			CalculationStartedAt:   now.Add(-elapsed).Format(time.RFC3339),
			CalculationCompletedAt: now.Format(time.RFC3339),
			CalculationDurationMs:  elapsed.Milliseconds(),
		},
		Inputs:    inputs,
		Footprint: NewFootprintResult(footprint),
	}

	slog.Debug("footprint computed", "calculation_id", resp.CalculationMetadata.CalculationID, "total_kg", footprint.TotalKg())

	body, err := json.Marshal(resp)
	if err != nil {
		slog.Error("failed to encode footprint response", "calculation_id", resp.CalculationMetadata.CalculationID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to encode footprint")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(append(body, '\n')); err != nil {
		slog.Error("failed to write footprint response", "err", err)
	}
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	inputs, err := s.inputs(r, "text")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := render.NewReport(w, render.Options{}).Render(carbonfootprint.Compute(inputs)); err != nil {
		slog.Error("failed to write footprint report", "err", err)
	}
}

func (s *Server) inputs(r *http.Request, format string) (carbonfootprint.Inputs, error) {
	inputs, err := s.source.Inputs(r)
	if err != nil {
		source := "unknown"
		decodeErr := new(carbonfootprint.DecodeErr)
		if errors.As(err, &decodeErr) {
			source = decodeErr.Source
		}
		monitoring.RecordDecodeError(source)
		slog.Warn("failed to decode footprint inputs", "err", err, "source", source)
		return carbonfootprint.Inputs{}, err
	}

	monitoring.RecordEstimate(format)
	return inputs, nil
}

// countingSource returns the server inputs source with estimations recorded
// under format.
func (s *Server) countingSource(format string) carbonfootprint.InputsSource {
	return sourceFunc(func(r *http.Request) (carbonfootprint.Inputs, error) {
		return s.inputs(r, format)
	})
}

type sourceFunc func(r *http.Request) (carbonfootprint.Inputs, error)

func (fn sourceFunc) Inputs(r *http.Request) (carbonfootprint.Inputs, error) {
	return fn(r)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(ErrorResponse{
		Status:  status,
		Message: message,
	})
	if err != nil {
		slog.Error("failed to write error response", "status", status, "err", err)
	}
}
