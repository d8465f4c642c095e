package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"adherence-notify/internal/usecase/alert"
)

// HealthResponse represents a simple health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ChannelHealthResponse represents the health status of all alert channels.
type ChannelHealthResponse struct {
	Healthy  bool                        `json:"healthy"`
	Channels []alert.ChannelHealthStatus `json:"channels"`
}

// channelHealthSource is the part of alert.Service the metrics server reads.
type channelHealthSource interface {
	GetChannelHealth() []alert.ChannelHealthStatus
}

// startMetricsServer serves Prometheus metrics and alert channel health on
// port until ctx is cancelled.
//
// Endpoints:
//   - GET /metrics - Prometheus metrics
//   - GET /health - liveness, always 200
//   - GET /health/channels - alert channel circuit breaker state
func startMetricsServer(ctx context.Context, logger *slog.Logger, port int, alerts channelHealthSource) *http.Server {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      newMetricsMux(alerts),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("metrics server starting", slog.Int("port", port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", slog.Any("error", err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", slog.Any("error", err))
		} else {
			logger.Info("metrics server stopped")
		}
	}()

	return server
}

func newMetricsMux(alerts channelHealthSource) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/health/channels", channelHealthHandler(alerts))
	return mux
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

// channelHealthHandler returns 503 when any enabled channel has its circuit
// breaker open.
func channelHealthHandler(alerts channelHealthSource) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if alerts == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error": "alert service not initialized",
			})
			return
		}

		statuses := alerts.GetChannelHealth()
		healthy := true
		for _, s := range statuses {
			if s.Enabled && s.CircuitBreakerOpen {
				healthy = false
			}
		}

		code := http.StatusOK
		if !healthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, ChannelHealthResponse{Healthy: healthy, Channels: statuses})
	}
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
