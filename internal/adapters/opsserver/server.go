// Package opsserver exposes a small operational surface for long-running
// enrichment jobs: liveness, prometheus metrics, and job progress.
package opsserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"island_catalog/internal/adapters/observability"
)

// ProgressSource is implemented by whatever tracks the running job.
type ProgressSource interface {
	Progress() Progress
}

// Progress is the /v1/progress payload.
type Progress struct {
	Mode      string    `json:"mode"`
	Total     int       `json:"total"`
	Processed int       `json:"processed"`
	Enriched  int       `json:"enriched"`
	Failed    int       `json:"failed"`
	StartedAt time.Time `json:"startedAt"`
}

// Serve starts the ops listener in the background. A best-effort surface:
// failures are logged, never fatal to the job itself.
func Serve(addr string, reg *prometheus.Registry, src ProgressSource) {
	if addr == "" {
		return // disabled
	}
	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           Router(reg, src),
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("ops server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("ops server failed")
		}
	}()
}

// Router builds the ops handler tree.
func Router(reg *prometheus.Registry, src ProgressSource) http.Handler {
	m := chi.NewRouter()
	m.Use(chimw.RealIP)
	m.Use(chimw.RequestID)
	m.Use(chimw.Recoverer)
	m.Use(requestLog)

	m.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	m.Handle("/metrics", observability.MetricsHandler(reg))
	m.Get("/v1/progress", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if src == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if err := json.NewEncoder(w).Encode(src.Progress()); err != nil {
			log.Error().Err(err).Msg("write progress response failed")
		}
	})

	return m
}

// ---- status-recording ResponseWriter ----

type srw struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (w *srw) WriteHeader(code int) {
	if !w.wrote {
		w.status = code
		w.wrote = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *srw) Write(b []byte) (int, error) {
	if !w.wrote {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *srw) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &srw{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		observability.ObserveHTTP(route, r.Method, sw.Status())
		log.Debug().
			Str("route", route).
			Str("method", r.Method).
			Int("status", sw.Status()).
			Dur("duration", time.Since(start)).
			Msg("ops request")
	})
}
