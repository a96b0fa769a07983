package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"
)

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	MaxConcurrent int
	CORSOrigin    string
}

// DefaultConfig returns sensible defaults for addr.
func DefaultConfig(addr string) ServerConfig {
	return ServerConfig{
		Addr:          addr,
		ReadTimeout:   5 * time.Second,
		WriteTimeout:  5 * time.Second,
		MaxConcurrent: runtime.NumCPU() * 2,
	}
}

// NewServer builds the introspection HTTP server: health, per-level
// connectivity GeoJSON/raster, and per-tile stats. There is no routing
// endpoint here — path-finding is out of scope for this store.
func NewServer(cfg ServerConfig, h *Handlers) *http.Server {
	mux := http.NewServeMux()
	sem := make(chan struct{}, cfg.MaxConcurrent)

	mux.HandleFunc("GET /api/v1/health", withMiddleware(h.HandleHealth, sem, cfg))
	mux.HandleFunc("GET /api/v1/levels", withMiddleware(h.HandleLevels, sem, cfg))
	// ServeMux wildcards must span a whole path segment, so the
	// {level}.geojson and {level}.png routes share one pattern and are
	// dispatched on the file extension.
	mux.HandleFunc("GET /api/v1/connectivity/{file}", withMiddleware(func(w http.ResponseWriter, r *http.Request) {
		file := r.PathValue("file")
		if level, ok := strings.CutSuffix(file, ".geojson"); ok {
			r.SetPathValue("level", level)
			h.HandleConnectivityGeoJSON(w, r)
		} else if level, ok := strings.CutSuffix(file, ".png"); ok {
			r.SetPathValue("level", level)
			h.HandleConnectivityRaster(w, r)
		} else {
			writeError(w, http.StatusNotFound, "not_found")
		}
	}, sem, cfg))
	mux.HandleFunc("GET /api/v1/tiles/{level}/{tile}/stats", withMiddleware(h.HandleTileStats, sem, cfg))

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

// ListenAndServe starts srv and blocks until a shutdown signal arrives.
func ListenAndServe(srv *http.Server) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("tilestore listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Printf("received %s, shutting down...", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

// withMiddleware wraps a handler with security headers, CORS, concurrency
// limiting, panic recovery, and access logging.
func withMiddleware(handler http.HandlerFunc, sem chan struct{}, cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Cache-Control", "no-store")
		if cfg.CORSOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSOrigin)
		}

		select {
		case sem <- struct{}{}:
			defer func() { <-sem }()
		default:
			w.Header().Set("Retry-After", "1")
			http.Error(w, `{"error":"service_unavailable"}`, http.StatusServiceUnavailable)
			return
		}

		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic: %v", rec)
				http.Error(w, `{"error":"internal_error"}`, http.StatusInternalServerError)
			}
		}()

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		start := time.Now()
		handler(w, r.WithContext(ctx))
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start).Round(time.Microsecond))
	}
}
