package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWithMiddlewareSetsSecurityHeaders(t *testing.T) {
	cfg := DefaultConfig(":0")
	cfg.CORSOrigin = "https://example.com"
	sem := make(chan struct{}, 1)

	handler := withMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, sem, cfg)

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("missing X-Content-Type-Options")
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "https://example.com" {
		t.Errorf("missing CORS header")
	}
}

func TestWithMiddlewareRejectsWhenSemaphoreFull(t *testing.T) {
	cfg := DefaultConfig(":0")
	sem := make(chan struct{}, 1)
	sem <- struct{}{} // occupy the only slot

	handler := withMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, sem, cfg)

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestWithMiddlewareRecoversFromPanic(t *testing.T) {
	cfg := DefaultConfig(":0")
	sem := make(chan struct{}, 1)

	handler := withMiddleware(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}, sem, cfg)

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestNewServerRegistersRoutes(t *testing.T) {
	h := newTestHandlers(t)
	srv := NewServer(DefaultConfig(":0"), h)

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}
