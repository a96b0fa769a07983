package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/azybler/tilestore/pkg/connectivity"
	"github.com/azybler/tilestore/pkg/graphid"
	"github.com/azybler/tilestore/pkg/hierarchy"
)

func newTestHandlers(t *testing.T) *Handlers {
	t.Helper()
	dir := t.TempDir()
	h, err := hierarchy.New([]hierarchy.LevelSpec{
		{Level: 0, TileSizeDegrees: 4, RoadImportanceThreshold: 0, Subdivisions: 5},
	}, dir)
	if err != nil {
		t.Fatalf("hierarchy.New: %v", err)
	}

	lvl, _ := h.Level(0)
	tileIdx := lvl.Tiles.TileIDFromRowCol(0, 0)
	id, err := graphid.New(0, uint32(tileIdx), 0)
	if err != nil {
		t.Fatalf("graphid.New: %v", err)
	}
	suffix, err := h.FileSuffix(id)
	if err != nil {
		t.Fatalf("FileSuffix: %v", err)
	}
	path := filepath.Join(dir, suffix)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	conn, err := connectivity.Build(context.Background(), h)
	if err != nil {
		t.Fatalf("connectivity.Build: %v", err)
	}
	return NewHandlers(h, conn)
}

func TestHandleHealth(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("status = %q, want ok", resp["status"])
	}
}

func TestHandleLevels(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest("GET", "/api/v1/levels", nil)
	w := httptest.NewRecorder()
	h.HandleLevels(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp []levelInfo
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// hierarchy.New adds the transit pseudo-level (1) above the single road level (0).
	if len(resp) != 2 {
		t.Fatalf("levels = %+v, want road level 0 and transit level 1", resp)
	}
	seen := map[uint32]bool{}
	for _, l := range resp {
		seen[l.Level] = true
	}
	if !seen[0] || !seen[1] {
		t.Errorf("levels = %+v, want road level 0 and transit level 1", resp)
	}
}

func TestHandleConnectivityGeoJSON(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest("GET", "/api/v1/connectivity/0.geojson", nil)
	req.SetPathValue("level", "0")
	w := httptest.NewRecorder()
	h.HandleConnectivityGeoJSON(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200. body: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/geo+json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestHandleConnectivityGeoJSONInvalidLevel(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest("GET", "/api/v1/connectivity/7.geojson", nil)
	req.SetPathValue("level", "7")
	w := httptest.NewRecorder()
	h.HandleConnectivityGeoJSON(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestHandleConnectivityGeoJSONBadLevelParam(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest("GET", "/api/v1/connectivity/abc.geojson", nil)
	req.SetPathValue("level", "abc")
	w := httptest.NewRecorder()
	h.HandleConnectivityGeoJSON(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleConnectivityRaster(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest("GET", "/api/v1/connectivity/0.png", nil)
	req.SetPathValue("level", "0")
	w := httptest.NewRecorder()
	h.HandleConnectivityRaster(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestHandleTileStatsEmptyTile(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest("GET", "/api/v1/tiles/0/999999/stats", nil)
	req.SetPathValue("level", "0")
	req.SetPathValue("tile", "999999")
	w := httptest.NewRecorder()
	h.HandleTileStats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp tileStats
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Empty {
		t.Errorf("expected Empty=true for an absent tile, got %+v", resp)
	}
}

func TestHandleTileStatsBadTileIndex(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest("GET", "/api/v1/tiles/0/notanumber/stats", nil)
	req.SetPathValue("level", "0")
	req.SetPathValue("tile", "notanumber")
	w := httptest.NewRecorder()
	h.HandleTileStats(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestColorForComponentTransparentForAbsent(t *testing.T) {
	c := colorForComponent(0)
	if c.A != 0 {
		t.Errorf("color index 0 should be fully transparent, got %+v", c)
	}
}
