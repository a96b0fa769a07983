package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/azybler/tilestore/pkg/connectivity"
	"github.com/azybler/tilestore/pkg/graphid"
	"github.com/azybler/tilestore/pkg/hierarchy"
)

func writeTileFile(t *testing.T, h *hierarchy.TileHierarchy, level, tileIndex uint32) {
	t.Helper()
	id, err := graphid.New(level, tileIndex, 0)
	if err != nil {
		t.Fatalf("graphid.New: %v", err)
	}
	suffix, err := h.FileSuffix(id)
	if err != nil {
		t.Fatalf("FileSuffix: %v", err)
	}
	path := filepath.Join(h.TileDir(), suffix)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestWriteGeoJSONAndPNG(t *testing.T) {
	tileDir := t.TempDir()
	h, err := hierarchy.New([]hierarchy.LevelSpec{
		{Level: 0, TileSizeDegrees: 4, RoadImportanceThreshold: 0, Subdivisions: 5},
	}, tileDir)
	if err != nil {
		t.Fatalf("hierarchy.New: %v", err)
	}
	lvl, _ := h.Level(0)
	tile := lvl.Tiles.TileIDFromRowCol(0, 0)
	writeTileFile(t, h, 0, uint32(tile))

	conn, err := connectivity.Build(context.Background(), h)
	if err != nil {
		t.Fatalf("connectivity.Build: %v", err)
	}

	outDir := t.TempDir()
	if err := writeGeoJSON(conn, 0, outDir); err != nil {
		t.Fatalf("writeGeoJSON: %v", err)
	}
	if err := writePNG(conn, 0, outDir); err != nil {
		t.Fatalf("writePNG: %v", err)
	}

	if _, err := os.Stat(filepath.Join(outDir, "level-0.geojson")); err != nil {
		t.Errorf("geojson not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "level-0.png")); err != nil {
		t.Errorf("png not written: %v", err)
	}
}

func TestWriteGeoJSONAbsentLevelReturnsError(t *testing.T) {
	tileDir := t.TempDir()
	h, err := hierarchy.New([]hierarchy.LevelSpec{
		{Level: 0, TileSizeDegrees: 4, RoadImportanceThreshold: 0, Subdivisions: 5},
		{Level: 1, TileSizeDegrees: 1, RoadImportanceThreshold: 0, Subdivisions: 5},
	}, tileDir)
	if err != nil {
		t.Fatalf("hierarchy.New: %v", err)
	}

	conn, err := connectivity.Build(context.Background(), h)
	if err != nil {
		t.Fatalf("connectivity.Build: %v", err)
	}

	if err := writeGeoJSON(conn, 1, t.TempDir()); err == nil {
		t.Errorf("expected error for level with no tiles on disk")
	}
}

func TestColorForComponentIsDeterministicAndAbsentIsTransparent(t *testing.T) {
	if c := colorForComponent(0); c.A != 0 {
		t.Errorf("color index 0 should be fully transparent, got %+v", c)
	}
	a := colorForComponent(7)
	b := colorForComponent(7)
	if a != b {
		t.Errorf("colorForComponent not deterministic: %+v != %+v", a, b)
	}
}
