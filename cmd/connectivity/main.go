package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/azybler/tilestore/pkg/connectivity"
	"github.com/azybler/tilestore/pkg/hierarchy"
)

func main() {
	configPath := flag.String("config", "hierarchy.yaml", "Path to hierarchy config YAML")
	outDir := flag.String("output", "connectivity", "Output directory for per-level GeoJSON and PNG files")
	format := flag.String("format", "both", "Output format: geojson, png, or both")
	flag.Parse()

	if *format != "geojson" && *format != "png" && *format != "both" {
		fmt.Fprintln(os.Stderr, "Usage: connectivity [--config hierarchy.yaml] [--output dir] [--format geojson|png|both]")
		os.Exit(1)
	}

	start := time.Now()

	log.Printf("Loading hierarchy from %s...", *configPath)
	h, err := hierarchy.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load hierarchy: %v", err)
	}
	log.Printf("Loaded %d levels, tile dir %s", len(h.Levels()), h.TileDir())

	log.Println("Scanning tile directory for connectivity...")
	conn, err := connectivity.Build(context.Background(), h)
	if err != nil {
		log.Fatalf("Failed to build connectivity map: %v", err)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	for _, lvl := range h.Levels() {
		if *format == "geojson" || *format == "both" {
			if err := writeGeoJSON(conn, lvl.Level, *outDir); err != nil {
				log.Printf("Level %d: skipping GeoJSON (%v)", lvl.Level, err)
			}
		}
		if *format == "png" || *format == "both" {
			if err := writePNG(conn, lvl.Level, *outDir); err != nil {
				log.Printf("Level %d: skipping PNG (%v)", lvl.Level, err)
			}
		}
	}

	log.Printf("Done in %s. Output: %s", time.Since(start).Round(time.Millisecond), *outDir)
}

func writeGeoJSON(conn *connectivity.Map, level uint32, outDir string) error {
	fc, err := conn.ToGeoJson(level)
	if err != nil {
		return err
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshaling geojson: %w", err)
	}
	path := filepath.Join(outDir, fmt.Sprintf("level-%d.geojson", level))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	log.Printf("Level %d: wrote %s (%d features)", level, path, len(fc.Features))
	return nil
}

func writePNG(conn *connectivity.Map, level uint32, outDir string) error {
	raster, columns, rows, err := conn.ToImage(level)
	if err != nil {
		return err
	}

	img := image.NewRGBA(image.Rect(0, 0, columns, rows))
	for i, c := range raster {
		img.Set(i%columns, i/columns, colorForComponent(c))
	}

	path := filepath.Join(outDir, fmt.Sprintf("level-%d.png", level))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	log.Printf("Level %d: wrote %s (%dx%d)", level, path, columns, rows)
	return nil
}

// colorForComponent mirrors cmd/tilestore's palette so CLI and server
// renderings of the same level agree visually.
func colorForComponent(c uint32) color.RGBA {
	if c == 0 {
		return color.RGBA{0, 0, 0, 0}
	}
	hue := float64((c * 2654435761) % 360)
	return hsvToRGBA(hue, 0.65, 0.95)
}

func hsvToRGBA(h, s, v float64) color.RGBA {
	c := v * s
	x := c * (1 - absFloat(modFloat(h/60, 2)-1))
	m := v - c
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return color.RGBA{
		R: uint8((r + m) * 255),
		G: uint8((g + m) * 255),
		B: uint8((b + m) * 255),
		A: 255,
	}
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func modFloat(f, m float64) float64 {
	for f >= m {
		f -= m
	}
	for f < 0 {
		f += m
	}
	return f
}
