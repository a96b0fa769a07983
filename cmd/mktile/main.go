package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/azybler/tilestore/pkg/hierarchy"
)

func main() {
	fixturePath := flag.String("fixture", "", "Path to a tile fixture YAML file")
	configPath := flag.String("config", "hierarchy.yaml", "Path to hierarchy config YAML, for computing the output path")
	output := flag.String("output", "", "Explicit output path (overrides the hierarchy-derived path)")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "Usage: mktile --fixture tile.yaml [--config hierarchy.yaml] [--output path.gph]")
		os.Exit(1)
	}

	log.Printf("Reading fixture %s...", *fixturePath)
	fx, err := LoadFixture(*fixturePath)
	if err != nil {
		log.Fatalf("Failed to load fixture: %v", err)
	}

	log.Println("Building tile...")
	data, err := fx.Build()
	if err != nil {
		log.Fatalf("Failed to build tile: %v", err)
	}

	outPath := *output
	if outPath == "" {
		h, err := hierarchy.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load hierarchy config (required to derive output path; pass --output instead): %v", err)
		}
		id, err := graphIDFromFixture(fx)
		if err != nil {
			log.Fatalf("Failed to derive tile id: %v", err)
		}
		suffix, err := h.FileSuffix(id)
		if err != nil {
			log.Fatalf("Failed to compute file suffix: %v", err)
		}
		outPath = filepath.Join(h.TileDir(), suffix)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		log.Fatalf("Failed to write tile: %v", err)
	}

	log.Printf("Wrote %s (%d bytes)", outPath, len(data))
}
