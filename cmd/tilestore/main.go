package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/azybler/tilestore/pkg/connectivity"
	"github.com/azybler/tilestore/pkg/hierarchy"
)

func main() {
	configPath := flag.String("config", "hierarchy.yaml", "Path to hierarchy config YAML")
	port := flag.Int("port", 8080, "HTTP port")
	corsOrigin := flag.String("cors-origin", "", "CORS allowed origin (empty = same-origin)")
	flag.Parse()

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
	log.Printf("Ready in %s", time.Since(start).Round(time.Millisecond))

	addr := fmt.Sprintf(":%d", *port)
	cfg := DefaultConfig(addr)
	cfg.CORSOrigin = *corsOrigin

	handlers := NewHandlers(h, conn)
	srv := NewServer(cfg, handlers)

	if err := ListenAndServe(srv); err != nil {
		log.Printf("Server stopped: %v", err)
		os.Exit(1)
	}
}
