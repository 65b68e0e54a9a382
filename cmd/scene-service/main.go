package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/Garsondee/Venue-Walkthrough/internal/config"
	"github.com/Garsondee/Venue-Walkthrough/internal/service"
)

// ============================================================
// Scene Service
// ============================================================

func main() {
	cfg := config.Load()
	cfg.BindFlags(flag.CommandLine)
	flag.Parse()
	cfg = cfg.Normalize()

	// The payload endpoints work without a layout source, so a missing one
	// only disables the record routes.
	source, closer, err := cfg.OpenSource(context.Background())
	if err != nil {
		log.Printf("Layout routes disabled: %v", err)
	} else {
		defer closer.Close()
	}

	app := service.New(cfg, source)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.ServicePort)
	log.Printf("Starting Scene Service on %s", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
