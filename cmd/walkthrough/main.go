package main

import (
	"context"
	"flag"
	"log"

	"github.com/Garsondee/Venue-Walkthrough/internal/config"
	"github.com/Garsondee/Venue-Walkthrough/internal/walk"
	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	cfg := config.Load()
	cfg.BindFlags(flag.CommandLine)
	flag.Parse()
	cfg = cfg.Normalize()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source, closer, err := cfg.OpenSource(ctx)
	if err != nil {
		log.Fatalf("Failed to open layout source: %v", err)
	}
	defer closer.Close()

	g, err := walk.New(ctx, cfg, source)
	if err != nil {
		log.Fatalf("Failed to start walkthrough: %v", err)
	}
	defer g.Close()

	ebiten.SetWindowTitle("Venue Walkthrough")
	ebiten.SetWindowSize(cfg.WindowWidth, cfg.WindowHeight)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(g); err != nil {
		log.Printf("walkthrough: %v", err)
	}
}
