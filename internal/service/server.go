// Package service exposes scene graphs and minimap images over HTTP so other
// planner views can reuse the walkthrough's transformation.
package service

import (
	"github.com/Garsondee/Venue-Walkthrough/internal/config"
	"github.com/Garsondee/Venue-Walkthrough/internal/layout"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// New builds the scene service. Layout record routes are registered only when
// source is non-nil.
func New(cfg config.Config, source layout.Source) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		BodyLimit:    cfg.BodyLimit,
		AppName:      "Scene Service",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(RequestID())
	app.Use(Logger())
	app.Use(CORS())

	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})

	app.Get("/health/ready", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ready"})
	})

	// ============================================================
	// Scene Routes
	// ============================================================

	h := NewHandler(source, cfg.FetchTimeout)
	v1 := app.Group("/v1")
	v1.Post("/scene", h.Scene)
	v1.Post("/minimap", h.Minimap)

	if source != nil {
		v1.Get("/layouts", h.Layouts)
		v1.Get("/layouts/:id/scene", h.LayoutScene)
		v1.Get("/layouts/:id/minimap", h.LayoutMinimap)
	}

	return app
}
