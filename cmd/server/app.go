package main

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/arturoeanton/casestudy-assistant/internal/handler"
	"github.com/arturoeanton/casestudy-assistant/internal/middleware"
	"github.com/arturoeanton/casestudy-assistant/internal/port"
	"github.com/arturoeanton/casestudy-assistant/pkg/config"
)

// newApp wires middleware and routes. auditReader may be nil when audit logs
// only go to the process log.
func newApp(cfg *config.Config, assistant handler.Assistant, auditWriter port.AuditWriter, auditReader port.AuditReader) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.GenerateTimeout + 30*time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
	}))

	// Audit middleware (logs all requests)
	app.Use(middleware.AuditMiddleware(auditWriter))

	askHandler := handler.NewAskHandler(assistant)
	docsHandler := handler.NewDocsHandler(assistant)

	// Unversioned routes kept for existing frontends
	legacy := app.Group("/api")
	askHandler.Register(legacy)
	docsHandler.Register(legacy)

	api := app.Group("/api/v1")
	askHandler.Register(api)
	docsHandler.Register(api)
	handler.NewHealthHandler(cfg.AppName, assistant).Register(api)

	if auditReader != nil {
		handler.NewAuditHandler(auditReader).Register(api)
	}

	return app
}
