// Package api exposes the job board over HTTP with fiber.
package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/Skryldev/jobboard/db"
	"github.com/Skryldev/jobboard/repo"
)

// Config wires the app to its store.
type Config struct {
	DB *db.DB
	// Stats, when set, is reported on /healthz.
	Stats  *db.QueryStats
	Logger *slog.Logger
}

// New builds the fiber app with every route mounted.
func New(cfg Config) *fiber.App {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	app := fiber.New(fiber.Config{
		AppName:               "jobboard",
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler(logger),
	})

	app.Use(RequestID())
	app.Use(RequestLogger(logger))
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))

	health := &HealthHandler{db: cfg.DB, stats: cfg.Stats}
	app.Get("/healthz", health.Check)

	companies := NewCompanyHandler(repo.NewCompanyRepo(cfg.DB))
	cg := app.Group("/companies")
	cg.Post("/", companies.Create)
	cg.Get("/", companies.List)
	cg.Get("/:handle", companies.Get)
	cg.Patch("/:handle", companies.Update)
	cg.Delete("/:handle", companies.Remove)

	jobs := NewJobHandler(repo.NewJobRepo(cfg.DB))
	jg := app.Group("/jobs")
	jg.Post("/", jobs.Create)
	jg.Get("/", jobs.List)
	jg.Get("/:id", jobs.Get)
	jg.Patch("/:id", jobs.Update)
	jg.Delete("/:id", jobs.Remove)

	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not Found")
	})

	return app
}
