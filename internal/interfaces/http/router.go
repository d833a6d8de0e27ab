package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/goldshop-api/internal/application/usecase"
	"github.com/jhoicas/goldshop-api/pkg/jwt"
	"github.com/jhoicas/goldshop-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	CategoryUC *usecase.CategoryUseCase
	Verifier   *jwt.Verifier
	Log        *logger.Logger
	// Checks de /health (ej. ping a Postgres y Redis); nombre → check.
	HealthChecks map[string]func(context.Context) error
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", healthHandler(deps.HealthChecks))

	// Todas las rutas de /api requieren Bearer Token
	api := app.Group("/api", AuthMiddleware(deps.Verifier))

	RegisterCategoryRoutes(api, NewCategoryHandler(deps.CategoryUC, deps.Log))
}

// RegisterCategoryRoutes registra /categories: lectura para cualquier rol; escritura admin/bodeguero; borrado solo admin.
// Las rutas fijas (tree, report.pdf) van antes de /:id.
func RegisterCategoryRoutes(api fiber.Router, h *CategoryHandler) {
	writers := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero)
	id := RequireUUIDParam("id")

	categories := api.Group("/categories")
	categories.Get("/", h.List)
	categories.Get("/tree", h.Tree)
	categories.Get("/report.pdf", h.Report)
	categories.Get("/:id", id, h.GetByID)
	categories.Get("/:id/stats", id, h.Stats)
	categories.Post("/", writers, h.Create)
	categories.Put("/:id", writers, id, h.Update)
	categories.Patch("/:id/parent", writers, id, h.Reparent)
	categories.Delete("/:id", RequireRole(jwt.RoleAdmin), id, h.Delete)
}

func healthHandler(checks map[string]func(context.Context) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		status := fiber.StatusOK
		results := fiber.Map{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = fiber.StatusServiceUnavailable
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}
		state := "ok"
		if status != fiber.StatusOK {
			state = "degraded"
		}
		return c.Status(status).JSON(fiber.Map{"status": state, "checks": results})
	}
}
