package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jhoicas/goldshop-api/internal/application/dto"
)

// RequireUUIDParam responde 404 si el parámetro de ruta no es un UUID: ningún
// registro puede tener ese ID y la consulta fallaría en la columna uuid.
func RequireUUIDParam(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := uuid.Parse(c.Params(name)); err != nil {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: name + " no es un UUID válido"})
		}
		return c.Next()
	}
}
