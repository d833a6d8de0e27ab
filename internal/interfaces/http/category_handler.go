package http

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/goldshop-api/internal/application/dto"
	"github.com/jhoicas/goldshop-api/internal/domain"
	"github.com/jhoicas/goldshop-api/pkg/logger"
)

// categoryService es lo que el handler necesita del caso de uso (lo implementa *usecase.CategoryUseCase).
type categoryService interface {
	Create(ctx context.Context, companyID string, in dto.CreateCategoryRequest) (*dto.CategoryResponse, error)
	GetByID(ctx context.Context, companyID, id string) (*dto.CategoryDetailResponse, error)
	Update(ctx context.Context, companyID, id string, in dto.UpdateCategoryRequest) (*dto.CategoryResponse, error)
	Delete(ctx context.Context, companyID, id string) error
	List(ctx context.Context, companyID string) (*dto.CategoryListResponse, error)
	Tree(ctx context.Context, companyID string, q dto.CategoryTreeQuery) (*dto.CategoryTreeResponse, error)
	Stats(ctx context.Context, companyID, id string) (*dto.CategoryStatsResponse, error)
	Reparent(ctx context.Context, companyID, id string, in dto.ReparentRequest) (*dto.CategoryResponse, error)
	Report(ctx context.Context, companyID string) ([]byte, error)
}

// CategoryHandler maneja las peticiones HTTP de categorías (protegido).
type CategoryHandler struct {
	uc       categoryService
	validate *validator.Validate
	log      *logger.Logger
}

// NewCategoryHandler construye el handler. log puede ser nil.
func NewCategoryHandler(uc categoryService, log *logger.Logger) *CategoryHandler {
	if log == nil {
		log = logger.Nop()
	}
	v := validator.New()
	// Los mensajes de validación usan el nombre JSON/query del campo.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			if name, _, _ := strings.Cut(f.Tag.Get(tag), ","); name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return &CategoryHandler{uc: uc, validate: v, log: log}
}

// Create godoc
// @Summary      Crear categoría
// @Tags         categories
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateCategoryRequest  true  "Datos de la categoría"
// @Success      201   {object}  dto.CategoryResponse
// @Failure      404   {object}  dto.ErrorResponse  "padre inexistente"
// @Failure      409   {object}  dto.ErrorResponse  "código duplicado"
// @Router       /api/categories [post]
func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateCategoryRequest
	if ok, err := h.bind(c, &in); !ok {
		return err
	}
	out, err := h.uc.Create(c.UserContext(), GetCompanyID(c), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener categoría con su ruta desde la raíz
// @Tags         categories
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la categoría"
// @Success      200  {object}  dto.CategoryDetailResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/categories/{id} [get]
func (h *CategoryHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar categoría (nombre, descripción, código, orden, estado)
// @Tags         categories
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID de la categoría"
// @Param        body  body  dto.UpdateCategoryRequest  true  "Campos a cambiar"
// @Success      200   {object}  dto.CategoryResponse
// @Router       /api/categories/{id} [put]
func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateCategoryRequest
	if ok, err := h.bind(c, &in); !ok {
		return err
	}
	out, err := h.uc.Update(c.UserContext(), GetCompanyID(c), c.Params("id"), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar categoría sin subcategorías
// @Tags         categories
// @Security     Bearer
// @Param        id   path  string  true  "ID de la categoría"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse  "tiene subcategorías"
// @Router       /api/categories/{id} [delete]
func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), GetCompanyID(c), c.Params("id")); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// List godoc
// @Summary      Listar categorías (lista plana en orden de árbol)
// @Tags         categories
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.CategoryListResponse
// @Router       /api/categories [get]
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), GetCompanyID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// Tree godoc
// @Summary      Árbol de categorías con agregados; search conserva los ancestros de cada coincidencia
// @Tags         categories
// @Security     Bearer
// @Produce      json
// @Param        search       query  string  false  "Texto a buscar en nombre o descripción"
// @Param        active_only  query  bool    false  "Solo categorías activas"
// @Success      200  {object}  dto.CategoryTreeResponse
// @Router       /api/categories/tree [get]
func (h *CategoryHandler) Tree(c *fiber.Ctx) error {
	var q dto.CategoryTreeQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	if err := h.validate.Struct(q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: validationMessage(err)})
	}
	out, err := h.uc.Tree(c.UserContext(), GetCompanyID(c), q)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// Stats godoc
// @Summary      Medidas propias y agregadas de una categoría
// @Tags         categories
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la categoría"
// @Success      200  {object}  dto.CategoryStatsResponse
// @Router       /api/categories/{id}/stats [get]
func (h *CategoryHandler) Stats(c *fiber.Ctx) error {
	out, err := h.uc.Stats(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// Reparent godoc
// @Summary      Mover categoría bajo otro padre ("" = raíz)
// @Tags         categories
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID de la categoría"
// @Param        body  body  dto.ReparentRequest  true  "Nuevo padre y posición opcional"
// @Success      200   {object}  dto.CategoryResponse
// @Failure      409   {object}  dto.ErrorResponse  "movimiento en curso"
// @Failure      422   {object}  dto.ErrorResponse  "ciclo o propio padre"
// @Router       /api/categories/{id}/parent [patch]
func (h *CategoryHandler) Reparent(c *fiber.Ctx) error {
	var in dto.ReparentRequest
	if ok, err := h.bind(c, &in); !ok {
		return err
	}
	out, err := h.uc.Reparent(c.UserContext(), GetCompanyID(c), c.Params("id"), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// Report godoc
// @Summary      Reporte PDF del árbol de categorías
// @Tags         categories
// @Security     Bearer
// @Produce      application/pdf
// @Success      200
// @Router       /api/categories/report.pdf [get]
func (h *CategoryHandler) Report(c *fiber.Ctx) error {
	out, err := h.uc.Report(c.UserContext(), GetCompanyID(c))
	if err != nil {
		return h.fail(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="categorias.pdf"`)
	return c.Send(out)
}

// bind parsea y valida el cuerpo. Con ok=false la respuesta 400 ya está escrita.
func (h *CategoryHandler) bind(c *fiber.Ctx, dst any) (ok bool, err error) {
	if err := c.BodyParser(dst); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.validate.Struct(dst); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: validationMessage(err)})
	}
	return true, nil
}

// fail traduce errores de dominio a HTTP; lo demás es 500 y se registra.
func (h *CategoryHandler) fail(c *fiber.Ctx, err error) error {
	status, code := statusFor(err)
	if status == fiber.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.Path()).Str("company_id", GetCompanyID(c)).Msg("error interno")
		return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: "error interno"})
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrSelfParent):
		return fiber.StatusUnprocessableEntity, "SELF_PARENT"
	case errors.Is(err, domain.ErrCycle):
		return fiber.StatusUnprocessableEntity, "CYCLE"
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusUnprocessableEntity, "INVALID_INPUT"
	case errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, "DUPLICATE"
	case errors.Is(err, domain.ErrHasChildren):
		return fiber.StatusConflict, "HAS_CHILDREN"
	case errors.Is(err, domain.ErrMoveInFlight):
		return fiber.StatusConflict, "MOVE_IN_FLIGHT"
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, "UNAUTHORIZED"
	default:
		return fiber.StatusInternalServerError, "INTERNAL"
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Field()+": "+fe.Tag())
	}
	return strings.Join(msgs, "; ")
}
