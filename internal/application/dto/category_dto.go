package dto

import (
	"time"

	"github.com/jhoicas/goldshop-api/internal/domain/entity"
)

// CreateCategoryRequest entrada para crear una categoría.
type CreateCategoryRequest struct {
	ParentID    string `json:"parent_id" validate:"omitempty,uuid"`
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=1000"`
	Code        string `json:"code" validate:"omitempty,max=50"`
	SortOrder   int    `json:"sort_order" validate:"min=0"`
	IsActive    *bool  `json:"is_active"`
}

// UpdateCategoryRequest entrada para actualizar una categoría (el padre se cambia con ReparentRequest).
type UpdateCategoryRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Code        *string `json:"code" validate:"omitempty,max=50"`
	SortOrder   *int    `json:"sort_order" validate:"omitempty,min=0"`
	IsActive    *bool   `json:"is_active"`
}

// ReparentRequest mueve una categoría bajo otro padre ("" = raíz).
// Position es opcional: si viene, se renumeran los hermanos del nuevo padre.
type ReparentRequest struct {
	NewParentID string `json:"new_parent_id" validate:"omitempty,uuid"`
	Position    *int   `json:"position" validate:"omitempty,min=0"`
}

// CategoryTreeQuery parámetros del árbol (query string).
type CategoryTreeQuery struct {
	Search     string `query:"search" validate:"max=200"`
	ActiveOnly bool   `query:"active_only"`
}

// CategoryResponse salida de una categoría.
type CategoryResponse struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"company_id"`
	ParentID    *string   `json:"parent_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Code        string    `json:"code,omitempty"`
	SortOrder   int       `json:"sort_order"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CategoryDetailResponse categoría con su ruta (breadcrumb) desde la raíz.
type CategoryDetailResponse struct {
	CategoryResponse
	Path []CategoryPathItem `json:"path"`
}

// CategoryPathItem elemento del breadcrumb.
type CategoryPathItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CategoryListResponse lista plana de categorías de la empresa.
type CategoryListResponse struct {
	Items []CategoryResponse `json:"items"`
	Total int                `json:"total"`
}

// CategoryNodeResponse nodo del árbol con medidas propias y agregadas.
type CategoryNodeResponse struct {
	CategoryResponse
	Own      entity.Measures        `json:"own"`
	Rollup   entity.Measures        `json:"rollup"`
	Matched  bool                   `json:"matched"`
	Children []CategoryNodeResponse `json:"children"`
}

// CategoryTreeResponse bosque filtrado y agregado, listo para renderizar.
type CategoryTreeResponse struct {
	Nodes    []CategoryNodeResponse `json:"nodes"`
	Expanded []string               `json:"expanded"`
	Totals   entity.Measures        `json:"totals"`
	Search   string                 `json:"search,omitempty"`
}

// CategoryStatsResponse estadísticas de un nodo y su subárbol.
type CategoryStatsResponse struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Depth           int             `json:"depth"`
	ChildCount      int             `json:"child_count"`
	DescendantCount int             `json:"descendant_count"`
	Own             entity.Measures `json:"own"`
	Rollup          entity.Measures `json:"rollup"`
}

// CategorySnapshot lista plana más medidas: lo que se cachea por empresa.
type CategorySnapshot struct {
	Categories []entity.Category          `json:"categories"`
	Measures   map[string]entity.Measures `json:"measures"`
}
