package repository

import (
	"context"
	"time"

	"github.com/jhoicas/goldshop-api/internal/domain/entity"
)

// CategoryRepository define el puerto de persistencia para Category (DIP).
type CategoryRepository interface {
	Create(ctx context.Context, category *entity.Category) error
	GetByID(ctx context.Context, id string) (*entity.Category, error)
	GetByCompanyAndCode(ctx context.Context, companyID, code string) (*entity.Category, error)
	Update(ctx context.Context, category *entity.Category) error
	// UpdatePlacement cambia solo padre y orden (movimientos en el árbol).
	UpdatePlacement(ctx context.Context, id, parentID string, sortOrder int, updatedAt time.Time) error
	ListByCompany(ctx context.Context, companyID string) ([]entity.Category, error)
	// ListByCompanyForUpdate igual que ListByCompany pero bloquea las filas (solo dentro de una tx).
	ListByCompanyForUpdate(ctx context.Context, companyID string) ([]entity.Category, error)
	CountChildren(ctx context.Context, id string) (int, error)
	Delete(ctx context.Context, id string) error
}

// CategoryMeasuresRepository agrega las medidas de inventario por categoría (solo lectura).
type CategoryMeasuresRepository interface {
	MeasuresByCompany(ctx context.Context, companyID string) (map[string]entity.Measures, error)
}
