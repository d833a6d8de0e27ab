package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/goldshop-api/internal/domain/entity"
	"github.com/jhoicas/goldshop-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.CategoryMeasuresRepository = (*CategoryMeasuresRepo)(nil)

// CategoryMeasuresRepo agrega productos y stock por categoría (consultas read-only).
type CategoryMeasuresRepo struct {
	q Querier
}

// NewCategoryMeasuresRepository construye el adaptador.
func NewCategoryMeasuresRepository(q Querier) *CategoryMeasuresRepo {
	return &CategoryMeasuresRepo{q: q}
}

// MeasuresByCompany devuelve, por categoría, productos, stock total (todas las bodegas)
// y valor del stock a costo promedio. Solo incluye categorías con productos.
func (r *CategoryMeasuresRepo) MeasuresByCompany(ctx context.Context, companyID string) (map[string]entity.Measures, error) {
	query := `
		SELECT p.category_id::text,
		       COUNT(DISTINCT p.id)                   AS item_count,
		       COALESCE(SUM(s.quantity), 0)           AS total_stock,
		       COALESCE(SUM(s.quantity * p.cost), 0)  AS total_value
		FROM products p
		LEFT JOIN stock s ON s.product_id = p.id
		WHERE p.company_id = $1 AND p.category_id IS NOT NULL
		GROUP BY p.category_id`
	rows, err := r.q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("category measures: %w", err)
	}
	defer rows.Close()

	out := make(map[string]entity.Measures)
	for rows.Next() {
		var (
			categoryID string
			itemCount  int64
			stock      decimal.Decimal
			value      decimal.Decimal
		)
		if err := rows.Scan(&categoryID, &itemCount, &stock, &value); err != nil {
			return nil, fmt.Errorf("scan category measures: %w", err)
		}
		out[categoryID] = entity.Measures{
			ItemCount:  itemCount,
			TotalStock: stock.InexactFloat64(),
			TotalValue: value.InexactFloat64(),
		}
	}
	return out, rows.Err()
}
