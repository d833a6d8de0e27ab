package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/goldshop-api/internal/domain"
	"github.com/jhoicas/goldshop-api/internal/domain/entity"
	"github.com/jhoicas/goldshop-api/internal/domain/repository"
)

var _ repository.CategoryRepository = (*CategoryRepo)(nil)

const categoryColumns = `id, company_id, COALESCE(parent_id::text, ''), name, description, COALESCE(code, ''), sort_order, is_active, created_at, updated_at`

// CategoryRepo implementación del puerto CategoryRepository sobre PostgreSQL (usable con pool o tx).
// parent_id y code se guardan como NULL cuando están vacíos.
type CategoryRepo struct {
	q Querier
}

// NewCategoryRepository construye el adaptador de persistencia para categorías. Pasar pool o tx (Querier).
func NewCategoryRepository(q Querier) *CategoryRepo {
	return &CategoryRepo{q: q}
}

// Create persiste una nueva categoría.
func (r *CategoryRepo) Create(ctx context.Context, c *entity.Category) error {
	query := `
		INSERT INTO categories (id, company_id, parent_id, name, description, code, sort_order, is_active, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, '')::uuid, $4, $5, NULLIF($6, ''), $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.CompanyID, c.ParentID, c.Name, c.Description, c.Code,
		c.SortOrder, c.IsActive, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// GetByID obtiene una categoría por ID.
func (r *CategoryRepo) GetByID(ctx context.Context, id string) (*entity.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`
	c, err := scanCategory(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// GetByCompanyAndCode obtiene una categoría por empresa y código.
func (r *CategoryRepo) GetByCompanyAndCode(ctx context.Context, companyID, code string) (*entity.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE company_id = $1 AND code = $2`
	c, err := scanCategory(r.q.QueryRow(ctx, query, companyID, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get category by code: %w", err)
	}
	return c, nil
}

// Update actualiza los datos descriptivos. No toca parent_id (ver UpdatePlacement).
func (r *CategoryRepo) Update(ctx context.Context, c *entity.Category) error {
	query := `
		UPDATE categories SET name = $2, description = $3, code = NULLIF($4, ''), sort_order = $5, is_active = $6, updated_at = $7
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.Name, c.Description, c.Code, c.SortOrder, c.IsActive, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// UpdatePlacement cambia padre y orden de una categoría.
func (r *CategoryRepo) UpdatePlacement(ctx context.Context, id, parentID string, sortOrder int, updatedAt time.Time) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE categories SET parent_id = NULLIF($2, '')::uuid, sort_order = $3, updated_at = $4 WHERE id = $1`,
		id, parentID, sortOrder, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("update category placement: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByCompany lista todas las categorías de la empresa (la jerarquía se arma en memoria).
func (r *CategoryRepo) ListByCompany(ctx context.Context, companyID string) ([]entity.Category, error) {
	return r.list(ctx, `SELECT `+categoryColumns+` FROM categories WHERE company_id = $1 ORDER BY sort_order, name`, companyID)
}

// ListByCompanyForUpdate bloquea las filas de la empresa hasta el fin de la transacción.
func (r *CategoryRepo) ListByCompanyForUpdate(ctx context.Context, companyID string) ([]entity.Category, error) {
	return r.list(ctx, `SELECT `+categoryColumns+` FROM categories WHERE company_id = $1 ORDER BY id FOR UPDATE`, companyID)
}

// CountChildren cuenta las subcategorías directas.
func (r *CategoryRepo) CountChildren(ctx context.Context, id string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM categories WHERE parent_id = $1`, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("count category children: %w", err)
	}
	return n, nil
}

// Delete elimina una categoría por ID. Si otra petición le agregó un hijo después
// de contar los hijos, la FK lo impide y se devuelve domain.ErrHasChildren.
func (r *CategoryRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return deleteError(err)
	}
	return nil
}

func deleteError(err error) error {
	if isForeignKeyViolation(err) {
		return domain.ErrHasChildren
	}
	return fmt.Errorf("delete category: %w", err)
}

func (r *CategoryRepo) list(ctx context.Context, query string, args ...any) ([]entity.Category, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	var list []entity.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		list = append(list, *c)
	}
	return list, rows.Err()
}

func scanCategory(row pgx.Row) (*entity.Category, error) {
	var c entity.Category
	err := row.Scan(
		&c.ID, &c.CompanyID, &c.ParentID, &c.Name, &c.Description, &c.Code,
		&c.SortOrder, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
