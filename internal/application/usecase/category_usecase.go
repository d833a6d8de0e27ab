package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/goldshop-api/internal/application/dto"
	"github.com/jhoicas/goldshop-api/internal/domain"
	"github.com/jhoicas/goldshop-api/internal/domain/category"
	"github.com/jhoicas/goldshop-api/internal/domain/entity"
	"github.com/jhoicas/goldshop-api/internal/domain/repository"
	"github.com/jhoicas/goldshop-api/pkg/logger"
)

// CategoryDeps dependencias del caso de uso de categorías.
// Cache, Guard, Report y Log son opcionales.
type CategoryDeps struct {
	Repo     repository.CategoryRepository
	Measures repository.CategoryMeasuresRepository
	Tx       CategoryTxRunner
	Cache    CategorySnapshotCache
	Guard    ReparentGuard
	Report   CategoryReportGenerator
	Log      *logger.Logger
}

// CategoryUseCase casos de uso de la jerarquía de categorías: CRUD, árbol agregado,
// filtrado y movimientos (reparent) protegidos contra ciclos.
type CategoryUseCase struct {
	repo     repository.CategoryRepository
	measures repository.CategoryMeasuresRepository
	tx       CategoryTxRunner
	cache    CategorySnapshotCache
	guard    ReparentGuard
	report   CategoryReportGenerator
	log      *logger.Logger
}

// NewCategoryUseCase construye el caso de uso.
func NewCategoryUseCase(d CategoryDeps) *CategoryUseCase {
	uc := &CategoryUseCase{
		repo:     d.Repo,
		measures: d.Measures,
		tx:       d.Tx,
		cache:    d.Cache,
		guard:    d.Guard,
		report:   d.Report,
		log:      d.Log,
	}
	if uc.guard == nil {
		uc.guard = NewLocalReparentGuard()
	}
	if uc.log == nil {
		uc.log = logger.Nop()
	}
	return uc
}

// Create crea una categoría. Si trae ParentID, el padre debe existir en la misma empresa.
func (uc *CategoryUseCase) Create(ctx context.Context, companyID string, in dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.SortOrder < 0 {
		return nil, domain.ErrInvalidInput
	}
	if in.ParentID != "" {
		if _, err := uc.owned(ctx, companyID, in.ParentID); err != nil {
			return nil, err
		}
	}
	code := strings.TrimSpace(in.Code)
	if code != "" {
		existing, err := uc.repo.GetByCompanyAndCode(ctx, companyID, code)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, domain.ErrDuplicate
		}
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	now := time.Now()
	c := &entity.Category{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		ParentID:    in.ParentID,
		Name:        name,
		Description: in.Description,
		Code:        code,
		SortOrder:   in.SortOrder,
		IsActive:    active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	uc.invalidate(ctx, companyID)
	uc.log.Info().Str("company_id", companyID).Str("category_id", c.ID).Msg("categoría creada")
	return toCategoryResponse(c), nil
}

// GetByID obtiene una categoría con su ruta desde la raíz.
func (uc *CategoryUseCase) GetByID(ctx context.Context, companyID, id string) (*dto.CategoryDetailResponse, error) {
	c, err := uc.owned(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	snap, err := uc.snapshot(ctx, companyID)
	if err != nil {
		return nil, err
	}
	out := &dto.CategoryDetailResponse{CategoryResponse: *toCategoryResponse(c)}
	for _, p := range category.Path(snap.Categories, id) {
		out.Path = append(out.Path, dto.CategoryPathItem{ID: p.ID, Name: p.Name})
	}
	if out.Path == nil {
		out.Path = []dto.CategoryPathItem{{ID: c.ID, Name: c.Name}}
	}
	return out, nil
}

// Update actualiza datos descriptivos. El padre no se cambia aquí (ver Reparent).
func (uc *CategoryUseCase) Update(ctx context.Context, companyID, id string, in dto.UpdateCategoryRequest) (*dto.CategoryResponse, error) {
	c, err := uc.owned(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.ErrInvalidInput
		}
		c.Name = name
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.Code != nil {
		code := strings.TrimSpace(*in.Code)
		if code != "" && code != c.Code {
			existing, err := uc.repo.GetByCompanyAndCode(ctx, companyID, code)
			if err != nil {
				return nil, err
			}
			if existing != nil && existing.ID != c.ID {
				return nil, domain.ErrDuplicate
			}
		}
		c.Code = code
	}
	if in.SortOrder != nil {
		if *in.SortOrder < 0 {
			return nil, domain.ErrInvalidInput
		}
		c.SortOrder = *in.SortOrder
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	c.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	uc.invalidate(ctx, companyID)
	return toCategoryResponse(c), nil
}

// Delete elimina una categoría sin subcategorías.
func (uc *CategoryUseCase) Delete(ctx context.Context, companyID, id string) error {
	if _, err := uc.owned(ctx, companyID, id); err != nil {
		return err
	}
	n, err := uc.repo.CountChildren(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.ErrHasChildren
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.invalidate(ctx, companyID)
	uc.log.Info().Str("company_id", companyID).Str("category_id", id).Msg("categoría eliminada")
	return nil
}

// List devuelve la lista plana en orden de árbol (preorden).
func (uc *CategoryUseCase) List(ctx context.Context, companyID string) (*dto.CategoryListResponse, error) {
	snap, err := uc.snapshot(ctx, companyID)
	if err != nil {
		return nil, err
	}
	flat := category.Flatten(category.BuildTree(snap.Categories, ""))
	items := make([]dto.CategoryResponse, 0, len(flat))
	for _, n := range flat {
		items = append(items, *toCategoryResponse(&n.Category))
	}
	return &dto.CategoryListResponse{Items: items, Total: len(items)}, nil
}

// Tree construye el bosque agregado y, si se pide, lo filtra conservando los ancestros.
func (uc *CategoryUseCase) Tree(ctx context.Context, companyID string, q dto.CategoryTreeQuery) (*dto.CategoryTreeResponse, error) {
	snap, err := uc.snapshot(ctx, companyID)
	if err != nil {
		return nil, err
	}
	nodes := category.Build(snap.Categories, snap.Measures)
	totals := sumRollups(nodes)

	search := strings.TrimSpace(q.Search)
	var preds []category.Predicate
	if q.ActiveOnly {
		preds = append(preds, category.ActiveOnly())
	}
	if search != "" {
		preds = append(preds, category.MatchText(search))
	}
	match := category.And(preds...)

	expanded := []string{}
	if len(preds) > 0 {
		nodes = category.FilterTree(nodes, match)
	}
	if search != "" {
		for id := range category.ExpandedFor(nodes, match) {
			expanded = append(expanded, id)
		}
		slices.Sort(expanded)
	}

	return &dto.CategoryTreeResponse{
		Nodes:    toNodeResponses(nodes, match),
		Expanded: expanded,
		Totals:   totals,
		Search:   search,
	}, nil
}

// Stats devuelve las medidas propias y agregadas de una categoría.
func (uc *CategoryUseCase) Stats(ctx context.Context, companyID, id string) (*dto.CategoryStatsResponse, error) {
	snap, err := uc.snapshot(ctx, companyID)
	if err != nil {
		return nil, err
	}
	n := category.Find(category.Build(snap.Categories, snap.Measures), id)
	if n == nil {
		return nil, domain.ErrNotFound
	}
	return &dto.CategoryStatsResponse{
		ID:              n.ID,
		Name:            n.Name,
		Depth:           category.Depth(snap.Categories, id),
		ChildCount:      len(n.Children),
		DescendantCount: len(category.Flatten(n.Children)),
		Own:             n.Own,
		Rollup:          n.Rollup,
	}, nil
}

// Reparent mueve una categoría bajo otro padre ("" = raíz).
//
// Solo puede haber un movimiento en curso por categoría. La guarda de ciclos se evalúa
// sobre las filas bloqueadas (SELECT FOR UPDATE) dentro de la transacción, y solo se
// escriben las filas cuyo padre u orden cambió.
func (uc *CategoryUseCase) Reparent(ctx context.Context, companyID, id string, in dto.ReparentRequest) (*dto.CategoryResponse, error) {
	release, err := uc.guard.Acquire(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	defer release()

	var opts []category.ReparentOption
	if in.Position != nil {
		if *in.Position < 0 {
			return nil, domain.ErrInvalidInput
		}
		opts = append(opts, category.WithPosition(*in.Position))
	}

	var moved *entity.Category
	err = uc.tx.RunCategories(ctx, func(repo repository.CategoryRepository) error {
		current, err := repo.ListByCompanyForUpdate(ctx, companyID)
		if err != nil {
			return err
		}
		updated, err := category.Reparent(current, id, in.NewParentID, opts...)
		if err != nil {
			return err
		}
		now := time.Now()
		for i := range updated {
			c := updated[i]
			if c.ID == id {
				moved = &updated[i]
			}
			if c.ParentID == current[i].ParentID && c.SortOrder == current[i].SortOrder {
				continue
			}
			if err := repo.UpdatePlacement(ctx, c.ID, c.ParentID, c.SortOrder, now); err != nil {
				return err
			}
			updated[i].UpdatedAt = now
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrCycle) || errors.Is(err, domain.ErrSelfParent) {
			uc.log.Warn().
				Str("company_id", companyID).
				Str("category_id", id).
				Str("new_parent_id", in.NewParentID).
				Err(err).
				Msg("movimiento de categoría rechazado")
		}
		return nil, err
	}
	uc.invalidate(ctx, companyID)
	uc.log.Info().
		Str("company_id", companyID).
		Str("category_id", id).
		Str("new_parent_id", in.NewParentID).
		Msg("categoría movida")
	return toCategoryResponse(moved), nil
}

// Report genera el PDF del árbol con sus agregados.
func (uc *CategoryUseCase) Report(ctx context.Context, companyID string) ([]byte, error) {
	if uc.report == nil {
		return nil, fmt.Errorf("category report: generador no configurado")
	}
	snap, err := uc.snapshot(ctx, companyID)
	if err != nil {
		return nil, err
	}
	nodes := category.Build(snap.Categories, snap.Measures)
	return uc.report.GenerateCategoryReport(ctx, nodes, sumRollups(nodes))
}

// owned obtiene la categoría y verifica que pertenezca a la empresa.
func (uc *CategoryUseCase) owned(ctx context.Context, companyID, id string) (*entity.Category, error) {
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil || c.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (uc *CategoryUseCase) snapshot(ctx context.Context, companyID string) (*dto.CategorySnapshot, error) {
	if uc.cache == nil {
		return uc.loadSnapshot(ctx, companyID)
	}
	return uc.cache.Fetch(ctx, companyID, func(ctx context.Context) (*dto.CategorySnapshot, error) {
		return uc.loadSnapshot(ctx, companyID)
	})
}

func (uc *CategoryUseCase) loadSnapshot(ctx context.Context, companyID string) (*dto.CategorySnapshot, error) {
	cats, err := uc.repo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	measures := map[string]entity.Measures{}
	if uc.measures != nil {
		measures, err = uc.measures.MeasuresByCompany(ctx, companyID)
		if err != nil {
			return nil, err
		}
	}
	return &dto.CategorySnapshot{Categories: cats, Measures: measures}, nil
}

// invalidate descarta la foto cacheada. Un fallo aquí no revierte la escritura ya confirmada.
func (uc *CategoryUseCase) invalidate(ctx context.Context, companyID string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Invalidate(ctx, companyID); err != nil {
		uc.log.Warn().Err(err).Str("company_id", companyID).Msg("invalidar caché de categorías")
	}
}

func sumRollups(nodes []*category.Node) entity.Measures {
	var total entity.Measures
	for _, n := range nodes {
		total = total.Add(n.Rollup)
	}
	return total
}

func toCategoryResponse(c *entity.Category) *dto.CategoryResponse {
	if c == nil {
		return nil
	}
	var parentID *string
	if !c.IsRoot() {
		p := c.ParentID
		parentID = &p
	}
	return &dto.CategoryResponse{
		ID:          c.ID,
		CompanyID:   c.CompanyID,
		ParentID:    parentID,
		Name:        c.Name,
		Description: c.Description,
		Code:        c.Code,
		SortOrder:   c.SortOrder,
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func toNodeResponses(nodes []*category.Node, match category.Predicate) []dto.CategoryNodeResponse {
	out := make([]dto.CategoryNodeResponse, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, dto.CategoryNodeResponse{
			CategoryResponse: *toCategoryResponse(&n.Category),
			Own:              n.Own,
			Rollup:           n.Rollup,
			Matched:          match(n),
			Children:         toNodeResponses(n.Children, match),
		})
	}
	return out
}
