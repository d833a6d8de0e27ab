package usecase_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/goldshop-api/internal/application/dto"
	"github.com/jhoicas/goldshop-api/internal/application/usecase"
	"github.com/jhoicas/goldshop-api/internal/domain"
	"github.com/jhoicas/goldshop-api/internal/domain/entity"
	"github.com/jhoicas/goldshop-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria
// ──────────────────────────────────────────────────────────────────────────────

const (
	companyA = "company-a"
	companyB = "company-b"
)

type memRepo struct {
	mu         sync.Mutex
	byID       map[string]entity.Category
	order      []string
	measures   map[string]entity.Measures
	placements int
}

var (
	_ repository.CategoryRepository         = (*memRepo)(nil)
	_ repository.CategoryMeasuresRepository = (*memRepo)(nil)
)

func newMemRepo(cats ...entity.Category) *memRepo {
	r := &memRepo{byID: map[string]entity.Category{}, measures: map[string]entity.Measures{}}
	for _, c := range cats {
		r.byID[c.ID] = c
		r.order = append(r.order, c.ID)
	}
	return r
}

func (r *memRepo) Create(_ context.Context, c *entity.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[c.ID] = *c
	r.order = append(r.order, c.ID)
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*entity.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *memRepo) GetByCompanyAndCode(_ context.Context, companyID, code string) (*entity.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.byID {
		if c.CompanyID == companyID && c.Code == code {
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memRepo) Update(_ context.Context, c *entity.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[c.ID] = *c
	return nil
}

func (r *memRepo) UpdatePlacement(_ context.Context, id, parentID string, sortOrder int, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.byID[id]
	c.ParentID = parentID
	c.SortOrder = sortOrder
	c.UpdatedAt = updatedAt
	r.byID[id] = c
	r.placements++
	return nil
}

func (r *memRepo) ListByCompany(_ context.Context, companyID string) ([]entity.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Category
	for _, id := range r.order {
		if c, ok := r.byID[id]; ok && c.CompanyID == companyID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memRepo) ListByCompanyForUpdate(ctx context.Context, companyID string) ([]entity.Category, error) {
	return r.ListByCompany(ctx, companyID)
}

func (r *memRepo) CountChildren(_ context.Context, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.byID {
		if c.ParentID == id {
			n++
		}
	}
	return n, nil
}

func (r *memRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	return nil
}

func (r *memRepo) MeasuresByCompany(_ context.Context, _ string) (map[string]entity.Measures, error) {
	return r.measures, nil
}

// memTx ejecuta fn directamente sobre el repo en memoria.
type memTx struct{ repo *memRepo }

func (t memTx) RunCategories(_ context.Context, fn func(repo repository.CategoryRepository) error) error {
	return fn(t.repo)
}

// countingCache cachea en memoria y cuenta invalidaciones.
type countingCache struct {
	snaps       map[string]*dto.CategorySnapshot
	loads       int
	invalidated int
}

func (c *countingCache) Fetch(ctx context.Context, companyID string, loader func(context.Context) (*dto.CategorySnapshot, error)) (*dto.CategorySnapshot, error) {
	if s, ok := c.snaps[companyID]; ok {
		return s, nil
	}
	s, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	c.loads++
	c.snaps[companyID] = s
	return s, nil
}

func (c *countingCache) Invalidate(_ context.Context, companyID string) error {
	delete(c.snaps, companyID)
	c.invalidated++
	return nil
}

func cat(id, parentID, name string, sortOrder int) entity.Category {
	return entity.Category{ID: id, CompanyID: companyA, ParentID: parentID, Name: name, SortOrder: sortOrder, IsActive: true}
}

// newJewelryUC arma el escenario Jewelry → [Rings, Necklaces] con medidas 2/5/3.
func newJewelryUC(t *testing.T) (*usecase.CategoryUseCase, *memRepo, *countingCache) {
	t.Helper()
	repo := newMemRepo(
		cat("1", "", "Jewelry", 0),
		cat("2", "1", "Rings", 0),
		cat("3", "1", "Necklaces", 1),
	)
	repo.measures = map[string]entity.Measures{
		"1": {ItemCount: 2, TotalStock: 1, TotalValue: 100},
		"2": {ItemCount: 5, TotalStock: 10, TotalValue: 500},
		"3": {ItemCount: 3, TotalStock: 4, TotalValue: 300},
	}
	cache := &countingCache{snaps: map[string]*dto.CategorySnapshot{}}
	uc := usecase.NewCategoryUseCase(usecase.CategoryDeps{
		Repo:     repo,
		Measures: repo,
		Tx:       memTx{repo: repo},
		Cache:    cache,
	})
	return uc, repo, cache
}

func ptr[T any](v T) *T { return &v }

// ──────────────────────────────────────────────────────────────────────────────
// Árbol y estadísticas
// ──────────────────────────────────────────────────────────────────────────────

func TestCategoryUseCase_TreeAgregaMedidas(t *testing.T) {
	uc, _, _ := newJewelryUC(t)

	tree, err := uc.Tree(context.Background(), companyA, dto.CategoryTreeQuery{})
	require.NoError(t, err)

	require.Len(t, tree.Nodes, 1)
	root := tree.Nodes[0]
	assert.Equal(t, "Jewelry", root.Name)
	assert.Equal(t, int64(10), root.Rollup.ItemCount)
	assert.InDelta(t, 15.0, root.Rollup.TotalStock, 1e-9)
	assert.InDelta(t, 900.0, root.Rollup.TotalValue, 1e-9)
	assert.Equal(t, int64(10), tree.Totals.ItemCount)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "Rings", root.Children[0].Name)
	assert.Empty(t, tree.Expanded)
}

func TestCategoryUseCase_TreeConBusqueda(t *testing.T) {
	uc, _, _ := newJewelryUC(t)

	tree, err := uc.Tree(context.Background(), companyA, dto.CategoryTreeQuery{Search: "ring"})
	require.NoError(t, err)

	require.Len(t, tree.Nodes, 1)
	root := tree.Nodes[0]
	assert.False(t, root.Matched, "Jewelry se conserva solo como ancestro")
	require.Len(t, root.Children, 1)
	assert.Equal(t, "Rings", root.Children[0].Name)
	assert.True(t, root.Children[0].Matched)
	assert.Equal(t, []string{"1"}, tree.Expanded)
	assert.Equal(t, int64(10), tree.Totals.ItemCount, "los totales se calculan antes de filtrar")
}

func TestCategoryUseCase_TreeSoloActivas(t *testing.T) {
	uc, repo, _ := newJewelryUC(t)
	c := repo.byID["3"]
	c.IsActive = false
	repo.byID["3"] = c

	tree, err := uc.Tree(context.Background(), companyA, dto.CategoryTreeQuery{ActiveOnly: true})
	require.NoError(t, err)

	require.Len(t, tree.Nodes[0].Children, 1)
	assert.Equal(t, "Rings", tree.Nodes[0].Children[0].Name)
}

func TestCategoryUseCase_Stats(t *testing.T) {
	uc, _, _ := newJewelryUC(t)

	stats, err := uc.Stats(context.Background(), companyA, "1")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Depth)
	assert.Equal(t, 2, stats.ChildCount)
	assert.Equal(t, 2, stats.DescendantCount)
	assert.Equal(t, int64(2), stats.Own.ItemCount)
	assert.Equal(t, int64(10), stats.Rollup.ItemCount)

	_, err = uc.Stats(context.Background(), companyA, "99")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCategoryUseCase_ListEnOrdenDeArbol(t *testing.T) {
	uc, _, _ := newJewelryUC(t)

	list, err := uc.List(context.Background(), companyA)
	require.NoError(t, err)

	require.Equal(t, 3, list.Total)
	got := []string{list.Items[0].Name, list.Items[1].Name, list.Items[2].Name}
	assert.Equal(t, []string{"Jewelry", "Rings", "Necklaces"}, got)
	assert.Nil(t, list.Items[0].ParentID)
	require.NotNil(t, list.Items[1].ParentID)
	assert.Equal(t, "1", *list.Items[1].ParentID)
}

func TestCategoryUseCase_GetByIDIncluyeRuta(t *testing.T) {
	uc, _, _ := newJewelryUC(t)

	out, err := uc.GetByID(context.Background(), companyA, "2")
	require.NoError(t, err)
	assert.Equal(t, []dto.CategoryPathItem{{ID: "1", Name: "Jewelry"}, {ID: "2", Name: "Rings"}}, out.Path)
	require.NotNil(t, out.ParentID)
	assert.Equal(t, "1", *out.ParentID)

	root, err := uc.GetByID(context.Background(), companyA, "1")
	require.NoError(t, err)
	assert.Nil(t, root.ParentID, "una raíz se serializa con parent_id null")

	_, err = uc.GetByID(context.Background(), companyB, "2")
	assert.ErrorIs(t, err, domain.ErrNotFound, "otra empresa no ve la categoría")
}

// ──────────────────────────────────────────────────────────────────────────────
// CRUD
// ──────────────────────────────────────────────────────────────────────────────

func TestCategoryUseCase_CreateBajoPadre(t *testing.T) {
	uc, _, cache := newJewelryUC(t)
	_, err := uc.Tree(context.Background(), companyA, dto.CategoryTreeQuery{})
	require.NoError(t, err)

	out, err := uc.Create(context.Background(), companyA, dto.CreateCategoryRequest{
		ParentID: "2", Name: "  Wedding  ", Code: "WED",
	})
	require.NoError(t, err)
	assert.Equal(t, "Wedding", out.Name)
	assert.True(t, out.IsActive, "activa por defecto")
	assert.Equal(t, 1, cache.invalidated)

	tree, err := uc.Tree(context.Background(), companyA, dto.CategoryTreeQuery{Search: "wedding"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, tree.Expanded)
	assert.Equal(t, 2, cache.loads, "tras invalidar se recarga la foto")
}

func TestCategoryUseCase_CreateValidaciones(t *testing.T) {
	uc, repo, _ := newJewelryUC(t)
	ctx := context.Background()
	repo.byID["x"] = entity.Category{ID: "x", CompanyID: companyB, Name: "Foreign", Code: "DUP"}
	c := repo.byID["2"]
	c.Code = "RNG"
	repo.byID["2"] = c

	_, err := uc.Create(ctx, companyA, dto.CreateCategoryRequest{Name: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Create(ctx, companyA, dto.CreateCategoryRequest{Name: "Loose", ParentID: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound, "el padre debe ser de la misma empresa")

	_, err = uc.Create(ctx, companyA, dto.CreateCategoryRequest{Name: "Other rings", Code: "RNG"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = uc.Create(ctx, companyA, dto.CreateCategoryRequest{Name: "Same code other company", Code: "DUP"})
	assert.NoError(t, err)
}

func TestCategoryUseCase_Update(t *testing.T) {
	uc, repo, _ := newJewelryUC(t)

	out, err := uc.Update(context.Background(), companyA, "3", dto.UpdateCategoryRequest{
		Name: ptr("Chains"), SortOrder: ptr(0), IsActive: ptr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "Chains", out.Name)
	assert.False(t, repo.byID["3"].IsActive)
	assert.Equal(t, "1", repo.byID["3"].ParentID, "Update no cambia el padre")

	_, err = uc.Update(context.Background(), companyA, "3", dto.UpdateCategoryRequest{Name: ptr("")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCategoryUseCase_DeleteConHijosSeRechaza(t *testing.T) {
	uc, repo, _ := newJewelryUC(t)

	err := uc.Delete(context.Background(), companyA, "1")
	assert.ErrorIs(t, err, domain.ErrHasChildren)

	require.NoError(t, uc.Delete(context.Background(), companyA, "3"))
	_, exists := repo.byID["3"]
	assert.False(t, exists)
}

// ──────────────────────────────────────────────────────────────────────────────
// Reparent
// ──────────────────────────────────────────────────────────────────────────────

func TestCategoryUseCase_ReparentRechazaCiclo(t *testing.T) {
	uc, repo, cache := newJewelryUC(t)

	_, err := uc.Reparent(context.Background(), companyA, "1", dto.ReparentRequest{NewParentID: "2"})

	assert.ErrorIs(t, err, domain.ErrCycle)
	assert.Equal(t, 0, repo.placements, "no se escribe nada")
	assert.Equal(t, "", repo.byID["1"].ParentID)
	assert.Equal(t, 0, cache.invalidated)
}

func TestCategoryUseCase_ReparentRechazaPropioPadre(t *testing.T) {
	uc, _, _ := newJewelryUC(t)

	_, err := uc.Reparent(context.Background(), companyA, "2", dto.ReparentRequest{NewParentID: "2"})
	assert.ErrorIs(t, err, domain.ErrSelfParent)
}

func TestCategoryUseCase_ReparentMueveYRecalcula(t *testing.T) {
	uc, repo, cache := newJewelryUC(t)
	ctx := context.Background()

	out, err := uc.Reparent(ctx, companyA, "3", dto.ReparentRequest{NewParentID: "2"})
	require.NoError(t, err)
	require.NotNil(t, out.ParentID)
	assert.Equal(t, "2", *out.ParentID)
	assert.Equal(t, 1, repo.placements, "solo la fila movida cambia")
	assert.Equal(t, 1, cache.invalidated)

	stats, err := uc.Stats(ctx, companyA, "2")
	require.NoError(t, err)
	assert.Equal(t, int64(8), stats.Rollup.ItemCount, "Rings ahora incluye Necklaces")
}

func TestCategoryUseCase_ReparentConPosicionRenumera(t *testing.T) {
	uc, repo, _ := newJewelryUC(t)
	require.NoError(t, repo.Create(context.Background(), ptr(cat("4", "", "Coins", 5))))

	_, err := uc.Reparent(context.Background(), companyA, "4", dto.ReparentRequest{NewParentID: "1", Position: ptr(0)})
	require.NoError(t, err)

	children := []entity.Category{repo.byID["2"], repo.byID["3"], repo.byID["4"]}
	sort.Slice(children, func(i, j int) bool { return children[i].SortOrder < children[j].SortOrder })
	assert.Equal(t, "Coins", children[0].Name)
	assert.Equal(t, []int{0, 1, 2}, []int{children[0].SortOrder, children[1].SortOrder, children[2].SortOrder})
}

func TestCategoryUseCase_ReparentDeOtraEmpresaNoExiste(t *testing.T) {
	uc, _, _ := newJewelryUC(t)

	_, err := uc.Reparent(context.Background(), companyB, "3", dto.ReparentRequest{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCategoryUseCase_ReparentUnoEnCursoPorCategoria(t *testing.T) {
	guard := usecase.NewLocalReparentGuard()
	repo := newMemRepo(cat("1", "", "Jewelry", 0), cat("2", "", "Coins", 1))
	uc := usecase.NewCategoryUseCase(usecase.CategoryDeps{Repo: repo, Tx: memTx{repo: repo}, Guard: guard})

	release, err := guard.Acquire(context.Background(), companyA, "2")
	require.NoError(t, err)

	_, err = uc.Reparent(context.Background(), companyA, "2", dto.ReparentRequest{NewParentID: "1"})
	assert.ErrorIs(t, err, domain.ErrMoveInFlight)

	release()
	release()
	_, err = uc.Reparent(context.Background(), companyA, "2", dto.ReparentRequest{NewParentID: "1"})
	assert.NoError(t, err)
}

func TestCategoryUseCase_ReportSinGenerador(t *testing.T) {
	uc, _, _ := newJewelryUC(t)

	_, err := uc.Report(context.Background(), companyA)
	assert.Error(t, err)
}
