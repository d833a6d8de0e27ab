package category_test

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/goldshop-api/internal/domain"
	"github.com/jhoicas/goldshop-api/internal/domain/category"
	"github.com/jhoicas/goldshop-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Propiedades sobre bosques aleatorios (semillas fijas para reproducibilidad)
// ──────────────────────────────────────────────────────────────────────────────

const propertyRuns = 200

var namePool = []string{"Gold", "gold", "Rings", "rings", "Coins", "Bars", "Sets", "Chains", "ANKLETS", "anklets"}

// randomForest genera una lista plana acíclica: cada padre es un ID anterior,
// vacío, o un ID inexistente (huérfano).
func randomForest(r *rand.Rand) ([]entity.Category, map[string]entity.Measures) {
	n := r.IntN(40)
	cats := make([]entity.Category, 0, n)
	own := make(map[string]entity.Measures, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("c%d", i)
		parent := ""
		switch x := r.IntN(10); {
		case x == 0:
			parent = "ghost-" + id
		case x < 3 || i == 0:
		default:
			parent = fmt.Sprintf("c%d", r.IntN(i))
		}
		cats = append(cats, entity.Category{
			ID:        id,
			ParentID:  parent,
			Name:      namePool[r.IntN(len(namePool))],
			SortOrder: r.IntN(3),
			IsActive:  r.IntN(4) != 0,
		})
		if r.IntN(5) != 0 {
			own[id] = entity.Measures{
				ItemCount:  int64(r.IntN(20)),
				TotalStock: float64(r.IntN(1000)) / 8,
				TotalValue: float64(r.IntN(100000)) / 4,
			}
		}
	}
	r.Shuffle(len(cats), func(i, j int) { cats[i], cats[j] = cats[j], cats[i] })
	return cats, own
}

func forEachForest(t *testing.T, fn func(t *testing.T, r *rand.Rand, cats []entity.Category, own map[string]entity.Measures)) {
	t.Helper()
	for seed := uint64(1); seed <= propertyRuns; seed++ {
		r := rand.New(rand.NewPCG(seed, seed*31))
		cats, own := randomForest(r)
		t.Run(fmt.Sprintf("seed_%d", seed), func(t *testing.T) {
			fn(t, r, cats, own)
		})
	}
}

func TestPropiedad_CompletitudIdaYVuelta(t *testing.T) {
	forEachForest(t, func(t *testing.T, _ *rand.Rand, cats []entity.Category, _ map[string]entity.Measures) {
		flat := category.Flatten(category.BuildTree(cats, ""))
		require.Len(t, flat, len(cats))
		seen := make(map[string]bool)
		for _, n := range flat {
			assert.False(t, seen[n.ID], "registro duplicado %s", n.ID)
			seen[n.ID] = true
		}
	})
}

func TestPropiedad_OrdenDeHermanos(t *testing.T) {
	forEachForest(t, func(t *testing.T, _ *rand.Rand, cats []entity.Category, _ map[string]entity.Measures) {
		roots := category.BuildTree(cats, "")
		check := func(siblings []*category.Node) {
			for i := 1; i < len(siblings); i++ {
				a, b := siblings[i-1], siblings[i]
				require.LessOrEqual(t, a.SortOrder, b.SortOrder)
				if a.SortOrder == b.SortOrder {
					require.LessOrEqual(t, strings.ToLower(a.Name), strings.ToLower(b.Name))
				}
			}
		}
		check(roots)
		for _, n := range category.Flatten(roots) {
			check(n.Children)
		}
	})
}

func TestPropiedad_ReparentMantieneAciclicidad(t *testing.T) {
	forEachForest(t, func(t *testing.T, r *rand.Rand, cats []entity.Category, _ map[string]entity.Measures) {
		if len(cats) == 0 {
			return
		}
		for k := 0; k < 10; k++ {
			moved := cats[r.IntN(len(cats))].ID
			target := cats[r.IntN(len(cats))].ID
			before := append([]entity.Category(nil), cats...)

			out, err := category.Reparent(cats, moved, target)
			require.Equal(t, before, cats, "Reparent nunca muta la entrada")

			if err != nil {
				require.True(t, errors.Is(err, domain.ErrSelfParent) || errors.Is(err, domain.ErrCycle), "error inesperado: %v", err)
				continue
			}
			roots := category.BuildTree(out, "")
			require.Len(t, category.Flatten(roots), len(out))
			assert.False(t, category.IsDescendant(category.Find(roots, moved), target))
			assert.True(t, category.IsDescendant(category.Find(roots, target), moved))
		}
	})
}

func TestPropiedad_RechazoDeCiclo(t *testing.T) {
	forEachForest(t, func(t *testing.T, _ *rand.Rand, cats []entity.Category, _ map[string]entity.Measures) {
		roots := category.BuildTree(cats, "")
		for _, a := range category.Flatten(roots) {
			for _, b := range category.Flatten(a.Children) {
				_, err := category.Reparent(cats, a.ID, b.ID)
				require.ErrorIs(t, err, domain.ErrCycle)
			}
		}
	})
}

func TestPropiedad_FiltroIdempotenteYConAncestros(t *testing.T) {
	forEachForest(t, func(t *testing.T, r *rand.Rand, cats []entity.Category, own map[string]entity.Measures) {
		roots := category.Build(cats, own)
		p := category.MatchText(namePool[r.IntN(len(namePool))][:3])

		once := category.FilterTree(roots, p)
		require.Equal(t, once, category.FilterTree(once, p))

		for _, n := range category.Flatten(roots) {
			if !p(n) {
				continue
			}
			require.NotNil(t, category.Find(once, n.ID), "coincidencia %s ausente", n.ID)
			for _, anc := range category.Path(cats, n.ID) {
				assert.NotNil(t, category.Find(once, anc.ID), "ancestro %s de %s ausente", anc.ID, n.ID)
			}
		}
	})
}

func TestPropiedad_RollupCorrecto(t *testing.T) {
	forEachForest(t, func(t *testing.T, _ *rand.Rand, cats []entity.Category, own map[string]entity.Measures) {
		roots := category.Build(cats, own)
		for _, n := range category.Flatten(roots) {
			var want entity.Measures
			for _, d := range category.Flatten([]*category.Node{n}) {
				want = want.Add(own[d.ID])
			}
			require.Equal(t, want.ItemCount, n.Rollup.ItemCount)
			require.InDelta(t, want.TotalStock, n.Rollup.TotalStock, 1e-6)
			require.InDelta(t, want.TotalValue, n.Rollup.TotalValue, 1e-6)
		}
	})
}
