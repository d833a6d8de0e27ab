package category_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/goldshop-api/internal/domain/category"
	"github.com/jhoicas/goldshop-api/internal/domain/entity"
)

func TestFilterTree_ConservaAncestrosDeLaCoincidencia(t *testing.T) {
	roots := category.Build(jewelry(), jewelryMeasures())

	filtered := category.FilterTree(roots, category.MatchText("Ring"))

	require.Len(t, filtered, 1)
	assert.Equal(t, "Jewelry", filtered[0].Name)
	assert.Equal(t, []string{"Rings"}, names(filtered[0].Children))
	assert.Equal(t, int64(10), filtered[0].Rollup.ItemCount, "el filtro no altera los agregados")
}

func TestFilterTree_SinCoincidenciasDevuelveVacio(t *testing.T) {
	roots := category.BuildTree(jewelry(), "")
	assert.Empty(t, category.FilterTree(roots, category.MatchText("watch")))
}

func TestFilterTree_EsIdempotente(t *testing.T) {
	roots := category.Build(append(jewelry(), cat("4", "2", "Ring boxes", 3)), nil)
	p := category.MatchText("ring")

	once := category.FilterTree(roots, p)
	twice := category.FilterTree(once, p)

	assert.Equal(t, once, twice)
}

func TestFilterTree_NoModificaLaEntrada(t *testing.T) {
	roots := category.BuildTree(jewelry(), "")

	_ = category.FilterTree(roots, category.MatchText("Ring"))

	assert.Len(t, roots[0].Children, 2)
}

func TestFilterTree_PadreCoincideSinHijos(t *testing.T) {
	roots := category.BuildTree(jewelry(), "")

	filtered := category.FilterTree(roots, category.MatchText("jewel"))

	require.Len(t, filtered, 1)
	assert.Empty(t, filtered[0].Children, "solo se conservan hijos que coinciden")
}

func TestFilterTree_SoloActivas(t *testing.T) {
	cats := jewelry()
	cats[2].IsActive = false
	roots := category.BuildTree(cats, "")

	filtered := category.FilterTree(roots, category.ActiveOnly())

	assert.Equal(t, []string{"Rings"}, names(filtered[0].Children))
}

func TestExpandedFor(t *testing.T) {
	cats := append(jewelry(), cat("4", "2", "Wedding", 0), cat("5", "", "Coins", 1))
	roots := category.BuildTree(cats, "")

	expanded := category.ExpandedFor(roots, category.MatchText("wedding"))

	assert.Equal(t, map[string]bool{"1": true, "2": true}, expanded)
}

func TestAnd(t *testing.T) {
	n := &category.Node{Category: entity.Category{Name: "Rings", IsActive: false}}

	assert.True(t, category.And()(n))
	assert.True(t, category.And(category.MatchText("ring"))(n))
	assert.False(t, category.And(category.MatchText("ring"), category.ActiveOnly())(n))
}
