package usecase

import (
	"context"
	"sync"

	"github.com/jhoicas/goldshop-api/internal/application/dto"
	"github.com/jhoicas/goldshop-api/internal/domain"
	"github.com/jhoicas/goldshop-api/internal/domain/category"
	"github.com/jhoicas/goldshop-api/internal/domain/entity"
	"github.com/jhoicas/goldshop-api/internal/domain/repository"
)

// CategoryTxRunner ejecuta fn con un repositorio de categorías atado a una transacción.
type CategoryTxRunner interface {
	RunCategories(ctx context.Context, fn func(repo repository.CategoryRepository) error) error
}

// CategorySnapshotCache cachea la foto (categorías + medidas) de una empresa.
type CategorySnapshotCache interface {
	Fetch(ctx context.Context, companyID string, loader func(context.Context) (*dto.CategorySnapshot, error)) (*dto.CategorySnapshot, error)
	Invalidate(ctx context.Context, companyID string) error
}

// ReparentGuard garantiza como máximo un movimiento en curso por categoría.
// Acquire devuelve domain.ErrMoveInFlight si ya hay uno; release es idempotente.
type ReparentGuard interface {
	Acquire(ctx context.Context, companyID, categoryID string) (release func(), err error)
}

// CategoryReportGenerator genera el reporte PDF del árbol agregado.
type CategoryReportGenerator interface {
	GenerateCategoryReport(ctx context.Context, nodes []*category.Node, totals entity.Measures) ([]byte, error)
}

// LocalReparentGuard implementación en memoria para una sola instancia (sin Redis).
type LocalReparentGuard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewLocalReparentGuard construye el guard en memoria.
func NewLocalReparentGuard() *LocalReparentGuard {
	return &LocalReparentGuard{inFlight: make(map[string]struct{})}
}

// Acquire reserva la categoría hasta que se llame release.
func (g *LocalReparentGuard) Acquire(_ context.Context, companyID, categoryID string) (func(), error) {
	key := companyID + ":" + categoryID
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inFlight[key]; busy {
		return nil, domain.ErrMoveInFlight
	}
	g.inFlight[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inFlight, key)
			g.mu.Unlock()
		})
	}, nil
}
