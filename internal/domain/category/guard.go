package category

import (
	"slices"

	"github.com/jhoicas/goldshop-api/internal/domain"
	"github.com/jhoicas/goldshop-api/internal/domain/entity"
)

// IsDescendant indica si targetID pertenece al subárbol de ancestor (sin contar a ancestor).
func IsDescendant(ancestor *Node, targetID string) bool {
	if ancestor == nil {
		return false
	}
	for _, child := range ancestor.Children {
		if child.ID == targetID || IsDescendant(child, targetID) {
			return true
		}
	}
	return false
}

// DescendantIDs devuelve el conjunto de IDs bajo id en la lista plana (sin incluir id).
func DescendantIDs(categories []entity.Category, id string) map[string]bool {
	ix := newIndex(categories)
	out := make(map[string]bool)
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range ix.children[cur] {
			if child.ID == id || out[child.ID] {
				continue
			}
			out[child.ID] = true
			queue = append(queue, child.ID)
		}
	}
	return out
}

// ReparentOption ajusta el comportamiento de Reparent.
type ReparentOption func(*reparentOptions)

type reparentOptions struct {
	position *int
}

// WithPosition pide renumerar los hermanos del nuevo padre (0..n-1) dejando la
// categoría movida en la posición indicada. Sin esta opción SortOrder no cambia.
func WithPosition(pos int) ReparentOption {
	return func(o *reparentOptions) {
		o.position = &pos
	}
}

// CanReparent valida el movimiento sin aplicarlo.
// newParentID vacío significa mover la categoría a la raíz.
func CanReparent(categories []entity.Category, movedID, newParentID string) error {
	if movedID == "" {
		return domain.ErrInvalidInput
	}
	if movedID == newParentID {
		return domain.ErrSelfParent
	}
	var movedFound, parentFound bool
	for _, c := range categories {
		if c.ID == movedID {
			movedFound = true
		}
		if c.ID == newParentID {
			parentFound = true
		}
	}
	if !movedFound || (newParentID != "" && !parentFound) {
		return domain.ErrNotFound
	}
	if newParentID != "" && DescendantIDs(categories, movedID)[newParentID] {
		return domain.ErrCycle
	}
	return nil
}

// Reparent devuelve una copia de categories con movedID colgado de newParentID.
// Si el movimiento crearía un ciclo (o es sobre sí misma) se rechaza y la entrada
// no se modifica; la lista original nunca se muta.
func Reparent(categories []entity.Category, movedID, newParentID string, opts ...ReparentOption) ([]entity.Category, error) {
	if err := CanReparent(categories, movedID, newParentID); err != nil {
		return nil, err
	}
	var o reparentOptions
	for _, opt := range opts {
		opt(&o)
	}

	out := slices.Clone(categories)
	for i := range out {
		if out[i].ID == movedID {
			out[i].ParentID = newParentID
		}
	}
	if o.position != nil {
		renumberSiblings(out, movedID, newParentID, *o.position)
	}
	return out, nil
}

// renumberSiblings reasigna SortOrder a los hijos efectivos de parentID con movedID en pos.
func renumberSiblings(categories []entity.Category, movedID, parentID string, pos int) {
	exists := make(map[string]bool, len(categories))
	for _, c := range categories {
		exists[c.ID] = true
	}
	var siblings []*entity.Category
	var moved *entity.Category
	for i := range categories {
		c := &categories[i]
		parent := c.ParentID
		if !exists[parent] {
			parent = ""
		}
		if parent != parentID {
			continue
		}
		if c.ID == movedID {
			moved = c
			continue
		}
		siblings = append(siblings, c)
	}
	if moved == nil {
		return
	}
	sortSiblings(siblings, func(c *entity.Category) *entity.Category { return c })
	pos = max(0, min(pos, len(siblings)))
	siblings = slices.Insert(siblings, pos, moved)
	for i, c := range siblings {
		c.SortOrder = i
	}
}
