// Package category implementa el árbol de categorías del inventario: construcción
// del bosque a partir de la lista plana, guardas de movimiento (reparent) sin ciclos,
// filtrado que preserva la ruta de ancestros y agregación de medidas hoja → raíz.
//
// Todas las funciones son puras sobre datos en memoria: no hacen I/O ni usan locks.
// El árbol derivado se reconstruye completo ante cada cambio de la lista plana.
package category

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/jhoicas/goldshop-api/internal/domain/entity"
)

// Node es una categoría con sus hijos ordenados y las medidas agregadas del subárbol.
type Node struct {
	entity.Category
	Own      entity.Measures // medidas propias (aportadas por el inventario)
	Rollup   entity.Measures // Own + Σ Rollup de los hijos
	Children []*Node
}

// BuildTree construye el bosque cuyos nodos tienen como padre parentID ("" = raíces).
//
// Las categorías cuyo ParentID apunta a un ID inexistente se tratan como raíces.
// Los hermanos se ordenan por SortOrder ascendente y, a igual SortOrder, por nombre
// sin distinguir mayúsculas. Con parentID vacío cada registro aparece exactamente una
// vez, incluso los atrapados en un ciclo heredado del backend: se exponen como raíz
// y la arista que cierra el ciclo se descarta.
func BuildTree(categories []entity.Category, parentID string) []*Node {
	ix := newIndex(categories)
	visited := make(map[string]bool, len(categories))
	if parentID != "" {
		visited[parentID] = true
	}

	var nodes []*Node
	for _, c := range ix.children[parentID] {
		if visited[c.ID] {
			continue
		}
		nodes = append(nodes, ix.build(c, visited))
	}
	if parentID != "" {
		return nodes
	}

	// Registros en ciclo: ninguno es raíz ni huérfano, así que no se alcanzaron.
	rest := make([]entity.Category, 0)
	for _, c := range categories {
		if !visited[c.ID] {
			rest = append(rest, c)
		}
	}
	sortSiblings(rest, func(c entity.Category) *entity.Category { return &c })
	for _, c := range rest {
		if visited[c.ID] {
			continue
		}
		nodes = append(nodes, ix.build(c, visited))
	}
	sortSiblings(nodes, func(n *Node) *entity.Category { return &n.Category })
	return nodes
}

// Flatten recorre el bosque en preorden.
func Flatten(nodes []*Node) []*Node {
	var out []*Node
	var walk func([]*Node)
	walk = func(ns []*Node) {
		for _, n := range ns {
			out = append(out, n)
			walk(n.Children)
		}
	}
	walk(nodes)
	return out
}

// Find busca un nodo por ID en todo el bosque.
func Find(nodes []*Node, id string) *Node {
	for _, n := range nodes {
		if n.ID == id {
			return n
		}
		if found := Find(n.Children, id); found != nil {
			return found
		}
	}
	return nil
}

// index agrupa la lista plana por padre efectivo (huérfanos bajo "").
type index struct {
	children map[string][]entity.Category
}

func newIndex(categories []entity.Category) *index {
	exists := make(map[string]bool, len(categories))
	for _, c := range categories {
		exists[c.ID] = true
	}
	children := make(map[string][]entity.Category)
	for _, c := range categories {
		parent := c.ParentID
		if !exists[parent] {
			parent = ""
		}
		children[parent] = append(children[parent], c)
	}
	for k := range children {
		sortSiblings(children[k], func(c entity.Category) *entity.Category { return &c })
	}
	return &index{children: children}
}

func (ix *index) build(c entity.Category, visited map[string]bool) *Node {
	visited[c.ID] = true
	n := &Node{Category: c}
	for _, child := range ix.children[c.ID] {
		if visited[child.ID] {
			continue
		}
		n.Children = append(n.Children, ix.build(child, visited))
	}
	return n
}

// orderKey clave de orden entre hermanos. El ID solo desempata para que el orden sea determinista.
type orderKey struct {
	sortOrder int
	name      string
	id        string
}

func (a orderKey) compare(b orderKey) int {
	if a.sortOrder != b.sortOrder {
		if a.sortOrder < b.sortOrder {
			return -1
		}
		return 1
	}
	if c := strings.Compare(a.name, b.name); c != 0 {
		return c
	}
	return strings.Compare(a.id, b.id)
}

func sortSiblings[T any](items []T, categoryOf func(T) *entity.Category) {
	if len(items) < 2 {
		return
	}
	fold := cases.Fold()
	type entry struct {
		key  orderKey
		item T
	}
	entries := make([]entry, len(items))
	for i, it := range items {
		c := categoryOf(it)
		entries[i] = entry{
			key:  orderKey{sortOrder: c.SortOrder, name: fold.String(c.Name), id: c.ID},
			item: it,
		}
	}
	slices.SortStableFunc(entries, func(a, b entry) int { return a.key.compare(b.key) })
	for i := range entries {
		items[i] = entries[i].item
	}
}
