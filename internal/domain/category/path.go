package category

import (
	"github.com/jhoicas/goldshop-api/internal/domain/entity"
)

// Path devuelve la ruta raíz → id tal como queda en el bosque de BuildTree, de modo
// que los huérfanos y los registros en ciclo tienen la misma ruta que en el árbol.
// Devuelve nil si id no existe.
func Path(categories []entity.Category, id string) []entity.Category {
	var path []entity.Category
	var walk func([]*Node) bool
	walk = func(nodes []*Node) bool {
		for _, n := range nodes {
			path = append(path, n.Category)
			if n.ID == id || walk(n.Children) {
				return true
			}
			path = path[:len(path)-1]
		}
		return false
	}
	if !walk(BuildTree(categories, "")) {
		return nil
	}
	return path
}

// Depth profundidad de id en el bosque (0 = raíz); -1 si no existe.
func Depth(categories []entity.Category, id string) int {
	return len(Path(categories, id)) - 1
}
