package category

import "github.com/jhoicas/goldshop-api/internal/domain/entity"

// Rollup calcula en postorden Rollup = Own + Σ Rollup(hijo) para node y todo su
// subárbol, y devuelve el total del nodo. Medidas NaN o infinitas cuentan como cero.
func Rollup(node *Node) entity.Measures {
	if node == nil {
		return entity.Measures{}
	}
	total := node.Own.Sanitized()
	for _, child := range node.Children {
		total = total.Add(Rollup(child))
	}
	node.Rollup = total
	return total
}

// RollupAll recalcula todas las raíces y devuelve el total del bosque.
func RollupAll(nodes []*Node) entity.Measures {
	var total entity.Measures
	for _, n := range nodes {
		total = total.Add(Rollup(n))
	}
	return total
}

// ApplyMeasures asigna a cada nodo sus medidas propias; sin entrada en own valen cero.
func ApplyMeasures(nodes []*Node, own map[string]entity.Measures) {
	for _, n := range nodes {
		n.Own = own[n.ID].Sanitized()
		ApplyMeasures(n.Children, own)
	}
}

// Build encadena construcción del bosque, medidas propias y agregación.
func Build(categories []entity.Category, own map[string]entity.Measures) []*Node {
	nodes := BuildTree(categories, "")
	ApplyMeasures(nodes, own)
	RollupAll(nodes)
	return nodes
}
