package category

// Predicate decide si un nodo coincide con un filtro.
type Predicate func(*Node) bool

// FilterTree conserva los nodos que coinciden con p o que tienen algún descendiente
// que coincide, anidados bajo sus ancestros originales. Devuelve copias: el bosque de
// entrada no se modifica. Aplicarlo dos veces con el mismo p da el mismo resultado.
func FilterTree(nodes []*Node, p Predicate) []*Node {
	if p == nil {
		p = func(*Node) bool { return true }
	}
	var out []*Node
	for _, n := range nodes {
		if n == nil {
			continue
		}
		children := FilterTree(n.Children, p)
		if !p(n) && len(children) == 0 {
			continue
		}
		cp := *n
		cp.Children = children
		out = append(out, &cp)
	}
	return out
}

// ExpandedFor devuelve el conjunto de nodos a expandir para que toda coincidencia de p
// quede visible: cada nodo con al menos un descendiente estricto que coincide.
func ExpandedFor(nodes []*Node, p Predicate) map[string]bool {
	expanded := make(map[string]bool)
	if p == nil {
		return expanded
	}
	var walk func(n *Node) bool
	walk = func(n *Node) bool {
		below := false
		for _, child := range n.Children {
			if walk(child) {
				below = true
			}
		}
		if below {
			expanded[n.ID] = true
		}
		return below || p(n)
	}
	for _, n := range nodes {
		walk(n)
	}
	return expanded
}

// And combina predicados; sin argumentos coincide con todo.
func And(ps ...Predicate) Predicate {
	return func(n *Node) bool {
		for _, p := range ps {
			if p != nil && !p(n) {
				return false
			}
		}
		return true
	}
}

// ActiveOnly coincide con las categorías activas.
func ActiveOnly() Predicate {
	return func(n *Node) bool { return n != nil && n.IsActive }
}
