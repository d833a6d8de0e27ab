package entity

import (
	"math"
	"time"
)

// Category representa una categoría de productos dentro de una jerarquía (bosque con varias raíces).
type Category struct {
	ID          string
	CompanyID   string
	ParentID    string // vacío si es raíz
	Name        string
	Description string
	Code        string // código único por empresa (opcional)
	SortOrder   int
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsRoot indica si la categoría no declara padre.
func (c Category) IsRoot() bool {
	return c.ParentID == ""
}

// Measures agrupa las medidas de inventario asociadas a una categoría.
// Las aporta el inventario (productos que referencian la categoría), no la categoría misma.
type Measures struct {
	ItemCount  int64   `json:"item_count"`
	TotalStock float64 `json:"total_stock"`
	TotalValue float64 `json:"total_value"`
}

// Add suma dos medidas. Ambos operandos se sanean antes de sumar.
func (m Measures) Add(o Measures) Measures {
	a, b := m.Sanitized(), o.Sanitized()
	return Measures{
		ItemCount:  a.ItemCount + b.ItemCount,
		TotalStock: a.TotalStock + b.TotalStock,
		TotalValue: a.TotalValue + b.TotalValue,
	}
}

// Sanitized reemplaza NaN e infinitos por cero.
func (m Measures) Sanitized() Measures {
	return Measures{
		ItemCount:  m.ItemCount,
		TotalStock: finiteOrZero(m.TotalStock),
		TotalValue: finiteOrZero(m.TotalValue),
	}
}

func finiteOrZero(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
