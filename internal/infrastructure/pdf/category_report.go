// Package pdf genera el reporte PDF del árbol de categorías con sus agregados.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título + fecha de generación                       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Categoría (sangría por nivel) | Ítems | Stock | Valor│
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES                                                    │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	coreentity "github.com/johnfercher/maroto/v2/pkg/core/entity"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/johnfercher/maroto/v2/pkg/repository"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/goldshop-api/internal/application/usecase"
	"github.com/jhoicas/goldshop-api/internal/domain/category"
	"github.com/jhoicas/goldshop-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

const indentPerLevel = 4.0 // mm

// ── Generator ─────────────────────────────────────────────────────────────────

var _ usecase.CategoryReportGenerator = (*CategoryReportGenerator)(nil)

// FontConfig rutas a fuentes TrueType con cobertura Unicode (p. ej. Vazirmatn para persa).
// Sin Regular se usa Helvetica, que solo cubre Latin-1.
type FontConfig struct {
	Regular string
	Bold    string // vacío = Regular
}

const (
	coreFamily    = "helvetica"
	unicodeFamily = "report-unicode"
)

// CategoryReportGenerator implementa usecase.CategoryReportGenerator usando Maroto v2.
type CategoryReportGenerator struct {
	now    func() time.Time
	family string
	fonts  []*coreentity.CustomFont
}

// NewCategoryReportGenerator construye el generador y carga las fuentes configuradas.
func NewCategoryReportGenerator(fonts FontConfig) (*CategoryReportGenerator, error) {
	g := &CategoryReportGenerator{now: time.Now, family: coreFamily}
	if fonts.Regular == "" {
		return g, nil
	}
	bold := fonts.Bold
	if bold == "" {
		bold = fonts.Regular
	}
	loaded, err := repository.New().
		AddUTF8Font(unicodeFamily, fontstyle.Normal, fonts.Regular).
		AddUTF8Font(unicodeFamily, fontstyle.Italic, fonts.Regular).
		AddUTF8Font(unicodeFamily, fontstyle.Bold, bold).
		AddUTF8Font(unicodeFamily, fontstyle.BoldItalic, bold).
		Load()
	if err != nil {
		return nil, fmt.Errorf("pdf: cargar fuentes: %w", err)
	}
	g.family, g.fonts = unicodeFamily, loaded
	return g, nil
}

// GenerateCategoryReport genera el PDF (una fila por categoría, en preorden) y devuelve sus bytes.
// Los nodos deben venir con Rollup ya calculado.
func (g *CategoryReportGenerator) GenerateCategoryReport(_ context.Context, nodes []*category.Node, totals entity.Measures) ([]byte, error) {
	b := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: g.family, Size: 9}).
		WithTitle("Reporte de categorías", true)
	if len(g.fonts) > 0 {
		b = b.WithCustomFonts(g.fonts)
	}
	cfg := b.Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(g.now()))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	m.AddRows(nodeRows(nodes, 0, nil)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(totals))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(at time.Time) core.Row {
	return row.New(14).Add(
		col.New(8).Add(
			text.New("ÁRBOL DE CATEGORÍAS", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Ítems, stock y valor agregados por rama", props.Text{
				Size: 8, Top: 8, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New("Generado: "+at.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 2, Color: colorGray,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Categoría", 6, align.Left),
		h("Ítems", 2, align.Right),
		h("Stock", 2, align.Right),
		h("Valor", 2, align.Right),
	).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

// nodeRows recorre en preorden; la sangría refleja la profundidad.
func nodeRows(nodes []*category.Node, depth int, out []core.Row) []core.Row {
	for _, n := range nodes {
		style := fontstyle.Normal
		if depth == 0 {
			style = fontstyle.Bold
		}
		name := n.Name
		if !n.IsActive {
			name += " (inactiva)"
		}
		out = append(out, row.New(6).Add(
			col.New(6).Add(text.New(name, props.Text{
				Size: 8, Style: style, Top: 1, Left: 1 + float64(depth)*indentPerLevel,
			})),
			col.New(2).Add(text.New(fmt.Sprintf("%d", n.Rollup.ItemCount),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(formatQty(n.Rollup.TotalStock),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(formatMoney(n.Rollup.TotalValue),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
		out = nodeRows(n.Children, depth+1, out)
	}
	return out
}

func totalsRow(t entity.Measures) core.Row {
	bold := func(s string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: a, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(9).Add(
		bold("TOTAL", 6, align.Left),
		bold(fmt.Sprintf("%d", t.ItemCount), 2, align.Right),
		bold(formatQty(t.TotalStock), 2, align.Right),
		bold(formatMoney(t.TotalValue), 2, align.Right),
	)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func formatQty(v float64) string {
	return decimal.NewFromFloat(v).Round(3).String()
}

func formatMoney(v float64) string {
	return "$ " + decimal.NewFromFloat(v).StringFixed(2)
}
