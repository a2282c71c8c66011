// Package pdf genera el reporte de lotes activos de un producto y su vencimiento.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Producto + SKU       │  Fecha de generación         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Lote | Ingreso | Vence | Días | Cantidad            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTAL ACTIVO                                               │
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
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	appinventory "github.com/jhoicas/pyme-stock-api/internal/application/inventory"
	"github.com/jhoicas/pyme-stock-api/internal/domain/entity"
	inv "github.com/jhoicas/pyme-stock-api/internal/domain/inventory"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 180, Green: 30, Blue: 30}
)

// expiryAlertDays lotes que vencen en este plazo se resaltan.
const expiryAlertDays = 7

var _ appinventory.BatchReportRenderer = (*BatchReportGenerator)(nil)

// BatchReportGenerator implementa inventory.BatchReportRenderer usando Maroto v2.
type BatchReportGenerator struct{}

// NewBatchReportGenerator construye el generador.
func NewBatchReportGenerator() *BatchReportGenerator { return &BatchReportGenerator{} }

// RenderBatchReport genera el PDF y devuelve sus bytes.
func (g *BatchReportGenerator) RenderBatchReport(
	_ context.Context,
	product *entity.Product,
	batches []*entity.Batch,
	generatedAt time.Time,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Reporte de lotes", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(product, generatedAt))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	if len(batches) == 0 {
		m.AddRows(row.New(8).Add(col.New(12).Add(
			text.New("Sin lotes activos", props.Text{Size: 8, Align: align.Center, Top: 2, Color: colorGray}),
		)))
	}
	for _, r := range tableDetailRows(batches, generatedAt) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalRow(inv.SumActive(batches)))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar reporte de lotes: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(product *entity.Product, generatedAt time.Time) core.Row {
	return row.New(18).Add(
		col.New(8).Add(
			text.New(product.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("SKU: %s   |   Categoría: %s", product.SKU, nonEmpty(product.Category, "-")), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New("REPORTE DE LOTES ACTIVOS", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New("Generado: "+generatedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Lote", 4, align.Left),
		h("Ingreso", 2, align.Center),
		h("Vence", 2, align.Center),
		h("Días", 1, align.Center),
		h("Cantidad", 3, align.Right),
	)
}

// tableDetailRows: una fila por lote, en orden FIFO.
func tableDetailRows(batches []*entity.Batch, now time.Time) []core.Row {
	result := make([]core.Row, 0, len(batches))
	for _, b := range batches {
		expires, days := "-", "-"
		style := props.Text{Size: 8, Align: align.Center, Top: 1}
		if b.ExpiresAt != nil {
			expires = b.ExpiresAt.Format("02/01/2006")
			left := daysUntil(now, *b.ExpiresAt)
			days = fmt.Sprintf("%d", left)
			if left <= expiryAlertDays {
				style.Color = colorAlert
				style.Style = fontstyle.Bold
			}
		}
		result = append(result, row.New(7).Add(
			col.New(4).Add(text.New(b.ID, props.Text{Size: 7, Top: 1, Left: 1})),
			col.New(2).Add(text.New(b.CreatedAt.Format("02/01/2006"), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(expires, style)),
			col.New(1).Add(text.New(days, style)),
			col.New(3).Add(text.New(b.Quantity.String(), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

func totalRow(total decimal.Decimal) core.Row {
	return row.New(10).Add(
		col.New(9).Add(text.New("TOTAL ACTIVO:", props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2, Top: 2,
		})),
		col.New(3).Add(text.New(total.String(), props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1, Top: 2,
		})),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// daysUntil días calendario hasta el vencimiento; negativo si ya venció.
func daysUntil(now, expires time.Time) int {
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(expires.Year(), expires.Month(), expires.Day(), 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}
