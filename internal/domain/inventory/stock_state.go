package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pyme-stock-api/internal/domain/entity"
)

// StockState es la variante etiquetada del stock de un producto: AggregateState o BatchState.
// El motor despacha con un type switch exhaustivo; las dos rutas no pueden aplicarse a la vez.
type StockState interface {
	Level() decimal.Decimal
	isStockState()
}

// AggregateState stock por cantidad agregada (ManagesBatches=false).
type AggregateState struct {
	Quantity decimal.Decimal
}

// Level devuelve la cantidad agregada.
func (s *AggregateState) Level() decimal.Decimal { return s.Quantity }
func (*AggregateState) isStockState()            {}

// BatchState stock por lotes (ManagesBatches=true). Batches son los lotes activos en orden FIFO.
type BatchState struct {
	Batches []*entity.Batch
}

// Level devuelve la suma de lotes activos.
func (s *BatchState) Level() decimal.Decimal { return SumActive(s.Batches) }
func (*BatchState) isStockState()            {}

// SumActive suma la cantidad de los lotes activos.
func SumActive(batches []*entity.Batch) decimal.Decimal {
	total := decimal.Zero
	for _, b := range batches {
		if b.IsActive() {
			total = total.Add(b.Quantity)
		}
	}
	return total
}
