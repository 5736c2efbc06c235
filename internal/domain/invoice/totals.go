package invoice

import (
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Escalas máximas que admiten las columnas de invoice_items y stock.
const (
	PricePlaces    = 2
	QuantityPlaces = 4
)

// FitsPlaces indica si d se representa sin pérdida con a lo sumo places decimales.
// "10.50" y "10.500" caben en 2; "10.005" no.
func FitsPlaces(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Truncate(places))
}

// LineTotal = quantity × unit_price, exacto. Con las escalas anteriores el producto
// tiene a lo sumo PricePlaces+QuantityPlaces decimales.
func LineTotal(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice)
}

// Total suma los LineTotal de los ítems (aritmética decimal exacta, sin float).
func Total(items []*entity.InvoiceItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal)
	}
	return total
}

// ApplyLineTotals recalcula LineTotal de cada ítem desde cantidad y precio y devuelve el total.
// Nunca se confía en totales enviados por el cliente.
func ApplyLineTotals(items []*entity.InvoiceItem) decimal.Decimal {
	for _, it := range items {
		it.LineTotal = LineTotal(it.Quantity, it.UnitPrice)
	}
	return Total(items)
}
