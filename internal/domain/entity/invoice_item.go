package entity

import "github.com/shopspring/decimal"

// InvoiceItem representa una línea de una factura. ProductID vacío = ítem ad hoc sin stock.
type InvoiceItem struct {
	ID          string
	InvoiceID   string
	ProductID   string
	ProductName string
	Location    string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

// Stocked indica si la línea mueve inventario.
func (i *InvoiceItem) Stocked() bool {
	return i.ProductID != ""
}
