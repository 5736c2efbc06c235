package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock representa el inventario de un producto en una ubicación.
// Invariante: 0 <= ReservedQuantity <= Quantity.
type Stock struct {
	ProductID        string
	Location         string
	Quantity         decimal.Decimal
	ReservedQuantity decimal.Decimal
	UpdatedAt        time.Time
}

// Available devuelve la cantidad libre para nuevas reservas.
func (s *Stock) Available() decimal.Decimal {
	return s.Quantity.Sub(s.ReservedQuantity)
}

// Valid verifica la invariante de reservas.
func (s *Stock) Valid() bool {
	return !s.ReservedQuantity.IsNegative() && s.ReservedQuantity.LessThanOrEqual(s.Quantity)
}
