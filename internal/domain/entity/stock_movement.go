package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de stock.
const (
	MovementTypeReserved   = "reserved"   // reserva ligada a una factura
	MovementTypeReleased   = "released"   // liberación de reserva (cancelación)
	MovementTypeOut        = "out"        // salida física (entrega)
	MovementTypeAdjustment = "adjustment" // ajuste manual
)

// Tipos de referencia de un movimiento.
const (
	ReferenceInvoice = "invoice"
	ReferenceManual  = "manual"
)

// StockMovement es un registro append-only de cada cambio de cantidad. Nunca se actualiza ni borra.
type StockMovement struct {
	ID            string
	ProductID     string
	Location      string
	Type          string
	Quantity      decimal.Decimal // con signo
	ReferenceType string
	ReferenceID   string
	Notes         string
	CreatedBy     string
	CreatedAt     time.Time
}
