package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del ciclo de vida de una factura.
const (
	InvoiceStatusPending   = "pending"    // inicial
	InvoiceStatusInTransit = "in_transit" // despachada
	InvoiceStatusDelivered = "delivered"  // terminal
	InvoiceStatusCancelled = "cancelled"  // terminal
)

// Invoice representa la cabecera de una factura de entrega.
// TotalAmount siempre es la suma de LineTotal de sus ítems; InvoiceDate no se edita tras la creación.
type Invoice struct {
	ID            string
	InvoiceNumber string
	ClientID      string
	Status        string
	InvoiceDate   time.Time
	DeliveryDate  time.Time
	Notes         string
	TotalAmount   decimal.Decimal
	TrackingCode  string
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
