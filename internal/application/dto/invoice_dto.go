package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout formato de fecha de entrega en requests y responses.
const DateLayout = "2006-01-02"

// CreateInvoiceRequest body para POST /invoices. Los totales se calculan en el servidor.
type CreateInvoiceRequest struct {
	InvoiceNumber string               `json:"invoice_number" validate:"omitempty,max=64"`
	ClientID      string               `json:"client_id" validate:"omitempty,max=64"`
	DeliveryDate  string               `json:"delivery_date" validate:"required,datetime=2006-01-02"`
	Notes         string               `json:"notes" validate:"max=2000"`
	TrackingCode  string               `json:"tracking_code,omitempty" validate:"omitempty,max=128"`
	Items         []InvoiceItemRequest `json:"items" validate:"required,min=1,dive"`
}

// InvoiceItemRequest línea de factura. Sin product_id la línea no mueve stock.
type InvoiceItemRequest struct {
	ProductID   string          `json:"product_id" validate:"required_without=ProductName,max=64"`
	ProductName string          `json:"product_name" validate:"max=255"`
	Location    string          `json:"location,omitempty" validate:"max=64"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// UpdateInvoiceRequest body para PUT /invoices/:id (cambio de estado y campos editables).
type UpdateInvoiceRequest struct {
	Status       string  `json:"status" validate:"required"`
	Notes        *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
	DeliveryDate *string `json:"delivery_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	TrackingCode *string `json:"tracking_code,omitempty" validate:"omitempty,max=128"`
}

// ListInvoicesQuery filtros de GET /invoices.
type ListInvoicesQuery struct {
	Status   string `query:"status" validate:"omitempty,oneof=pending in_transit delivered cancelled"`
	ClientID string `query:"client_id"`
	PageRequest
}

// CreateInvoiceResponse respuesta 201 de POST /invoices.
type CreateInvoiceResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// InvoiceResponse factura con ítems.
type InvoiceResponse struct {
	ID            string                `json:"id"`
	InvoiceNumber string                `json:"invoice_number"`
	ClientID      string                `json:"client_id"`
	Status        string                `json:"status"`
	InvoiceDate   time.Time             `json:"invoice_date"`
	DeliveryDate  string                `json:"delivery_date"`
	Notes         string                `json:"notes"`
	TotalAmount   decimal.Decimal       `json:"total_amount"`
	TrackingCode  string                `json:"tracking_code,omitempty"`
	CreatedBy     string                `json:"created_by"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	Items         []InvoiceItemResponse `json:"items,omitempty"`
}

// InvoiceItemResponse línea de la factura en la respuesta.
type InvoiceItemResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id,omitempty"`
	ProductName string          `json:"product_name"`
	Location    string          `json:"location"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// InvoiceLogResponse entrada de la bitácora.
type InvoiceLogResponse struct {
	ID          string    `json:"id"`
	InvoiceID   string    `json:"invoice_id"`
	UserID      string    `json:"user_id,omitempty"`
	Action      string    `json:"action"`
	OldStatus   string    `json:"old_status,omitempty"`
	NewStatus   string    `json:"new_status,omitempty"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
