package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdjustStockRequest body para POST /stock/adjustments (delta con signo).
type AdjustStockRequest struct {
	ProductID string          `json:"product_id" validate:"required,max=64"`
	Location  string          `json:"location,omitempty" validate:"max=64"`
	Delta     decimal.Decimal `json:"delta"`
	Notes     string          `json:"notes" validate:"max=500"`
}

// StockResponse stock de un producto en una ubicación.
type StockResponse struct {
	ProductID        string          `json:"product_id"`
	Location         string          `json:"location"`
	Quantity         decimal.Decimal `json:"quantity"`
	ReservedQuantity decimal.Decimal `json:"reserved_quantity"`
	Available        decimal.Decimal `json:"available"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// StockMovementResponse movimiento del ledger de stock.
type StockMovementResponse struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"product_id"`
	Location      string          `json:"location"`
	Type          string          `json:"type"`
	Quantity      decimal.Decimal `json:"quantity"`
	ReferenceType string          `json:"reference_type"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	CreatedBy     string          `json:"created_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}
