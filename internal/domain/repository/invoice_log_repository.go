package repository

import (
	"context"

	"github.com/jhoicas/logistica-api/internal/domain/entity"
)

// InvoiceLogRepository define el puerto de la bitácora append-only.
type InvoiceLogRepository interface {
	Create(ctx context.Context, log *entity.InvoiceLog) error
	// ListByInvoice devuelve las entradas ordenadas por (created_at, id).
	ListByInvoice(ctx context.Context, invoiceID string) ([]*entity.InvoiceLog, error)
}
