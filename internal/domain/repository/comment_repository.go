package repository

import (
	"context"

	"github.com/jhoicas/logistica-api/internal/domain/entity"
)

// CommentRepository define el puerto de persistencia para comentarios de facturas.
type CommentRepository interface {
	Create(ctx context.Context, comment *entity.Comment) error
	GetByID(ctx context.Context, id string) (*entity.Comment, error)
	Update(ctx context.Context, comment *entity.Comment) error
	Delete(ctx context.Context, id string) error
	// ListByInvoice con includeInternal=false excluye is_internal=true en la consulta.
	ListByInvoice(ctx context.Context, invoiceID string, includeInternal bool) ([]*entity.Comment, error)
}
