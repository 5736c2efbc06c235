package repository

import (
	"context"

	"github.com/jhoicas/logistica-api/internal/domain/entity"
)

// StockMovementRepository define el puerto del ledger append-only de movimientos.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	ListByReference(ctx context.Context, referenceType, referenceID string) ([]*entity.StockMovement, error)
	ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.StockMovement, error)
}
