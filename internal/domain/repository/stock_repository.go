package repository

import (
	"context"

	"github.com/jhoicas/logistica-api/internal/domain/entity"
)

// StockRepository define el puerto para consultar/actualizar stock por producto+ubicación.
// Usado dentro de transacciones para garantizar consistencia.
type StockRepository interface {
	// Get devuelve nil si no existe registro.
	Get(ctx context.Context, productID, location string) (*entity.Stock, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE). nil si no existe.
	GetForUpdate(ctx context.Context, productID, location string) (*entity.Stock, error)
	Upsert(ctx context.Context, stock *entity.Stock) error
	// EnsureRow crea el registro en cero si no existe (sin pisar uno concurrente).
	EnsureRow(ctx context.Context, productID, location string) error
}
