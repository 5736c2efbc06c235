package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Get obtiene el stock de un producto en una ubicación; nil si no hay registro.
func (r *StockRepo) Get(ctx context.Context, productID, location string) (*entity.Stock, error) {
	query := `
		SELECT product_id, location, quantity, reserved_quantity, updated_at
		FROM stock WHERE product_id = $1 AND location = $2`
	return r.get(ctx, query, productID, location)
}

// GetForUpdate obtiene el stock y bloquea la fila para update (SELECT FOR UPDATE).
func (r *StockRepo) GetForUpdate(ctx context.Context, productID, location string) (*entity.Stock, error) {
	query := `
		SELECT product_id, location, quantity, reserved_quantity, updated_at
		FROM stock WHERE product_id = $1 AND location = $2
		FOR UPDATE`
	return r.get(ctx, query, productID, location)
}

func (r *StockRepo) get(ctx context.Context, query, productID, location string) (*entity.Stock, error) {
	var s entity.Stock
	err := r.q.QueryRow(ctx, query, productID, location).Scan(
		&s.ProductID, &s.Location, &s.Quantity, &s.ReservedQuantity, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return &s, nil
}

// Upsert inserta o actualiza cantidad y reservado (por producto y ubicación).
// El CHECK de la tabla rechaza cualquier estado con reserved_quantity fuera de [0, quantity].
func (r *StockRepo) Upsert(ctx context.Context, stock *entity.Stock) error {
	query := `
		INSERT INTO stock (product_id, location, quantity, reserved_quantity, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (product_id, location)
		DO UPDATE SET quantity = EXCLUDED.quantity,
		              reserved_quantity = EXCLUDED.reserved_quantity,
		              updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		stock.ProductID, stock.Location, stock.Quantity, stock.ReservedQuantity, stock.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert stock: %w", err)
	}
	return nil
}

// EnsureRow crea el registro en cero si no existe.
func (r *StockRepo) EnsureRow(ctx context.Context, productID, location string) error {
	query := `
		INSERT INTO stock (product_id, location, quantity, reserved_quantity, updated_at)
		VALUES ($1, $2, 0, 0, now())
		ON CONFLICT (product_id, location) DO NOTHING`
	if _, err := r.q.Exec(ctx, query, productID, location); err != nil {
		return fmt.Errorf("ensure stock row: %w", err)
	}
	return nil
}
