package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var (
	_ repository.StockRepository         = (*StockRepo)(nil)
	_ repository.StockMovementRepository = (*StockMovementRepo)(nil)
)

// StockRepo registros de stock en memoria.
type StockRepo struct{ v view }

func (r *StockRepo) Get(_ context.Context, productID, location string) (*entity.Stock, error) {
	var out *entity.Stock
	err := r.v.do(func(st *state) error {
		if s, ok := st.stock[stockKey{productID, location}]; ok {
			out = &s
		}
		return nil
	})
	return out, err
}

func (r *StockRepo) GetForUpdate(ctx context.Context, productID, location string) (*entity.Stock, error) {
	return r.Get(ctx, productID, location)
}

func (r *StockRepo) Upsert(_ context.Context, stock *entity.Stock) error {
	return r.v.do(func(st *state) error {
		st.stock[stockKey{stock.ProductID, stock.Location}] = *stock
		return nil
	})
}

func (r *StockRepo) EnsureRow(_ context.Context, productID, location string) error {
	return r.v.do(func(st *state) error {
		key := stockKey{productID, location}
		if _, ok := st.stock[key]; !ok {
			st.stock[key] = entity.Stock{
				ProductID:        productID,
				Location:         location,
				Quantity:         decimal.Zero,
				ReservedQuantity: decimal.Zero,
				UpdatedAt:        time.Now().UTC(),
			}
		}
		return nil
	})
}

// StockMovementRepo ledger append-only en memoria.
type StockMovementRepo struct{ v view }

func (r *StockMovementRepo) Create(_ context.Context, m *entity.StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return r.v.do(func(st *state) error {
		st.movements = append(st.movements, *m)
		return nil
	})
}

func (r *StockMovementRepo) ListByReference(_ context.Context, referenceType, referenceID string) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	err := r.v.do(func(st *state) error {
		for _, m := range st.movements {
			if m.ReferenceType == referenceType && m.ReferenceID == referenceID {
				m := m
				out = append(out, &m)
			}
		}
		return nil
	})
	return out, err
}

func (r *StockMovementRepo) ListByProduct(_ context.Context, productID string, limit, offset int) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	err := r.v.do(func(st *state) error {
		for i := len(st.movements) - 1; i >= 0; i-- {
			m := st.movements[i]
			if m.ProductID == productID {
				out = append(out, &m)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, offset), err
}
