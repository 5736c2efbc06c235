package stock

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jhoicas/logistica-api/internal/application/dto"
	"github.com/jhoicas/logistica-api/internal/domain"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	domaininvoice "github.com/jhoicas/logistica-api/internal/domain/invoice"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
)

// Adjust aplica un ajuste manual (solo admin). Crea el registro si no existe y nunca deja
// quantity por debajo de lo reservado.
func (e *Engine) Adjust(ctx context.Context, actor entity.Actor, in dto.AdjustStockRequest) (*dto.StockResponse, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	if in.Delta.IsZero() {
		return nil, domain.NewValidationError("delta", "no puede ser cero")
	}
	if !domaininvoice.FitsPlaces(in.Delta, domaininvoice.QuantityPlaces) {
		return nil, domain.NewValidationError("delta", fmt.Sprintf("admite como máximo %d decimales", domaininvoice.QuantityPlaces))
	}
	location := in.Location
	if location == "" {
		location = e.defaultLocation
	}

	var out *entity.Stock
	err := e.store.RunInTx(ctx, func(repos repository.Repositories) error {
		if err := repos.Stock.EnsureRow(ctx, in.ProductID, location); err != nil {
			return err
		}
		rec, err := repos.Stock.GetForUpdate(ctx, in.ProductID, location)
		if err != nil {
			return err
		}
		if rec == nil {
			return domain.ErrNotFound
		}
		next := rec.Quantity.Add(in.Delta)
		if next.IsNegative() || next.LessThan(rec.ReservedQuantity) {
			return &domain.InsufficientStockError{
				ProductID: in.ProductID,
				Location:  location,
				Requested: in.Delta.Neg(),
				Available: rec.Available(),
			}
		}
		now := e.now()
		rec.Quantity = next
		rec.UpdatedAt = now
		if err := e.save(ctx, repos, rec); err != nil {
			return err
		}
		if err := repos.Movements.Create(ctx, &entity.StockMovement{
			ID:            uuid.New().String(),
			ProductID:     in.ProductID,
			Location:      location,
			Type:          entity.MovementTypeAdjustment,
			Quantity:      in.Delta,
			ReferenceType: entity.ReferenceManual,
			Notes:         in.Notes,
			CreatedBy:     actor.UserID,
			CreatedAt:     now,
		}); err != nil {
			return err
		}
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toStockResponse(out), nil
}

// GetStock devuelve el stock de un producto; location vacío = ubicación por defecto.
func (e *Engine) GetStock(ctx context.Context, productID, location string) (*dto.StockResponse, error) {
	if productID == "" {
		return nil, domain.NewValidationError("product_id", "es requerido")
	}
	if location == "" {
		location = e.defaultLocation
	}
	rec, err := e.store.Repos().Stock.Get(ctx, productID, location)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	return toStockResponse(rec), nil
}

// ListMovements movimientos de un producto, más recientes primero.
func (e *Engine) ListMovements(ctx context.Context, productID string, page dto.PageRequest) ([]dto.StockMovementResponse, error) {
	page.DefaultPage()
	if err := dto.Validate(page); err != nil {
		return nil, err
	}
	movs, err := e.store.Repos().Movements.ListByProduct(ctx, productID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockMovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, dto.StockMovementResponse{
			ID:            m.ID,
			ProductID:     m.ProductID,
			Location:      m.Location,
			Type:          m.Type,
			Quantity:      m.Quantity,
			ReferenceType: m.ReferenceType,
			ReferenceID:   m.ReferenceID,
			Notes:         m.Notes,
			CreatedBy:     m.CreatedBy,
			CreatedAt:     m.CreatedAt,
		})
	}
	return out, nil
}

func toStockResponse(s *entity.Stock) *dto.StockResponse {
	return &dto.StockResponse{
		ProductID:        s.ProductID,
		Location:         s.Location,
		Quantity:         s.Quantity,
		ReservedQuantity: s.ReservedQuantity,
		Available:        s.Available(),
		UpdatedAt:        s.UpdatedAt,
	}
}
