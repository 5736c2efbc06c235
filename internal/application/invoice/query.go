package invoice

import (
	"context"

	"github.com/jhoicas/logistica-api/internal/application/dto"
	"github.com/jhoicas/logistica-api/internal/domain"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
)

// Get devuelve la factura con ítems. Un cliente solo ve las suyas.
func (s *Service) Get(ctx context.Context, actor entity.Actor, invoiceID string) (*dto.InvoiceResponse, error) {
	repos := s.store.Repos()
	inv, err := repos.Invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	if !actor.CanSeeClient(inv.ClientID) {
		return nil, domain.ErrForbidden
	}
	items, err := repos.Invoices.GetItems(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(inv, items), nil
}

// List lista facturas; para un cliente el filtro de cliente es siempre el propio.
func (s *Service) List(ctx context.Context, actor entity.Actor, q dto.ListInvoicesQuery) ([]dto.InvoiceResponse, error) {
	q.DefaultPage()
	if err := dto.Validate(q); err != nil {
		return nil, err
	}
	filter := repository.InvoiceFilter{ClientID: q.ClientID, Status: q.Status, Limit: q.Limit, Offset: q.Offset}
	switch {
	case actor.IsClient():
		if q.ClientID != "" && q.ClientID != actor.ClientID {
			return nil, domain.ErrForbidden
		}
		if actor.ClientID == "" {
			return nil, domain.ErrForbidden
		}
		filter.ClientID = actor.ClientID
	case !actor.IsStaff():
		return nil, domain.ErrForbidden
	}
	list, err := s.store.Repos().Invoices.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.InvoiceResponse, 0, len(list))
	for _, inv := range list {
		out = append(out, *toInvoiceResponse(inv, nil))
	}
	return out, nil
}

// Logs bitácora ordenada por (created_at, id). Sobrevive al borrado de la factura, pero solo
// el staff puede leer la de una factura eliminada.
func (s *Service) Logs(ctx context.Context, actor entity.Actor, invoiceID string) ([]dto.InvoiceLogResponse, error) {
	repos := s.store.Repos()
	inv, err := repos.Invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	switch {
	case inv != nil && !actor.CanSeeClient(inv.ClientID):
		return nil, domain.ErrForbidden
	case inv == nil && !actor.IsStaff():
		return nil, domain.ErrNotFound
	}
	logs, err := repos.Logs.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil && len(logs) == 0 {
		return nil, domain.ErrNotFound
	}
	out := make([]dto.InvoiceLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, dto.InvoiceLogResponse{
			ID:          l.ID,
			InvoiceID:   l.InvoiceID,
			UserID:      l.UserID,
			Action:      l.Action,
			OldStatus:   l.OldStatus,
			NewStatus:   l.NewStatus,
			Description: l.Description,
			CreatedAt:   l.CreatedAt,
		})
	}
	return out, nil
}

func toInvoiceResponse(inv *entity.Invoice, items []*entity.InvoiceItem) *dto.InvoiceResponse {
	out := &dto.InvoiceResponse{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		ClientID:      inv.ClientID,
		Status:        inv.Status,
		InvoiceDate:   inv.InvoiceDate,
		DeliveryDate:  inv.DeliveryDate.Format(dto.DateLayout),
		Notes:         inv.Notes,
		TotalAmount:   inv.TotalAmount,
		TrackingCode:  inv.TrackingCode,
		CreatedBy:     inv.CreatedBy,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
	for _, it := range items {
		out.Items = append(out.Items, dto.InvoiceItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Location:    it.Location,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			LineTotal:   it.LineTotal,
		})
	}
	return out
}
