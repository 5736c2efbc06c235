// Package invoice orquesta el ciclo de vida de una factura: creación con reserva de stock,
// cambios de estado con su efecto en inventario, bitácora y eventos de notificación.
package invoice

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/logistica-api/internal/application/dto"
	"github.com/jhoicas/logistica-api/internal/application/notification"
	"github.com/jhoicas/logistica-api/internal/application/stock"
	"github.com/jhoicas/logistica-api/internal/domain"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	domaininvoice "github.com/jhoicas/logistica-api/internal/domain/invoice"
	domainnotif "github.com/jhoicas/logistica-api/internal/domain/notification"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
	"github.com/jhoicas/logistica-api/pkg/logger"
)

// Notifier despierta al worker del outbox después de un commit.
type Notifier interface {
	Notify()
}

// Service casos de uso de facturas.
type Service struct {
	store    repository.Store
	stock    *stock.Engine
	notifier Notifier
	log      *logger.Logger
	now      func() time.Time
}

// NewService construye el servicio. notifier puede ser nil: el worker igual hace polling.
func NewService(store repository.Store, engine *stock.Engine, notifier Notifier, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		store:    store,
		stock:    engine,
		notifier: notifier,
		log:      log.Named("invoice"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) notify() {
	if s.notifier != nil {
		s.notifier.Notify()
	}
}

// Create valida, calcula totales y persiste factura, ítems, bitácora, evento y reserva en una
// sola transacción. La reserva va al final para que los bloqueos de stock duren lo mínimo.
func (s *Service) Create(ctx context.Context, actor entity.Actor, in dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	deliveryDate, err := time.Parse(dto.DateLayout, in.DeliveryDate)
	if err != nil {
		return nil, domain.NewValidationError("delivery_date", "formato de fecha inválido (esperado 2006-01-02)")
	}
	clientID, err := resolveClient(actor, in.ClientID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	inv := &entity.Invoice{
		ID:            uuid.New().String(),
		InvoiceNumber: strings.TrimSpace(in.InvoiceNumber),
		ClientID:      clientID,
		Status:        entity.InvoiceStatusPending,
		InvoiceDate:   now,
		DeliveryDate:  deliveryDate,
		Notes:         in.Notes,
		TrackingCode:  in.TrackingCode,
		CreatedBy:     actor.UserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if inv.InvoiceNumber == "" {
		inv.InvoiceNumber = "INV-" + strings.ToUpper(strconv.FormatInt(now.UnixNano(), 36))
	}

	items := make([]*entity.InvoiceItem, 0, len(in.Items))
	var lines []stock.ReserveLine
	for i, it := range in.Items {
		field := fmt.Sprintf("items[%d]", i)
		if !it.Quantity.IsPositive() {
			return nil, domain.NewValidationError(field+".quantity", "debe ser mayor que cero")
		}
		if !domaininvoice.FitsPlaces(it.Quantity, domaininvoice.QuantityPlaces) {
			return nil, domain.NewValidationError(field+".quantity",
				fmt.Sprintf("admite como máximo %d decimales", domaininvoice.QuantityPlaces))
		}
		if !it.UnitPrice.IsPositive() {
			return nil, domain.NewValidationError(field+".unit_price", "debe ser mayor que cero")
		}
		if !domaininvoice.FitsPlaces(it.UnitPrice, domaininvoice.PricePlaces) {
			return nil, domain.NewValidationError(field+".unit_price",
				fmt.Sprintf("admite como máximo %d decimales", domaininvoice.PricePlaces))
		}
		location := it.Location
		if location == "" {
			location = s.stock.DefaultLocation()
		}
		item := &entity.InvoiceItem{
			ID:          uuid.New().String(),
			InvoiceID:   inv.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Location:    location,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		}
		items = append(items, item)
		if item.Stocked() {
			lines = append(lines, stock.ReserveLine{ProductID: item.ProductID, Location: location, Quantity: item.Quantity})
		}
	}
	inv.TotalAmount = domaininvoice.ApplyLineTotals(items)

	err = s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		if err := repos.Invoices.Create(ctx, inv); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				return domain.NewValidationError("invoice_number", "ya existe una factura con ese número")
			}
			return err
		}
		for _, item := range items {
			if err := repos.Invoices.CreateItem(ctx, item); err != nil {
				return err
			}
		}
		stored, err := repos.Invoices.RecomputeTotal(ctx, inv.ID)
		if err != nil {
			return err
		}
		if !stored.TotalAmount.Equal(inv.TotalAmount) {
			return fmt.Errorf("total persistido %s distinto del calculado %s", stored.TotalAmount, inv.TotalAmount)
		}
		if err := appendLog(ctx, repos, inv.ID, actor.UserID, entity.LogActionCreated, "", entity.InvoiceStatusPending,
			"Factura "+inv.InvoiceNumber+" creada", now); err != nil {
			return err
		}
		if actor.IsClient() {
			if err := notification.Enqueue(ctx, repos.Outbox, domainnotif.Event{
				Type:          entity.NotificationNewInvoice,
				InvoiceID:     inv.ID,
				InvoiceNumber: inv.InvoiceNumber,
				ClientID:      inv.ClientID,
				Actor:         actor,
				Title:         "Nueva factura",
				Message:       fmt.Sprintf("Se creó la factura %s por %s", inv.InvoiceNumber, inv.TotalAmount.String()),
			}); err != nil {
				return err
			}
		}
		if len(lines) == 0 {
			return nil
		}
		return s.stock.Reserve(ctx, repos, inv.ID, actor.UserID, lines)
	})
	if err != nil {
		return nil, err
	}
	s.notify()
	s.log.Info().Str("invoice_id", inv.ID).Str("invoice_number", inv.InvoiceNumber).
		Str("client_id", inv.ClientID).Str("total", inv.TotalAmount.String()).Msg("factura creada")
	return toInvoiceResponse(inv, items), nil
}

// resolveClient decide el cliente dueño de la factura según el actor.
func resolveClient(actor entity.Actor, requested string) (string, error) {
	switch {
	case actor.IsClient():
		if actor.ClientID == "" {
			return "", domain.ErrForbidden
		}
		if requested != "" && requested != actor.ClientID {
			return "", domain.ErrForbidden
		}
		return actor.ClientID, nil
	case actor.IsStaff():
		if requested == "" {
			return "", domain.NewValidationError("client_id", "es requerido")
		}
		return requested, nil
	}
	return "", domain.ErrForbidden
}

// ChangeStatus aplica un cambio de estado (o una edición sin cambio de estado) con la fila de la
// factura bloqueada. Entregar descuenta stock; cancelar con reservas abiertas las libera.
func (s *Service) ChangeStatus(ctx context.Context, actor entity.Actor, invoiceID string, in dto.UpdateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if !actor.IsStaff() {
		return nil, domain.ErrForbidden
	}
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	if !domaininvoice.ValidStatus(in.Status) {
		return nil, domain.NewValidationError("status", "estado desconocido: "+in.Status)
	}
	var deliveryDate *time.Time
	if in.DeliveryDate != nil {
		d, err := time.Parse(dto.DateLayout, *in.DeliveryDate)
		if err != nil {
			return nil, domain.NewValidationError("delivery_date", "formato de fecha inválido (esperado 2006-01-02)")
		}
		deliveryDate = &d
	}

	var inv *entity.Invoice
	var items []*entity.InvoiceItem
	var oldStatus string
	err := s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		var err error
		inv, err = repos.Invoices.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return domain.ErrNotFound
		}
		oldStatus = inv.Status
		now := s.now()

		if in.Notes != nil {
			inv.Notes = *in.Notes
		}
		if deliveryDate != nil {
			inv.DeliveryDate = *deliveryDate
		}
		if in.TrackingCode != nil {
			inv.TrackingCode = *in.TrackingCode
		}
		inv.UpdatedAt = now

		evt := domainnotif.Event{
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			ClientID:      inv.ClientID,
			Actor:         actor,
		}
		if in.Status == oldStatus {
			if err := repos.Invoices.Update(ctx, inv); err != nil {
				return err
			}
			if err := appendLog(ctx, repos, inv.ID, actor.UserID, entity.LogActionUpdated, oldStatus, oldStatus,
				"Factura actualizada sin cambio de estado", now); err != nil {
				return err
			}
			evt.Type = entity.NotificationInvoiceUpdate
			evt.Title = "Factura actualizada"
			evt.Message = fmt.Sprintf("La factura %s fue actualizada", inv.InvoiceNumber)
		} else {
			if err := domaininvoice.CheckTransition(oldStatus, in.Status); err != nil {
				return err
			}
			switch in.Status {
			case entity.InvoiceStatusDelivered:
				if err := s.stock.Deduct(ctx, repos, inv.ID, actor.UserID); err != nil {
					return err
				}
			case entity.InvoiceStatusCancelled:
				if domaininvoice.HoldsReservation(oldStatus) {
					if err := s.stock.Release(ctx, repos, inv.ID, actor.UserID); err != nil {
						return err
					}
				}
			}
			inv.Status = in.Status
			if err := repos.Invoices.Update(ctx, inv); err != nil {
				return err
			}
			if err := appendLog(ctx, repos, inv.ID, actor.UserID, entity.LogActionStatusChanged, oldStatus, in.Status,
				fmt.Sprintf("Estado cambiado de %s a %s", oldStatus, in.Status), now); err != nil {
				return err
			}
			evt.Type = entity.NotificationInvoiceStatus
			evt.Title = "Estado de factura actualizado"
			evt.Message = fmt.Sprintf("La factura %s pasó de %s a %s", inv.InvoiceNumber, oldStatus, in.Status)
		}
		if err := notification.Enqueue(ctx, repos.Outbox, evt); err != nil {
			return err
		}
		items, err = repos.Invoices.GetItems(ctx, inv.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notify()
	s.log.Info().Str("invoice_id", inv.ID).Str("old_status", oldStatus).Str("new_status", inv.Status).
		Str("actor_id", actor.UserID).Msg("estado de factura aplicado")
	return toInvoiceResponse(inv, items), nil
}

// Delete borra la factura (solo admin). Ítems y comentarios caen en cascada; los movimientos de
// stock y la bitácora se conservan.
func (s *Service) Delete(ctx context.Context, actor entity.Actor, invoiceID string) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	err := s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		deleted, err := repos.Invoices.Delete(ctx, invoiceID)
		if err != nil {
			return err
		}
		if !deleted {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Warn().Str("invoice_id", invoiceID).Str("actor_id", actor.UserID).
		Msg("factura eliminada; movimientos de stock conservados")
	return nil
}

func appendLog(ctx context.Context, repos repository.Repositories, invoiceID, userID, action, oldStatus, newStatus, description string, at time.Time) error {
	return repos.Logs.Create(ctx, &entity.InvoiceLog{
		ID:          uuid.New().String(),
		InvoiceID:   invoiceID,
		UserID:      userID,
		Action:      action,
		OldStatus:   oldStatus,
		NewStatus:   newStatus,
		Description: description,
		CreatedAt:   at,
	})
}
