// Package comment implementa el canal de comentarios de una factura: hilo con comentarios
// internos solo para staff, bitácora y notificación al otro lado de la conversación.
package comment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/logistica-api/internal/application/dto"
	"github.com/jhoicas/logistica-api/internal/application/notification"
	"github.com/jhoicas/logistica-api/internal/domain"
	domaincomment "github.com/jhoicas/logistica-api/internal/domain/comment"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	domainnotif "github.com/jhoicas/logistica-api/internal/domain/notification"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
	"github.com/jhoicas/logistica-api/pkg/logger"
)

// Notifier despierta al worker del outbox después de un commit.
type Notifier interface {
	Notify()
}

// Service casos de uso de comentarios.
type Service struct {
	store    repository.Store
	notifier Notifier
	log      *logger.Logger
	now      func() time.Time
}

// NewService construye el servicio de comentarios.
func NewService(store repository.Store, notifier Notifier, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		store:    store,
		notifier: notifier,
		log:      log.Named("comment"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) notify() {
	if s.notifier != nil {
		s.notifier.Notify()
	}
}

func cleanText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.NewValidationError("comment_text", "no puede estar vacío")
	}
	return text, nil
}

// visibleInvoice carga la factura y verifica que el actor pueda verla.
func visibleInvoice(ctx context.Context, repos repository.Repositories, actor entity.Actor, invoiceID string) (*entity.Invoice, error) {
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
	return inv, nil
}

// Post publica un comentario. Comentario, bitácora y evento se escriben en la misma transacción.
func (s *Service) Post(ctx context.Context, actor entity.Actor, in dto.PostCommentRequest) (*dto.CommentResponse, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	text, err := cleanText(in.CommentText)
	if err != nil {
		return nil, err
	}
	if in.UserID != "" && in.UserID != actor.UserID {
		return nil, domain.ErrForbidden
	}
	if in.IsInternal && !domaincomment.CanPostInternal(actor) {
		return nil, domain.ErrForbidden
	}

	now := s.now()
	c := &entity.Comment{
		ID:          uuid.New().String(),
		InvoiceID:   in.InvoiceID,
		UserID:      actor.UserID,
		CommentText: text,
		IsInternal:  in.IsInternal,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	preview := domaincomment.Preview(text)
	err = s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		inv, err := visibleInvoice(ctx, repos, actor, in.InvoiceID)
		if err != nil {
			return err
		}
		if err := repos.Comments.Create(ctx, c); err != nil {
			return err
		}
		if err := appendLog(ctx, repos, inv.ID, actor.UserID, entity.LogActionComment, preview, now); err != nil {
			return err
		}
		return notification.Enqueue(ctx, repos.Outbox, domainnotif.Event{
			Type:          entity.NotificationComment,
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			ClientID:      inv.ClientID,
			Actor:         actor,
			Title:         "Nuevo comentario en la factura " + inv.InvoiceNumber,
			Message:       preview,
			IsInternal:    c.IsInternal,
		})
	})
	if err != nil {
		return nil, err
	}
	s.notify()
	s.log.Debug().Str("comment_id", c.ID).Str("invoice_id", c.InvoiceID).Bool("internal", c.IsInternal).Msg("comentario publicado")
	return toResponse(c), nil
}

// Edit reemplaza el texto. Solo el autor.
func (s *Service) Edit(ctx context.Context, actor entity.Actor, commentID string, in dto.EditCommentRequest) (*dto.CommentResponse, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	text, err := cleanText(in.CommentText)
	if err != nil {
		return nil, err
	}
	var c *entity.Comment
	err = s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		var err error
		c, err = repos.Comments.GetByID(ctx, commentID)
		if err != nil {
			return err
		}
		if c == nil {
			return domain.ErrNotFound
		}
		if !domaincomment.CanEdit(actor, c) {
			return domain.ErrForbidden
		}
		inv, err := repos.Invoices.GetByID(ctx, c.InvoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return domain.ErrNotFound
		}
		now := s.now()
		c.CommentText = text
		c.UpdatedAt = now
		if err := repos.Comments.Update(ctx, c); err != nil {
			return err
		}
		preview := domaincomment.Preview(text)
		if err := appendLog(ctx, repos, inv.ID, actor.UserID, entity.LogActionCommentEdit, preview, now); err != nil {
			return err
		}
		return notification.Enqueue(ctx, repos.Outbox, domainnotif.Event{
			Type:          entity.NotificationComment,
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			ClientID:      inv.ClientID,
			Actor:         actor,
			Title:         "Comentario editado en la factura " + inv.InvoiceNumber,
			Message:       preview,
			IsInternal:    c.IsInternal,
		})
	})
	if err != nil {
		return nil, err
	}
	s.notify()
	return toResponse(c), nil
}

// Delete borra el comentario. El autor o un admin; no notifica.
func (s *Service) Delete(ctx context.Context, actor entity.Actor, commentID string) error {
	return s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		c, err := repos.Comments.GetByID(ctx, commentID)
		if err != nil {
			return err
		}
		if c == nil {
			return domain.ErrNotFound
		}
		if !domaincomment.CanDelete(actor, c) {
			return domain.ErrForbidden
		}
		if err := repos.Comments.Delete(ctx, c.ID); err != nil {
			return err
		}
		desc := "Comentario eliminado"
		if actor.UserID != c.UserID {
			desc = fmt.Sprintf("Comentario de %s eliminado por administración", c.UserID)
		}
		return appendLog(ctx, repos, c.InvoiceID, actor.UserID, entity.LogActionCommentDelete, desc, s.now())
	})
}

// List hilo de la factura en orden de publicación. Los internos se filtran en la consulta.
func (s *Service) List(ctx context.Context, actor entity.Actor, invoiceID string) ([]dto.CommentResponse, error) {
	repos := s.store.Repos()
	if _, err := visibleInvoice(ctx, repos, actor, invoiceID); err != nil {
		return nil, err
	}
	list, err := repos.Comments.ListByInvoice(ctx, invoiceID, domaincomment.IncludeInternal(actor))
	if err != nil {
		return nil, err
	}
	out := make([]dto.CommentResponse, 0, len(list))
	for _, c := range list {
		out = append(out, *toResponse(c))
	}
	return out, nil
}

func appendLog(ctx context.Context, repos repository.Repositories, invoiceID, userID, action, description string, at time.Time) error {
	return repos.Logs.Create(ctx, &entity.InvoiceLog{
		ID:          uuid.New().String(),
		InvoiceID:   invoiceID,
		UserID:      userID,
		Action:      action,
		Description: description,
		CreatedAt:   at,
	})
}

func toResponse(c *entity.Comment) *dto.CommentResponse {
	return &dto.CommentResponse{
		ID:          c.ID,
		InvoiceID:   c.InvoiceID,
		UserID:      c.UserID,
		CommentText: c.CommentText,
		IsInternal:  c.IsInternal,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
