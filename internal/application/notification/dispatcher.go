// Package notification entrega eventos de dominio como notificaciones: calcula destinatarios,
// persiste una fila por destinatario y empuja a las sesiones en vivo.
package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	domainnotif "github.com/jhoicas/logistica-api/internal/domain/notification"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
	"github.com/jhoicas/logistica-api/pkg/logger"
)

// Publisher directorio de presencia: entrega un push a las sesiones abiertas de un usuario.
// Sin sesiones abiertas no es error; la fila persistida se lee en el siguiente poll.
type Publisher interface {
	Publish(userID string, push domainnotif.Push) error
}

// Dispatcher fanout de notificaciones.
type Dispatcher struct {
	store     repository.Store
	publisher Publisher
	log       *logger.Logger
	now       func() time.Time
}

// NewDispatcher construye el dispatcher. publisher puede ser nil (sin entrega en vivo).
func NewDispatcher(store repository.Store, publisher Publisher, log *logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.Nop()
	}
	return &Dispatcher{
		store:     store,
		publisher: publisher,
		log:       log.Named("dispatcher"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Dispatch persiste y luego empuja. Los fallos del push se registran, nunca se devuelven.
func (d *Dispatcher) Dispatch(ctx context.Context, evt domainnotif.Event) ([]*entity.Notification, error) {
	var created []*entity.Notification
	err := d.store.RunInTx(ctx, func(repos repository.Repositories) error {
		var err error
		created, err = d.Persist(ctx, repos, evt)
		return err
	})
	if err != nil {
		return nil, err
	}
	d.Push(created)
	return created, nil
}

// Persist inserta una notificación por destinatario con los repos de la tx del caller.
func (d *Dispatcher) Persist(ctx context.Context, repos repository.Repositories, evt domainnotif.Event) ([]*entity.Notification, error) {
	var staff, clientUsers []*entity.User
	var err error
	if domainnotif.NeedsStaff(evt) {
		if staff, err = repos.Users.ListByRoles(ctx, entity.RoleAdmin, entity.RoleAccountant); err != nil {
			return nil, err
		}
	}
	if domainnotif.NeedsClientUsers(evt) {
		if clientUsers, err = repos.Users.ListByClient(ctx, evt.ClientID); err != nil {
			return nil, err
		}
	}

	recipients := domainnotif.Recipients(evt, staff, clientUsers)
	now := d.now()
	created := make([]*entity.Notification, 0, len(recipients))
	for _, userID := range recipients {
		n := &entity.Notification{
			ID:        uuid.New().String(),
			UserID:    userID,
			Type:      evt.Type,
			Title:     evt.Title,
			Message:   evt.Message,
			InvoiceID: evt.InvoiceID,
			CreatedAt: now,
		}
		if err := repos.Notifications.Create(ctx, n); err != nil {
			return nil, err
		}
		created = append(created, n)
	}
	return created, nil
}

// Push entrega a las sesiones en vivo, en el orden de inserción.
func (d *Dispatcher) Push(created []*entity.Notification) {
	if d.publisher == nil {
		return
	}
	for _, n := range created {
		push := domainnotif.Push{Event: domainnotif.EventNewNotification, Data: n}
		if err := d.publisher.Publish(n.UserID, push); err != nil {
			d.log.Warn().Err(err).
				Str("user_id", n.UserID).
				Str("notification_id", n.ID).
				Msg("push de notificación falló; queda persistida")
		}
	}
}
