package notification

import (
	"context"

	"github.com/jhoicas/logistica-api/internal/application/dto"
	"github.com/jhoicas/logistica-api/internal/domain"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
)

// FeedService lectura y acuse de las notificaciones de un usuario.
// Solo el dueño modifica su feed; un admin puede leer cualquiera.
type FeedService struct {
	store repository.Store
}

// NewFeedService construye el caso de uso.
func NewFeedService(store repository.Store) *FeedService {
	return &FeedService{store: store}
}

func canRead(actor entity.Actor, userID string) bool {
	return actor.UserID == userID || actor.IsAdmin()
}

// ListForUser feed del usuario, más reciente primero.
func (s *FeedService) ListForUser(ctx context.Context, actor entity.Actor, userID string, page dto.PageRequest) ([]*entity.Notification, error) {
	if !canRead(actor, userID) {
		return nil, domain.ErrForbidden
	}
	page.DefaultPage()
	if err := dto.Validate(page); err != nil {
		return nil, err
	}
	list, err := s.store.Repos().Notifications.ListByUser(ctx, userID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*entity.Notification{}
	}
	return list, nil
}

// UnreadCount cantidad de notificaciones sin leer.
func (s *FeedService) UnreadCount(ctx context.Context, actor entity.Actor, userID string) (int, error) {
	if !canRead(actor, userID) {
		return 0, domain.ErrForbidden
	}
	return s.store.Repos().Notifications.CountUnread(ctx, userID)
}

// MarkRead marca una notificación propia como leída.
func (s *FeedService) MarkRead(ctx context.Context, actor entity.Actor, id string) error {
	return s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		if _, err := owned(ctx, repos, actor, id); err != nil {
			return err
		}
		return repos.Notifications.MarkRead(ctx, id)
	})
}

// MarkAllRead marca como leídas todas las notificaciones del usuario.
func (s *FeedService) MarkAllRead(ctx context.Context, actor entity.Actor, userID string) (int, error) {
	if actor.UserID != userID {
		return 0, domain.ErrForbidden
	}
	return s.store.Repos().Notifications.MarkAllRead(ctx, userID)
}

// Delete borra una notificación propia.
func (s *FeedService) Delete(ctx context.Context, actor entity.Actor, id string) error {
	return s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		if _, err := owned(ctx, repos, actor, id); err != nil {
			return err
		}
		return repos.Notifications.Delete(ctx, id)
	})
}

// ClearRead borra las notificaciones ya leídas del usuario.
func (s *FeedService) ClearRead(ctx context.Context, actor entity.Actor, userID string) (int, error) {
	if actor.UserID != userID {
		return 0, domain.ErrForbidden
	}
	return s.store.Repos().Notifications.DeleteRead(ctx, userID)
}

func owned(ctx context.Context, repos repository.Repositories, actor entity.Actor, id string) (*entity.Notification, error) {
	n, err := repos.Notifications.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, domain.ErrNotFound
	}
	if n.UserID != actor.UserID {
		return nil, domain.ErrForbidden
	}
	return n, nil
}
