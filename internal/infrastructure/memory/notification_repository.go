package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/jhoicas/logistica-api/internal/domain"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
)

var _ repository.NotificationRepository = (*NotificationRepo)(nil)

// NotificationRepo notificaciones en memoria (orden de inserción).
type NotificationRepo struct{ v view }

func (r *NotificationRepo) Create(_ context.Context, n *entity.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return r.v.do(func(st *state) error {
		st.notifications = append(st.notifications, *n)
		return nil
	})
}

func (r *NotificationRepo) GetByID(_ context.Context, id string) (*entity.Notification, error) {
	var out *entity.Notification
	err := r.v.do(func(st *state) error {
		for _, n := range st.notifications {
			if n.ID == id {
				n := n
				out = &n
				break
			}
		}
		return nil
	})
	return out, err
}

func (r *NotificationRepo) ListByUser(_ context.Context, userID string, limit, offset int) ([]*entity.Notification, error) {
	var out []*entity.Notification
	err := r.v.do(func(st *state) error {
		for i := len(st.notifications) - 1; i >= 0; i-- {
			n := st.notifications[i]
			if n.UserID == userID {
				out = append(out, &n)
			}
		}
		return nil
	})
	return page(out, limit, offset), err
}

func (r *NotificationRepo) CountUnread(_ context.Context, userID string) (int, error) {
	var count int
	err := r.v.do(func(st *state) error {
		for _, n := range st.notifications {
			if n.UserID == userID && !n.IsRead {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (r *NotificationRepo) MarkRead(_ context.Context, id string) error {
	return r.v.do(func(st *state) error {
		for i := range st.notifications {
			if st.notifications[i].ID == id {
				st.notifications[i].IsRead = true
				return nil
			}
		}
		return domain.ErrNotFound
	})
}

func (r *NotificationRepo) MarkAllRead(_ context.Context, userID string) (int, error) {
	var count int
	err := r.v.do(func(st *state) error {
		for i := range st.notifications {
			if st.notifications[i].UserID == userID && !st.notifications[i].IsRead {
				st.notifications[i].IsRead = true
				count++
			}
		}
		return nil
	})
	return count, err
}

func (r *NotificationRepo) Delete(_ context.Context, id string) error {
	return r.v.do(func(st *state) error {
		for i := range st.notifications {
			if st.notifications[i].ID == id {
				st.notifications = append(st.notifications[:i:i], st.notifications[i+1:]...)
				return nil
			}
		}
		return domain.ErrNotFound
	})
}

func (r *NotificationRepo) DeleteRead(_ context.Context, userID string) (int, error) {
	var count int
	err := r.v.do(func(st *state) error {
		kept := st.notifications[:0:0]
		for _, n := range st.notifications {
			if n.UserID == userID && n.IsRead {
				count++
				continue
			}
			kept = append(kept, n)
		}
		st.notifications = kept
		return nil
	})
	return count, err
}
