package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jhoicas/logistica-api/internal/domain"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo usuarios en memoria.
type UserRepo struct{ v view }

func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.Status == "" {
		u.Status = "active"
	}
	return r.v.do(func(st *state) error {
		for _, other := range st.users {
			if strings.EqualFold(other.Email, u.Email) && u.Email != "" {
				return domain.ErrDuplicate
			}
		}
		st.users[u.ID] = *u
		return nil
	})
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	var out *entity.User
	err := r.v.do(func(st *state) error {
		if u, ok := st.users[id]; ok {
			out = &u
		}
		return nil
	})
	return out, err
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	var out *entity.User
	err := r.v.do(func(st *state) error {
		for _, u := range st.users {
			if strings.EqualFold(u.Email, email) {
				u := u
				out = &u
				break
			}
		}
		return nil
	})
	return out, err
}

func (r *UserRepo) ListByRoles(_ context.Context, roles ...string) ([]*entity.User, error) {
	return r.filter(func(u entity.User) bool {
		for _, role := range roles {
			if u.Role == role {
				return true
			}
		}
		return false
	})
}

func (r *UserRepo) ListByClient(_ context.Context, clientID string) ([]*entity.User, error) {
	return r.filter(func(u entity.User) bool {
		return u.Role == entity.RoleClient && u.ClientID == clientID
	})
}

func (r *UserRepo) filter(keep func(entity.User) bool) ([]*entity.User, error) {
	var out []*entity.User
	err := r.v.do(func(st *state) error {
		for _, u := range st.users {
			if u.Status == "active" && keep(u) {
				u := u
				out = append(out, &u)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}
