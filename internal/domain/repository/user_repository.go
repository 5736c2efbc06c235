package repository

import (
	"context"

	"github.com/jhoicas/logistica-api/internal/domain/entity"
)

// UserRepository define el puerto de lectura de usuarios (los datos los gestiona otro subsistema).
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// ListByRoles devuelve usuarios activos con alguno de los roles, ordenados por id.
	ListByRoles(ctx context.Context, roles ...string) ([]*entity.User, error)
	// ListByClient devuelve usuarios activos ligados al cliente, ordenados por id.
	ListByClient(ctx context.Context, clientID string) ([]*entity.User, error)
}
