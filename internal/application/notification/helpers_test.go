package notification

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jhoicas/logistica-api/internal/domain/entity"
	domainnotif "github.com/jhoicas/logistica-api/internal/domain/notification"
	"github.com/jhoicas/logistica-api/internal/infrastructure/memory"
	"github.com/stretchr/testify/require"
)

type pushed struct {
	userID string
	push   domainnotif.Push
}

// fakePublisher registra los push; failFor simula sesiones caídas.
type fakePublisher struct {
	mu      sync.Mutex
	got     []pushed
	failFor map[string]bool
}

func (p *fakePublisher) Publish(userID string, push domainnotif.Push) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failFor[userID] {
		return errors.New("socket cerrado")
	}
	p.got = append(p.got, pushed{userID: userID, push: push})
	return nil
}

func (p *fakePublisher) users() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.got))
	for _, g := range p.got {
		out = append(out, g.userID)
	}
	return out
}

// seedUsers: admin a1, accountant a2, clientes u1/u2 de C1 y u3 de C2.
func seedUsers(t *testing.T, store *memory.Store) {
	t.Helper()
	ctx := context.Background()
	for _, u := range []*entity.User{
		{ID: "a1", Email: "a1@x.co", Role: entity.RoleAdmin},
		{ID: "a2", Email: "a2@x.co", Role: entity.RoleAccountant},
		{ID: "u1", Email: "u1@x.co", Role: entity.RoleClient, ClientID: "C1"},
		{ID: "u2", Email: "u2@x.co", Role: entity.RoleClient, ClientID: "C1"},
		{ID: "u3", Email: "u3@x.co", Role: entity.RoleClient, ClientID: "C2"},
	} {
		require.NoError(t, store.Repos().Users.Create(ctx, u))
	}
}
