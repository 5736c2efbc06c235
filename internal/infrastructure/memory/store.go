// Package memory implementa el Ledger Store en memoria: un estado instantáneo por transacción que
// se publica con un swap al hacer commit. Las transacciones se serializan con un mutex, lo que es
// más estricto que los bloqueos de fila de PostgreSQL y preserva las mismas garantías.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
)

var _ repository.Store = (*Store)(nil)

type stockKey struct {
	productID string
	location  string
}

type state struct {
	invoices      map[string]entity.Invoice
	items         map[string][]entity.InvoiceItem
	stock         map[stockKey]entity.Stock
	movements     []entity.StockMovement
	logs          []entity.InvoiceLog
	comments      []entity.Comment
	notifications []entity.Notification
	users         map[string]entity.User
	outbox        []entity.OutboxEvent
	nextOutboxID  int64
}

func newState() *state {
	return &state{
		invoices: make(map[string]entity.Invoice),
		items:    make(map[string][]entity.InvoiceItem),
		stock:    make(map[stockKey]entity.Stock),
		users:    make(map[string]entity.User),
	}
}

func (s *state) clone() *state {
	c := &state{
		invoices:      make(map[string]entity.Invoice, len(s.invoices)),
		items:         make(map[string][]entity.InvoiceItem, len(s.items)),
		stock:         make(map[stockKey]entity.Stock, len(s.stock)),
		users:         make(map[string]entity.User, len(s.users)),
		movements:     append([]entity.StockMovement(nil), s.movements...),
		logs:          append([]entity.InvoiceLog(nil), s.logs...),
		comments:      append([]entity.Comment(nil), s.comments...),
		notifications: append([]entity.Notification(nil), s.notifications...),
		outbox:        make([]entity.OutboxEvent, len(s.outbox)),
		nextOutboxID:  s.nextOutboxID,
	}
	for k, v := range s.invoices {
		c.invoices[k] = v
	}
	for k, v := range s.items {
		c.items[k] = append([]entity.InvoiceItem(nil), v...)
	}
	for k, v := range s.stock {
		c.stock[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for i, e := range s.outbox {
		c.outbox[i] = copyOutbox(e)
	}
	return c
}

// Store es el Ledger Store en memoria.
type Store struct {
	mu sync.Mutex
	st *state
}

// NewStore construye un store vacío.
func NewStore() *Store {
	return &Store{st: newState()}
}

// Repos devuelve repositorios en modo autocommit (cada operación toma el mutex).
func (s *Store) Repos() repository.Repositories {
	return reposFor(view{store: s})
}

// RunInTx ejecuta fn sobre una copia del estado; si fn no falla, la copia pasa a ser el estado vigente.
func (s *Store) RunInTx(ctx context.Context, fn func(repos repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(reposFor(view{store: s, st: work})); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = work
	return nil
}

func reposFor(v view) repository.Repositories {
	return repository.Repositories{
		Invoices:      &InvoiceRepo{v},
		Stock:         &StockRepo{v},
		Movements:     &StockMovementRepo{v},
		Logs:          &InvoiceLogRepo{v},
		Comments:      &CommentRepo{v},
		Notifications: &NotificationRepo{v},
		Users:         &UserRepo{v},
		Outbox:        &OutboxRepo{v},
	}
}

// view resuelve el estado sobre el que opera un repositorio: el de la tx en curso o el vigente.
type view struct {
	store *Store
	st    *state
}

func (v view) do(fn func(st *state) error) error {
	if v.st != nil {
		return fn(v.st)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.st)
}

func copyOutbox(e entity.OutboxEvent) entity.OutboxEvent {
	c := e
	c.Payload = append([]byte(nil), e.Payload...)
	if e.LockedAt != nil {
		t := *e.LockedAt
		c.LockedAt = &t
	}
	if e.ProcessedAt != nil {
		t := *e.ProcessedAt
		c.ProcessedAt = &t
	}
	return c
}

func page[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
