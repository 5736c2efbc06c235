package memory

import (
	"context"
	"time"

	"github.com/jhoicas/logistica-api/internal/domain"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
)

var _ repository.OutboxRepository = (*OutboxRepo)(nil)

// OutboxRepo outbox en memoria; los ids son secuenciales como un bigserial.
type OutboxRepo struct{ v view }

func (r *OutboxRepo) Enqueue(_ context.Context, evt *entity.OutboxEvent) error {
	return r.v.do(func(st *state) error {
		st.nextOutboxID++
		evt.ID = st.nextOutboxID
		if evt.Status == "" {
			evt.Status = entity.OutboxStatusPending
		}
		if evt.CreatedAt.IsZero() {
			evt.CreatedAt = time.Now().UTC()
		}
		if evt.NextAttemptAt.IsZero() {
			evt.NextAttemptAt = evt.CreatedAt
		}
		st.outbox = append(st.outbox, copyOutbox(*evt))
		return nil
	})
}

func (r *OutboxRepo) Claim(_ context.Context, workerID string, now, staleBefore time.Time, limit int) ([]*entity.OutboxEvent, error) {
	var out []*entity.OutboxEvent
	err := r.v.do(func(st *state) error {
		for i := range st.outbox {
			if limit > 0 && len(out) >= limit {
				break
			}
			e := &st.outbox[i]
			if e.Status != entity.OutboxStatusPending || e.NextAttemptAt.After(now) {
				continue
			}
			if e.LockedAt != nil && e.LockedAt.After(staleBefore) {
				continue
			}
			lockedAt := now
			e.LockedAt = &lockedAt
			e.LockedBy = workerID
			c := copyOutbox(*e)
			out = append(out, &c)
		}
		return nil
	})
	return out, err
}

func (r *OutboxRepo) MarkSent(_ context.Context, id int64, workerID string, at time.Time) error {
	return r.update(id, workerID, func(e *entity.OutboxEvent) {
		e.Status = entity.OutboxStatusSent
		e.ProcessedAt = &at
		e.LockedAt = nil
		e.LockedBy = ""
	})
}

func (r *OutboxRepo) MarkFailed(_ context.Context, id int64, workerID string, attempts int, nextAttemptAt time.Time, dead bool, lastError string) error {
	return r.update(id, workerID, func(e *entity.OutboxEvent) {
		e.Attempts = attempts
		e.NextAttemptAt = nextAttemptAt
		e.LastError = lastError
		e.LockedAt = nil
		e.LockedBy = ""
		if dead {
			e.Status = entity.OutboxStatusDead
		}
	})
}

// Events devuelve una copia del outbox (inspección en pruebas y diagnóstico).
func (s *Store) Events() []entity.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.OutboxEvent, len(s.st.outbox))
	for i, e := range s.st.outbox {
		out[i] = copyOutbox(e)
	}
	return out
}

func (r *OutboxRepo) update(id int64, workerID string, fn func(e *entity.OutboxEvent)) error {
	return r.v.do(func(st *state) error {
		for i := range st.outbox {
			e := &st.outbox[i]
			if e.ID != id {
				continue
			}
			if e.Status != entity.OutboxStatusPending || e.LockedBy != workerID {
				return domain.ErrLeaseLost
			}
			fn(e)
			return nil
		}
		return domain.ErrNotFound
	})
}
