package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/logistica-api/internal/domain"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
)

var _ repository.OutboxRepository = (*OutboxRepo)(nil)

// OutboxRepo outbox transaccional sobre la tabla notification_outbox.
type OutboxRepo struct {
	q Querier
}

// NewOutboxRepository construye el adaptador.
func NewOutboxRepository(q Querier) *OutboxRepo {
	return &OutboxRepo{q: q}
}

// Enqueue inserta el evento en PENDING. Debe llamarse con el Querier de la tx de negocio.
func (r *OutboxRepo) Enqueue(ctx context.Context, evt *entity.OutboxEvent) error {
	if evt.Status == "" {
		evt.Status = entity.OutboxStatusPending
	}
	if evt.CreatedAt.IsZero() {
		evt.CreatedAt = time.Now().UTC()
	}
	if evt.NextAttemptAt.IsZero() {
		evt.NextAttemptAt = evt.CreatedAt
	}
	query := `
		INSERT INTO notification_outbox (event_type, invoice_id, payload, status, attempts, next_attempt_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		evt.EventType, nullIfEmpty(evt.InvoiceID), []byte(evt.Payload), evt.Status, evt.Attempts,
		evt.NextAttemptAt, evt.CreatedAt,
	).Scan(&evt.ID)
	if err != nil {
		return fmt.Errorf("enqueue outbox event: %w", err)
	}
	return nil
}

// Claim toma un lote con FOR UPDATE SKIP LOCKED y deja el lease en la misma sentencia.
// Un lease con locked_at anterior a staleBefore se considera abandonado y se puede reclamar.
func (r *OutboxRepo) Claim(ctx context.Context, workerID string, now, staleBefore time.Time, limit int) ([]*entity.OutboxEvent, error) {
	query := `
		WITH picked AS (
			SELECT id FROM notification_outbox
			WHERE status = 'PENDING'
			  AND next_attempt_at <= $2
			  AND (locked_at IS NULL OR locked_at <= $3)
			ORDER BY id
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		UPDATE notification_outbox o
		SET locked_at = $2, locked_by = $1
		FROM picked
		WHERE o.id = picked.id
		RETURNING o.id, o.event_type, o.invoice_id, o.payload, o.status, o.attempts,
		          o.next_attempt_at, o.locked_at, o.locked_by, o.last_error, o.created_at, o.processed_at`
	rows, err := r.q.Query(ctx, query, workerID, now, staleBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("claim outbox events: %w", err)
	}
	defer rows.Close()
	var list []*entity.OutboxEvent
	for rows.Next() {
		var e entity.OutboxEvent
		var invoiceID, lockedBy, lastError *string
		var payload []byte
		if err := rows.Scan(&e.ID, &e.EventType, &invoiceID, &payload, &e.Status, &e.Attempts,
			&e.NextAttemptAt, &e.LockedAt, &lockedBy, &lastError, &e.CreatedAt, &e.ProcessedAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		e.InvoiceID = derefStr(invoiceID)
		e.LockedBy = derefStr(lockedBy)
		e.LastError = derefStr(lastError)
		e.Payload = payload
		list = append(list, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// RETURNING no garantiza el orden del CTE.
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *OutboxRepo) MarkSent(ctx context.Context, id int64, workerID string, at time.Time) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE notification_outbox
		SET status = 'SENT', processed_at = $3, locked_at = NULL, locked_by = NULL
		WHERE id = $1 AND status = 'PENDING' AND locked_by = $2`, id, workerID, at)
	if err != nil {
		return fmt.Errorf("mark outbox event sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLeaseLost
	}
	return nil
}

func (r *OutboxRepo) MarkFailed(ctx context.Context, id int64, workerID string, attempts int, nextAttemptAt time.Time, dead bool, lastError string) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE notification_outbox
		SET attempts = $3,
		    next_attempt_at = $4,
		    last_error = $5,
		    status = CASE WHEN $6 THEN 'DEAD' ELSE status END,
		    locked_at = NULL,
		    locked_by = NULL
		WHERE id = $1 AND status = 'PENDING' AND locked_by = $2`, id, workerID, attempts, nextAttemptAt, lastError, dead)
	if err != nil {
		return fmt.Errorf("mark outbox event failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLeaseLost
	}
	return nil
}
