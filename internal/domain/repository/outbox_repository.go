package repository

import (
	"context"
	"time"

	"github.com/jhoicas/logistica-api/internal/domain/entity"
)

// OutboxRepository define el puerto del outbox transaccional de eventos.
type OutboxRepository interface {
	Enqueue(ctx context.Context, evt *entity.OutboxEvent) error
	// Claim toma hasta limit eventos PENDING vencidos y sin lease vigente (FOR UPDATE SKIP LOCKED),
	// marcándolos con locked_at/locked_by. Ordenados por id.
	Claim(ctx context.Context, workerID string, now, staleBefore time.Time, limit int) ([]*entity.OutboxEvent, error)
	// MarkSent y MarkFailed solo actúan si el evento sigue PENDING y con lease de workerID;
	// si no, devuelven domain.ErrLeaseLost.
	MarkSent(ctx context.Context, id int64, workerID string, at time.Time) error
	// MarkFailed libera el lease, incrementa attempts y agenda el siguiente intento (o DEAD).
	MarkFailed(ctx context.Context, id int64, workerID string, attempts int, nextAttemptAt time.Time, dead bool, lastError string) error
}
