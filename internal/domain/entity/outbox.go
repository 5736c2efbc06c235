package entity

import (
	"encoding/json"
	"time"
)

// Estados de un evento en el outbox.
const (
	OutboxStatusPending = "PENDING"
	OutboxStatusSent    = "SENT"
	OutboxStatusDead    = "DEAD"
)

// OutboxEvent es un evento de dominio escrito en la misma transacción que la mutación de negocio.
// El worker lo drena y lo entrega al dispatcher de notificaciones.
type OutboxEvent struct {
	ID            int64
	EventType     string
	InvoiceID     string
	Payload       json.RawMessage
	Status        string
	Attempts      int
	NextAttemptAt time.Time
	LockedAt      *time.Time
	LockedBy      string
	LastError     string
	CreatedAt     time.Time
	ProcessedAt   *time.Time
}
