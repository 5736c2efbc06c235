package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jhoicas/logistica-api/internal/domain/entity"
	domainnotif "github.com/jhoicas/logistica-api/internal/domain/notification"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
)

// Enqueue escribe el evento en el outbox. Llamar con el repo de la transacción de negocio:
// el evento existe solo si la mutación hace commit.
func Enqueue(ctx context.Context, outbox repository.OutboxRepository, evt domainnotif.Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}
	return outbox.Enqueue(ctx, &entity.OutboxEvent{
		EventType: evt.Type,
		InvoiceID: evt.InvoiceID,
		Payload:   payload,
	})
}

func decode(e *entity.OutboxEvent) (domainnotif.Event, error) {
	var evt domainnotif.Event
	if err := json.Unmarshal(e.Payload, &evt); err != nil {
		return evt, fmt.Errorf("decode outbox payload %d: %w", e.ID, err)
	}
	if evt.Type == "" {
		evt.Type = e.EventType
	}
	return evt, nil
}
