package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OutboxEvent es un evento de integración pendiente de publicar.
// Se escribe en la misma transacción que el agregado que lo origina.
type OutboxEvent struct {
	ID            uuid.UUID   `json:"id"`
	AggregateType string      `json:"aggregate_type"` // "task", "user"
	AggregateID   string      `json:"aggregate_id"`
	EventType     string      `json:"event_type"` // ej. "task.status_changed"
	Payload       interface{} `json:"payload"`
	CreatedAt     time.Time   `json:"created_at"`
	Processed     bool        `json:"processed"`
}

// NewOutboxEvent construye un evento listo para guardarse junto al agregado.
func NewOutboxEvent(aggregateType, aggregateID, eventType string, payload interface{}) OutboxEvent {
	now := time.Now().UTC()
	return OutboxEvent{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     now,
	}
}

// OutboxRepository es lo único que necesita el relayer: leer pendientes y marcarlos.
type OutboxRepository interface {
	FetchPendingOutbox(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error
}
