package relayer

import (
	"context"
	"encoding/json"
	"reflect"
	"time"

	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/hexatask/internal/shared/domain"
	sharedDomainEvents "github.com/davicafu/hexatask/internal/shared/domain/events"
	sharedBus "github.com/davicafu/hexatask/internal/shared/infra/platform/bus"
)

// Message es lo que el worker entrega al bus: el sobre de integración
// más el topic y la clave de partición que exige el transporte.
type Message struct {
	sharedDomainEvents.IntegrationEvent
	topic string
	key   string
}

func (m Message) Topic() string        { return m.topic }
func (m Message) PartitionKey() string { return m.key }

// Worker procesa eventos pendientes de la tabla outbox de forma genérica.
type Worker struct {
	repo          sharedDomain.OutboxRepository
	publisher     sharedBus.EventBus
	eventRegistry map[string]sharedDomainEvents.EventMetadata
	interval      time.Duration
	batchSize     int
	log           *zap.Logger
}

func NewOutboxWorker(
	repo sharedDomain.OutboxRepository,
	publisher sharedBus.EventBus,
	registry map[string]sharedDomainEvents.EventMetadata,
	interval time.Duration,
	batchSize int,
	log *zap.Logger,
) *Worker {
	return &Worker{
		repo:          repo,
		publisher:     publisher,
		eventRegistry: registry,
		interval:      interval,
		batchSize:     batchSize,
		log:           log,
	}
}

// Start inicia el bucle de polling. Bloquea hasta que ctx se cancela.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("🚀 Outbox worker started", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.log.Info("🛑 Outbox worker stopped")
			return
		case <-ticker.C:
			w.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch publica un lote de pendientes y devuelve cuántos se marcaron.
func (w *Worker) ProcessBatch(ctx context.Context) int {
	events, err := w.repo.FetchPendingOutbox(ctx, w.batchSize)
	if err != nil {
		w.log.Warn("⚠️ Failed to fetch pending outbox events", zap.Error(err))
		return 0
	}
	if len(events) > 0 {
		w.log.Debug("📬 Pending outbox events", zap.Int("count", len(events)))
	}

	published := 0
	for _, evt := range events {
		if w.publishAndMark(ctx, evt) {
			published++
		}
	}
	return published
}

func (w *Worker) publishAndMark(ctx context.Context, evt sharedDomain.OutboxEvent) bool {
	msg, err := w.toMessage(evt)
	if err != nil {
		// Se deja pendiente: un despliegue con el registro corregido lo publicará.
		w.log.Error("Cannot build integration message",
			zap.String("event_id", evt.ID.String()),
			zap.String("event_type", evt.EventType),
			zap.Error(err))
		return false
	}

	if err := w.publisher.Publish(ctx, msg); err != nil {
		w.log.Warn("⚠️ Failed to publish event",
			zap.String("event_id", evt.ID.String()),
			zap.Error(err),
		)
		return false
	}

	if err := w.repo.MarkOutboxProcessed(ctx, evt.ID); err != nil {
		w.log.Warn("⚠️ Failed to mark event as processed",
			zap.String("event_id", evt.ID.String()),
			zap.Error(err),
		)
		return false
	}

	w.log.Info("✅ Event published",
		zap.String("event_id", evt.ID.String()),
		zap.String("event_type", evt.EventType),
		zap.String("topic", msg.topic))
	return true
}

// toMessage decodifica el payload al tipo registrado y lo envuelve en el sobre común.
func (w *Worker) toMessage(evt sharedDomain.OutboxEvent) (Message, error) {
	metadata, ok := w.eventRegistry[evt.EventType]
	if !ok {
		return Message{}, &UnknownEventTypeError{EventType: evt.EventType}
	}

	typed := reflect.New(metadata.Type).Interface()
	raw, err := json.Marshal(evt.Payload)
	if err != nil {
		return Message{}, err
	}
	if err := json.Unmarshal(raw, typed); err != nil {
		return Message{}, err
	}

	envelope, err := sharedDomainEvents.NewIntegrationEvent(evt.EventType, typed)
	if err != nil {
		return Message{}, err
	}
	envelope.Timestamp = evt.CreatedAt

	return Message{IntegrationEvent: envelope, topic: metadata.Topic, key: evt.AggregateID}, nil
}

// UnknownEventTypeError indica un evento del outbox sin entrada en el registro.
type UnknownEventTypeError struct {
	EventType string
}

func (e *UnknownEventTypeError) Error() string {
	return "unknown outbox event type: " + e.EventType
}
