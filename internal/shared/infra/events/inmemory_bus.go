package events

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	sharedBus "github.com/davicafu/hexatask/internal/shared/infra/platform/bus"
)

type delivery struct {
	key     string
	payload []byte
}

// InMemoryEventBus sustituye a Kafka en local y en tests.
// Enruta por topic; los eventos sin Topicer van al topic por defecto.
type InMemoryEventBus struct {
	defaultTopic string
	subscribers  map[string][]chan delivery
	mu           sync.RWMutex
	wg           sync.WaitGroup
	closed       bool
	log          *zap.Logger
}

var _ sharedBus.EventBus = (*InMemoryEventBus)(nil)

func NewInMemoryEventBus(defaultTopic string, log *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		defaultTopic: defaultTopic,
		subscribers:  make(map[string][]chan delivery),
		log:          log,
	}
}

// Publish serializa el evento y lo entrega sin bloquear.
// Si el buffer de un suscriptor está lleno, el mensaje se descarta para ese suscriptor.
func (b *InMemoryEventBus) Publish(ctx context.Context, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	topic := b.defaultTopic
	if topicer, ok := event.(sharedBus.Topicer); ok {
		topic = topicer.Topic()
	}
	var key string
	if keyer, ok := event.(sharedBus.Keyer); ok {
		key = keyer.PartitionKey()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil
	}

	for _, ch := range b.subscribers[topic] {
		select {
		case ch <- delivery{key: key, payload: payload}:
		default:
			b.log.Warn("In-memory subscriber buffer full, dropping message", zap.String("topic", topic))
		}
	}
	return nil
}

// Subscribe registra un handler para un topic. Cada suscriptor recibe los mensajes
// en orden desde su propia goroutine.
func (b *InMemoryEventBus) Subscribe(ctx context.Context, topic string, handler sharedBus.MessageHandler, bufferSize int) {
	ch := make(chan delivery, bufferSize)

	b.mu.Lock()
	b.subscribers[topic] = append(b.subscribers[topic], ch)
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for d := range ch {
			handler.HandleMessage(ctx, d.key, d.payload)
		}
	}()
}

// Close cierra los canales y espera a que los suscriptores vacíen su buffer.
func (b *InMemoryEventBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, subs := range b.subscribers {
		for _, ch := range subs {
			close(ch)
		}
	}
	b.mu.Unlock()

	b.wg.Wait()
}
