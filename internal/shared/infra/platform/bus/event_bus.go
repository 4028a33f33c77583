package bus

import "context"

// Keyer lo implementan los eventos que fijan su clave de partición.
type Keyer interface {
	PartitionKey() string
}

// Topicer lo implementan los eventos que saben a qué topic van.
type Topicer interface {
	Topic() string
}

// EventBus publica eventos ya tipados. El formato del payload lo decide cada adapter.
type EventBus interface {
	Publish(ctx context.Context, event interface{}) error
}

// MessageHandler procesa un mensaje crudo recibido de un topic.
// Lo implementan los consumidores de cada contexto, sea cual sea el transporte.
type MessageHandler interface {
	HandleMessage(ctx context.Context, key string, payload []byte)
}
