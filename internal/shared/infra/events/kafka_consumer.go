package events

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	sharedBus "github.com/davicafu/hexatask/internal/shared/infra/platform/bus"
)

// ConsumerAdapter lee de Kafka y entrega cada mensaje al handler del contexto.
type ConsumerAdapter struct {
	reader  *kafka.Reader
	handler sharedBus.MessageHandler
	log     *zap.Logger
}

func NewConsumerAdapter(reader *kafka.Reader, handler sharedBus.MessageHandler, log *zap.Logger) *ConsumerAdapter {
	return &ConsumerAdapter{
		reader:  reader,
		handler: handler,
		log:     log,
	}
}

// Start lanza el bucle de consumo en una goroutine. Termina al cancelar ctx.
func (c *ConsumerAdapter) Start(ctx context.Context) {
	cfg := c.reader.Config()
	c.log.Info("🎧 Starting Kafka consumer",
		zap.String("topic", cfg.Topic),
		zap.String("group", cfg.GroupID),
		zap.Strings("brokers", cfg.Brokers),
	)

	go func() {
		for {
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					c.log.Info("Kafka consumer stopped", zap.String("topic", cfg.Topic))
					return
				}
				c.log.Error("Error reading Kafka message", zap.Error(err))
				continue
			}

			c.handler.HandleMessage(ctx, string(msg.Key), msg.Value)
		}
	}()
}

// Close cierra el reader y confirma los offsets pendientes.
func (c *ConsumerAdapter) Close() error {
	return c.reader.Close()
}
