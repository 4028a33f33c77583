package events

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	sharedBus "github.com/davicafu/hexatask/internal/shared/infra/platform/bus"
)

// KafkaPublisher publica eventos en Kafka como JSON.
// Si el writer no tiene topic fijo, se usa el que declare el evento (Topicer).
type KafkaPublisher struct {
	writer *kafka.Writer
	log    *zap.Logger
}

func NewKafkaPublisher(writer *kafka.Writer, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, log: log}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event interface{}) error {
	msg, err := buildMessage(p.writer.Topic, event)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("Error publishing to Kafka",
			zap.String("topic", msg.Topic),
			zap.Error(err))
		return err
	}

	p.log.Debug("Event published successfully",
		zap.String("topic", effectiveTopic(p.writer.Topic, msg.Topic)),
		zap.ByteString("key", msg.Key))
	return nil
}

// Close libera las conexiones del writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func buildMessage(writerTopic string, event interface{}) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}

	msg := kafka.Message{Value: data}
	if keyer, ok := event.(sharedBus.Keyer); ok {
		msg.Key = []byte(keyer.PartitionKey())
	}
	// kafka-go rechaza mensajes con topic cuando el writer ya tiene uno.
	if writerTopic == "" {
		if topicer, ok := event.(sharedBus.Topicer); ok {
			msg.Topic = topicer.Topic()
		}
	}
	return msg, nil
}

func effectiveTopic(writerTopic, msgTopic string) string {
	if writerTopic != "" {
		return writerTopic
	}
	return msgTopic
}

var _ sharedBus.EventBus = (*KafkaPublisher)(nil)
