package events

import (
	"encoding/json"
	"reflect"
	"time"
)

// IntegrationEvent es el sobre común de los mensajes entre contextos.
type IntegrationEvent struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// EventMetadata indica cómo decodificar el payload de un tipo de evento del outbox
// y a qué topic se publica.
type EventMetadata struct {
	Type  reflect.Type
	Topic string
}

// NewIntegrationEvent serializa data dentro del sobre.
func NewIntegrationEvent(eventType string, data interface{}) (IntegrationEvent, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return IntegrationEvent{}, err
	}
	return IntegrationEvent{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      raw,
	}, nil
}
