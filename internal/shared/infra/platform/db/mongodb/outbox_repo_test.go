package mongodb

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromOutboxDocument(t *testing.T) {
	// Arrange
	id := uuid.New()
	created := time.Date(2025, 5, 1, 10, 0, 0, 0, time.FixedZone("CEST", 7200))
	doc := outboxDocument{
		ID:            id.String(),
		AggregateType: "task",
		AggregateID:   "abc",
		EventType:     "task.created",
		Payload:       `{"id":"abc","title":"t"}`,
		CreatedAt:     created,
	}

	// Act
	evt, err := fromOutboxDocument(doc)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, id, evt.ID)
	assert.Equal(t, "task.created", evt.EventType)
	assert.Equal(t, map[string]interface{}{"id": "abc", "title": "t"}, evt.Payload)
	assert.Equal(t, time.UTC, evt.CreatedAt.Location())
	assert.True(t, created.Equal(evt.CreatedAt))
}

func TestFromOutboxDocument_Invalid(t *testing.T) {
	_, err := fromOutboxDocument(outboxDocument{ID: "nope", Payload: "{}"})
	assert.Error(t, err)

	_, err = fromOutboxDocument(outboxDocument{ID: uuid.NewString(), Payload: "{broken"})
	assert.Error(t, err)
}
