package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type routedEvent struct {
	Name  string `json:"name"`
	topic string
	key   string
}

func (e routedEvent) Topic() string        { return e.topic }
func (e routedEvent) PartitionKey() string { return e.key }

type recordingHandler struct {
	mu   sync.Mutex
	keys []string
	msgs []string
}

func (h *recordingHandler) HandleMessage(ctx context.Context, key string, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.keys = append(h.keys, key)
	h.msgs = append(h.msgs, string(payload))
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.msgs)
}

func TestBuildMessage_UsesEventTopicWhenWriterHasNone(t *testing.T) {
	msg, err := buildMessage("", routedEvent{Name: "a", topic: "task.events", key: "k1"})
	require.NoError(t, err)

	assert.Equal(t, "task.events", msg.Topic)
	assert.Equal(t, []byte("k1"), msg.Key)
	assert.JSONEq(t, `{"name":"a"}`, string(msg.Value))
}

func TestBuildMessage_WriterTopicWins(t *testing.T) {
	msg, err := buildMessage("fixed", routedEvent{Name: "a", topic: "task.events"})
	require.NoError(t, err)

	assert.Empty(t, msg.Topic, "kafka-go no admite topic en el mensaje si el writer ya lo fija")
	assert.Equal(t, "fixed", effectiveTopic("fixed", msg.Topic))
}

func TestBuildMessage_PlainEvent(t *testing.T) {
	msg, err := buildMessage("", map[string]string{"x": "y"})
	require.NoError(t, err)

	assert.Empty(t, msg.Topic)
	assert.Nil(t, msg.Key)
}

func TestInMemoryEventBus_RoutesByTopic(t *testing.T) {
	// Arrange
	bus := NewInMemoryEventBus("default", zap.NewNop())
	tasks := &recordingHandler{}
	users := &recordingHandler{}
	bus.Subscribe(context.Background(), "task.events", tasks, 10)
	bus.Subscribe(context.Background(), "user.events", users, 10)

	// Act
	require.NoError(t, bus.Publish(context.Background(), routedEvent{Name: "t1", topic: "task.events", key: "a"}))
	require.NoError(t, bus.Publish(context.Background(), routedEvent{Name: "u1", topic: "user.events", key: "b"}))
	require.NoError(t, bus.Publish(context.Background(), routedEvent{Name: "u2", topic: "user.events", key: "b"}))
	bus.Close()

	// Assert
	assert.Equal(t, 1, tasks.count())
	assert.Equal(t, 2, users.count())
	assert.Equal(t, []string{"b", "b"}, users.keys)
	assert.JSONEq(t, `{"name":"u1"}`, users.msgs[0])
}

func TestInMemoryEventBus_DefaultTopic(t *testing.T) {
	bus := NewInMemoryEventBus("default", zap.NewNop())
	h := &recordingHandler{}
	bus.Subscribe(context.Background(), "default", h, 1)

	require.NoError(t, bus.Publish(context.Background(), map[string]int{"n": 1}))

	assert.Eventually(t, func() bool { return h.count() == 1 }, time.Second, 5*time.Millisecond)
	bus.Close()
}

func TestInMemoryEventBus_PublishAfterCloseIsNoop(t *testing.T) {
	bus := NewInMemoryEventBus("default", zap.NewNop())
	bus.Close()

	assert.NoError(t, bus.Publish(context.Background(), routedEvent{Name: "x", topic: "default"}))
	assert.NotPanics(t, bus.Close)
}
