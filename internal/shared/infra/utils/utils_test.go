package utils

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRetry_StopsOnSuccess(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, nil, func() error {
		calls++
		if calls < 2 {
			return errors.New("temporal")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetry_ReturnsLastError(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, nil, func() error {
		calls++
		return errors.New("siempre falla")
	})

	assert.EqualError(t, err, "siempre falla")
	assert.Equal(t, 3, calls)
}

func TestRetry_NonRetryableErrorReturnsImmediately(t *testing.T) {
	permanent := errors.New("no encontrado")
	calls := 0
	err := Retry(context.Background(), 5, time.Millisecond, func(err error) bool {
		return !errors.Is(err, permanent)
	}, func() error {
		calls++
		return permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, 3, time.Second, nil, func() error { return errors.New("falla") })

	assert.ErrorIs(t, err, context.Canceled)
}

func TestTernary(t *testing.T) {
	assert.Equal(t, "DESC", Ternary(true, "DESC", "ASC"))
	assert.Equal(t, "ASC", Ternary(false, "DESC", "ASC"))
}

func TestUnmarshalAndHandle(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}
	var got payload
	UnmarshalAndHandle(zap.NewNop(), json.RawMessage(`{"name":"ana"}`), func(p payload) { got = p })
	assert.Equal(t, "ana", got.Name)

	called := false
	UnmarshalAndHandle(zap.NewNop(), json.RawMessage(`{roto`), func(p payload) { called = true })
	assert.False(t, called)
}
