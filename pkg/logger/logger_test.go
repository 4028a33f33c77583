package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestInit_Level(t *testing.T) {
	l := Init("debug")
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
	assert.Same(t, l, Logger())

	l = Init("no-such-level")
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.NotNil(t, Sugar())
}
