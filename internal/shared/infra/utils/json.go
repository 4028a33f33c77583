package utils

import (
	"encoding/json"

	"go.uber.org/zap"
)

// UnmarshalAndHandle decodifica data como T y, si lo consigue, llama a handler.
// Los payloads corruptos se registran y se descartan.
func UnmarshalAndHandle[T any](log *zap.Logger, data json.RawMessage, handler func(T)) {
	var evt T
	if err := json.Unmarshal(data, &evt); err != nil {
		log.Warn("Failed to unmarshal event data", zap.Error(err))
		return
	}
	handler(evt)
}
