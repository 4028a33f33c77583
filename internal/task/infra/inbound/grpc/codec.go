package grpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// CodecName es el content-subtype con el que viajan los mensajes del servicio.
const CodecName = "json"

// jsonCodec serializa los mensajes como JSON en lugar de protobuf.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
