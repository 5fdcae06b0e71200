package nodeclient

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// jsonCodec is a grpc encoding.Codec that marshals messages with
// encoding/json instead of protobuf. The upstream Concordium node
// speaks protobuf on the wire; this codec is used only so that the
// hand-written request/response structs in types.go can flow through
// google.golang.org/grpc's Invoke path without a protoc code-generation
// step, which this exercise does not run. A production build swaps
// this codec (and the structs in types.go) for protoc-gen-go output
// generated from the node's .proto definitions.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
