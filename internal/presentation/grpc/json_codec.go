package grpc

import (
	"encoding/json"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// codecName is the content-subtype clients negotiate ("application/grpc+json").
const codecName = "json"

// jsonCodec carries the plain Go message structs in this package over gRPC
// without generated protobuf types.
type jsonCodec struct{}

func init() { encoding.RegisterCodec(jsonCodec{}) }

func (jsonCodec) Name() string                       { return codecName }
func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func jsonCallOption() grpclib.CallOption {
	return grpclib.ForceCodecCallOption{Codec: jsonCodec{}}
}
