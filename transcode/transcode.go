// Package transcode converts typed protobuf messages to their canonical
// proto3 JSON form and back.
//
// JSON values are the trees produced by package jsonvalue: nil, bool,
// json.Number, string, []interface{} and *jsonvalue.Object. The reverse
// direction also accepts map[string]interface{} objects and Go numbers.
//
// Well-known google.protobuf types are recognised by the tag the schema
// carries (schema.Message.WellKnown) and use their dedicated JSON shapes.
package transcode

import (
	"github.com/anirudhraja/proto3json/dynamic"
	"github.com/anirudhraja/proto3json/schema"
)

// Service is the schema collaborator: it resolves types, moves Any payloads
// to and from the binary format and builds messages from internal values.
type Service interface {
	schema.Resolver
	Decode(msg *schema.Message, data []byte) (*dynamic.Message, error)
	Encode(m *dynamic.Message) ([]byte, error)
	Construct(msg *schema.Message, v map[string]interface{}) (*dynamic.Message, error)
}

// Options control the forward direction.
type Options struct {
	// NumericEnums renders enum values as numbers instead of names.
	NumericEnums bool
	// UseProtoNames keys objects by proto field name instead of JSON name.
	UseProtoNames bool
}
