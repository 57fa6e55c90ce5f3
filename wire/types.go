package wire

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/anirudhraja/proto3json/schema"
)

// Map entry field numbers.
const (
	mapKeyNumber   protowire.Number = 1
	mapValueNumber protowire.Number = 2
)

// wireTypeOf returns the wire type a non-packed value of t is written with.
func wireTypeOf(t schema.FieldType) protowire.Type {
	switch t.Kind {
	case schema.KindMessage, schema.KindMap:
		return protowire.BytesType
	case schema.KindEnum:
		return protowire.VarintType
	}
	switch t.PrimitiveType {
	case schema.TypeFixed32, schema.TypeSfixed32, schema.TypeFloat:
		return protowire.Fixed32Type
	case schema.TypeFixed64, schema.TypeSfixed64, schema.TypeDouble:
		return protowire.Fixed64Type
	case schema.TypeString, schema.TypeBytes:
		return protowire.BytesType
	}
	return protowire.VarintType
}

// packable reports whether repeated values of t use the packed encoding.
func packable(t schema.FieldType) bool {
	if t.Kind == schema.KindEnum {
		return true
	}
	return t.Kind == schema.KindPrimitive && schema.IsPackedType(t.PrimitiveType)
}
