package wire

import (
	"math"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/anirudhraja/proto3json/dynamic"
	"github.com/anirudhraja/proto3json/schema"
)

// Decoder handles low-level protobuf wire format decoding
type Decoder struct {
	buf      []byte
	resolver schema.Resolver
}

// NewDecoder creates a decoder that resolves nested types through resolver
func NewDecoder(data []byte, resolver schema.Resolver) *Decoder {
	return &Decoder{
		buf:      data,
		resolver: resolver,
	}
}

// DecodeMessage decodes protobuf bytes using schema - main entry point
func DecodeMessage(data []byte, desc *schema.Message, resolver schema.Resolver) (*dynamic.Message, error) {
	return NewDecoder(data, resolver).DecodeWithSchema(desc)
}

// DecodeWithSchema decodes the whole buffer as a message of type desc.
// Unknown fields are skipped, repeated occurrences of a message field are
// merged and unknown enum numbers are kept.
func (d *Decoder) DecodeWithSchema(desc *schema.Message) (*dynamic.Message, error) {
	msg := dynamic.NewMessage(desc)
	if err := d.decodeInto(msg, d.buf); err != nil {
		return nil, err
	}
	return msg, nil
}

type collectors struct {
	lists map[*schema.Field][]interface{}
	maps  map[*schema.Field]*dynamic.Map
}

func (d *Decoder) decodeInto(msg *dynamic.Message, b []byte) error {
	desc := msg.Descriptor()
	c := &collectors{
		lists: make(map[*schema.Field][]interface{}),
		maps:  make(map[*schema.Field]*dynamic.Map),
	}

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return errors.Wrapf(protowire.ParseError(n), "failed to decode message %s", desc.FullName)
		}
		b = b[n:]

		field := desc.FieldByNumber(int32(num))
		if field == nil {
			// Unknown field - skip it
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return errors.Wrapf(protowire.ParseError(n), "failed to decode message %s", desc.FullName)
			}
			b = b[n:]
			continue
		}

		n, err := d.decodeField(msg, field, typ, b, c)
		if err != nil {
			return wrapDecodingFieldError(err, field.Name)
		}
		b = b[n:]
	}

	for field, list := range c.lists {
		if err := msg.Set(field, list); err != nil {
			return wrapDecodingFieldError(err, field.Name)
		}
	}
	for field, m := range c.maps {
		if err := msg.Set(field, m); err != nil {
			return wrapDecodingFieldError(err, field.Name)
		}
	}
	return nil
}

// decodeField decodes one occurrence of field and returns the bytes consumed.
func (d *Decoder) decodeField(msg *dynamic.Message, field *schema.Field, typ protowire.Type, b []byte, c *collectors) (int, error) {
	switch {
	case field.IsMap():
		if typ != protowire.BytesType {
			return 0, newFieldError("invalid wire type %d for map entry", typ)
		}
		raw, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		key, value, err := d.decodeMapEntry(field.Type, raw)
		if err != nil {
			return 0, err
		}
		m, ok := c.maps[field]
		if !ok {
			m = dynamic.NewMap()
			if existing, set := msg.Lookup(field); set {
				existing.(*dynamic.Map).Range(func(k, v interface{}) bool {
					m.Set(k, v)
					return true
				})
			}
			c.maps[field] = m
		}
		m.Set(key, value)
		return n, nil

	case field.IsRepeated():
		list, ok := c.lists[field]
		if !ok {
			if existing, set := msg.Lookup(field); set {
				list = append(list, existing.([]interface{})...)
			}
		}
		n, list, err := d.decodeRepeated(field.Type, typ, b, list)
		if err != nil {
			return 0, err
		}
		c.lists[field] = list
		return n, nil

	case field.Type.Kind == schema.KindMessage:
		if typ != protowire.BytesType {
			return 0, newFieldError("invalid wire type %d for message", typ)
		}
		raw, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		var existing *dynamic.Message
		if v, set := msg.Lookup(field); set {
			existing = v.(*dynamic.Message)
		}
		sub, err := d.decodeNested(field.Type.MessageType, raw, existing)
		if err != nil {
			return 0, err
		}
		return n, msg.Set(field, sub)
	}

	value, n, err := d.decodeScalar(field.Type, typ, b)
	if err != nil {
		return 0, err
	}
	return n, msg.Set(field, value)
}

func (d *Decoder) decodeRepeated(t schema.FieldType, typ protowire.Type, b []byte, list []interface{}) (int, []interface{}, error) {
	if t.Kind == schema.KindMessage {
		if typ != protowire.BytesType {
			return 0, nil, newFieldError("invalid wire type %d for message", typ)
		}
		raw, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return 0, nil, protowire.ParseError(n)
		}
		sub, err := d.decodeNested(t.MessageType, raw, nil)
		if err != nil {
			return 0, nil, wrapDecodingFieldError(err, indexName(len(list)))
		}
		return n, append(list, sub), nil
	}

	if typ == protowire.BytesType && packable(t) {
		packed, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return 0, nil, protowire.ParseError(n)
		}
		elemType := wireTypeOf(t)
		for len(packed) > 0 {
			v, m, err := d.decodeScalar(t, elemType, packed)
			if err != nil {
				return 0, nil, wrapDecodingFieldError(err, indexName(len(list)))
			}
			list = append(list, v)
			packed = packed[m:]
		}
		return n, list, nil
	}

	v, n, err := d.decodeScalar(t, typ, b)
	if err != nil {
		return 0, nil, wrapDecodingFieldError(err, indexName(len(list)))
	}
	return n, append(list, v), nil
}

// decodeNested decodes raw into existing, or into a new message of the
// named type when existing is nil.
func (d *Decoder) decodeNested(typeName string, raw []byte, existing *dynamic.Message) (*dynamic.Message, error) {
	target := existing
	if target == nil {
		if d.resolver == nil {
			return nil, newFieldError("no resolver for nested message %s", typeName)
		}
		desc, err := d.resolver.GetMessage(typeName)
		if err != nil {
			return nil, err
		}
		target = dynamic.NewMessage(desc)
	}
	if err := d.decodeInto(target, raw); err != nil {
		return nil, err
	}
	return target, nil
}

// decodeScalar decodes a single non-message value and returns the bytes
// consumed.
func (d *Decoder) decodeScalar(t schema.FieldType, typ protowire.Type, b []byte) (interface{}, int, error) {
	if want := wireTypeOf(t); typ != want {
		return nil, 0, newFieldError("invalid wire type %d for %s, want %d", typ, typeName(t), want)
	}
	switch typ {
	case protowire.VarintType:
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return nil, 0, protowire.ParseError(n)
		}
		return varintValue(t, v), n, nil
	case protowire.Fixed32Type:
		v, n := protowire.ConsumeFixed32(b)
		if n < 0 {
			return nil, 0, protowire.ParseError(n)
		}
		switch t.PrimitiveType {
		case schema.TypeFloat:
			return math.Float32frombits(v), n, nil
		case schema.TypeSfixed32:
			return int32(v), n, nil
		}
		return v, n, nil
	case protowire.Fixed64Type:
		v, n := protowire.ConsumeFixed64(b)
		if n < 0 {
			return nil, 0, protowire.ParseError(n)
		}
		switch t.PrimitiveType {
		case schema.TypeDouble:
			return math.Float64frombits(v), n, nil
		case schema.TypeSfixed64:
			return int64(v), n, nil
		}
		return v, n, nil
	case protowire.BytesType:
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return nil, 0, protowire.ParseError(n)
		}
		if t.PrimitiveType == schema.TypeString {
			return string(v), n, nil
		}
		return append([]byte{}, v...), n, nil
	}
	return nil, 0, newFieldError("unsupported wire type %d", typ)
}

// varintValue converts a raw varint to the Go type of t.
func varintValue(t schema.FieldType, v uint64) interface{} {
	if t.Kind == schema.KindEnum {
		return int32(v)
	}
	switch t.PrimitiveType {
	case schema.TypeInt32:
		return int32(v)
	case schema.TypeSint32:
		return int32(protowire.DecodeZigZag(v & math.MaxUint32))
	case schema.TypeUint32:
		return uint32(v)
	case schema.TypeInt64:
		return int64(v)
	case schema.TypeSint64:
		return protowire.DecodeZigZag(v)
	case schema.TypeBool:
		return v != 0
	}
	return v
}

func typeName(t schema.FieldType) string {
	switch t.Kind {
	case schema.KindEnum:
		return t.EnumType
	case schema.KindMessage:
		return t.MessageType
	}
	return string(t.PrimitiveType)
}
