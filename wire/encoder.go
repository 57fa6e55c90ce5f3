package wire

import (
	"math"
	"sort"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/anirudhraja/proto3json/dynamic"
	"github.com/anirudhraja/proto3json/schema"
)

// Encoder handles low-level protobuf wire format encoding
type Encoder struct {
	buf []byte
}

// NewEncoder creates a new wire format encoder
func NewEncoder() *Encoder {
	return &Encoder{
		buf: make([]byte, 0),
	}
}

// Bytes returns the encoded bytes
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Reset clears the encoder buffer
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
}

// EncodeMessage encodes a message using schema - main entry point
func EncodeMessage(msg *dynamic.Message) ([]byte, error) {
	encoder := NewEncoder()
	if err := encoder.EncodeMessage(msg); err != nil {
		return nil, err
	}
	return encoder.Bytes(), nil
}

// EncodeMessage appends msg to the buffer. Fields are written in field
// number order; proto3 fields without presence are skipped when zero.
func (e *Encoder) EncodeMessage(msg *dynamic.Message) error {
	type fieldEntry struct {
		field *schema.Field
		value interface{}
	}
	var entries []fieldEntry
	msg.Range(func(f *schema.Field, v interface{}) bool {
		entries = append(entries, fieldEntry{field: f, value: v})
		return true
	})
	// Sort entries by field number in increasing order.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].field.Number < entries[j].field.Number
	})

	for _, entry := range entries {
		if err := e.encodeField(entry.field, entry.value); err != nil {
			return wrapEncodingFieldError(err, entry.field.Name)
		}
	}
	return nil
}

func (e *Encoder) encodeField(f *schema.Field, value interface{}) error {
	num := protowire.Number(f.Number)
	switch {
	case f.IsMap():
		m, _ := value.(*dynamic.Map)
		var err error
		m.Range(func(k, v interface{}) bool {
			err = e.encodeMapEntry(num, f.Type, k, v)
			return err == nil
		})
		return err
	case f.IsRepeated():
		list, _ := value.([]interface{})
		if packable(f.Type) {
			var packed []byte
			for i, item := range list {
				var err error
				packed, err = appendScalar(packed, f.Type, item)
				if err != nil {
					return wrapEncodingFieldError(err, indexName(i))
				}
			}
			e.buf = protowire.AppendTag(e.buf, num, protowire.BytesType)
			e.buf = protowire.AppendBytes(e.buf, packed)
			return nil
		}
		for i, item := range list {
			if err := e.encodeSingular(num, f.Type, item); err != nil {
				return wrapEncodingFieldError(err, indexName(i))
			}
		}
		return nil
	}
	if sub, isMsg := value.(*dynamic.Message); isMsg && sub == nil {
		return nil
	}
	if !f.HasPresence() && isZero(value) {
		return nil
	}
	return e.encodeSingular(num, f.Type, value)
}

func (e *Encoder) encodeSingular(num protowire.Number, t schema.FieldType, value interface{}) error {
	if t.Kind == schema.KindMessage {
		sub, ok := value.(*dynamic.Message)
		if !ok {
			return newFieldError("message value must be *dynamic.Message, got %T", value)
		}
		nested := NewEncoder()
		if err := nested.EncodeMessage(sub); err != nil {
			return err
		}
		e.buf = protowire.AppendTag(e.buf, num, protowire.BytesType)
		e.buf = protowire.AppendBytes(e.buf, nested.Bytes())
		return nil
	}
	e.buf = protowire.AppendTag(e.buf, num, wireTypeOf(t))
	var err error
	e.buf, err = appendScalar(e.buf, t, value)
	return err
}

// appendScalar appends a scalar or enum value without a tag.
func appendScalar(b []byte, t schema.FieldType, value interface{}) ([]byte, error) {
	if t.Kind == schema.KindEnum {
		v, ok := value.(int32)
		if !ok {
			return b, newFieldError("expected int32 enum value, got %T", value)
		}
		return protowire.AppendVarint(b, uint64(int64(v))), nil
	}
	var ok bool
	switch t.PrimitiveType {
	case schema.TypeInt32:
		var v int32
		if v, ok = value.(int32); ok {
			b = protowire.AppendVarint(b, uint64(int64(v)))
		}
	case schema.TypeSint32:
		var v int32
		if v, ok = value.(int32); ok {
			b = protowire.AppendVarint(b, protowire.EncodeZigZag(int64(v)))
		}
	case schema.TypeSfixed32:
		var v int32
		if v, ok = value.(int32); ok {
			b = protowire.AppendFixed32(b, uint32(v))
		}
	case schema.TypeUint32:
		var v uint32
		if v, ok = value.(uint32); ok {
			b = protowire.AppendVarint(b, uint64(v))
		}
	case schema.TypeFixed32:
		var v uint32
		if v, ok = value.(uint32); ok {
			b = protowire.AppendFixed32(b, v)
		}
	case schema.TypeInt64:
		var v int64
		if v, ok = value.(int64); ok {
			b = protowire.AppendVarint(b, uint64(v))
		}
	case schema.TypeSint64:
		var v int64
		if v, ok = value.(int64); ok {
			b = protowire.AppendVarint(b, protowire.EncodeZigZag(v))
		}
	case schema.TypeSfixed64:
		var v int64
		if v, ok = value.(int64); ok {
			b = protowire.AppendFixed64(b, uint64(v))
		}
	case schema.TypeUint64:
		var v uint64
		if v, ok = value.(uint64); ok {
			b = protowire.AppendVarint(b, v)
		}
	case schema.TypeFixed64:
		var v uint64
		if v, ok = value.(uint64); ok {
			b = protowire.AppendFixed64(b, v)
		}
	case schema.TypeFloat:
		var v float32
		if v, ok = value.(float32); ok {
			b = protowire.AppendFixed32(b, math.Float32bits(v))
		}
	case schema.TypeDouble:
		var v float64
		if v, ok = value.(float64); ok {
			b = protowire.AppendFixed64(b, math.Float64bits(v))
		}
	case schema.TypeBool:
		var v bool
		if v, ok = value.(bool); ok {
			b = protowire.AppendVarint(b, protowire.EncodeBool(v))
		}
	case schema.TypeString:
		var v string
		if v, ok = value.(string); ok {
			b = protowire.AppendString(b, v)
		}
	case schema.TypeBytes:
		var v []byte
		if v, ok = value.([]byte); ok {
			b = protowire.AppendBytes(b, v)
		}
	default:
		return b, newFieldError("unsupported primitive type %s", t.PrimitiveType)
	}
	if !ok {
		return b, newFieldError("unexpected Go type %T for %s", value, t.PrimitiveType)
	}
	return b, nil
}

// isZero reports whether v is the proto3 default for its type. Negative
// zero is not a default.
func isZero(v interface{}) bool {
	switch x := v.(type) {
	case int32:
		return x == 0
	case uint32:
		return x == 0
	case int64:
		return x == 0
	case uint64:
		return x == 0
	case float32:
		return math.Float32bits(x) == 0
	case float64:
		return math.Float64bits(x) == 0
	case bool:
		return !x
	case string:
		return x == ""
	case []byte:
		return len(x) == 0
	}
	return false
}
