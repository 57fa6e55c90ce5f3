package wire

import (
	"strconv"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/anirudhraja/proto3json/dynamic"
	"github.com/anirudhraja/proto3json/schema"
)

// encodeMapEntry writes one key/value pair as a length-delimited entry
// message. Both key and value are always written.
func (e *Encoder) encodeMapEntry(num protowire.Number, t schema.FieldType, key, value interface{}) error {
	entry := NewEncoder()
	if err := entry.encodeSingular(mapKeyNumber, *t.MapKey, key); err != nil {
		return wrapEncodingFieldError(err, "key")
	}
	if err := entry.encodeSingular(mapValueNumber, *t.MapValue, value); err != nil {
		return wrapEncodingFieldError(err, dynamic.FormatMapKey(key))
	}
	e.buf = protowire.AppendTag(e.buf, num, protowire.BytesType)
	e.buf = protowire.AppendBytes(e.buf, entry.Bytes())
	return nil
}

// decodeMapEntry decodes one entry message. Missing keys and values take
// their defaults; a missing message value is an empty message.
func (d *Decoder) decodeMapEntry(t schema.FieldType, b []byte) (interface{}, interface{}, error) {
	var key, value interface{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, nil, protowire.ParseError(n)
		}
		b = b[n:]
		var err error
		switch num {
		case mapKeyNumber:
			key, n, err = d.decodeScalar(*t.MapKey, typ, b)
			if err != nil {
				return nil, nil, wrapDecodingFieldError(err, "key")
			}
		case mapValueNumber:
			if t.MapValue.Kind == schema.KindMessage {
				if typ != protowire.BytesType {
					return nil, nil, newFieldError("invalid wire type %d for message value", typ)
				}
				raw, m := protowire.ConsumeBytes(b)
				if m < 0 {
					return nil, nil, protowire.ParseError(m)
				}
				value, err = d.decodeNested(t.MapValue.MessageType, raw, nil)
				n = m
			} else {
				value, n, err = d.decodeScalar(*t.MapValue, typ, b)
			}
			if err != nil {
				return nil, nil, wrapDecodingFieldError(err, "value")
			}
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, nil, protowire.ParseError(n)
			}
		}
		b = b[n:]
	}

	if key == nil {
		key = defaultOf(*t.MapKey)
	}
	if value == nil {
		if t.MapValue.Kind == schema.KindMessage {
			desc, err := d.resolver.GetMessage(t.MapValue.MessageType)
			if err != nil {
				return nil, nil, err
			}
			value = dynamic.NewMessage(desc)
		} else {
			value = defaultOf(*t.MapValue)
		}
	}
	return key, value, nil
}

func defaultOf(t schema.FieldType) interface{} {
	return dynamic.DefaultValue(&schema.Field{Label: schema.LabelOptional, Type: t})
}

func indexName(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}
