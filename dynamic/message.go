// Package dynamic holds protobuf messages whose layout is only known at
// runtime through a schema.Message.
//
// Field values use these Go types:
//
//	int32, sint32, sfixed32, enum  int32
//	uint32, fixed32                uint32
//	int64, sint64, sfixed64        int64
//	uint64, fixed64                uint64
//	float                          float32
//	double                         float64
//	bool, string, bytes            bool, string, []byte
//	message                        *Message
//	repeated                       []interface{} of the element type
//	map                            *Map
package dynamic

import (
	"github.com/pkg/errors"

	"github.com/anirudhraja/proto3json/schema"
)

// Message is a protobuf message value with per-field presence.
type Message struct {
	desc   *schema.Message
	values map[int32]interface{}
}

// NewMessage returns an empty message of the given type.
func NewMessage(desc *schema.Message) *Message {
	return &Message{desc: desc, values: make(map[int32]interface{})}
}

// Descriptor returns the message type.
func (m *Message) Descriptor() *schema.Message {
	return m.desc
}

// Has reports whether f holds a value. A message field set to null is not
// considered present.
func (m *Message) Has(f *schema.Field) bool {
	v, ok := m.values[f.Number]
	if !ok {
		return false
	}
	if sub, isMsg := v.(*Message); isMsg && sub == nil {
		return false
	}
	return true
}

// IsNull reports whether the message field f was explicitly set to null.
func (m *Message) IsNull(f *schema.Field) bool {
	v, ok := m.values[f.Number]
	if !ok {
		return false
	}
	sub, isMsg := v.(*Message)
	return isMsg && sub == nil
}

// Lookup returns the stored value of f and whether one was set.
func (m *Message) Lookup(f *schema.Field) (interface{}, bool) {
	if !m.Has(f) {
		return nil, false
	}
	return m.values[f.Number], true
}

// Get returns the value of f, or its default when unset. Unset message,
// repeated and map fields return nil.
func (m *Message) Get(f *schema.Field) interface{} {
	if v, ok := m.Lookup(f); ok {
		return v
	}
	return DefaultValue(f)
}

// Set stores v in f after checking its Go type. Setting an empty list or map
// clears the field; setting a oneof member clears the other members.
// Setting a message field to nil marks it as explicitly null.
func (m *Message) Set(f *schema.Field, v interface{}) error {
	if m.desc.FieldByNumber(f.Number) != f {
		return errors.Errorf("field %s does not belong to %s", f.Name, m.desc.FullName)
	}
	switch {
	case f.IsMap():
		mv, ok := v.(*Map)
		if !ok {
			return errors.Errorf("field %s: expected *dynamic.Map, got %T", f.Name, v)
		}
		if mv == nil || mv.Len() == 0 {
			m.Clear(f)
			return nil
		}
		if err := mv.check(f.Type); err != nil {
			return errors.Wrapf(err, "field %s", f.Name)
		}
	case f.IsRepeated():
		list, ok := v.([]interface{})
		if !ok {
			return errors.Errorf("field %s: expected []interface{}, got %T", f.Name, v)
		}
		if len(list) == 0 {
			m.Clear(f)
			return nil
		}
		for i, e := range list {
			if err := checkSingular(f.Type, e); err != nil {
				return errors.Wrapf(err, "field %s[%d]", f.Name, i)
			}
		}
	case f.Type.Kind == schema.KindMessage && v == nil:
		v = (*Message)(nil)
	default:
		if err := checkSingular(f.Type, v); err != nil {
			return errors.Wrapf(err, "field %s", f.Name)
		}
	}

	if group := m.desc.Oneof(f); group != nil {
		for _, member := range group.Fields {
			if member != f {
				delete(m.values, member.Number)
			}
		}
	}
	m.values[f.Number] = v
	return nil
}

// Clear removes any value stored for f.
func (m *Message) Clear(f *schema.Field) {
	delete(m.values, f.Number)
}

// Range calls fn for every stored field in declaration order, including
// message fields set to null. It stops when fn returns false.
func (m *Message) Range(fn func(f *schema.Field, v interface{}) bool) {
	for _, f := range m.desc.Fields {
		v, ok := m.values[f.Number]
		if !ok {
			continue
		}
		if !fn(f, v) {
			return
		}
	}
}

// WhichOneof returns the member of group that is set, or nil.
func (m *Message) WhichOneof(group *schema.Oneof) *schema.Field {
	for _, f := range group.Fields {
		if m.Has(f) {
			return f
		}
	}
	return nil
}

// GetByName returns the value of the field with the given proto name.
func (m *Message) GetByName(name string) (interface{}, error) {
	f := m.desc.FieldByName(name)
	if f == nil {
		return nil, errors.Errorf("%s has no field %s", m.desc.FullName, name)
	}
	return m.Get(f), nil
}

// SetByName sets the field with the given proto name.
func (m *Message) SetByName(name string, v interface{}) error {
	f := m.desc.FieldByName(name)
	if f == nil {
		return errors.Errorf("%s has no field %s", m.desc.FullName, name)
	}
	return m.Set(f, v)
}

// DefaultValue returns the value an unset field reads as.
func DefaultValue(f *schema.Field) interface{} {
	if f.Label == schema.LabelRepeated || f.Type.Kind == schema.KindMap {
		return nil
	}
	return zeroValue(f.Type)
}

func zeroValue(t schema.FieldType) interface{} {
	switch t.Kind {
	case schema.KindEnum:
		return int32(0)
	case schema.KindPrimitive:
		switch t.PrimitiveType {
		case schema.TypeInt32, schema.TypeSint32, schema.TypeSfixed32:
			return int32(0)
		case schema.TypeUint32, schema.TypeFixed32:
			return uint32(0)
		case schema.TypeInt64, schema.TypeSint64, schema.TypeSfixed64:
			return int64(0)
		case schema.TypeUint64, schema.TypeFixed64:
			return uint64(0)
		case schema.TypeFloat:
			return float32(0)
		case schema.TypeDouble:
			return float64(0)
		case schema.TypeBool:
			return false
		case schema.TypeString:
			return ""
		case schema.TypeBytes:
			return []byte(nil)
		}
	}
	return nil
}

// checkSingular verifies that v has the Go type used for t.
func checkSingular(t schema.FieldType, v interface{}) error {
	var ok bool
	switch t.Kind {
	case schema.KindMessage:
		var sub *Message
		sub, ok = v.(*Message)
		if ok && sub != nil && sub.desc.FullName != t.MessageType {
			return errors.Errorf("expected message %s, got %s", t.MessageType, sub.desc.FullName)
		}
		if ok && sub == nil {
			return errors.New("nil message")
		}
	case schema.KindEnum:
		_, ok = v.(int32)
	case schema.KindPrimitive:
		want := zeroValue(t)
		switch want.(type) {
		case int32:
			_, ok = v.(int32)
		case uint32:
			_, ok = v.(uint32)
		case int64:
			_, ok = v.(int64)
		case uint64:
			_, ok = v.(uint64)
		case float32:
			_, ok = v.(float32)
		case float64:
			_, ok = v.(float64)
		case bool:
			_, ok = v.(bool)
		case string:
			_, ok = v.(string)
		case []byte:
			_, ok = v.([]byte)
		}
	default:
		return errors.Errorf("unsupported kind %s", t.Kind)
	}
	if !ok {
		return errors.Errorf("expected Go type %T for %s, got %T", zeroValue(t), describe(t), v)
	}
	return nil
}

func describe(t schema.FieldType) string {
	switch t.Kind {
	case schema.KindMessage:
		return t.MessageType
	case schema.KindEnum:
		return t.EnumType
	case schema.KindPrimitive:
		return string(t.PrimitiveType)
	}
	return string(t.Kind)
}
