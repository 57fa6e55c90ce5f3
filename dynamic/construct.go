package dynamic

import (
	"sort"
	"strconv"

	"github.com/pkg/errors"

	"github.com/anirudhraja/proto3json/jsonvalue"
	"github.com/anirudhraja/proto3json/schema"
)

// Construct builds a message of type desc from values keyed by proto field
// name (JSON names are accepted too). Null entries leave the field unset,
// except on a singular message field outside a oneof, which becomes an
// explicit null.
//
// Scalars may be Go numbers, json.Number or numeric strings; bytes may be
// []byte or base64 text; enums may be numbers or value names, and an unknown
// name leaves the field unset. Nested messages are maps, *jsonvalue.Object or
// *Message values, and map fields are *jsonvalue.Object, maps or *Map values.
func Construct(desc *schema.Message, values map[string]interface{}, resolver schema.Resolver) (*Message, error) {
	c := &constructor{resolver: resolver}
	return c.message(desc, values)
}

type constructor struct {
	resolver schema.Resolver
}

func (c *constructor) message(desc *schema.Message, values map[string]interface{}) (*Message, error) {
	msg := NewMessage(desc)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	oneofs := make(map[*schema.Oneof]*schema.Field)
	for _, key := range keys {
		raw := values[key]
		f := desc.FieldByName(key)
		if f == nil {
			f = desc.FieldByJSONName(key)
		}
		if f == nil {
			return nil, errors.Errorf("%s has no field %s", desc.FullName, key)
		}
		if raw == nil {
			// a singular message outside a oneof keeps null as an explicit null
			if f.Type.Kind == schema.KindMessage && !f.IsRepeated() && desc.Oneof(f) == nil {
				if err := msg.Set(f, nil); err != nil {
					return nil, errors.Wrapf(err, "field %s", f.Name)
				}
			}
			continue
		}
		if group := desc.Oneof(f); group != nil {
			if other, seen := oneofs[group]; seen && other != f {
				return nil, errors.Errorf("oneof %s.%s has multiple members set: %s, %s", desc.FullName, group.Name, other.Name, f.Name)
			}
			oneofs[group] = f
		}
		v, ok, err := c.field(f, raw)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", f.Name)
		}
		if !ok {
			continue
		}
		if err := msg.Set(f, v); err != nil {
			return nil, err
		}
	}
	return msg, nil
}

func (c *constructor) field(f *schema.Field, raw interface{}) (interface{}, bool, error) {
	switch {
	case f.IsMap():
		m, err := c.mapValue(f.Type, raw)
		return m, err == nil, err
	case f.IsRepeated():
		items, isList := raw.([]interface{})
		if !isList {
			return nil, false, errors.Errorf("expected list, got %T", raw)
		}
		list := make([]interface{}, 0, len(items))
		for i, item := range items {
			v, ok, err := c.singular(f.Type, item)
			if err != nil {
				return nil, false, errors.Wrapf(err, "index %d", i)
			}
			if !ok {
				// unknown enum names in a list fall back to the default
				v = zeroValue(f.Type)
			}
			list = append(list, v)
		}
		return list, true, nil
	}
	return c.singular(f.Type, raw)
}

func (c *constructor) mapValue(t schema.FieldType, raw interface{}) (*Map, error) {
	if m, ok := raw.(*Map); ok {
		return m, nil
	}
	out := NewMap()
	put := func(k string, v interface{}) error {
		key, err := parseMapKey(*t.MapKey, k)
		if err != nil {
			return err
		}
		if v == nil {
			v = zeroValue(*t.MapValue)
			if t.MapValue.Kind == schema.KindMessage {
				desc, err := c.resolver.GetMessage(t.MapValue.MessageType)
				if err != nil {
					return err
				}
				v = NewMessage(desc)
			}
			out.Set(key, v)
			return nil
		}
		value, ok, err := c.singular(*t.MapValue, v)
		if err != nil {
			return errors.Wrapf(err, "key %q", k)
		}
		if !ok {
			value = zeroValue(*t.MapValue)
		}
		out.Set(key, value)
		return nil
	}
	switch m := raw.(type) {
	case *jsonvalue.Object:
		var err error
		m.Range(func(k string, v interface{}) bool {
			err = put(k, v)
			return err == nil
		})
		if err != nil {
			return nil, err
		}
	case map[string]interface{}:
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := put(k, m[k]); err != nil {
				return nil, err
			}
		}
	default:
		return nil, errors.Errorf("expected map, got %T", raw)
	}
	return out, nil
}

// singular converts one non-list value. The boolean is false when the value
// should leave the field unset.
func (c *constructor) singular(t schema.FieldType, raw interface{}) (interface{}, bool, error) {
	switch t.Kind {
	case schema.KindMessage:
		desc, err := c.resolver.GetMessage(t.MessageType)
		if err != nil {
			return nil, false, err
		}
		switch v := raw.(type) {
		case *Message:
			if v.desc.FullName != desc.FullName {
				return nil, false, errors.Errorf("expected message %s, got %s", desc.FullName, v.desc.FullName)
			}
			return v, true, nil
		case map[string]interface{}:
			m, err := c.message(desc, v)
			return m, err == nil, err
		case *jsonvalue.Object:
			values := make(map[string]interface{}, v.Len())
			v.Range(func(k string, item interface{}) bool {
				values[k] = item
				return true
			})
			m, err := c.message(desc, values)
			return m, err == nil, err
		}
		return nil, false, errors.Errorf("expected object for %s, got %T", desc.FullName, raw)
	case schema.KindEnum:
		if name, isName := raw.(string); isName {
			enum, err := c.resolver.GetEnum(t.EnumType)
			if err != nil {
				return nil, false, err
			}
			if n, ok := enum.NumberOf(name); ok {
				return n, true, nil
			}
			if _, err := strconv.ParseInt(name, 10, 32); err != nil {
				return nil, false, nil
			}
		}
		n, err := coerceToInt32(raw)
		return n, err == nil, err
	case schema.KindPrimitive:
		v, err := coercePrimitive(t.PrimitiveType, raw)
		return v, err == nil, err
	}
	return nil, false, errors.Errorf("unsupported kind %s", t.Kind)
}

func coercePrimitive(t schema.PrimitiveType, raw interface{}) (interface{}, error) {
	switch t {
	case schema.TypeInt32, schema.TypeSint32, schema.TypeSfixed32:
		return coerceToInt32(raw)
	case schema.TypeUint32, schema.TypeFixed32:
		return coerceToUint32(raw)
	case schema.TypeInt64, schema.TypeSint64, schema.TypeSfixed64:
		return coerceToInt64(raw)
	case schema.TypeUint64, schema.TypeFixed64:
		return coerceToUint64(raw)
	case schema.TypeFloat:
		f, err := coerceToFloat(raw, 32)
		return float32(f), err
	case schema.TypeDouble:
		return coerceToFloat(raw, 64)
	case schema.TypeBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, errors.Errorf("expected bool, got %T", raw)
		}
		return b, nil
	case schema.TypeString:
		s, ok := raw.(string)
		if !ok {
			return nil, errors.Errorf("expected string, got %T", raw)
		}
		return s, nil
	case schema.TypeBytes:
		switch b := raw.(type) {
		case []byte:
			return b, nil
		case string:
			return decodeBase64(b)
		}
		return nil, errors.Errorf("expected bytes, got %T", raw)
	}
	return nil, errors.Errorf("unknown primitive type %s", t)
}

// parseMapKey converts the string form of a map key to its Go type.
func parseMapKey(t schema.FieldType, s string) (interface{}, error) {
	switch t.PrimitiveType {
	case schema.TypeString:
		return s, nil
	case schema.TypeBool:
		b, err := strconv.ParseBool(s)
		if err != nil || (s != "true" && s != "false") {
			return nil, errors.Errorf("invalid bool map key %q", s)
		}
		return b, nil
	case schema.TypeInt32, schema.TypeSint32, schema.TypeSfixed32:
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return nil, errors.Errorf("invalid %s map key %q", t.PrimitiveType, s)
		}
		return int32(n), nil
	case schema.TypeUint32, schema.TypeFixed32:
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return nil, errors.Errorf("invalid %s map key %q", t.PrimitiveType, s)
		}
		return uint32(n), nil
	case schema.TypeInt64, schema.TypeSint64, schema.TypeSfixed64:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errors.Errorf("invalid %s map key %q", t.PrimitiveType, s)
		}
		return n, nil
	case schema.TypeUint64, schema.TypeFixed64:
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, errors.Errorf("invalid %s map key %q", t.PrimitiveType, s)
		}
		return n, nil
	}
	return nil, errors.Errorf("invalid map key type %s", t.PrimitiveType)
}

// FormatMapKey returns the JSON object key for a map key.
func FormatMapKey(key interface{}) string {
	switch k := key.(type) {
	case string:
		return k
	case bool:
		return strconv.FormatBool(k)
	case int32:
		return strconv.FormatInt(int64(k), 10)
	case int64:
		return strconv.FormatInt(k, 10)
	case uint32:
		return strconv.FormatUint(uint64(k), 10)
	case uint64:
		return strconv.FormatUint(k, 10)
	}
	return ""
}
