package transcode

import (
	"strconv"

	"github.com/anirudhraja/proto3json/dynamic"
	"github.com/anirudhraja/proto3json/jsonvalue"
	"github.com/anirudhraja/proto3json/schema"
)

// FromJSON builds a message of type msg from a JSON value. A top-level null
// yields a nil message and no error, except for Value, which takes null as a
// value of its own.
func FromJSON(svc Service, msg *schema.Message, v interface{}) (*dynamic.Message, error) {
	if msg == nil {
		return nil, schemaError(nil, "", "no message type", nil)
	}
	d := &decoder{svc: svc}
	return d.fromJSON(msg, v, nil)
}

// ToInternal converts a JSON value to the plain form the constructor takes:
// a map keyed by proto field name for messages, nil for null. It performs
// every shape check FromJSON does.
func ToInternal(svc Service, msg *schema.Message, v interface{}) (interface{}, error) {
	if msg == nil {
		return nil, schemaError(nil, "", "no message type", nil)
	}
	d := &decoder{svc: svc}
	return d.message(msg, v, nil)
}

type decoder struct {
	svc Service
}

func (d *decoder) fromJSON(msg *schema.Message, v interface{}, p path) (*dynamic.Message, error) {
	internal, err := d.message(msg, v, p)
	if err != nil {
		return nil, err
	}
	if internal == nil {
		return nil, nil
	}
	values, ok := internal.(map[string]interface{})
	if !ok {
		return nil, schemaError(p, msg.FullName, "unexpected internal value "+goKind(internal), nil)
	}
	m, err := d.svc.Construct(msg, values)
	if err != nil {
		return nil, schemaError(p, msg.FullName, "construction failed", err)
	}
	return m, nil
}

func (d *decoder) message(msg *schema.Message, v interface{}, p path) (interface{}, error) {
	if out, ok, err := d.wellKnownFromJSON(msg, v, p); ok {
		return out, err
	}
	if v == nil {
		return nil, nil
	}
	obj, ok := asObject(v)
	if !ok {
		return nil, typeMismatch(p, "object", v)
	}

	result := make(map[string]interface{}, obj.Len())
	var err error
	obj.Range(func(k string, item interface{}) bool {
		f := msg.FieldByJSONName(k)
		if f == nil {
			// unknown keys are dropped
			return true
		}
		var iv interface{}
		iv, err = d.field(f, item, p.field(k))
		if err != nil {
			return false
		}
		result[f.Name] = iv
		return true
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (d *decoder) field(f *schema.Field, v interface{}, p path) (interface{}, error) {
	switch {
	case f.IsMap():
		obj, ok := asObject(v)
		if !ok {
			return nil, typeMismatch(p, "object", v)
		}
		out := jsonvalue.NewObject()
		var err error
		obj.Range(func(k string, item interface{}) bool {
			kp := p.key(k)
			if err = checkMapKey(*f.Type.MapKey, k, kp); err != nil {
				return false
			}
			var iv interface{}
			iv, err = d.element(*f.Type.MapValue, item, kp)
			if err != nil {
				return false
			}
			out.Set(k, iv)
			return true
		})
		if err != nil {
			return nil, err
		}
		return out, nil

	case f.IsRepeated():
		if v == nil {
			return []interface{}{}, nil
		}
		list, ok := v.([]interface{})
		if !ok {
			return nil, typeMismatch(p, "array", v)
		}
		out := make([]interface{}, 0, len(list))
		for i, item := range list {
			iv, err := d.element(f.Type, item, p.index(i))
			if err != nil {
				return nil, err
			}
			out = append(out, iv)
		}
		return out, nil
	}
	return d.singular(f.Type, v, p)
}

// element converts a list element or map value. Only Value and NullValue
// elements may be null.
func (d *decoder) element(t schema.FieldType, v interface{}, p path) (interface{}, error) {
	if v == nil {
		ok, err := acceptsNull(d.svc, t, p)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, typeMismatch(p, typeLabel(t), v)
		}
	}
	return d.singular(t, v, p)
}

func (d *decoder) singular(t schema.FieldType, v interface{}, p path) (interface{}, error) {
	switch t.Kind {
	case schema.KindMessage:
		desc, err := d.svc.GetMessage(t.MessageType)
		if err != nil {
			return nil, resolutionError(p, t.MessageType, err)
		}
		return d.message(desc, v, p)
	case schema.KindEnum:
		return enumFromJSON(d.svc, t.EnumType, v, p)
	}
	return scalarFromJSON(t.PrimitiveType, v, p)
}

// checkMapKey validates the JSON object key of a map entry against the key
// type.
func checkMapKey(t schema.FieldType, k string, p path) error {
	var err error
	switch t.PrimitiveType {
	case schema.TypeString:
		return nil
	case schema.TypeBool:
		if k != "true" && k != "false" {
			return &TypeMismatchError{Path: p.String(), Expected: "bool map key", Actual: strconv.Quote(k)}
		}
		return nil
	case schema.TypeInt32, schema.TypeSint32, schema.TypeSfixed32:
		_, err = strconv.ParseInt(k, 10, 32)
	case schema.TypeUint32, schema.TypeFixed32:
		_, err = strconv.ParseUint(k, 10, 32)
	case schema.TypeInt64, schema.TypeSint64, schema.TypeSfixed64:
		_, err = strconv.ParseInt(k, 10, 64)
	case schema.TypeUint64, schema.TypeFixed64:
		_, err = strconv.ParseUint(k, 10, 64)
	default:
		return schemaError(p, string(t.PrimitiveType), "invalid map key type", nil)
	}
	if err != nil {
		return &TypeMismatchError{Path: p.String(), Expected: string(t.PrimitiveType) + " map key", Actual: strconv.Quote(k)}
	}
	return nil
}

func typeLabel(t schema.FieldType) string {
	switch t.Kind {
	case schema.KindMessage:
		return t.MessageType
	case schema.KindEnum:
		return "enum " + t.EnumType
	}
	return string(t.PrimitiveType)
}
