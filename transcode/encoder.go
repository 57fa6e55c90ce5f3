package transcode

import (
	"math"

	"github.com/anirudhraja/proto3json/dynamic"
	"github.com/anirudhraja/proto3json/jsonvalue"
	"github.com/anirudhraja/proto3json/schema"
)

// ToJSON renders m as a JSON value: *jsonvalue.Object for messages, or the
// special shape of a well-known type. Object keys follow field declaration
// order. Unset fields, proto3 scalars holding their default and empty
// lists or maps are left out. Message fields explicitly set to null are
// rendered as null.
func ToJSON(svc Service, m *dynamic.Message, opts Options) (interface{}, error) {
	if m == nil || m.Descriptor() == nil {
		return nil, schemaError(nil, "", "message has no type", nil)
	}
	e := &encoder{svc: svc, opts: opts}
	return e.message(m, nil)
}

type encoder struct {
	svc  Service
	opts Options
}

func (e *encoder) message(m *dynamic.Message, p path) (interface{}, error) {
	if v, ok, err := e.wellKnownToJSON(m, p); ok {
		return v, err
	}

	out := jsonvalue.NewObject()
	var err error
	m.Range(func(f *schema.Field, v interface{}) bool {
		key := e.key(f)
		var (
			j    interface{}
			emit bool
		)
		j, emit, err = e.field(f, v, p.field(key))
		if err != nil {
			return false
		}
		if emit {
			out.Set(key, j)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (e *encoder) key(f *schema.Field) string {
	if e.opts.UseProtoNames || f.JsonName == "" {
		return f.Name
	}
	return f.JsonName
}

// field renders one stored field. The boolean is false when the field is
// left out of the output.
func (e *encoder) field(f *schema.Field, v interface{}, p path) (interface{}, bool, error) {
	switch {
	case f.IsMap():
		m, _ := v.(*dynamic.Map)
		if m.Len() == 0 {
			return nil, false, nil
		}
		out := jsonvalue.NewObject()
		var err error
		m.Range(func(key, item interface{}) bool {
			k := dynamic.FormatMapKey(key)
			var j interface{}
			j, err = e.singular(*f.Type.MapValue, item, p.key(k))
			if err != nil {
				return false
			}
			out.Set(k, j)
			return true
		})
		if err != nil {
			return nil, false, err
		}
		return out, true, nil

	case f.IsRepeated():
		list, _ := v.([]interface{})
		if len(list) == 0 {
			return nil, false, nil
		}
		out := make([]interface{}, 0, len(list))
		for i, item := range list {
			j, err := e.singular(f.Type, item, p.index(i))
			if err != nil {
				return nil, false, err
			}
			out = append(out, j)
		}
		return out, true, nil

	case f.Type.Kind == schema.KindEnum:
		enum, err := e.svc.GetEnum(f.Type.EnumType)
		if err != nil {
			return nil, false, resolutionError(p, f.Type.EnumType, err)
		}
		if enum.WellKnown == schema.WellKnownNullValue {
			return nil, true, nil
		}
	}

	if !f.HasPresence() && isDefault(v) {
		return nil, false, nil
	}
	j, err := e.singular(f.Type, v, p)
	return j, err == nil, err
}

// singular renders one value of type t: a message, an enum or a scalar.
func (e *encoder) singular(t schema.FieldType, v interface{}, p path) (interface{}, error) {
	switch t.Kind {
	case schema.KindMessage:
		sub, ok := v.(*dynamic.Message)
		if !ok {
			return nil, &TypeMismatchError{Path: p.String(), Expected: t.MessageType, Actual: goKind(v)}
		}
		if sub == nil {
			return nil, nil
		}
		return e.message(sub, p)
	case schema.KindEnum:
		return e.enumToJSON(t.EnumType, v, p)
	}
	return scalarToJSON(t.PrimitiveType, v, p)
}

// isDefault reports whether v is the proto3 default of its type. Negative
// zero is not a default.
func isDefault(v interface{}) bool {
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
