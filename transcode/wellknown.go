package transcode

import (
	"github.com/anirudhraja/proto3json/dynamic"
	"github.com/anirudhraja/proto3json/jsonvalue"
	"github.com/anirudhraja/proto3json/schema"
)

// wellKnownToJSON renders messages whose type has its own JSON shape. The
// boolean is false for every other type.
func (e *encoder) wellKnownToJSON(m *dynamic.Message, p path) (interface{}, bool, error) {
	var (
		v   interface{}
		err error
	)
	switch wk := m.Descriptor().WellKnown; {
	case wk == schema.WellKnownAny:
		v, err = e.anyToJSON(m, p)
	case wk == schema.WellKnownDuration:
		v, err = durationToJSON(m, p)
	case wk == schema.WellKnownTimestamp:
		v, err = timestampToJSON(m, p)
	case wk == schema.WellKnownFieldMask:
		v, err = fieldMaskToJSON(m, p)
	case wk == schema.WellKnownStruct:
		v, err = structToJSON(m, p)
	case wk == schema.WellKnownValue:
		v, err = valueToJSON(m, p)
	case wk == schema.WellKnownListValue:
		v, err = listValueToJSON(m, p)
	case wk.IsWrapper():
		v, err = wrapperToJSON(m, p)
	default:
		return nil, false, nil
	}
	return v, true, err
}

// wellKnownFromJSON is the reverse of wellKnownToJSON. Value and the
// wrappers handle null themselves; for the other types null never gets here.
func (d *decoder) wellKnownFromJSON(msg *schema.Message, v interface{}, p path) (interface{}, bool, error) {
	var (
		out interface{}
		err error
	)
	switch wk := msg.WellKnown; {
	case wk == schema.WellKnownValue:
		out, err = valueFromJSON(v, p)
	case wk.IsWrapper():
		out, err = wrapperFromJSON(msg, v, p)
	case v == nil:
		return nil, false, nil
	case wk == schema.WellKnownAny:
		out, err = d.anyFromJSON(v, p)
	case wk == schema.WellKnownDuration:
		out, err = durationFromJSON(v, p)
	case wk == schema.WellKnownTimestamp:
		out, err = timestampFromJSON(v, p)
	case wk == schema.WellKnownFieldMask:
		out, err = fieldMaskFromJSON(v, p)
	case wk == schema.WellKnownStruct:
		out, err = structFromJSON(v, p)
	case wk == schema.WellKnownListValue:
		list, ok := v.([]interface{})
		if !ok {
			return nil, true, typeMismatch(p, "array", v)
		}
		out, err = listValueFromJSON(list, p)
	default:
		return nil, false, nil
	}
	return out, true, err
}

// wktField returns the value of the named field of a well-known message.
// The stored value is returned, or the field default when unset.
func wktField(m *dynamic.Message, name string, p path) (*schema.Field, interface{}, error) {
	desc := m.Descriptor()
	f := desc.FieldByName(name)
	if f == nil {
		return nil, nil, schemaError(p, desc.FullName, "missing field "+name, nil)
	}
	return f, m.Get(f), nil
}

func wktInt64(m *dynamic.Message, name string, p path) (int64, error) {
	_, v, err := wktField(m, name, p)
	if err != nil {
		return 0, err
	}
	n, ok := v.(int64)
	if !ok {
		return 0, schemaError(p, m.Descriptor().FullName, "field "+name+" is not int64", nil)
	}
	return n, nil
}

func wktInt32(m *dynamic.Message, name string, p path) (int32, error) {
	_, v, err := wktField(m, name, p)
	if err != nil {
		return 0, err
	}
	n, ok := v.(int32)
	if !ok {
		return 0, schemaError(p, m.Descriptor().FullName, "field "+name+" is not int32", nil)
	}
	return n, nil
}

// asObject returns v as an ordered object. Plain maps are accepted and
// converted with their keys sorted.
func asObject(v interface{}) (*jsonvalue.Object, bool) {
	switch o := v.(type) {
	case *jsonvalue.Object:
		if o == nil {
			return nil, false
		}
		return o, true
	case map[string]interface{}:
		return jsonvalue.FromMap(o), true
	}
	return nil, false
}
