package transcode

import (
	"encoding/json"

	"github.com/anirudhraja/proto3json/dynamic"
	"github.com/anirudhraja/proto3json/jsonvalue"
	"github.com/anirudhraja/proto3json/schema"
)

// Members of google.protobuf.Value in the order they are checked.
var valueKinds = []string{
	"null_value",
	"number_value",
	"string_value",
	"bool_value",
	"struct_value",
	"list_value",
}

// valueToJSON renders whichever member of the Value is set. A Value with no
// member set is null.
func valueToJSON(m *dynamic.Message, p path) (interface{}, error) {
	if m == nil {
		return nil, nil
	}
	desc := m.Descriptor()
	for _, name := range valueKinds {
		f := desc.FieldByName(name)
		if f == nil {
			return nil, schemaError(p, desc.FullName, "missing field "+name, nil)
		}
		v, ok := m.Lookup(f)
		if !ok {
			continue
		}
		switch x := v.(type) {
		case int32:
			return nil, nil
		case float64:
			return floatToJSON(x, 64), nil
		case string:
			return x, nil
		case bool:
			return x, nil
		case *dynamic.Message:
			if name == "struct_value" {
				return structToJSON(x, p)
			}
			return listValueToJSON(x, p)
		}
		return nil, schemaError(p, desc.FullName, "unexpected "+goKind(v)+" in "+name, nil)
	}
	return nil, nil
}

func structToJSON(m *dynamic.Message, p path) (interface{}, error) {
	_, v, err := wktField(m, "fields", p)
	if err != nil {
		return nil, err
	}
	out := jsonvalue.NewObject()
	fields, _ := v.(*dynamic.Map)
	fields.Range(func(key, item interface{}) bool {
		k := dynamic.FormatMapKey(key)
		sub, _ := item.(*dynamic.Message)
		var j interface{}
		j, err = valueToJSON(sub, p.key(k))
		if err != nil {
			return false
		}
		out.Set(k, j)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func listValueToJSON(m *dynamic.Message, p path) (interface{}, error) {
	_, v, err := wktField(m, "values", p)
	if err != nil {
		return nil, err
	}
	list, _ := v.([]interface{})
	out := make([]interface{}, 0, len(list))
	for i, item := range list {
		sub, _ := item.(*dynamic.Message)
		j, err := valueToJSON(sub, p.index(i))
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, nil
}

// valueFromJSON picks the Value member matching the JSON kind of v.
func valueFromJSON(v interface{}, p path) (interface{}, error) {
	switch x := v.(type) {
	case nil:
		return map[string]interface{}{"null_value": nullValueName}, nil
	case bool:
		return map[string]interface{}{"bool_value": x}, nil
	case string:
		return map[string]interface{}{"string_value": x}, nil
	case json.Number, int, int32, int64, uint32, uint64, float32, float64:
		f, err := floatFromJSON(schema.TypeDouble, x, p, 64)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"number_value": f}, nil
	case []interface{}:
		list, err := listValueFromJSON(x, p)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"list_value": list}, nil
	}
	if _, isObject := asObject(v); isObject {
		s, err := structFromJSON(v, p)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"struct_value": s}, nil
	}
	return nil, typeMismatch(p, "JSON value", v)
}

func structFromJSON(v interface{}, p path) (interface{}, error) {
	obj, ok := asObject(v)
	if !ok {
		return nil, typeMismatch(p, "object", v)
	}
	fields := jsonvalue.NewObject()
	var err error
	obj.Range(func(k string, item interface{}) bool {
		var iv interface{}
		iv, err = valueFromJSON(item, p.key(k))
		if err != nil {
			return false
		}
		fields.Set(k, iv)
		return true
	})
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"fields": fields}, nil
}

func listValueFromJSON(list []interface{}, p path) (interface{}, error) {
	values := make([]interface{}, 0, len(list))
	for i, item := range list {
		iv, err := valueFromJSON(item, p.index(i))
		if err != nil {
			return nil, err
		}
		values = append(values, iv)
	}
	return map[string]interface{}{"values": values}, nil
}
