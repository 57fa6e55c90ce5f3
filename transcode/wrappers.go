package transcode

import (
	"github.com/anirudhraja/proto3json/dynamic"
	"github.com/anirudhraja/proto3json/schema"
)

// wrapperToJSON renders the wrapped scalar. An unset value field reads as
// its default; only a wrapper field set to null renders null, and that never
// reaches here.
func wrapperToJSON(m *dynamic.Message, p path) (interface{}, error) {
	desc := m.Descriptor()
	prim, _ := desc.WellKnown.WrapperPrimitive()
	f := desc.FieldByName("value")
	if f == nil {
		return nil, schemaError(p, desc.FullName, "missing field value", nil)
	}
	return scalarToJSON(prim, m.Get(f), p)
}

// wrapperFromJSON wraps a scalar. Null yields no wrapper at all, which the
// constructor keeps as an explicit null.
func wrapperFromJSON(msg *schema.Message, v interface{}, p path) (interface{}, error) {
	prim, _ := msg.WellKnown.WrapperPrimitive()
	switch v.(type) {
	case nil:
		return nil, nil
	case []interface{}:
		return nil, typeMismatch(p, string(prim), v)
	}
	if _, isObject := asObject(v); isObject {
		return nil, typeMismatch(p, string(prim), v)
	}
	s, err := scalarFromJSON(prim, v, p)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"value": s}, nil
}
