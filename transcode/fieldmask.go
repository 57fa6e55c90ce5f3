package transcode

import (
	"strings"

	"github.com/anirudhraja/proto3json/dynamic"
	"github.com/anirudhraja/proto3json/schema"
)

func fieldMaskToJSON(m *dynamic.Message, p path) (interface{}, error) {
	_, v, err := wktField(m, "paths", p)
	if err != nil {
		return nil, err
	}
	list, _ := v.([]interface{})
	paths := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, schemaError(p, schema.FieldMaskName, "paths must be strings", nil)
		}
		paths = append(paths, s)
	}
	return strings.Join(paths, ","), nil
}

func fieldMaskFromJSON(v interface{}, p path) (interface{}, error) {
	s, ok := v.(string)
	if !ok {
		return nil, typeMismatch(p, "field mask string", v)
	}
	paths := []interface{}{}
	if s == "" {
		return map[string]interface{}{"paths": paths}, nil
	}
	for _, seg := range strings.Split(s, ",") {
		if seg == "" {
			return nil, formatError(p, schema.FieldMaskName, s, "empty path")
		}
		paths = append(paths, seg)
	}
	return map[string]interface{}{"paths": paths}, nil
}
