package transcode

import (
	"strings"

	"github.com/anirudhraja/proto3json/dynamic"
	"github.com/anirudhraja/proto3json/jsonvalue"
	"github.com/anirudhraja/proto3json/schema"
)

const anyTypeKey = "@type"

// typeNameFromURL returns the part of a type URL after the last slash.
func typeNameFromURL(url string) string {
	return url[strings.LastIndex(url, "/")+1:]
}

// anyToJSON unpacks the payload and renders it with an "@type" member.
// Payloads with their own JSON shape are nested under "value"; other
// payloads have their fields spliced in after "@type".
func (e *encoder) anyToJSON(m *dynamic.Message, p path) (interface{}, error) {
	_, rawURL, err := wktField(m, "type_url", p)
	if err != nil {
		return nil, err
	}
	_, rawValue, err := wktField(m, "value", p)
	if err != nil {
		return nil, err
	}
	typeURL, _ := rawURL.(string)
	payload, _ := rawValue.([]byte)
	if typeURL == "" && len(payload) == 0 {
		return jsonvalue.NewObject(), nil
	}

	name := typeNameFromURL(typeURL)
	desc, err := e.svc.GetMessage(name)
	if err != nil {
		return nil, resolutionError(p, name, err)
	}
	inner, err := e.svc.Decode(desc, payload)
	if err != nil {
		return nil, schemaError(p, desc.FullName, "cannot decode Any payload", err)
	}
	j, err := e.message(inner, p)
	if err != nil {
		return nil, err
	}

	out := jsonvalue.NewObject()
	out.Set(anyTypeKey, typeURL)
	if desc.WellKnown.SpecialJSON() {
		out.Set("value", j)
		return out, nil
	}
	obj, ok := j.(*jsonvalue.Object)
	if !ok {
		return nil, schemaError(p, desc.FullName, "payload did not render as an object", nil)
	}
	obj.Range(func(k string, v interface{}) bool {
		out.Set(k, v)
		return true
	})
	return out, nil
}

// anyFromJSON resolves "@type", builds the payload message and packs it in
// its binary form.
func (d *decoder) anyFromJSON(v interface{}, p path) (interface{}, error) {
	obj, ok := asObject(v)
	if !ok {
		return nil, typeMismatch(p, "object", v)
	}
	rawURL, ok := obj.Get(anyTypeKey)
	if !ok {
		return nil, schemaError(p, schema.AnyName, "missing "+anyTypeKey, nil)
	}
	typeURL, ok := rawURL.(string)
	if !ok || typeURL == "" {
		return nil, schemaError(p.field(anyTypeKey), schema.AnyName, anyTypeKey+" must be a non-empty string", nil)
	}
	name := typeNameFromURL(typeURL)
	desc, err := d.svc.GetMessage(name)
	if err != nil {
		return nil, resolutionError(p.field(anyTypeKey), name, err)
	}

	var payload interface{}
	if desc.WellKnown.SpecialJSON() {
		value, ok := obj.Get("value")
		if !ok {
			return nil, schemaError(p, schema.AnyName, "missing value for "+desc.FullName, nil)
		}
		payload = value
	} else {
		fields := jsonvalue.NewObject()
		obj.Range(func(k string, item interface{}) bool {
			if k != anyTypeKey {
				fields.Set(k, item)
			}
			return true
		})
		payload = fields
	}

	inner, err := d.fromJSON(desc, payload, p)
	if err != nil {
		return nil, err
	}
	if inner == nil {
		return map[string]interface{}{"type_url": typeURL}, nil
	}
	packed, err := d.svc.Encode(inner)
	if err != nil {
		return nil, schemaError(p, desc.FullName, "cannot encode Any payload", err)
	}
	return map[string]interface{}{"type_url": typeURL, "value": packed}, nil
}
