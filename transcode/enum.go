package transcode

import (
	"encoding/json"
	"strconv"

	"github.com/anirudhraja/proto3json/schema"
)

// nullValueName is the only member of google.protobuf.NullValue.
const nullValueName = "NULL_VALUE"

func (e *encoder) enumToJSON(enumType string, v interface{}, p path) (interface{}, error) {
	enum, err := e.svc.GetEnum(enumType)
	if err != nil {
		return nil, resolutionError(p, enumType, err)
	}
	if enum.WellKnown == schema.WellKnownNullValue {
		return nil, nil
	}
	n, ok := v.(int32)
	if !ok {
		return nil, &TypeMismatchError{Path: p.String(), Expected: "enum " + enum.FullName, Actual: goKind(v)}
	}
	if !e.opts.NumericEnums {
		if name, known := enum.NameOf(n); known {
			return name, nil
		}
	}
	// unknown numbers are kept so newer peers can still read them
	return json.Number(strconv.FormatInt(int64(n), 10)), nil
}

// enumFromJSON resolves an enum value to the form handed to the
// constructor. Names pass through unchanged, even unknown ones. Known numbers
// become their name and unknown numbers stay numbers.
func enumFromJSON(svc Service, enumType string, v interface{}, p path) (interface{}, error) {
	enum, err := svc.GetEnum(enumType)
	if err != nil {
		return nil, resolutionError(p, enumType, err)
	}
	if enum.WellKnown == schema.WellKnownNullValue && v == nil {
		return nullValueName, nil
	}
	switch x := v.(type) {
	case string:
		return x, nil
	case json.Number, int, int32, int64, uint32, uint64, float32, float64:
		n, err := integerFromJSON(schema.TypeInt32, x, p)
		if err != nil {
			return nil, err
		}
		if !n.IsInt64() || n.Int64() < -1<<31 || n.Int64() > 1<<31-1 {
			return nil, &TypeMismatchError{Path: p.String(), Expected: "enum " + enum.FullName, Actual: "out-of-range number " + n.String()}
		}
		if name, known := enum.NameOf(int32(n.Int64())); known {
			return name, nil
		}
		return json.Number(n.String()), nil
	}
	return nil, typeMismatch(p, "enum "+enum.FullName, v)
}

// acceptsNull reports whether a list element or map value of type t may be
// JSON null.
func acceptsNull(svc Service, t schema.FieldType, p path) (bool, error) {
	switch t.Kind {
	case schema.KindEnum:
		enum, err := svc.GetEnum(t.EnumType)
		if err != nil {
			return false, resolutionError(p, t.EnumType, err)
		}
		return enum.WellKnown == schema.WellKnownNullValue, nil
	case schema.KindMessage:
		msg, err := svc.GetMessage(t.MessageType)
		if err != nil {
			return false, resolutionError(p, t.MessageType, err)
		}
		return msg.WellKnown == schema.WellKnownValue, nil
	}
	return false, nil
}
