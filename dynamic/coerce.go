package dynamic

import (
	"encoding/base64"
	"encoding/json"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// numberText returns the textual form of numeric inputs that are not Go
// numbers: JSON numbers and numeric strings.
func numberText(v interface{}) (string, bool) {
	switch t := v.(type) {
	case json.Number:
		return t.String(), true
	case string:
		return strings.TrimSpace(t), true
	}
	return "", false
}

// integralRat parses s exactly, accepting fraction and exponent forms as
// long as the value is a whole number.
func integralRat(s string) (*big.Int, error) {
	if iv, ok := new(big.Int).SetString(s, 10); ok {
		return iv, nil
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok || strings.ContainsAny(s, "xXpP_/") {
		return nil, errors.Errorf("invalid integer %q", s)
	}
	if !r.IsInt() {
		return nil, errors.Errorf("non-integer numeric %q for integer field", s)
	}
	return r.Num(), nil
}

// Helpers to coerce inputs to integers (accept exponent/float forms if integral)
func coerceToInt64(v interface{}) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case int32:
		return int64(t), nil
	case int:
		return int64(t), nil
	case uint32:
		return int64(t), nil
	case uint64:
		if t > math.MaxInt64 {
			return 0, errors.Errorf("value %d out of range", t)
		}
		return int64(t), nil
	case float32:
		return floatToInt64(float64(t))
	case float64:
		return floatToInt64(t)
	}
	s, ok := numberText(v)
	if !ok {
		return 0, errors.Errorf("expected integer-like, got %T", v)
	}
	n, err := integralRat(s)
	if err != nil {
		return 0, err
	}
	if !n.IsInt64() {
		return 0, errors.Errorf("value %s out of range", s)
	}
	return n.Int64(), nil
}

func coerceToUint64(v interface{}) (uint64, error) {
	switch t := v.(type) {
	case uint64:
		return t, nil
	case uint32:
		return uint64(t), nil
	case int64, int32, int, float32, float64:
		iv, err := coerceToInt64(t)
		if err != nil {
			if f, isFloat := t.(float64); isFloat && f >= 0 && f == math.Trunc(f) && f < math.MaxUint64 {
				return uint64(f), nil
			}
			return 0, err
		}
		if iv < 0 {
			return 0, errors.Errorf("negative value %d for unsigned field", iv)
		}
		return uint64(iv), nil
	}
	s, ok := numberText(v)
	if !ok {
		return 0, errors.Errorf("expected unsigned-integer-like, got %T", v)
	}
	n, err := integralRat(s)
	if err != nil {
		return 0, err
	}
	if n.Sign() < 0 || !n.IsUint64() {
		return 0, errors.Errorf("value %s out of range", s)
	}
	return n.Uint64(), nil
}

func floatToInt64(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, errors.Errorf("non-integer numeric %v for integer field", f)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, errors.Errorf("value %v out of range", f)
	}
	return int64(f), nil
}

func coerceToInt32(v interface{}) (int32, error) {
	iv, err := coerceToInt64(v)
	if err != nil {
		return 0, err
	}
	if iv < math.MinInt32 || iv > math.MaxInt32 {
		return 0, errors.Errorf("value %d out of int32 range", iv)
	}
	return int32(iv), nil
}

func coerceToUint32(v interface{}) (uint32, error) {
	uv, err := coerceToUint64(v)
	if err != nil {
		return 0, err
	}
	if uv > math.MaxUint32 {
		return 0, errors.Errorf("value %d out of uint32 range", uv)
	}
	return uint32(uv), nil
}

// coerceToFloat accepts numbers, numeric strings and the literals "NaN",
// "Infinity" and "-Infinity".
func coerceToFloat(v interface{}, bitSize int) (float64, error) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		return float64(t), nil
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint32:
		f = float64(t)
	case uint64:
		f = float64(t)
	default:
		s, ok := numberText(v)
		if !ok {
			return 0, errors.Errorf("expected number, got %T", v)
		}
		switch s {
		case "NaN":
			return math.NaN(), nil
		case "Infinity":
			return math.Inf(1), nil
		case "-Infinity":
			return math.Inf(-1), nil
		}
		parsed, err := strconv.ParseFloat(s, bitSize)
		if err != nil {
			return 0, errors.Errorf("invalid number %q", s)
		}
		return parsed, nil
	}
	if bitSize == 32 && !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
		return 0, errors.Errorf("value %v out of float range", f)
	}
	return f, nil
}

// decodeBase64 accepts standard and URL-safe alphabets, padded or not.
func decodeBase64(s string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.URLEncoding, base64.RawStdEncoding, base64.RawURLEncoding} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, nil
		}
	}
	return nil, errors.Errorf("invalid base64 %q", s)
}
