package transcode

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/anirudhraja/proto3json/jsonvalue"
	"github.com/anirudhraja/proto3json/schema"
)

// Literals used for non-finite floating point values.
const (
	nanLiteral    = "NaN"
	posInfLiteral = "Infinity"
	negInfLiteral = "-Infinity"
)

// maxExponent bounds the exponent accepted in integer literals such as
// "1e2"; anything larger cannot fit in 64 bits.
const maxExponent = 400

// scalarToJSON renders a primitive field value.
func scalarToJSON(t schema.PrimitiveType, v interface{}, p path) (interface{}, error) {
	switch x := v.(type) {
	case int32:
		if t == schema.TypeInt32 || t == schema.TypeSint32 || t == schema.TypeSfixed32 {
			return json.Number(strconv.FormatInt(int64(x), 10)), nil
		}
	case uint32:
		if t == schema.TypeUint32 || t == schema.TypeFixed32 {
			return json.Number(strconv.FormatUint(uint64(x), 10)), nil
		}
	case int64:
		if t == schema.TypeInt64 || t == schema.TypeSint64 || t == schema.TypeSfixed64 {
			return strconv.FormatInt(x, 10), nil
		}
	case uint64:
		if t == schema.TypeUint64 || t == schema.TypeFixed64 {
			return strconv.FormatUint(x, 10), nil
		}
	case float32:
		if t == schema.TypeFloat {
			return floatToJSON(float64(x), 32), nil
		}
	case float64:
		if t == schema.TypeDouble {
			return floatToJSON(x, 64), nil
		}
	case bool:
		if t == schema.TypeBool {
			return x, nil
		}
	case string:
		if t == schema.TypeString {
			return x, nil
		}
	case []byte:
		if t == schema.TypeBytes {
			return base64.StdEncoding.EncodeToString(x), nil
		}
	}
	return nil, &TypeMismatchError{Path: p.String(), Expected: string(t), Actual: goKind(v)}
}

// floatToJSON renders finite values as numbers and the rest as literals.
func floatToJSON(f float64, bitSize int) interface{} {
	switch {
	case math.IsNaN(f):
		return nanLiteral
	case math.IsInf(f, 1):
		return posInfLiteral
	case math.IsInf(f, -1):
		return negInfLiteral
	}
	return json.Number(jsonvalue.FormatFloat(f, bitSize))
}

// scalarFromJSON validates a JSON value for a primitive site and returns
// the internal value: int32/uint32 for 32-bit kinds, a canonical decimal
// json.Number for 64-bit kinds, float32/float64, bool, string or []byte.
func scalarFromJSON(t schema.PrimitiveType, v interface{}, p path) (interface{}, error) {
	switch t {
	case schema.TypeInt32, schema.TypeSint32, schema.TypeSfixed32:
		n, err := integerFromJSON(t, v, p)
		if err != nil {
			return nil, err
		}
		if !n.IsInt64() || n.Int64() < math.MinInt32 || n.Int64() > math.MaxInt32 {
			return nil, outOfRange(p, t, n)
		}
		return int32(n.Int64()), nil
	case schema.TypeUint32, schema.TypeFixed32:
		n, err := integerFromJSON(t, v, p)
		if err != nil {
			return nil, err
		}
		if n.Sign() < 0 || !n.IsUint64() || n.Uint64() > math.MaxUint32 {
			return nil, outOfRange(p, t, n)
		}
		return uint32(n.Uint64()), nil
	case schema.TypeInt64, schema.TypeSint64, schema.TypeSfixed64:
		n, err := integerFromJSON(t, v, p)
		if err != nil {
			return nil, err
		}
		if !n.IsInt64() {
			return nil, outOfRange(p, t, n)
		}
		return json.Number(n.String()), nil
	case schema.TypeUint64, schema.TypeFixed64:
		n, err := integerFromJSON(t, v, p)
		if err != nil {
			return nil, err
		}
		if n.Sign() < 0 || !n.IsUint64() {
			return nil, outOfRange(p, t, n)
		}
		return json.Number(n.String()), nil
	case schema.TypeFloat:
		f, err := floatFromJSON(t, v, p, 32)
		if err != nil {
			return nil, err
		}
		return float32(f), nil
	case schema.TypeDouble:
		return floatFromJSON(t, v, p, 64)
	case schema.TypeBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case schema.TypeString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case schema.TypeBytes:
		s, ok := v.(string)
		if !ok {
			return nil, typeMismatch(p, "base64 string", v)
		}
		b, err := decodeBase64(s)
		if err != nil {
			return nil, &TypeMismatchError{Path: p.String(), Expected: "base64 string", Actual: "non-base64 string"}
		}
		return b, nil
	}
	return nil, typeMismatch(p, string(t), v)
}

func outOfRange(p path, t schema.PrimitiveType, n *big.Int) error {
	return &TypeMismatchError{Path: p.String(), Expected: string(t), Actual: "out-of-range number " + n.String()}
}

// integerFromJSON accepts JSON numbers, Go numbers and numeric strings
// whose value is a whole number. Fraction and exponent forms are fine as
// long as they are integral ("1e2", "3.0").
func integerFromJSON(t schema.PrimitiveType, v interface{}, p path) (*big.Int, error) {
	var lit string
	switch x := v.(type) {
	case json.Number:
		lit = x.String()
	case string:
		lit = x
	case int:
		return big.NewInt(int64(x)), nil
	case int32:
		return big.NewInt(int64(x)), nil
	case int64:
		return big.NewInt(x), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint64:
		return new(big.Int).SetUint64(x), nil
	case float32:
		return integralFloat(t, float64(x), p)
	case float64:
		return integralFloat(t, x, p)
	default:
		return nil, typeMismatch(p, string(t), v)
	}
	if !jsonvalue.IsNumberLiteral(lit) || exponentTooLarge(lit) {
		return nil, &TypeMismatchError{Path: p.String(), Expected: string(t), Actual: strconv.Quote(lit)}
	}
	r, ok := new(big.Rat).SetString(lit)
	if !ok || !r.IsInt() {
		return nil, &TypeMismatchError{Path: p.String(), Expected: string(t), Actual: "non-integer " + lit}
	}
	return new(big.Int).Set(r.Num()), nil
}

func integralFloat(t schema.PrimitiveType, f float64, p path) (*big.Int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, &TypeMismatchError{Path: p.String(), Expected: string(t), Actual: "non-integer " + strconv.FormatFloat(f, 'g', -1, 64)}
	}
	n, _ := big.NewFloat(f).Int(nil)
	return n, nil
}

func exponentTooLarge(lit string) bool {
	i := strings.IndexAny(lit, "eE")
	if i < 0 {
		return false
	}
	exp, err := strconv.Atoi(lit[i+1:])
	return err != nil || exp > maxExponent || exp < -maxExponent
}

// floatFromJSON accepts numbers and the three non-finite literals.
func floatFromJSON(t schema.PrimitiveType, v interface{}, p path, bitSize int) (float64, error) {
	var lit string
	switch x := v.(type) {
	case string:
		switch x {
		case nanLiteral:
			return math.NaN(), nil
		case posInfLiteral:
			return math.Inf(1), nil
		case negInfLiteral:
			return math.Inf(-1), nil
		}
		return 0, &TypeMismatchError{Path: p.String(), Expected: string(t), Actual: strconv.Quote(x)}
	case json.Number:
		lit = x.String()
	case float64:
		if bitSize == 32 && !math.IsInf(x, 0) && !math.IsNaN(x) && math.Abs(x) > math.MaxFloat32 {
			return 0, &TypeMismatchError{Path: p.String(), Expected: string(t), Actual: "out-of-range number"}
		}
		return x, nil
	case float32:
		return float64(x), nil
	case int, int32, int64, uint32, uint64:
		lit = goNumberText(x)
	default:
		return 0, typeMismatch(p, string(t), v)
	}
	f, err := strconv.ParseFloat(lit, bitSize)
	if err != nil {
		return 0, &TypeMismatchError{Path: p.String(), Expected: string(t), Actual: "out-of-range number " + lit}
	}
	return f, nil
}

func goNumberText(v interface{}) string {
	switch x := v.(type) {
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	}
	return ""
}

// decodeBase64 accepts the standard and URL-safe alphabets, padded or not.
func decodeBase64(s string) ([]byte, error) {
	enc := base64.StdEncoding
	if strings.ContainsAny(s, "-_") {
		enc = base64.URLEncoding
	}
	if len(s)%4 != 0 {
		enc = enc.WithPadding(base64.NoPadding)
	}
	return enc.DecodeString(s)
}

// goKind describes a typed value that does not fit its field.
func goKind(v interface{}) string {
	return fmt.Sprintf("Go value of type %T", v)
}
