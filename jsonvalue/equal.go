package jsonvalue

import (
	"math"
	"math/big"

	"github.com/goccy/go-json"
)

// Equal reports whether a and b are the same JSON value. Object key order
// is ignored and numbers compare by value, so 1, 1.0 and 1e0 are equal.
func Equal(a, b interface{}) bool {
	if ra, ok := numberRat(a); ok {
		rb, ok := numberRat(b)
		return ok && ra.Cmp(rb) == 0
	}
	switch x := a.(type) {
	case nil:
		return b == nil
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case []interface{}:
		y, ok := b.([]interface{})
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case *Object, map[string]interface{}:
		xs, ok := asMap(x)
		if !ok {
			return false
		}
		ys, ok := asMap(b)
		if !ok || len(xs) != len(ys) {
			return false
		}
		for k, xv := range xs {
			yv, ok := ys[k]
			if !ok || !Equal(xv, yv) {
				return false
			}
		}
		return true
	}
	return false
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		return t, true
	case *Object:
		if t == nil {
			return nil, false
		}
		return t.values, true
	}
	return nil, false
}

func numberRat(v interface{}) (*big.Rat, bool) {
	switch t := v.(type) {
	case json.Number:
		return new(big.Rat).SetString(string(t))
	case int:
		return new(big.Rat).SetInt64(int64(t)), true
	case int32:
		return new(big.Rat).SetInt64(int64(t)), true
	case int64:
		return new(big.Rat).SetInt64(t), true
	case uint32:
		return new(big.Rat).SetUint64(uint64(t)), true
	case uint64:
		return new(big.Rat).SetUint64(t), true
	case float32:
		return floatRat(float64(t))
	case float64:
		return floatRat(t)
	}
	return nil, false
}

func floatRat(f float64) (*big.Rat, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	return new(big.Rat).SetFloat64(f), true
}
