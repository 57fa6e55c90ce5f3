package dynamic

import (
	"bytes"
	"math"

	"github.com/anirudhraja/proto3json/schema"
)

// Equal reports whether a and b hold the same message. Fields without
// presence compare by value, so an explicit zero equals an unset field.
// Message fields and oneof members compare by presence. NaN equals NaN and
// map entries compare regardless of order.
func Equal(a, b *Message) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.desc.FullName != b.desc.FullName {
		return false
	}
	for _, f := range a.desc.Fields {
		if f.HasPresence() && a.Has(f) != b.Has(f) {
			return false
		}
		if !equalField(f, a.Get(f), b.Get(f)) {
			return false
		}
	}
	return true
}

func equalField(f *schema.Field, a, b interface{}) bool {
	switch {
	case f.IsMap():
		am, _ := a.(*Map)
		bm, _ := b.(*Map)
		if am.Len() != bm.Len() {
			return false
		}
		equal := true
		am.Range(func(k, v interface{}) bool {
			other, ok := bm.Get(k)
			equal = ok && equalSingular(v, other)
			return equal
		})
		return equal
	case f.IsRepeated():
		al, _ := a.([]interface{})
		bl, _ := b.([]interface{})
		if len(al) != len(bl) {
			return false
		}
		for i := range al {
			if !equalSingular(al[i], bl[i]) {
				return false
			}
		}
		return true
	}
	return equalSingular(a, b)
}

func equalSingular(a, b interface{}) bool {
	switch x := a.(type) {
	case *Message:
		y, ok := b.(*Message)
		if !ok {
			return b == nil && x == nil
		}
		return Equal(x, y)
	case []byte:
		y, ok := b.([]byte)
		return ok && bytes.Equal(x, y)
	case float64:
		y, ok := b.(float64)
		return ok && (x == y || (math.IsNaN(x) && math.IsNaN(y)))
	case float32:
		y, ok := b.(float32)
		return ok && (x == y || (math.IsNaN(float64(x)) && math.IsNaN(float64(y))))
	case nil:
		if m, ok := b.(*Message); ok {
			return m == nil
		}
		return b == nil
	}
	return a == b
}
