package dynamic

import (
	"github.com/pkg/errors"

	"github.com/anirudhraja/proto3json/schema"
)

// Map is the value of a map field. Keys keep their insertion order and use
// the Go type of the key kind (string, bool, int32, int64, uint32, uint64).
type Map struct {
	keys   []interface{}
	values map[interface{}]interface{}
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{values: make(map[interface{}]interface{})}
}

// Set stores value under key. Replacing a key keeps its position.
func (m *Map) Set(key, value interface{}) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under key.
func (m *Map) Get(key interface{}) (interface{}, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []interface{} {
	if m == nil {
		return nil
	}
	return append([]interface{}(nil), m.keys...)
}

// Range calls fn for each entry in insertion order until fn returns false.
func (m *Map) Range(fn func(key, value interface{}) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

func (m *Map) check(t schema.FieldType) error {
	if t.MapKey == nil || t.MapValue == nil {
		return errors.New("map field without key or value type")
	}
	for _, k := range m.keys {
		if err := checkSingular(*t.MapKey, k); err != nil {
			return errors.Wrapf(err, "key %v", k)
		}
		if err := checkSingular(*t.MapValue, m.values[k]); err != nil {
			return errors.Wrapf(err, "value for key %v", k)
		}
	}
	return nil
}
