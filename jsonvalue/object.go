// Package jsonvalue holds the generic JSON tree used on both sides of the
// transcoder: nil, bool, json.Number, string, []interface{} and *Object.
//
// Numbers are kept as json.Number literals so 64-bit integers never pass
// through float64.
package jsonvalue

// Object is a JSON object that remembers key insertion order.
type Object struct {
	keys   []string
	values map[string]interface{}
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{values: make(map[string]interface{})}
}

// Set adds or replaces key. A replaced key keeps its original position.
func (o *Object) Set(key string, v interface{}) {
	if o.values == nil {
		o.values = make(map[string]interface{})
	}
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (interface{}, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[key]
	return v, ok
}

// Delete removes key.
func (o *Object) Delete(key string) {
	if _, ok := o.values[key]; !ok {
		return
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len returns the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Range calls fn for each entry in insertion order until fn returns false.
func (o *Object) Range(fn func(key string, v interface{}) bool) {
	if o == nil {
		return
	}
	for _, k := range o.keys {
		if !fn(k, o.values[k]) {
			return
		}
	}
}

// MarshalJSON renders the object with its keys in insertion order.
func (o *Object) MarshalJSON() ([]byte, error) {
	return Marshal(o)
}

// FromMap copies m into an Object with keys in sorted order.
func FromMap(m map[string]interface{}) *Object {
	o := NewObject()
	for _, k := range sortedKeys(m) {
		o.Set(k, m[k])
	}
	return o
}
