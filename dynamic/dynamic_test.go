package dynamic

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anirudhraja/proto3json/jsonvalue"
	"github.com/anirudhraja/proto3json/schema"
)

type testResolver struct {
	messages map[string]*schema.Message
	enums    map[string]*schema.Enum
}

func (r *testResolver) GetMessage(name string) (*schema.Message, error) {
	if m, ok := r.messages[name]; ok {
		return m, nil
	}
	return nil, errors.Errorf("message %s not found", name)
}

func (r *testResolver) GetEnum(name string) (*schema.Enum, error) {
	if e, ok := r.enums[name]; ok {
		return e, nil
	}
	return nil, errors.Errorf("enum %s not found", name)
}

func primitive(name string, number int32, t schema.PrimitiveType) *schema.Field {
	return &schema.Field{
		Name:       name,
		Number:     number,
		Label:      schema.LabelOptional,
		Type:       schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: t},
		JsonName:   name,
		OneofIndex: -1,
	}
}

func newTestResolver() *testResolver {
	color := &schema.Enum{
		Name:     "Color",
		FullName: "test.Color",
		Values: []*schema.EnumValue{
			{Name: "RED", Number: 0},
			{Name: "GREEN", Number: 1},
		},
	}
	inner := &schema.Message{
		Name:     "Inner",
		FullName: "test.Inner",
		Fields:   []*schema.Field{primitive("id", 1, schema.TypeInt32)},
	}

	choiceText := primitive("text", 20, schema.TypeString)
	choiceText.OneofIndex = 0
	choiceNum := primitive("num", 21, schema.TypeInt64)
	choiceNum.OneofIndex = 0

	key := schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.TypeInt64}
	value := schema.FieldType{Kind: schema.KindMessage, MessageType: "test.Inner"}

	outer := &schema.Message{
		Name:     "Outer",
		FullName: "test.Outer",
		Fields: []*schema.Field{
			primitive("i32", 1, schema.TypeInt32),
			primitive("u64", 2, schema.TypeUint64),
			primitive("f", 3, schema.TypeFloat),
			primitive("d", 4, schema.TypeDouble),
			primitive("b", 5, schema.TypeBool),
			primitive("s", 6, schema.TypeString),
			primitive("raw", 7, schema.TypeBytes),
			{Name: "color", Number: 8, Label: schema.LabelOptional, JsonName: "color", OneofIndex: -1,
				Type: schema.FieldType{Kind: schema.KindEnum, EnumType: "test.Color"}},
			{Name: "inner", Number: 9, Label: schema.LabelOptional, JsonName: "inner", OneofIndex: -1,
				Type: schema.FieldType{Kind: schema.KindMessage, MessageType: "test.Inner"}},
			{Name: "nums", Number: 10, Label: schema.LabelRepeated, JsonName: "nums", OneofIndex: -1,
				Type: schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.TypeSint32}},
			{Name: "by_id", Number: 11, Label: schema.LabelRepeated, JsonName: "byId", OneofIndex: -1,
				Type: schema.FieldType{Kind: schema.KindMap, MapKey: &key, MapValue: &value}},
			choiceText,
			choiceNum,
		},
		OneofGroups: []*schema.Oneof{{Name: "choice", Fields: []*schema.Field{choiceText, choiceNum}}},
	}
	return &testResolver{
		messages: map[string]*schema.Message{"test.Inner": inner, "test.Outer": outer},
		enums:    map[string]*schema.Enum{"test.Color": color},
	}
}

func TestMessageSetAndGet(t *testing.T) {
	res := newTestResolver()
	outer := res.messages["test.Outer"]
	msg := NewMessage(outer)

	i32 := outer.FieldByName("i32")
	assert.False(t, msg.Has(i32))
	assert.Equal(t, int32(0), msg.Get(i32))

	require.NoError(t, msg.Set(i32, int32(7)))
	assert.True(t, msg.Has(i32))
	assert.Equal(t, int32(7), msg.Get(i32))

	err := msg.Set(i32, int64(7))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "i32")

	assert.Equal(t, float32(0), msg.Get(outer.FieldByName("f")))
	assert.Equal(t, "", msg.Get(outer.FieldByName("s")))
	assert.Nil(t, msg.Get(outer.FieldByName("inner")))
	assert.Nil(t, msg.Get(outer.FieldByName("nums")))

	v, err := msg.GetByName("i32")
	require.NoError(t, err)
	assert.Equal(t, int32(7), v)
	_, err = msg.GetByName("missing")
	assert.Error(t, err)
}

func TestMessageNullAndClear(t *testing.T) {
	res := newTestResolver()
	outer := res.messages["test.Outer"]
	msg := NewMessage(outer)
	inner := outer.FieldByName("inner")

	require.NoError(t, msg.Set(inner, nil))
	assert.False(t, msg.Has(inner))
	assert.True(t, msg.IsNull(inner))

	var seen []string
	msg.Range(func(f *schema.Field, v interface{}) bool {
		seen = append(seen, f.Name)
		return true
	})
	assert.Equal(t, []string{"inner"}, seen)

	msg.Clear(inner)
	assert.False(t, msg.IsNull(inner))

	sub := NewMessage(res.messages["test.Inner"])
	require.NoError(t, msg.Set(inner, sub))
	assert.True(t, msg.Has(inner))

	wrong := NewMessage(outer)
	assert.Error(t, msg.Set(inner, wrong))
}

func TestMessageEmptyCollectionsClear(t *testing.T) {
	res := newTestResolver()
	outer := res.messages["test.Outer"]
	msg := NewMessage(outer)
	nums := outer.FieldByName("nums")
	byID := outer.FieldByName("by_id")

	require.NoError(t, msg.Set(nums, []interface{}{int32(1), int32(-2)}))
	assert.True(t, msg.Has(nums))
	require.NoError(t, msg.Set(nums, []interface{}{}))
	assert.False(t, msg.Has(nums))

	assert.Error(t, msg.Set(nums, []interface{}{int64(1)}))

	m := NewMap()
	m.Set(int64(5), NewMessage(res.messages["test.Inner"]))
	require.NoError(t, msg.Set(byID, m))
	assert.True(t, msg.Has(byID))
	require.NoError(t, msg.Set(byID, NewMap()))
	assert.False(t, msg.Has(byID))

	bad := NewMap()
	bad.Set("5", NewMessage(res.messages["test.Inner"]))
	assert.Error(t, msg.Set(byID, bad))
}

func TestMessageOneofExclusive(t *testing.T) {
	res := newTestResolver()
	outer := res.messages["test.Outer"]
	msg := NewMessage(outer)
	text := outer.FieldByName("text")
	num := outer.FieldByName("num")

	require.NoError(t, msg.Set(text, "hello"))
	assert.Equal(t, text, msg.WhichOneof(outer.OneofGroups[0]))

	require.NoError(t, msg.Set(num, int64(3)))
	assert.False(t, msg.Has(text))
	assert.Equal(t, num, msg.WhichOneof(outer.OneofGroups[0]))

	msg.Clear(num)
	assert.Nil(t, msg.WhichOneof(outer.OneofGroups[0]))
}

func TestMapOrder(t *testing.T) {
	m := NewMap()
	m.Set("b", 1)
	m.Set("a", 2)
	m.Set("b", 3)
	assert.Equal(t, []interface{}{"b", "a"}, m.Keys())
	v, ok := m.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	var nilMap *Map
	assert.Equal(t, 0, nilMap.Len())
	_, ok = nilMap.Get("x")
	assert.False(t, ok)
}

func TestConstruct(t *testing.T) {
	res := newTestResolver()
	outer := res.messages["test.Outer"]

	byID := jsonvalue.NewObject()
	byID.Set("9", map[string]interface{}{"id": json.Number("4")})
	byID.Set("-1", nil)

	msg, err := Construct(outer, map[string]interface{}{
		"i32":   json.Number("1e2"),
		"u64":   "18446744073709551615",
		"f":     "Infinity",
		"d":     json.Number("-0.5"),
		"b":     true,
		"s":     "text",
		"raw":   "_-8",
		"color": "GREEN",
		"inner": map[string]interface{}{"id": 12},
		"nums":  []interface{}{json.Number("1"), "2", float64(3)},
		"byId":  byID,
		"text":  nil,
		"num":   "42",
	}, res)
	require.NoError(t, err)

	assert.Equal(t, int32(100), msg.Get(outer.FieldByName("i32")))
	assert.Equal(t, uint64(math.MaxUint64), msg.Get(outer.FieldByName("u64")))
	assert.True(t, math.IsInf(float64(msg.Get(outer.FieldByName("f")).(float32)), 1))
	assert.Equal(t, -0.5, msg.Get(outer.FieldByName("d")))
	assert.Equal(t, true, msg.Get(outer.FieldByName("b")))
	assert.Equal(t, "text", msg.Get(outer.FieldByName("s")))
	assert.Equal(t, []byte{0xff, 0xef}, msg.Get(outer.FieldByName("raw")))
	assert.Equal(t, int32(1), msg.Get(outer.FieldByName("color")))
	assert.Equal(t, []interface{}{int32(1), int32(2), int32(3)}, msg.Get(outer.FieldByName("nums")))
	assert.Equal(t, int64(42), msg.Get(outer.FieldByName("num")))
	assert.False(t, msg.Has(outer.FieldByName("text")))

	inner := msg.Get(outer.FieldByName("inner")).(*Message)
	id, err := inner.GetByName("id")
	require.NoError(t, err)
	assert.Equal(t, int32(12), id)

	m := msg.Get(outer.FieldByName("by_id")).(*Map)
	assert.Equal(t, []interface{}{int64(9), int64(-1)}, m.Keys())
	empty, _ := m.Get(int64(-1))
	assert.Equal(t, 0, len(empty.(*Message).values))
}

func TestConstructErrors(t *testing.T) {
	res := newTestResolver()
	outer := res.messages["test.Outer"]

	tests := []struct {
		name   string
		values map[string]interface{}
		want   string
	}{
		{"unknown field", map[string]interface{}{"nope": 1}, "no field nope"},
		{"int32 overflow", map[string]interface{}{"i32": json.Number("2147483648")}, "out of int32 range"},
		{"fractional int", map[string]interface{}{"i32": json.Number("1.5")}, "non-integer"},
		{"negative unsigned", map[string]interface{}{"u64": "-1"}, "out of range"},
		{"float overflow", map[string]interface{}{"f": json.Number("1e39")}, "invalid number"},
		{"bool from string", map[string]interface{}{"b": "true"}, "expected bool"},
		{"bad base64", map[string]interface{}{"raw": "!!"}, "invalid base64"},
		{"list expected", map[string]interface{}{"nums": json.Number("1")}, "expected list"},
		{"bad map key", map[string]interface{}{"by_id": map[string]interface{}{"x": nil}}, "invalid int64 map key"},
		{"two oneof members", map[string]interface{}{"text": "a", "num": 1}, "multiple members"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Construct(outer, tt.values, res)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConstructUnknownEnumName(t *testing.T) {
	res := newTestResolver()
	outer := res.messages["test.Outer"]

	msg, err := Construct(outer, map[string]interface{}{"color": "PURPLE"}, res)
	require.NoError(t, err)
	assert.False(t, msg.Has(outer.FieldByName("color")))

	msg, err = Construct(outer, map[string]interface{}{"color": json.Number("7")}, res)
	require.NoError(t, err)
	assert.Equal(t, int32(7), msg.Get(outer.FieldByName("color")))
}

func TestConstructNullMessage(t *testing.T) {
	res := newTestResolver()
	outer := res.messages["test.Outer"]
	inner := outer.FieldByName("inner")

	msg, err := Construct(outer, map[string]interface{}{"inner": nil, "s": nil}, res)
	require.NoError(t, err)
	assert.True(t, msg.IsNull(inner))
	assert.False(t, msg.Has(inner))
	assert.False(t, msg.IsNull(outer.FieldByName("s")))

	var stored []string
	msg.Range(func(f *schema.Field, v interface{}) bool {
		stored = append(stored, f.Name)
		return true
	})
	assert.Equal(t, []string{"inner"}, stored)
}

func TestEqual(t *testing.T) {
	res := newTestResolver()
	outer := res.messages["test.Outer"]
	d := outer.FieldByName("d")
	i32 := outer.FieldByName("i32")
	inner := outer.FieldByName("inner")

	a := NewMessage(outer)
	b := NewMessage(outer)
	assert.True(t, Equal(a, b))

	// explicit zero equals unset for fields without presence
	require.NoError(t, a.Set(i32, int32(0)))
	assert.True(t, Equal(a, b))

	require.NoError(t, a.Set(d, math.NaN()))
	require.NoError(t, b.Set(d, math.NaN()))
	assert.True(t, Equal(a, b))

	require.NoError(t, a.Set(inner, NewMessage(res.messages["test.Inner"])))
	assert.False(t, Equal(a, b))
	require.NoError(t, b.Set(inner, nil))
	assert.False(t, Equal(a, b))
	require.NoError(t, b.Set(inner, NewMessage(res.messages["test.Inner"])))
	assert.True(t, Equal(a, b))

	ma := NewMap()
	ma.Set(int64(1), NewMessage(res.messages["test.Inner"]))
	ma.Set(int64(2), NewMessage(res.messages["test.Inner"]))
	mb := NewMap()
	mb.Set(int64(2), NewMessage(res.messages["test.Inner"]))
	mb.Set(int64(1), NewMessage(res.messages["test.Inner"]))
	require.NoError(t, a.SetByName("by_id", ma))
	require.NoError(t, b.SetByName("by_id", mb))
	assert.True(t, Equal(a, b))

	assert.False(t, Equal(a, nil))
	assert.True(t, Equal(nil, nil))
}

func TestFormatMapKey(t *testing.T) {
	assert.Equal(t, "true", FormatMapKey(true))
	assert.Equal(t, "-3", FormatMapKey(int32(-3)))
	assert.Equal(t, "18446744073709551615", FormatMapKey(uint64(math.MaxUint64)))
	assert.Equal(t, "k", FormatMapKey("k"))
}
