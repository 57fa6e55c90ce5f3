package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWellKnownNames(t *testing.T) {
	for w := WellKnownAny; w <= WellKnownNullValue; w++ {
		name := w.FullName()
		require.NotEmpty(t, name, "tag %d has no name", w)
		assert.Equal(t, w, LookupWellKnown(name))
	}
	assert.Equal(t, WellKnownNone, LookupWellKnown("pkg.Any"))
	assert.Equal(t, "none", WellKnownNone.String())
}

func TestWellKnownClassification(t *testing.T) {
	tests := []struct {
		tag     WellKnownType
		wrapper bool
		special bool
	}{
		{WellKnownNone, false, false},
		{WellKnownAny, false, true},
		{WellKnownDuration, false, true},
		{WellKnownTimestamp, false, true},
		{WellKnownFieldMask, false, true},
		{WellKnownStruct, false, true},
		{WellKnownValue, false, true},
		{WellKnownListValue, false, true},
		{WellKnownEmpty, false, false},
		{WellKnownDoubleValue, true, true},
		{WellKnownBytesValue, true, true},
		{WellKnownNullValue, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.tag.String(), func(t *testing.T) {
			assert.Equal(t, tt.wrapper, tt.tag.IsWrapper())
			assert.Equal(t, tt.special, tt.tag.SpecialJSON())
		})
	}

	p, ok := WellKnownUInt64Value.WrapperPrimitive()
	require.True(t, ok)
	assert.Equal(t, TypeUint64, p)
	_, ok = WellKnownStruct.WrapperPrimitive()
	assert.False(t, ok)
}

func TestIsPackedType(t *testing.T) {
	assert.True(t, IsPackedType(TypeSint64))
	assert.True(t, IsPackedType(TypeBool))
	assert.False(t, IsPackedType(TypeString))
	assert.False(t, IsPackedType(TypeBytes))
	assert.False(t, IsPackedType("pkg.Message"))
}

func TestPrimitiveClassification(t *testing.T) {
	assert.True(t, TypeSfixed64.Is64Bit())
	assert.False(t, TypeSfixed32.Is64Bit())
	assert.True(t, TypeFixed32.IsUnsigned())
	assert.False(t, TypeSint32.IsUnsigned())
	assert.True(t, TypeUint64.IsInteger())
	assert.False(t, TypeDouble.IsInteger())
	assert.True(t, TypeFloat.IsFloat())
	assert.True(t, IsPrimitive("bytes"))
	assert.False(t, IsPrimitive("Bytes"))
}

func TestMessageLookups(t *testing.T) {
	name := &Field{Name: "user_name", Number: 1, JsonName: "userName", OneofIndex: -1}
	email := &Field{Name: "email", Number: 2, JsonName: "email", OneofIndex: 0}
	phone := &Field{Name: "phone", Number: 3, JsonName: "phone", OneofIndex: 0}
	msg := &Message{
		Name:        "User",
		FullName:    "pkg.User",
		Fields:      []*Field{name, email, phone},
		OneofGroups: []*Oneof{{Name: "contact", Fields: []*Field{email, phone}}},
	}

	assert.Same(t, name, msg.FieldByName("user_name"))
	assert.Same(t, name, msg.FieldByJSONName("userName"))
	assert.Same(t, name, msg.FieldByJSONName("user_name"))
	assert.Same(t, phone, msg.FieldByNumber(3))
	assert.Nil(t, msg.FieldByNumber(9))
	assert.Nil(t, msg.Oneof(name))
	assert.Equal(t, "contact", msg.Oneof(phone).Name)

	assert.False(t, name.HasPresence())
	assert.True(t, email.HasPresence())
}

func TestEnumAliases(t *testing.T) {
	e := &Enum{
		Name:       "Status",
		AllowAlias: true,
		Values: []*EnumValue{
			{Name: "UNKNOWN", Number: 0},
			{Name: "STARTED", Number: 1},
			{Name: "RUNNING", Number: 1},
		},
	}
	n, ok := e.NameOf(1)
	require.True(t, ok)
	assert.Equal(t, "STARTED", n)

	num, ok := e.NumberOf("RUNNING")
	require.True(t, ok)
	assert.Equal(t, int32(1), num)

	_, ok = e.NameOf(7)
	assert.False(t, ok)
	assert.Equal(t, int32(0), e.Default())
}
