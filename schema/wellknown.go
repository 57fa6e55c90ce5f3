package schema

// WellKnownType tags the google.protobuf types whose JSON form differs from
// the generic object-per-field rule. The tag is assigned once, when the type
// is registered, so callers switch on it instead of comparing names.
type WellKnownType int

const (
	WellKnownNone WellKnownType = iota
	WellKnownAny
	WellKnownDuration
	WellKnownTimestamp
	WellKnownFieldMask
	WellKnownStruct
	WellKnownValue
	WellKnownListValue
	WellKnownEmpty
	WellKnownDoubleValue
	WellKnownFloatValue
	WellKnownInt64Value
	WellKnownUInt64Value
	WellKnownInt32Value
	WellKnownUInt32Value
	WellKnownBoolValue
	WellKnownStringValue
	WellKnownBytesValue
	WellKnownNullValue
)

// Fully-qualified names of the well-known types.
const (
	AnyName         = "google.protobuf.Any"
	DurationName    = "google.protobuf.Duration"
	TimestampName   = "google.protobuf.Timestamp"
	FieldMaskName   = "google.protobuf.FieldMask"
	StructName      = "google.protobuf.Struct"
	ValueName       = "google.protobuf.Value"
	ListValueName   = "google.protobuf.ListValue"
	EmptyName       = "google.protobuf.Empty"
	DoubleValueName = "google.protobuf.DoubleValue"
	FloatValueName  = "google.protobuf.FloatValue"
	Int64ValueName  = "google.protobuf.Int64Value"
	UInt64ValueName = "google.protobuf.UInt64Value"
	Int32ValueName  = "google.protobuf.Int32Value"
	UInt32ValueName = "google.protobuf.UInt32Value"
	BoolValueName   = "google.protobuf.BoolValue"
	StringValueName = "google.protobuf.StringValue"
	BytesValueName  = "google.protobuf.BytesValue"
	NullValueName   = "google.protobuf.NullValue"
)

// LookupWellKnown returns the tag for a fully-qualified type name, or
// WellKnownNone.
func LookupWellKnown(fullName string) WellKnownType {
	switch fullName {
	case AnyName:
		return WellKnownAny
	case DurationName:
		return WellKnownDuration
	case TimestampName:
		return WellKnownTimestamp
	case FieldMaskName:
		return WellKnownFieldMask
	case StructName:
		return WellKnownStruct
	case ValueName:
		return WellKnownValue
	case ListValueName:
		return WellKnownListValue
	case EmptyName:
		return WellKnownEmpty
	case DoubleValueName:
		return WellKnownDoubleValue
	case FloatValueName:
		return WellKnownFloatValue
	case Int64ValueName:
		return WellKnownInt64Value
	case UInt64ValueName:
		return WellKnownUInt64Value
	case Int32ValueName:
		return WellKnownInt32Value
	case UInt32ValueName:
		return WellKnownUInt32Value
	case BoolValueName:
		return WellKnownBoolValue
	case StringValueName:
		return WellKnownStringValue
	case BytesValueName:
		return WellKnownBytesValue
	case NullValueName:
		return WellKnownNullValue
	}
	return WellKnownNone
}

// FullName returns the fully-qualified protobuf name of the tag.
func (w WellKnownType) FullName() string {
	switch w {
	case WellKnownAny:
		return AnyName
	case WellKnownDuration:
		return DurationName
	case WellKnownTimestamp:
		return TimestampName
	case WellKnownFieldMask:
		return FieldMaskName
	case WellKnownStruct:
		return StructName
	case WellKnownValue:
		return ValueName
	case WellKnownListValue:
		return ListValueName
	case WellKnownEmpty:
		return EmptyName
	case WellKnownDoubleValue:
		return DoubleValueName
	case WellKnownFloatValue:
		return FloatValueName
	case WellKnownInt64Value:
		return Int64ValueName
	case WellKnownUInt64Value:
		return UInt64ValueName
	case WellKnownInt32Value:
		return Int32ValueName
	case WellKnownUInt32Value:
		return UInt32ValueName
	case WellKnownBoolValue:
		return BoolValueName
	case WellKnownStringValue:
		return StringValueName
	case WellKnownBytesValue:
		return BytesValueName
	case WellKnownNullValue:
		return NullValueName
	}
	return ""
}

func (w WellKnownType) String() string {
	if name := w.FullName(); name != "" {
		return name
	}
	return "none"
}

// IsWrapper reports whether w is one of the nine scalar wrapper messages.
func (w WellKnownType) IsWrapper() bool {
	return w >= WellKnownDoubleValue && w <= WellKnownBytesValue
}

// SpecialJSON reports whether a message of this type renders as something
// other than a JSON object of its fields. Inside an Any such payloads are
// carried under a "value" member.
func (w WellKnownType) SpecialJSON() bool {
	switch w {
	case WellKnownNone, WellKnownEmpty, WellKnownNullValue:
		return false
	}
	return true
}

// WrapperPrimitive returns the scalar kind held by a wrapper's value field.
func (w WellKnownType) WrapperPrimitive() (PrimitiveType, bool) {
	switch w {
	case WellKnownDoubleValue:
		return TypeDouble, true
	case WellKnownFloatValue:
		return TypeFloat, true
	case WellKnownInt64Value:
		return TypeInt64, true
	case WellKnownUInt64Value:
		return TypeUint64, true
	case WellKnownInt32Value:
		return TypeInt32, true
	case WellKnownUInt32Value:
		return TypeUint32, true
	case WellKnownBoolValue:
		return TypeBool, true
	case WellKnownStringValue:
		return TypeString, true
	case WellKnownBytesValue:
		return TypeBytes, true
	}
	return "", false
}
