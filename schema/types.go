package schema

// ProtoRepo represents a collection of .proto files and their definitions.
type ProtoRepo struct {
	ProtoFiles map[string]*ProtoFile `json:"proto_files"`
}

// ProtoFile represents a single .proto file
type ProtoFile struct {
	Name     string     `json:"name"`     // file.proto
	Package  string     `json:"package"`  // package name
	Syntax   string     `json:"syntax"`   // proto2 or proto3
	Imports  []*Import  `json:"imports"`  // imported files
	Messages []*Message `json:"messages"` // message definitions
	Enums    []*Enum    `json:"enums"`    // enum definitions
	Services []*Service `json:"services"` // service definitions
}

// Import represents an import statement
type Import struct {
	Path   string `json:"path"`   // "google/protobuf/timestamp.proto"
	Public bool   `json:"public"` // public import
	Weak   bool   `json:"weak"`   // weak import
}

// Message represents a protobuf message definition.
//
// Fields holds every field in declaration order, oneof members included.
// OneofGroups references the same *Field values.
type Message struct {
	Name        string        `json:"name"`                 // "User"
	FullName    string        `json:"full_name"`            // "pkg.User"
	Fields      []*Field      `json:"fields"`               // message fields
	NestedTypes []*Message    `json:"nested_types"`         // nested messages
	NestedEnums []*Enum       `json:"nested_enums"`         // nested enums
	OneofGroups []*Oneof      `json:"oneof_groups"`         // oneof groups
	MapEntry    bool          `json:"map_entry"`            // is this a map entry?
	WellKnown   WellKnownType `json:"well_known,omitempty"` // tag for google.protobuf types with their own JSON form
}

// Field represents a message field
type Field struct {
	Name           string     `json:"name"`            // "user_name"
	Number         int32      `json:"number"`          // 1
	Label          FieldLabel `json:"label"`           // optional, required, repeated
	Type           FieldType  `json:"type"`            // field type information
	DefaultValue   string     `json:"default_value"`   // default value (proto2)
	JsonName       string     `json:"json_name"`       // JSON field name
	OneofIndex     int32      `json:"oneof_index"`     // oneof group index (-1 if not in oneof)
	Proto3Optional bool       `json:"proto3_optional"` // declared with the proto3 optional keyword
}

// InOneof reports whether the field is a member of a oneof group.
func (f *Field) InOneof() bool {
	return f.OneofIndex >= 0
}

// IsRepeated reports whether the field holds a list. Map fields are not lists.
func (f *Field) IsRepeated() bool {
	return f.Label == LabelRepeated && f.Type.Kind != KindMap
}

// IsMap reports whether the field is a map field.
func (f *Field) IsMap() bool {
	return f.Type.Kind == KindMap
}

// HasPresence reports whether unset and zero are distinguishable for the field.
func (f *Field) HasPresence() bool {
	if f.Label == LabelRepeated || f.Type.Kind == KindMap {
		return false
	}
	return f.Type.Kind == KindMessage || f.InOneof() || f.Proto3Optional
}

// Oneof represents a oneof group
type Oneof struct {
	Name   string   `json:"name"`   // "user_info"
	Fields []*Field `json:"fields"` // fields in this oneof
}

// FieldLabel represents field labels
type FieldLabel string

const (
	LabelOptional FieldLabel = "optional"
	LabelRequired FieldLabel = "required"
	LabelRepeated FieldLabel = "repeated"
)

// FieldType represents field type information
type FieldType struct {
	Kind          TypeKind      `json:"kind"`                     // primitive, message, enum, map
	PrimitiveType PrimitiveType `json:"primitive_type,omitempty"` // for primitive types
	MessageType   string        `json:"message_type,omitempty"`   // for message types: "pkg.User", "google.protobuf.Timestamp"
	EnumType      string        `json:"enum_type,omitempty"`      // for enum types
	MapKey        *FieldType    `json:"map_key,omitempty"`        // for map key type
	MapValue      *FieldType    `json:"map_value,omitempty"`      // for map value type
}

// TypeKind represents the kind of field type
type TypeKind string

const (
	KindPrimitive TypeKind = "primitive"
	KindMessage   TypeKind = "message"
	KindEnum      TypeKind = "enum"
	KindMap       TypeKind = "map"
)

// PrimitiveType represents protobuf primitive types
type PrimitiveType string

const (
	TypeDouble   PrimitiveType = "double"
	TypeFloat    PrimitiveType = "float"
	TypeInt64    PrimitiveType = "int64"
	TypeUint64   PrimitiveType = "uint64"
	TypeInt32    PrimitiveType = "int32"
	TypeFixed64  PrimitiveType = "fixed64"
	TypeFixed32  PrimitiveType = "fixed32"
	TypeBool     PrimitiveType = "bool"
	TypeString   PrimitiveType = "string"
	TypeBytes    PrimitiveType = "bytes"
	TypeUint32   PrimitiveType = "uint32"
	TypeSfixed32 PrimitiveType = "sfixed32"
	TypeSfixed64 PrimitiveType = "sfixed64"
	TypeSint32   PrimitiveType = "sint32"
	TypeSint64   PrimitiveType = "sint64"
)

var primitiveTypes = map[PrimitiveType]struct{}{
	TypeDouble:   {},
	TypeFloat:    {},
	TypeInt64:    {},
	TypeUint64:   {},
	TypeInt32:    {},
	TypeFixed64:  {},
	TypeFixed32:  {},
	TypeBool:     {},
	TypeString:   {},
	TypeBytes:    {},
	TypeUint32:   {},
	TypeSfixed32: {},
	TypeSfixed64: {},
	TypeSint32:   {},
	TypeSint64:   {},
}

// IsPrimitive reports whether name is a protobuf scalar type keyword.
func IsPrimitive(name string) bool {
	_, ok := primitiveTypes[PrimitiveType(name)]
	return ok
}

// IsPackedType checks and returns if the Primitive type is packed for repeated label
func IsPackedType(t PrimitiveType) bool {
	_, ok := primitiveTypes[t]
	return ok && t != TypeString && t != TypeBytes
}

// Is64Bit reports whether the JSON form of t is a decimal string.
func (t PrimitiveType) Is64Bit() bool {
	switch t {
	case TypeInt64, TypeUint64, TypeSint64, TypeFixed64, TypeSfixed64:
		return true
	}
	return false
}

// IsUnsigned reports whether t holds only non-negative integers.
func (t PrimitiveType) IsUnsigned() bool {
	switch t {
	case TypeUint32, TypeFixed32, TypeUint64, TypeFixed64:
		return true
	}
	return false
}

// IsInteger reports whether t is one of the ten integer kinds.
func (t PrimitiveType) IsInteger() bool {
	switch t {
	case TypeInt32, TypeSint32, TypeSfixed32, TypeUint32, TypeFixed32,
		TypeInt64, TypeSint64, TypeSfixed64, TypeUint64, TypeFixed64:
		return true
	}
	return false
}

// IsFloat reports whether t is float or double.
func (t PrimitiveType) IsFloat() bool {
	return t == TypeFloat || t == TypeDouble
}

// Enum represents an enum definition
type Enum struct {
	Name       string        `json:"name"`                 // "Status"
	FullName   string        `json:"full_name"`            // "pkg.Status"
	Values     []*EnumValue  `json:"values"`               // enum values
	AllowAlias bool          `json:"allow_alias"`          // allow_alias option
	WellKnown  WellKnownType `json:"well_known,omitempty"` // set for google.protobuf.NullValue
}

// EnumValue represents an enum value
type EnumValue struct {
	Name     string `json:"name"`      // "ACTIVE"
	Number   int32  `json:"number"`    // 1
	JsonName string `json:"json_name"` // JSON field name
}

// Service represents a service definition
type Service struct {
	Name    string    `json:"name"`    // "UserService"
	Methods []*Method `json:"methods"` // service methods
}

// Method represents a service method
type Method struct {
	Name            string `json:"name"`             // "GetUser"
	InputType       string `json:"input_type"`       // "GetUserRequest"
	OutputType      string `json:"output_type"`      // "GetUserResponse"
	ClientStreaming bool   `json:"client_streaming"` // stream input
	ServerStreaming bool   `json:"server_streaming"` // stream output
}
