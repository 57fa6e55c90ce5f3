package schema

// Resolver looks up message and enum definitions by fully-qualified name.
type Resolver interface {
	GetMessage(name string) (*Message, error)
	GetEnum(name string) (*Enum, error)
}

// FieldByName returns the field declared with the given proto name.
func (m *Message) FieldByName(name string) *Field {
	for _, f := range m.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FieldByJSONName returns the field whose JSON name is name. The proto name
// is accepted as well.
func (m *Message) FieldByJSONName(name string) *Field {
	for _, f := range m.Fields {
		if f.JsonName == name {
			return f
		}
	}
	return m.FieldByName(name)
}

// FieldByNumber returns the field with the given field number.
func (m *Message) FieldByNumber(number int32) *Field {
	for _, f := range m.Fields {
		if f.Number == number {
			return f
		}
	}
	return nil
}

// Oneof returns the oneof group f belongs to, or nil.
func (m *Message) Oneof(f *Field) *Oneof {
	if !f.InOneof() || int(f.OneofIndex) >= len(m.OneofGroups) {
		return nil
	}
	return m.OneofGroups[f.OneofIndex]
}

// NameOf returns the name for number. With allow_alias the first declared
// name wins.
func (e *Enum) NameOf(number int32) (string, bool) {
	for _, v := range e.Values {
		if v.Number == number {
			return v.Name, true
		}
	}
	return "", false
}

// NumberOf returns the number declared for name.
func (e *Enum) NumberOf(name string) (int32, bool) {
	for _, v := range e.Values {
		if v.Name == name {
			return v.Number, true
		}
	}
	return 0, false
}

// Default returns the number of the first declared value.
func (e *Enum) Default() int32 {
	if len(e.Values) == 0 {
		return 0
	}
	return e.Values[0].Number
}
