package registry

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/yoheimuta/go-protoparser/v4/parser"

	"github.com/anirudhraja/proto3json/schema"
)

func packageOf(ast *parser.Proto) string {
	for _, body := range ast.ProtoBody {
		if p, ok := body.(*parser.Package); ok {
			return p.Name
		}
	}
	return ""
}

// collectNames records the full name of every message and enum in body.
func collectNames(prefix string, body []parser.Visitee, symbols map[string]schema.TypeKind) {
	for _, v := range body {
		switch b := v.(type) {
		case *parser.Message:
			full := getFullName(prefix, b.MessageName)
			symbols[full] = schema.KindMessage
			collectNames(full, b.MessageBody, symbols)
		case *parser.Enum:
			symbols[getFullName(prefix, b.EnumName)] = schema.KindEnum
		}
	}
}

// fileBuilder converts one parsed file into schema definitions.
type fileBuilder struct {
	syntax  string
	symbols map[string]schema.TypeKind
}

func buildProtoFile(path string, ast *parser.Proto, symbols map[string]schema.TypeKind) (*schema.ProtoFile, error) {
	pf := &schema.ProtoFile{
		Name:     filepath.Base(path),
		Syntax:   "proto3", // Default
		Imports:  []*schema.Import{},
		Messages: []*schema.Message{},
		Enums:    []*schema.Enum{},
		Services: []*schema.Service{},
	}
	if ast.Syntax != nil {
		pf.Syntax = unquote(ast.Syntax.ProtobufVersion)
	}
	fb := &fileBuilder{syntax: pf.Syntax, symbols: symbols}

	for _, body := range ast.ProtoBody {
		switch b := body.(type) {
		case *parser.Package:
			pf.Package = b.Name
		case *parser.Import:
			pf.Imports = append(pf.Imports, &schema.Import{
				Path:   unquote(b.Location),
				Public: b.Modifier == parser.ImportModifierPublic,
				Weak:   b.Modifier == parser.ImportModifierWeak,
			})
		}
	}

	for _, body := range ast.ProtoBody {
		switch b := body.(type) {
		case *parser.Message:
			msg, err := fb.message(pf.Package, b)
			if err != nil {
				return nil, err
			}
			pf.Messages = append(pf.Messages, msg)
		case *parser.Enum:
			enum, err := fb.enum(pf.Package, b)
			if err != nil {
				return nil, err
			}
			pf.Enums = append(pf.Enums, enum)
		case *parser.Service:
			svc, err := fb.service(pf.Package, b)
			if err != nil {
				return nil, err
			}
			pf.Services = append(pf.Services, svc)
		}
	}
	return pf, nil
}

func (fb *fileBuilder) message(prefix string, m *parser.Message) (*schema.Message, error) {
	full := getFullName(prefix, m.MessageName)
	msg := &schema.Message{
		Name:      m.MessageName,
		FullName:  full,
		WellKnown: schema.LookupWellKnown(full),
	}

	for _, body := range m.MessageBody {
		switch b := body.(type) {
		case *parser.Field:
			f, err := fb.field(full, b.FieldName, b.FieldNumber, b.Type, b.FieldOptions, -1)
			if err != nil {
				return nil, errors.Wrapf(err, "%s.%s", full, b.FieldName)
			}
			switch {
			case b.IsRepeated:
				f.Label = schema.LabelRepeated
			case b.IsRequired:
				f.Label = schema.LabelRequired
			case b.IsOptional && fb.syntax == "proto3":
				f.Proto3Optional = true
			}
			msg.Fields = append(msg.Fields, f)
		case *parser.MapField:
			f, entry, err := fb.mapField(full, b)
			if err != nil {
				return nil, errors.Wrapf(err, "%s.%s", full, b.MapName)
			}
			msg.Fields = append(msg.Fields, f)
			msg.NestedTypes = append(msg.NestedTypes, entry)
		case *parser.Oneof:
			idx := int32(len(msg.OneofGroups))
			group := &schema.Oneof{Name: b.OneofName}
			for _, of := range b.OneofFields {
				f, err := fb.field(full, of.FieldName, of.FieldNumber, of.Type, of.FieldOptions, idx)
				if err != nil {
					return nil, errors.Wrapf(err, "%s.%s", full, of.FieldName)
				}
				group.Fields = append(group.Fields, f)
				msg.Fields = append(msg.Fields, f)
			}
			msg.OneofGroups = append(msg.OneofGroups, group)
		case *parser.Message:
			nested, err := fb.message(full, b)
			if err != nil {
				return nil, err
			}
			msg.NestedTypes = append(msg.NestedTypes, nested)
		case *parser.Enum:
			nested, err := fb.enum(full, b)
			if err != nil {
				return nil, err
			}
			msg.NestedEnums = append(msg.NestedEnums, nested)
		}
	}
	return msg, nil
}

func (fb *fileBuilder) field(scope, name, number, typeName string, options []*parser.FieldOption, oneofIndex int32) (*schema.Field, error) {
	num, err := parseNumber(number)
	if err != nil {
		return nil, err
	}
	ft, err := fb.fieldType(scope, typeName)
	if err != nil {
		return nil, err
	}
	f := &schema.Field{
		Name:       name,
		Number:     num,
		Label:      schema.LabelOptional,
		Type:       ft,
		JsonName:   jsonName(name),
		OneofIndex: oneofIndex,
	}
	for _, opt := range options {
		switch opt.OptionName {
		case "json_name":
			f.JsonName = unquote(opt.Constant)
		case "default":
			f.DefaultValue = unquote(opt.Constant)
		}
	}
	return f, nil
}

func (fb *fileBuilder) fieldType(scope, typeName string) (schema.FieldType, error) {
	if schema.IsPrimitive(typeName) {
		return schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.PrimitiveType(typeName)}, nil
	}
	full, err := getReferencedType(typeName, scope, fb.symbols)
	if err != nil {
		return schema.FieldType{}, err
	}
	if fb.symbols[full] == schema.KindEnum {
		return schema.FieldType{Kind: schema.KindEnum, EnumType: full}, nil
	}
	return schema.FieldType{Kind: schema.KindMessage, MessageType: full}, nil
}

func (fb *fileBuilder) mapField(scope string, m *parser.MapField) (*schema.Field, *schema.Message, error) {
	num, err := parseNumber(m.FieldNumber)
	if err != nil {
		return nil, nil, err
	}
	key, err := fb.fieldType(scope, m.KeyType)
	if err != nil {
		return nil, nil, err
	}
	if !validMapKey(key) {
		return nil, nil, errors.Errorf("invalid map key type %s", m.KeyType)
	}
	value, err := fb.fieldType(scope, m.Type)
	if err != nil {
		return nil, nil, err
	}
	f := &schema.Field{
		Name:       m.MapName,
		Number:     num,
		Label:      schema.LabelRepeated,
		Type:       schema.FieldType{Kind: schema.KindMap, MapKey: &key, MapValue: &value},
		JsonName:   jsonName(m.MapName),
		OneofIndex: -1,
	}
	for _, opt := range m.FieldOptions {
		if opt.OptionName == "json_name" {
			f.JsonName = unquote(opt.Constant)
		}
	}
	return f, newMapEntryMessage(scope, m.MapName, &key, &value), nil
}

func validMapKey(t schema.FieldType) bool {
	if t.Kind != schema.KindPrimitive {
		return false
	}
	return t.PrimitiveType.IsInteger() || t.PrimitiveType == schema.TypeBool || t.PrimitiveType == schema.TypeString
}

// newMapEntryMessage creates the synthetic message type protoc generates for a map field.
func newMapEntryMessage(scope, mapFieldName string, keyType, valueType *schema.FieldType) *schema.Message {
	entryTypeName := mapEntryName(mapFieldName)
	return &schema.Message{
		Name:     entryTypeName,
		FullName: scope + "." + entryTypeName,
		MapEntry: true,
		Fields: []*schema.Field{
			{
				Name:       "key",
				Number:     1,
				Label:      schema.LabelOptional,
				Type:       *keyType,
				JsonName:   "key",
				OneofIndex: -1,
			},
			{
				Name:       "value",
				Number:     2,
				Label:      schema.LabelOptional,
				Type:       *valueType,
				JsonName:   "value",
				OneofIndex: -1,
			},
		},
	}
}

// mapEntryName returns "FooBarEntry" for the field "foo_bar".
func mapEntryName(field string) string {
	name := jsonName(field)
	if name != "" && name[0] >= 'a' && name[0] <= 'z' {
		name = string(name[0]-'a'+'A') + name[1:]
	}
	return name + "Entry"
}

func (fb *fileBuilder) enum(prefix string, e *parser.Enum) (*schema.Enum, error) {
	full := getFullName(prefix, e.EnumName)
	enum := &schema.Enum{
		Name:      e.EnumName,
		FullName:  full,
		WellKnown: schema.LookupWellKnown(full),
	}
	for _, body := range e.EnumBody {
		switch b := body.(type) {
		case *parser.EnumField:
			num, err := parseNumber(b.Number)
			if err != nil {
				return nil, errors.Wrapf(err, "%s.%s", full, b.Ident)
			}
			enum.Values = append(enum.Values, &schema.EnumValue{Name: b.Ident, Number: num, JsonName: b.Ident})
		case *parser.Option:
			if b.OptionName == "allow_alias" && unquote(b.Constant) == "true" {
				enum.AllowAlias = true
			}
		}
	}
	if len(enum.Values) == 0 {
		return nil, errors.Errorf("enum %s has no values", full)
	}
	return enum, nil
}

func (fb *fileBuilder) service(pkg string, s *parser.Service) (*schema.Service, error) {
	svc := &schema.Service{Name: s.ServiceName}
	scope := getFullName(pkg, s.ServiceName)
	for _, body := range s.ServiceBody {
		rpc, ok := body.(*parser.RPC)
		if !ok {
			continue
		}
		method := &schema.Method{Name: rpc.RPCName}
		if rpc.RPCRequest != nil {
			method.ClientStreaming = rpc.RPCRequest.IsStream
			method.InputType = fb.resolveOrKeep(scope, rpc.RPCRequest.MessageType)
		}
		if rpc.RPCResponse != nil {
			method.ServerStreaming = rpc.RPCResponse.IsStream
			method.OutputType = fb.resolveOrKeep(scope, rpc.RPCResponse.MessageType)
		}
		svc.Methods = append(svc.Methods, method)
	}
	return svc, nil
}

func (fb *fileBuilder) resolveOrKeep(scope, typeName string) string {
	if full, err := getReferencedType(typeName, scope, fb.symbols); err == nil {
		return full
	}
	return typeName
}

func parseNumber(s string) (int32, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.ParseInt(s, 0, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid number %q", s)
	}
	return int32(n), nil
}
