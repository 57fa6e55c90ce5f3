package registry

import (
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/fieldmaskpb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/anirudhraja/proto3json/schema"
)

// wellKnownFiles are the google.protobuf files every registry starts with.
var wellKnownFiles = []protoreflect.FileDescriptor{
	anypb.File_google_protobuf_any_proto,
	durationpb.File_google_protobuf_duration_proto,
	emptypb.File_google_protobuf_empty_proto,
	fieldmaskpb.File_google_protobuf_field_mask_proto,
	structpb.File_google_protobuf_struct_proto,
	timestamppb.File_google_protobuf_timestamp_proto,
	wrapperspb.File_google_protobuf_wrappers_proto,
}

func (r *Registry) registerWellKnownTypes() {
	for _, fd := range wellKnownFiles {
		if err := r.registerFileDescriptor(fd); err != nil {
			// the built-in files never collide with each other
			level.Error(r.logger).Log("msg", "failed to register well-known file", "path", fd.Path(), "err", err)
		}
	}
}

// RegisterFileDescriptor registers the definitions of a compiled descriptor,
// such as the File_*_proto variables of generated Go packages. Files it
// depends on must be registered first.
func (r *Registry) RegisterFileDescriptor(fd protoreflect.FileDescriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registerFileDescriptor(fd)
}

func (r *Registry) registerFileDescriptor(fd protoreflect.FileDescriptor) error {
	if _, done := r.repo.ProtoFiles[fd.Path()]; done {
		return nil
	}
	pf := &schema.ProtoFile{
		Name:    fd.Path(),
		Package: string(fd.Package()),
		Syntax:  fd.Syntax().String(),
	}
	imports := fd.Imports()
	for i := 0; i < imports.Len(); i++ {
		imp := imports.Get(i)
		pf.Imports = append(pf.Imports, &schema.Import{Path: imp.Path(), Public: imp.IsPublic, Weak: imp.IsWeak})
	}
	messages := fd.Messages()
	for i := 0; i < messages.Len(); i++ {
		pf.Messages = append(pf.Messages, messageFromDescriptor(messages.Get(i)))
	}
	enums := fd.Enums()
	for i := 0; i < enums.Len(); i++ {
		pf.Enums = append(pf.Enums, enumFromDescriptor(enums.Get(i)))
	}
	services := fd.Services()
	for i := 0; i < services.Len(); i++ {
		pf.Services = append(pf.Services, serviceFromDescriptor(services.Get(i)))
	}
	if err := r.registerNames(pf); err != nil {
		return errors.Wrap(err, fd.Path())
	}
	r.repo.ProtoFiles[fd.Path()] = pf
	level.Debug(r.logger).Log("msg", "registered descriptor", "path", fd.Path())
	return nil
}

func messageFromDescriptor(md protoreflect.MessageDescriptor) *schema.Message {
	full := string(md.FullName())
	msg := &schema.Message{
		Name:      string(md.Name()),
		FullName:  full,
		MapEntry:  md.IsMapEntry(),
		WellKnown: schema.LookupWellKnown(full),
	}
	oneofs := md.Oneofs()
	for i := 0; i < oneofs.Len(); i++ {
		od := oneofs.Get(i)
		if od.IsSynthetic() {
			continue
		}
		msg.OneofGroups = append(msg.OneofGroups, &schema.Oneof{Name: string(od.Name())})
	}
	fields := md.Fields()
	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)
		f := fieldFromDescriptor(fd)
		if od := fd.ContainingOneof(); od != nil && !od.IsSynthetic() {
			f.OneofIndex = int32(realOneofIndex(md, od))
			group := msg.OneofGroups[f.OneofIndex]
			group.Fields = append(group.Fields, f)
		}
		msg.Fields = append(msg.Fields, f)
	}
	nested := md.Messages()
	for i := 0; i < nested.Len(); i++ {
		msg.NestedTypes = append(msg.NestedTypes, messageFromDescriptor(nested.Get(i)))
	}
	enums := md.Enums()
	for i := 0; i < enums.Len(); i++ {
		msg.NestedEnums = append(msg.NestedEnums, enumFromDescriptor(enums.Get(i)))
	}
	return msg
}

// realOneofIndex counts od's position among the non-synthetic oneofs.
func realOneofIndex(md protoreflect.MessageDescriptor, od protoreflect.OneofDescriptor) int {
	idx := 0
	oneofs := md.Oneofs()
	for i := 0; i < oneofs.Len(); i++ {
		o := oneofs.Get(i)
		if o.FullName() == od.FullName() {
			return idx
		}
		if !o.IsSynthetic() {
			idx++
		}
	}
	return idx
}

func fieldFromDescriptor(fd protoreflect.FieldDescriptor) *schema.Field {
	f := &schema.Field{
		Name:           string(fd.Name()),
		Number:         int32(fd.Number()),
		Label:          schema.LabelOptional,
		Type:           fieldTypeFromDescriptor(fd),
		JsonName:       fd.JSONName(),
		OneofIndex:     -1,
		Proto3Optional: fd.HasOptionalKeyword() && fd.Syntax() == protoreflect.Proto3,
	}
	switch {
	case fd.IsMap():
		key := fieldTypeFromDescriptor(fd.MapKey())
		value := fieldTypeFromDescriptor(fd.MapValue())
		f.Label = schema.LabelRepeated
		f.Type = schema.FieldType{Kind: schema.KindMap, MapKey: &key, MapValue: &value}
	case fd.Cardinality() == protoreflect.Repeated:
		f.Label = schema.LabelRepeated
	case fd.Cardinality() == protoreflect.Required:
		f.Label = schema.LabelRequired
	}
	if fd.HasDefault() {
		f.DefaultValue = fd.Default().String()
	}
	return f
}

func fieldTypeFromDescriptor(fd protoreflect.FieldDescriptor) schema.FieldType {
	switch fd.Kind() {
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return schema.FieldType{Kind: schema.KindMessage, MessageType: string(fd.Message().FullName())}
	case protoreflect.EnumKind:
		return schema.FieldType{Kind: schema.KindEnum, EnumType: string(fd.Enum().FullName())}
	}
	// protoreflect kind names match the .proto scalar keywords
	return schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.PrimitiveType(fd.Kind().String())}
}

func enumFromDescriptor(ed protoreflect.EnumDescriptor) *schema.Enum {
	full := string(ed.FullName())
	enum := &schema.Enum{
		Name:      string(ed.Name()),
		FullName:  full,
		WellKnown: schema.LookupWellKnown(full),
	}
	values := ed.Values()
	seen := make(map[protoreflect.EnumNumber]bool, values.Len())
	for i := 0; i < values.Len(); i++ {
		v := values.Get(i)
		if seen[v.Number()] {
			enum.AllowAlias = true
		}
		seen[v.Number()] = true
		enum.Values = append(enum.Values, &schema.EnumValue{Name: string(v.Name()), Number: int32(v.Number()), JsonName: string(v.Name())})
	}
	return enum
}

func serviceFromDescriptor(sd protoreflect.ServiceDescriptor) *schema.Service {
	svc := &schema.Service{Name: string(sd.Name())}
	methods := sd.Methods()
	for i := 0; i < methods.Len(); i++ {
		m := methods.Get(i)
		svc.Methods = append(svc.Methods, &schema.Method{
			Name:            string(m.Name()),
			InputType:       string(m.Input().FullName()),
			OutputType:      string(m.Output().FullName()),
			ClientStreaming: m.IsStreamingClient(),
			ServerStreaming: m.IsStreamingServer(),
		})
	}
	return svc
}
