package main

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
)

// WireFormat values of the conformance protocol.
const (
	formatProtobuf   int32 = 1
	formatJSON       int32 = 2
	formatJSPB       int32 = 3
	formatTextFormat int32 = 4
)

const (
	requestType  = "conformance.ConformanceRequest"
	responseType = "conformance.ConformanceResponse"
)

// conformanceFile describes conformance/conformance.proto, the envelope the
// conformance runner speaks. Fields the harness never reads are left out.
func conformanceFile() (protoreflect.FileDescriptor, error) {
	fdp := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("conformance/conformance.proto"),
		Package: proto.String("conformance"),
		Syntax:  proto.String("proto3"),
		EnumType: []*descriptorpb.EnumDescriptorProto{
			enumProto("WireFormat", "UNSPECIFIED", "PROTOBUF", "JSON", "JSPB", "TEXT_FORMAT"),
			enumProto("TestCategory", "UNSPECIFIED_TEST", "BINARY_TEST", "JSON_TEST",
				"JSON_IGNORE_UNKNOWN_PARSING_TEST", "JSPB_TEST", "TEXT_FORMAT_TEST"),
		},
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String("FailureSet"),
				Field: []*descriptorpb.FieldDescriptorProto{
					fieldProto("failure", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING, repeated()),
				},
			},
			{
				Name: proto.String("ConformanceRequest"),
				Field: []*descriptorpb.FieldDescriptorProto{
					fieldProto("protobuf_payload", 1, descriptorpb.FieldDescriptorProto_TYPE_BYTES, inOneof(0)),
					fieldProto("json_payload", 2, descriptorpb.FieldDescriptorProto_TYPE_STRING, inOneof(0)),
					fieldProto("requested_output_format", 3, descriptorpb.FieldDescriptorProto_TYPE_ENUM, enumType(".conformance.WireFormat")),
					fieldProto("message_type", 4, descriptorpb.FieldDescriptorProto_TYPE_STRING),
					fieldProto("test_category", 5, descriptorpb.FieldDescriptorProto_TYPE_ENUM, enumType(".conformance.TestCategory")),
					fieldProto("jspb_payload", 7, descriptorpb.FieldDescriptorProto_TYPE_STRING, inOneof(0)),
					fieldProto("text_payload", 8, descriptorpb.FieldDescriptorProto_TYPE_STRING, inOneof(0)),
					fieldProto("print_unknown_fields", 9, descriptorpb.FieldDescriptorProto_TYPE_BOOL),
				},
				OneofDecl: []*descriptorpb.OneofDescriptorProto{{Name: proto.String("payload")}},
			},
			{
				Name: proto.String("ConformanceResponse"),
				Field: []*descriptorpb.FieldDescriptorProto{
					fieldProto("parse_error", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING, inOneof(0)),
					fieldProto("runtime_error", 2, descriptorpb.FieldDescriptorProto_TYPE_STRING, inOneof(0)),
					fieldProto("protobuf_payload", 3, descriptorpb.FieldDescriptorProto_TYPE_BYTES, inOneof(0)),
					fieldProto("json_payload", 4, descriptorpb.FieldDescriptorProto_TYPE_STRING, inOneof(0)),
					fieldProto("skipped", 5, descriptorpb.FieldDescriptorProto_TYPE_STRING, inOneof(0)),
					fieldProto("serialize_error", 6, descriptorpb.FieldDescriptorProto_TYPE_STRING, inOneof(0)),
					fieldProto("jspb_payload", 7, descriptorpb.FieldDescriptorProto_TYPE_STRING, inOneof(0)),
					fieldProto("text_payload", 8, descriptorpb.FieldDescriptorProto_TYPE_STRING, inOneof(0)),
					fieldProto("timeout_error", 9, descriptorpb.FieldDescriptorProto_TYPE_STRING, inOneof(0)),
				},
				OneofDecl: []*descriptorpb.OneofDescriptorProto{{Name: proto.String("result")}},
			},
		},
	}
	return protodesc.NewFile(fdp, nil)
}

func enumProto(name string, values ...string) *descriptorpb.EnumDescriptorProto {
	e := &descriptorpb.EnumDescriptorProto{Name: proto.String(name)}
	for i, v := range values {
		e.Value = append(e.Value, &descriptorpb.EnumValueDescriptorProto{
			Name:   proto.String(v),
			Number: proto.Int32(int32(i)),
		})
	}
	return e
}

type fieldOption func(*descriptorpb.FieldDescriptorProto)

func repeated() fieldOption {
	return func(f *descriptorpb.FieldDescriptorProto) {
		f.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
	}
}

func inOneof(index int32) fieldOption {
	return func(f *descriptorpb.FieldDescriptorProto) {
		f.OneofIndex = proto.Int32(index)
	}
}

func enumType(name string) fieldOption {
	return func(f *descriptorpb.FieldDescriptorProto) {
		f.TypeName = proto.String(name)
	}
}

func fieldProto(name string, number int32, typ descriptorpb.FieldDescriptorProto_Type, opts ...fieldOption) *descriptorpb.FieldDescriptorProto {
	f := &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(number),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:   typ.Enum(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}
