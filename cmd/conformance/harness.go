package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/anirudhraja/proto3json"
	"github.com/anirudhraja/proto3json/dynamic"
	"github.com/anirudhraja/proto3json/schema"
)

// Harness answers conformance requests using the converter's schemas. The
// request and response envelopes are themselves decoded and encoded with
// the converter.
type Harness struct {
	p        *proto3json.Proto3JSON
	request  *schema.Message
	response *schema.Message

	runtimeError *schema.Field
}

// NewHarness registers the conformance protocol messages with p.
func NewHarness(p *proto3json.Proto3JSON) (*Harness, error) {
	fd, err := conformanceFile()
	if err != nil {
		return nil, errors.Wrap(err, "build conformance descriptor")
	}
	if err := p.GetRegistry().RegisterFileDescriptor(fd); err != nil {
		return nil, errors.Wrap(err, "register conformance descriptor")
	}
	h := &Harness{p: p}
	if h.request, err = p.GetMessage(requestType); err != nil {
		return nil, err
	}
	if h.response, err = p.GetMessage(responseType); err != nil {
		return nil, err
	}
	h.runtimeError = h.response.FieldByName("runtime_error")
	if h.runtimeError == nil || h.runtimeError.Type.PrimitiveType != schema.TypeString {
		return nil, errors.Errorf("%s has no string field runtime_error", responseType)
	}
	return h, nil
}

// ServeConformanceRequest reads one length-prefixed request from r and
// writes the response to w. It reports true once r is exhausted.
func (h *Harness) ServeConformanceRequest(r io.Reader, w io.Writer) (bool, error) {
	var lenBuf [4]byte
	_, err := io.ReadFull(r, lenBuf[:])
	if err == io.EOF {
		return true, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "read length")
	}

	inLen := binary.LittleEndian.Uint32(lenBuf[:])
	inBytes := make([]byte, inLen)
	if _, err := io.ReadFull(r, inBytes); err != nil {
		return false, errors.Wrap(err, "read request")
	}

	req, err := h.p.Decode(h.request, inBytes)
	if err != nil {
		return false, errors.Wrap(err, "parse ConformanceRequest")
	}

	outBytes, err := h.p.Encode(h.RunTest(req))
	if err != nil {
		return false, errors.Wrap(err, "marshal response")
	}

	var outLen [4]byte
	binary.LittleEndian.PutUint32(outLen[:], uint32(len(outBytes)))
	if _, err := w.Write(outLen[:]); err != nil {
		return false, errors.Wrap(err, "write length")
	}
	if _, err := w.Write(outBytes); err != nil {
		return false, errors.Wrap(err, "write response")
	}
	return false, nil
}

// RunTest converts the request payload to the requested output format.
func (h *Harness) RunTest(req *dynamic.Message) *dynamic.Message {
	result := func(field, format string, args ...interface{}) *dynamic.Message {
		return h.respond(field, fmt.Sprintf(format, args...))
	}

	messageType, _ := req.GetByName("message_type")
	typeName, _ := messageType.(string)
	if typeName == "" {
		return result("parse_error", "no message type provided")
	}
	// proto2 and editions suites need semantics this converter does not have
	if strings.Contains(typeName, ".proto2.") || strings.Contains(typeName, ".editions.") {
		return result("skipped", "proto2/editions not supported")
	}
	desc, err := h.p.GetMessage(typeName)
	if err != nil {
		return result("skipped", "unknown message type %s", typeName)
	}

	var m *dynamic.Message
	payload := req.WhichOneof(h.request.OneofGroups[0])
	if payload == nil {
		return result("parse_error", "unknown or missing payload type")
	}
	switch payload.Name {
	case "protobuf_payload":
		data, _ := req.Get(payload).([]byte)
		if m, err = h.p.Decode(desc, data); err != nil {
			return result("parse_error", "parse error: %v", err)
		}
	case "json_payload":
		text, _ := req.Get(payload).(string)
		if m, err = h.p.UnmarshalFromJSON(typeName, []byte(text)); err != nil {
			return result("parse_error", "json input invalid: %v", err)
		}
		if m == nil {
			m = dynamic.NewMessage(desc)
		}
	default:
		return result("skipped", "%s not supported", payload.Name)
	}

	format, _ := req.GetByName("requested_output_format")
	switch format {
	case formatProtobuf:
		data, err := h.p.Encode(m)
		if err != nil {
			return result("serialize_error", "serialize error: %v", err)
		}
		return h.respond("protobuf_payload", data)
	case formatJSON:
		data, err := h.p.MarshalToJSON(m)
		if err != nil {
			return result("serialize_error", "json serialize error: %v", err)
		}
		return result("json_payload", "%s", data)
	case formatJSPB, formatTextFormat:
		return result("skipped", "output format %v not supported", format)
	}
	return result("runtime_error", "unknown output format: %v", format)
}

// respond builds a response with field set to v. A value the response cannot
// hold is reported as a runtime_error instead.
func (h *Harness) respond(field string, v interface{}) *dynamic.Message {
	resp := dynamic.NewMessage(h.response)
	err := resp.SetByName(field, v)
	if err == nil {
		return resp
	}
	resp = dynamic.NewMessage(h.response)
	// runtime_error is a string field, checked by NewHarness
	_ = resp.Set(h.runtimeError, fmt.Sprintf("set %s: %v", field, err))
	return resp
}
