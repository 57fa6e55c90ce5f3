package transcode

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/anirudhraja/proto3json/jsonvalue"
)

// Sentinels for errors.Is. Every error returned by this package matches one
// of them. SchemaError and ResolutionError also unwrap to the error that
// caused them, which may match sentinels of other packages.
var (
	ErrTypeMismatch = errors.New("type mismatch")
	ErrResolution   = errors.New("resolution error")
	ErrSchema       = errors.New("schema error")
	ErrFormat       = errors.New("format error")
)

// TypeMismatchError reports a JSON value whose shape disagrees with the
// expected field kind.
type TypeMismatchError struct {
	Path     string // JSON path of the offending value, "" at the root
	Expected string // e.g. "int32", "object", "base64 string"
	Actual   string // JSON kind that was found
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s%s: expected %s, got %s", ErrTypeMismatch, at(e.Path), e.Expected, e.Actual)
}

func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }

// ResolutionError reports a message, enum or Any type URL that the schema
// service does not know.
type ResolutionError struct {
	Path string
	Name string
	Err  error
}

func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("%s%s: cannot resolve type %s", ErrResolution, at(e.Path), e.Name)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResolutionError) Is(target error) bool { return target == ErrResolution }

func (e *ResolutionError) Unwrap() error { return e.Err }

// SchemaError reports a value the schema service refused to build, encode or
// decode, or a JSON shape that is structurally invalid for the type.
type SchemaError struct {
	Path   string
	Type   string
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	msg := ErrSchema.Error() + at(e.Path)
	for _, part := range []string{e.Type, e.Reason} {
		if part != "" {
			msg += ": " + part
		}
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

func (e *SchemaError) Unwrap() error { return e.Err }

// FormatError reports a well-known type whose value or string form breaks
// its lexical or range rules.
type FormatError struct {
	Path   string
	Type   string
	Value  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s%s: invalid %s %q: %s", ErrFormat, at(e.Path), e.Type, e.Value, e.Reason)
}

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

func at(path string) string {
	if path == "" {
		return ""
	}
	return " at " + path
}

// path is the location of a value inside a JSON document.
type path []string

func (p path) field(name string) path {
	return append(p[:len(p):len(p)], name)
}

func (p path) index(i int) path {
	return append(p[:len(p):len(p)], "["+strconv.Itoa(i)+"]")
}

func (p path) key(k string) path {
	return append(p[:len(p):len(p)], "["+strconv.Quote(k)+"]")
}

func (p path) String() string {
	var sb strings.Builder
	for i, seg := range p {
		if i > 0 && !strings.HasPrefix(seg, "[") {
			sb.WriteByte('.')
		}
		sb.WriteString(seg)
	}
	return sb.String()
}

func typeMismatch(p path, expected string, actual interface{}) error {
	return &TypeMismatchError{Path: p.String(), Expected: expected, Actual: kindOf(actual)}
}

func formatError(p path, typ, value, reason string) error {
	return &FormatError{Path: p.String(), Type: typ, Value: value, Reason: reason}
}

func schemaError(p path, typ, reason string, err error) error {
	return &SchemaError{Path: p.String(), Type: typ, Reason: reason, Err: err}
}

func resolutionError(p path, name string, err error) error {
	return &ResolutionError{Path: p.String(), Name: name, Err: err}
}

// kindOf names the JSON kind of v for error messages.
func kindOf(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number, int, int32, int64, uint32, uint64, float32, float64:
		return "number"
	case string:
		return "string"
	case []interface{}:
		return "array"
	case *jsonvalue.Object, map[string]interface{}:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}
