package wire

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// FieldError represents an encoding/decoding error with a field path.
type FieldError struct {
	FieldPath  []string // e.g., ["order", "items", "price"]
	Err        error    // underlying error
	IsDecoding bool
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	if len(e.FieldPath) == 0 {
		return e.Err.Error()
	}
	kind := "encoding"
	if e.IsDecoding {
		kind = "decoding"
	}
	return fmt.Sprintf("%s error at proto path %s: %v", kind, strings.Join(e.FieldPath, "."), e.Err)
}

// Unwrap returns the underlying error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for compatibility.
func (e *FieldError) Is(target error) bool {
	_, ok := target.(*FieldError)
	return ok
}

func newFieldError(format string, args ...interface{}) error {
	return errors.Errorf(format, args...)
}

func wrapEncodingFieldError(err error, fieldName string) error {
	return wrapWithField(err, fieldName, false)
}

func wrapDecodingFieldError(err error, fieldName string) error {
	return wrapWithField(err, fieldName, true)
}

// wrapWithField prepends fieldName to the path of err.
func wrapWithField(err error, fieldName string, decoding bool) error {
	if err == nil {
		return nil
	}

	var fe *FieldError
	if errors.As(err, &fe) {
		return &FieldError{
			FieldPath:  append([]string{fieldName}, fe.FieldPath...),
			Err:        fe.Err,
			IsDecoding: fe.IsDecoding,
		}
	}

	return &FieldError{
		FieldPath:  []string{fieldName},
		Err:        err,
		IsDecoding: decoding,
	}
}
