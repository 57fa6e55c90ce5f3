package jsonvalue

import (
	"bytes"
	stdjson "encoding/json"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/tidwall/jsonc"
)

// DefaultMaxDepth bounds nesting when no explicit limit is given.
const DefaultMaxDepth = 10000

var (
	// ErrInvalidJSON is returned for input that is not a single JSON value.
	ErrInvalidJSON = errors.New("invalid JSON")
	// ErrMaxDepth is returned when the input nests deeper than allowed.
	ErrMaxDepth = errors.New("maximum nesting depth exceeded")
)

type parseOptions struct {
	maxDepth int
}

// Option configures Parse.
type Option func(*parseOptions)

// WithMaxDepth limits how deeply arrays and objects may nest. Zero or a
// negative value disables the limit.
func WithMaxDepth(depth int) Option {
	return func(o *parseOptions) {
		o.maxDepth = depth
	}
}

func newParseOptions(opts []Option) parseOptions {
	o := parseOptions{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Parse reads a single JSON value. Numbers are returned as json.Number and
// objects as *Object in document order. Numbers are checked against the JSON
// grammar only, so literals beyond float64 range such as 1e400 are kept.
func Parse(data []byte, opts ...Option) (interface{}, error) {
	o := newParseOptions(opts)
	// goccy's Valid decodes numbers as float64 and rejects 1e400
	if !stdjson.Valid(data) {
		var discard interface{}
		if err := json.Unmarshal(data, &discard); err != nil {
			return nil, errors.Wrap(ErrInvalidJSON, err.Error())
		}
		return nil, ErrInvalidJSON
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	p := &tokenParser{dec: dec, maxDepth: o.maxDepth}
	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	return p.value(tok, 0)
}

// ParseJSONC reads JSON with comments and trailing commas.
func ParseJSONC(data []byte, opts ...Option) (interface{}, error) {
	return Parse(jsonc.ToJSON(data), opts...)
}

type tokenParser struct {
	dec      *json.Decoder
	maxDepth int
}

func (p *tokenParser) next() (json.Token, error) {
	tok, err := p.dec.Token()
	if err == io.EOF {
		return nil, errors.Wrap(ErrInvalidJSON, "unexpected end of input")
	}
	if err != nil {
		return nil, errors.Wrap(ErrInvalidJSON, err.Error())
	}
	return tok, nil
}

func (p *tokenParser) value(tok json.Token, depth int) (interface{}, error) {
	switch t := tok.(type) {
	case json.Delim:
		if p.maxDepth > 0 && depth >= p.maxDepth {
			return nil, errors.Wrapf(ErrMaxDepth, "limit %d", p.maxDepth)
		}
		switch t {
		case '{':
			return p.object(depth + 1)
		case '[':
			return p.array(depth + 1)
		}
		return nil, errors.Wrapf(ErrInvalidJSON, "unexpected %q", rune(t))
	case json.Number:
		// the decoder's number token aliases its read buffer
		return json.Number(strings.Clone(string(t))), nil
	case string, bool, nil:
		return t, nil
	}
	return nil, errors.Wrapf(ErrInvalidJSON, "unexpected token %T", tok)
}

func (p *tokenParser) object(depth int) (*Object, error) {
	obj := NewObject()
	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		if d, ok := tok.(json.Delim); ok && d == '}' {
			return obj, nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errors.Wrapf(ErrInvalidJSON, "object key must be a string, got %T", tok)
		}
		tok, err = p.next()
		if err != nil {
			return nil, err
		}
		v, err := p.value(tok, depth)
		if err != nil {
			return nil, err
		}
		obj.Set(key, v)
	}
}

func (p *tokenParser) array(depth int) ([]interface{}, error) {
	arr := make([]interface{}, 0)
	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		if d, ok := tok.(json.Delim); ok && d == ']' {
			return arr, nil
		}
		v, err := p.value(tok, depth)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
}
