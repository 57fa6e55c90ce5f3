package proto3json

import (
	"github.com/go-kit/log"
	"github.com/pkg/errors"

	"github.com/anirudhraja/proto3json/dynamic"
	"github.com/anirudhraja/proto3json/jsonvalue"
	"github.com/anirudhraja/proto3json/registry"
	"github.com/anirudhraja/proto3json/schema"
	"github.com/anirudhraja/proto3json/transcode"
	"github.com/anirudhraja/proto3json/wire"
)

// ===== SCHEMA-AWARE API =====

// Proto3JSON converts protobuf messages between the binary format and
// canonical proto3 JSON using schemas loaded from .proto files, without
// generated code. It implements transcode.Service.
type Proto3JSON struct {
	registry *registry.Registry
	cfg      Config
	logger   log.Logger
}

var _ transcode.Service = (*Proto3JSON)(nil)

// Option configures a Proto3JSON.
type Option func(*Proto3JSON)

// WithLogger sets the logger passed down to schema loading.
func WithLogger(logger log.Logger) Option {
	return func(p *Proto3JSON) {
		p.logger = logger
	}
}

// New creates a Proto3JSON and loads cfg.ProtoFiles.
func New(cfg Config, opts ...Option) (*Proto3JSON, error) {
	p := &Proto3JSON{cfg: cfg, logger: log.NewNopLogger()}
	for _, opt := range opts {
		opt(p)
	}
	p.registry = registry.NewRegistry(cfg.ProtoPaths, registry.WithLogger(p.logger))
	for _, f := range cfg.ProtoFiles {
		if err := p.registry.LoadSchemaFromFile(f); err != nil {
			return nil, errors.Wrapf(err, "load %s", f)
		}
	}
	return p, nil
}

// LoadSchemaFromFile loads a .proto file and its imports.
func (p *Proto3JSON) LoadSchemaFromFile(protoFile string) error {
	return p.registry.LoadSchemaFromFile(protoFile)
}

// LoadSchema loads every .proto file under dir.
func (p *Proto3JSON) LoadSchema(dir string) error {
	return p.registry.LoadSchema(dir)
}

// ===== JSON =====

// ToJSON renders m as a JSON value tree.
func (p *Proto3JSON) ToJSON(m *dynamic.Message) (interface{}, error) {
	return transcode.ToJSON(p, m, p.cfg.options())
}

// FromJSON builds a message of messageType from a JSON value tree.
func (p *Proto3JSON) FromJSON(messageType string, v interface{}) (*dynamic.Message, error) {
	msg, err := p.GetMessage(messageType)
	if err != nil {
		return nil, errors.Wrap(err, "message type not found")
	}
	return transcode.FromJSON(p, msg, v)
}

// MarshalToJSON renders m as JSON text, indented when Config.Indent is set.
func (p *Proto3JSON) MarshalToJSON(m *dynamic.Message) ([]byte, error) {
	v, err := p.ToJSON(m)
	if err != nil {
		return nil, err
	}
	if p.cfg.Indent != "" {
		return jsonvalue.MarshalIndent(v, "", p.cfg.Indent)
	}
	return jsonvalue.Marshal(v)
}

// UnmarshalFromJSON parses JSON text into a message of messageType.
func (p *Proto3JSON) UnmarshalFromJSON(messageType string, data []byte) (*dynamic.Message, error) {
	v, err := p.ReadValue(data, FormatJSON)
	if err != nil {
		return nil, err
	}
	return p.FromJSON(messageType, v)
}

// Format names a textual input syntax.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONC Format = "jsonc" // JSON with comments and trailing commas
	FormatYAML  Format = "yaml"
)

// ReadValue parses data written in format into a JSON value tree, bounded
// by Config.MaxDepth.
func (p *Proto3JSON) ReadValue(data []byte, format Format) (interface{}, error) {
	depth := jsonvalue.WithMaxDepth(p.cfg.MaxDepth)
	switch format {
	case FormatJSON, "":
		return jsonvalue.Parse(data, depth)
	case FormatJSONC:
		return jsonvalue.ParseJSONC(data, depth)
	case FormatYAML:
		return jsonvalue.ParseYAML(data, depth)
	}
	return nil, errors.Errorf("unknown input format %q", format)
}

// ===== BINARY =====

// Parse decodes protobuf bytes as messageType.
func (p *Proto3JSON) Parse(data []byte, messageType string) (*dynamic.Message, error) {
	msg, err := p.GetMessage(messageType)
	if err != nil {
		return nil, errors.Wrap(err, "message type not found")
	}
	return p.Decode(msg, data)
}

// Marshal encodes m to protobuf bytes.
func (p *Proto3JSON) Marshal(m *dynamic.Message) ([]byte, error) {
	return p.Encode(m)
}

// BinaryToJSON decodes protobuf bytes as messageType and renders JSON text.
func (p *Proto3JSON) BinaryToJSON(data []byte, messageType string) ([]byte, error) {
	m, err := p.Parse(data, messageType)
	if err != nil {
		return nil, err
	}
	return p.MarshalToJSON(m)
}

// JSONToBinary parses JSON text as messageType and encodes it. A JSON null
// encodes as the empty message.
func (p *Proto3JSON) JSONToBinary(data []byte, messageType string) ([]byte, error) {
	m, err := p.UnmarshalFromJSON(messageType, data)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return []byte{}, nil
	}
	return p.Encode(m)
}

// ===== transcode.Service =====

// Decode decodes protobuf bytes with the loaded schemas.
func (p *Proto3JSON) Decode(msg *schema.Message, data []byte) (*dynamic.Message, error) {
	return wire.DecodeMessage(data, msg, p.registry)
}

// Encode encodes m to protobuf bytes.
func (p *Proto3JSON) Encode(m *dynamic.Message) ([]byte, error) {
	return wire.EncodeMessage(m)
}

// Construct builds a message from internal values keyed by proto field name.
func (p *Proto3JSON) Construct(msg *schema.Message, v map[string]interface{}) (*dynamic.Message, error) {
	return dynamic.Construct(msg, v, p.registry)
}

func (p *Proto3JSON) GetMessage(name string) (*schema.Message, error) {
	return p.registry.GetMessage(name)
}

func (p *Proto3JSON) GetEnum(name string) (*schema.Enum, error) {
	return p.registry.GetEnum(name)
}

// ===== REGISTRY ACCESS =====

func (p *Proto3JSON) GetRegistry() *registry.Registry { return p.registry }
func (p *Proto3JSON) Config() Config                  { return p.cfg }
func (p *Proto3JSON) ListMessages() []string          { return p.registry.ListMessages() }
func (p *Proto3JSON) ListEnums() []string             { return p.registry.ListEnums() }
func (p *Proto3JSON) ListServices() []string          { return p.registry.ListServices() }
