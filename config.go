package proto3json

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/anirudhraja/proto3json/jsonvalue"
	"github.com/anirudhraja/proto3json/transcode"
)

// Environment variables read by LoadConfig. Boolean toggles accept "1" or
// "true".
const (
	EnvProtoPath     = "PROTO3JSON_PROTO_PATH"  // list separated by os.PathListSeparator
	EnvProtoFiles    = "PROTO3JSON_PROTO_FILES" // comma separated
	EnvNumericEnums  = "PROTO3JSON_NUMERIC_ENUMS"
	EnvUseProtoNames = "PROTO3JSON_PROTO_NAMES"
	EnvIndent        = "PROTO3JSON_INDENT"
	EnvMaxDepth      = "PROTO3JSON_MAX_DEPTH"
)

// Config controls schema loading and JSON rendering.
type Config struct {
	// ProtoPaths are the directories imports are resolved against.
	ProtoPaths []string `yaml:"proto_paths"`
	// ProtoFiles are loaded by New, relative to ProtoPaths or on disk.
	ProtoFiles []string `yaml:"proto_files"`

	// NumericEnums renders enum values as numbers.
	NumericEnums bool `yaml:"numeric_enums"`
	// UseProtoNames keys JSON objects by proto field name.
	UseProtoNames bool `yaml:"use_proto_names"`
	// Indent, when non-empty, pretty prints JSON output.
	Indent string `yaml:"indent"`
	// MaxDepth bounds nesting of parsed JSON input. Zero disables the limit.
	MaxDepth int `yaml:"max_depth"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{MaxDepth: jsonvalue.DefaultMaxDepth}
}

// LoadConfig reads a YAML config file on top of DefaultConfig and applies
// the PROTO3JSON_* environment overrides. An empty path skips the file.
// Relative proto paths in the file are taken relative to the file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "parse config %s", path)
		}
		base := filepath.Dir(path)
		for i, dir := range cfg.ProtoPaths {
			if !filepath.IsAbs(dir) {
				cfg.ProtoPaths[i] = filepath.Join(base, dir)
			}
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables looked up with
// lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvProtoPath); ok && v != "" {
		c.ProtoPaths = append(c.ProtoPaths, filepath.SplitList(v)...)
	}
	if v, ok := lookup(EnvProtoFiles); ok && v != "" {
		for _, f := range strings.Split(v, ",") {
			if f = strings.TrimSpace(f); f != "" {
				c.ProtoFiles = append(c.ProtoFiles, f)
			}
		}
	}
	if v, ok := lookup(EnvNumericEnums); ok {
		c.NumericEnums = envBool(v)
	}
	if v, ok := lookup(EnvUseProtoNames); ok {
		c.UseProtoNames = envBool(v)
	}
	if v, ok := lookup(EnvIndent); ok {
		c.Indent = v
	}
	if v, ok := lookup(EnvMaxDepth); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "invalid %s", EnvMaxDepth)
		}
		c.MaxDepth = n
	}
	return nil
}

func envBool(v string) bool {
	return v == "1" || v == "true"
}

func (c Config) options() transcode.Options {
	return transcode.Options{
		NumericEnums:  c.NumericEnums,
		UseProtoNames: c.UseProtoNames,
	}
}
