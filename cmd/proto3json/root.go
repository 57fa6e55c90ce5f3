package main

import (
	"io"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"

	"github.com/anirudhraja/proto3json"
)

const (
	flagConfig    = "config"
	flagProtoPath = "proto-path"
	flagProto     = "proto"
	flagLogLevel  = "log-level"

	flagType         = "type"
	flagIn           = "in"
	flagBase64       = "base64"
	flagFormat       = "format"
	flagNumericEnums = "numeric-enums"
	flagProtoNames   = "proto-names"
	flagIndent       = "indent"
)

// rootOptions holds the flags shared by every command.
type rootOptions struct {
	ConfigFile string
	ProtoPaths []string
	ProtoFiles []string
	LogLevel   string
}

func (o *rootOptions) addFlags(flags *flag.FlagSet) {
	flags.StringVar(&o.ConfigFile, flagConfig, "", "YAML config file.")
	flags.StringArrayVarP(&o.ProtoPaths, flagProtoPath, "I", nil, "Directory to resolve imports against. Repeatable.")
	flags.StringArrayVar(&o.ProtoFiles, flagProto, nil, ".proto file to load. Repeatable.")
	flags.StringVar(&o.LogLevel, flagLogLevel, "warn", "Log level: debug, info, warn or error.")
}

// renderOptions are the JSON output flags.
type renderOptions struct {
	NumericEnums bool
	ProtoNames   bool
	Indent       string
}

func (o *renderOptions) addFlags(flags *flag.FlagSet) {
	flags.BoolVar(&o.NumericEnums, flagNumericEnums, false, "Render enum values as numbers.")
	flags.BoolVar(&o.ProtoNames, flagProtoNames, false, "Key objects by proto field name.")
	flags.StringVar(&o.Indent, flagIndent, "", "Indent output with this string.")
}

// apply overrides cfg with the flags that were set on the command line.
func (o *renderOptions) apply(flags *flag.FlagSet, cfg *proto3json.Config) {
	if flags.Changed(flagNumericEnums) {
		cfg.NumericEnums = o.NumericEnums
	}
	if flags.Changed(flagProtoNames) {
		cfg.UseProtoNames = o.ProtoNames
	}
	if flags.Changed(flagIndent) {
		cfg.Indent = o.Indent
	}
}

func newRootCommand() *cobra.Command {
	o := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "proto3json",
		Short:         "Convert protobuf messages between binary and proto3 JSON",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	o.addFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newToJSONCommand(o),
		newFromJSONCommand(o),
		newCanonicalCommand(o),
		newTypesCommand(o),
	)
	return cmd
}

// load builds the converter from the config file, the environment and
// the command line, in that order of precedence.
func (o *rootOptions) load(cmd *cobra.Command, render *renderOptions) (*proto3json.Proto3JSON, log.Logger, error) {
	logger, err := newLogger(cmd.ErrOrStderr(), o.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := proto3json.LoadConfig(o.ConfigFile)
	if err != nil {
		return nil, nil, err
	}
	cfg.ProtoPaths = append(cfg.ProtoPaths, o.ProtoPaths...)
	cfg.ProtoFiles = append(cfg.ProtoFiles, o.ProtoFiles...)
	if render != nil {
		render.apply(cmd.Flags(), &cfg)
	}
	level.Debug(logger).Log("msg", "loading schemas", "paths", len(cfg.ProtoPaths), "files", len(cfg.ProtoFiles))

	p, err := proto3json.New(cfg, proto3json.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	return p, logger, nil
}

func newLogger(w io.Writer, lvl string) (log.Logger, error) {
	var opt level.Option
	switch lvl {
	case "debug":
		opt = level.AllowDebug()
	case "info":
		opt = level.AllowInfo()
	case "warn", "":
		opt = level.AllowWarn()
	case "error":
		opt = level.AllowError()
	default:
		return nil, errors.Errorf("invalid log level %q", lvl)
	}
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = level.NewFilter(logger, opt)
	return log.With(logger, "ts", log.DefaultTimestampUTC), nil
}

// readInput reads the named file, or standard input when name is empty or "-".
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "" || name == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return data, errors.Wrap(err, "read stdin")
	}
	data, err := os.ReadFile(name)
	return data, errors.Wrap(err, "read input")
}
