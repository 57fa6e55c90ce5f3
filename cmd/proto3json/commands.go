package main

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/anirudhraja/proto3json"
	"github.com/anirudhraja/proto3json/dynamic"
)

func newToJSONCommand(root *rootOptions) *cobra.Command {
	var (
		render      renderOptions
		messageType string
		in          string
		b64         bool
	)
	cmd := &cobra.Command{
		Use:   "tojson",
		Short: "Decode a binary message and print its canonical JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, logger, err := root.load(cmd, &render)
			if err != nil {
				return err
			}
			data, err := readInput(cmd, in)
			if err != nil {
				return err
			}
			if b64 {
				if data, err = base64.StdEncoding.DecodeString(strings.TrimSpace(string(data))); err != nil {
					return errors.Wrap(err, "decode base64 input")
				}
			}
			out, err := p.BinaryToJSON(data, messageType)
			if err != nil {
				return errors.Wrapf(err, "convert %s", messageType)
			}
			level.Debug(logger).Log("msg", "converted to JSON", "type", messageType, "in", len(data), "out", len(out))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
	flags := cmd.Flags()
	render.addFlags(flags)
	flags.StringVarP(&messageType, flagType, "t", "", "Fully qualified message type.")
	flags.StringVar(&in, flagIn, "", "Input file; standard input when empty.")
	flags.BoolVar(&b64, flagBase64, false, "Input is base64 text.")
	_ = cmd.MarkFlagRequired(flagType)
	return cmd
}

func newFromJSONCommand(root *rootOptions) *cobra.Command {
	var (
		messageType string
		in          string
		format      string
		b64         bool
	)
	cmd := &cobra.Command{
		Use:   "fromjson",
		Short: "Parse JSON, JSONC or YAML and write the binary message",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, logger, err := root.load(cmd, nil)
			if err != nil {
				return err
			}
			m, err := readMessage(cmd, p, messageType, in, format)
			if err != nil {
				return err
			}
			out := []byte{}
			if m != nil {
				if out, err = p.Marshal(m); err != nil {
					return errors.Wrapf(err, "encode %s", messageType)
				}
			}
			level.Debug(logger).Log("msg", "converted to binary", "type", messageType, "out", len(out))
			if b64 {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), base64.StdEncoding.EncodeToString(out))
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&messageType, flagType, "t", "", "Fully qualified message type.")
	flags.StringVar(&in, flagIn, "", "Input file; standard input when empty.")
	flags.StringVar(&format, flagFormat, string(proto3json.FormatJSON), "Input format: json, jsonc or yaml.")
	flags.BoolVar(&b64, flagBase64, false, "Write base64 text instead of raw bytes.")
	_ = cmd.MarkFlagRequired(flagType)
	return cmd
}

func newCanonicalCommand(root *rootOptions) *cobra.Command {
	var (
		render      renderOptions
		messageType string
		in          string
		format      string
	)
	cmd := &cobra.Command{
		Use:   "canonical",
		Short: "Parse JSON, JSONC or YAML and print its canonical JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := root.load(cmd, &render)
			if err != nil {
				return err
			}
			m, err := readMessage(cmd, p, messageType, in, format)
			if err != nil {
				return err
			}
			if m == nil {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "null")
				return err
			}
			out, err := p.MarshalToJSON(m)
			if err != nil {
				return errors.Wrapf(err, "render %s", messageType)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
	flags := cmd.Flags()
	render.addFlags(flags)
	flags.StringVarP(&messageType, flagType, "t", "", "Fully qualified message type.")
	flags.StringVar(&in, flagIn, "", "Input file; standard input when empty.")
	flags.StringVar(&format, flagFormat, string(proto3json.FormatJSON), "Input format: json, jsonc or yaml.")
	_ = cmd.MarkFlagRequired(flagType)
	return cmd
}

func newTypesCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the loaded messages, enums and services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := root.load(cmd, nil)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, group := range []struct {
				kind  string
				names []string
			}{
				{"message", p.ListMessages()},
				{"enum", p.ListEnums()},
				{"service", p.ListServices()},
			} {
				for _, name := range group.names {
					if _, err := fmt.Fprintf(w, "%s %s\n", group.kind, name); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
}

func readMessage(cmd *cobra.Command, p *proto3json.Proto3JSON, messageType, in, format string) (*dynamic.Message, error) {
	data, err := readInput(cmd, in)
	if err != nil {
		return nil, err
	}
	v, err := p.ReadValue(data, proto3json.Format(format))
	if err != nil {
		return nil, errors.Wrap(err, "parse input")
	}
	m, err := p.FromJSON(messageType, v)
	if err != nil {
		return nil, errors.Wrapf(err, "convert %s", messageType)
	}
	return m, nil
}
