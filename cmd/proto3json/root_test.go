package main

import (
	"bytes"
	"encoding/base64"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var schemaArgs = []string{"-I", "../../testdata", "--proto", "shop/order.proto"}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestBinaryRoundTrip(t *testing.T) {
	input := `{"orderId":"o-1","status":"SHIPPED","lines":[{"sku":"A-7","quantity":2}],"createdAt":"2024-05-01T12:00:00Z"}`

	encoded, err := run(t, input, append([]string{"fromjson", "--type", "shop.Order", "--base64"}, schemaArgs...)...)
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	out, err := run(t, encoded, append([]string{"tojson", "-t", "shop.Order", "--base64"}, schemaArgs...)...)
	require.NoError(t, err)
	assert.Equal(t, input+"\n", out)

	dir := t.TempDir()
	bin := filepath.Join(dir, "order.bin")
	require.NoError(t, os.WriteFile(bin, raw, 0o644))
	out, err = run(t, "", append([]string{"tojson", "-t", "shop.Order", "--in", bin, "--numeric-enums"}, schemaArgs...)...)
	require.NoError(t, err)
	assert.Contains(t, out, `"status":2`)
}

func TestFromJSONRaw(t *testing.T) {
	out, err := run(t, `{"orderId":"x"}`, append([]string{"fromjson", "-t", "shop.Order"}, schemaArgs...)...)
	require.NoError(t, err)
	assert.Equal(t, "\x0a\x01x", out)

	out, err = run(t, `null`, append([]string{"fromjson", "-t", "shop.Order"}, schemaArgs...)...)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		name  string
		input string
		args  []string
		want  string
	}{
		{
			name:  "json",
			input: `{"order_id":"o-2","status":1,"unknown":true}`,
			want:  `{"orderId":"o-2","status":"PLACED"}`,
		},
		{
			name:  "jsonc",
			input: "{\n  // id\n  \"orderId\": \"o-2\",\n}",
			args:  []string{"--format", "jsonc"},
			want:  `{"orderId":"o-2"}`,
		},
		{
			name:  "yaml_proto_names",
			input: "orderId: o-2\ndiscount: 0.5\n",
			args:  []string{"--format", "yaml", "--proto-names"},
			want:  `{"order_id":"o-2","discount":0.5}`,
		},
		{
			name:  "null",
			input: "null",
			want:  "null",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"canonical", "-t", "shop.Order"}, tt.args...)
			out, err := run(t, tt.input, append(args, schemaArgs...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want+"\n", out)
		})
	}
}

func TestTypes(t *testing.T) {
	out, err := run(t, "", append([]string{"types"}, schemaArgs...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "message shop.Order\n")
	assert.Contains(t, out, "message shop.common.Money\n")
	assert.Contains(t, out, "enum shop.Order.Status\n")
	assert.Contains(t, out, "service shop.OrderService\n")
}

func TestConfigFile(t *testing.T) {
	protos, err := filepath.Abs("../../testdata")
	require.NoError(t, err)
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("proto_paths: ["+protos+"]\nproto_files: [shop/order.proto]\nnumeric_enums: true\n"), 0o644))

	out, err := run(t, `{"status":"SHIPPED"}`, "canonical", "-t", "shop.Order", "--config", cfgFile)
	require.NoError(t, err)
	assert.Equal(t, "{\"status\":2}\n", out)

	// flags win over the file
	out, err = run(t, `{"status":"SHIPPED"}`, "canonical", "-t", "shop.Order", "--config", cfgFile, "--numeric-enums=false")
	require.NoError(t, err)
	assert.Equal(t, "{\"status\":\"SHIPPED\"}\n", out)
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		args  []string
		want  string
	}{
		{"missing_type", "{}", []string{"canonical"}, `required flag(s) "type" not set`},
		{"unknown_type", "{}", []string{"canonical", "-t", "shop.Nope"}, "message type not found"},
		{"bad_json", "{", []string{"canonical", "-t", "shop.Order"}, "parse input"},
		{"type_mismatch", `{"lines":{}}`, []string{"canonical", "-t", "shop.Order"}, "lines"},
		{"bad_base64", "%%%", []string{"tojson", "-t", "shop.Order", "--base64"}, "decode base64 input"},
		{"bad_format", "{}", []string{"canonical", "-t", "shop.Order", "--format", "xml"}, "unknown input format"},
		{"bad_log_level", "{}", []string{"types", "--log-level", "loud"}, "invalid log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.input, append(tt.args, schemaArgs...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
