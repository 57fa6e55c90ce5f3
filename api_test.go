package proto3json

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/anirudhraja/proto3json/jsonvalue"
	"github.com/anirudhraja/proto3json/transcode"
)

const canonicalOrder = `{"orderId":"o-1","status":"SHIPPED","lines":[{"sku":"A-7","quantity":2,"price":{"currency":"EUR","units":"1250"}}],"labels":{"gift":"yes"},"createdAt":"2024-05-01T12:00:00.500Z","discount":0.15}`

func newTestProto3JSON(t *testing.T, mutate ...func(*Config)) *Proto3JSON {
	t.Helper()
	cfg := DefaultConfig()
	cfg.ProtoPaths = []string{"testdata"}
	cfg.ProtoFiles = []string{"shop/order.proto"}
	for _, m := range mutate {
		m(&cfg)
	}
	p, err := New(cfg)
	require.NoError(t, err)
	return p
}

func TestProto3JSON_New(t *testing.T) {
	t.Run("loads_configured_files", func(t *testing.T) {
		p := newTestProto3JSON(t)
		assert.Contains(t, p.ListMessages(), "shop.Order")
		assert.Contains(t, p.ListMessages(), "shop.Order.Line")
		assert.Contains(t, p.ListMessages(), "shop.common.Money")
		assert.Contains(t, p.ListEnums(), "shop.common.Currency")
		assert.Contains(t, p.ListEnums(), "shop.Order.Status")
		assert.Equal(t, []string{"shop.OrderService"}, p.ListServices())
	})

	t.Run("missing_file", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ProtoPaths = []string{"testdata"}
		cfg.ProtoFiles = []string{"shop/nope.proto"}
		_, err := New(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "shop/nope.proto")
	})

	t.Run("load_directory", func(t *testing.T) {
		p, err := New(DefaultConfig())
		require.NoError(t, err)
		require.NoError(t, p.LoadSchema("testdata"))
		assert.Contains(t, p.ListMessages(), "shop.Order")
	})
}

func TestProto3JSON_JSONRoundTrip(t *testing.T) {
	p := newTestProto3JSON(t)

	m, err := p.UnmarshalFromJSON("shop.Order", []byte(canonicalOrder))
	require.NoError(t, err)
	require.NotNil(t, m)

	out, err := p.MarshalToJSON(m)
	require.NoError(t, err)
	assert.Equal(t, canonicalOrder, string(out))

	bin, err := p.Marshal(m)
	require.NoError(t, err)
	back, err := p.BinaryToJSON(bin, "shop.Order")
	require.NoError(t, err)
	assert.Equal(t, canonicalOrder, string(back))

	viaBinary, err := p.JSONToBinary([]byte(canonicalOrder), "shop.Order")
	require.NoError(t, err)
	assert.Equal(t, bin, viaBinary)
}

func TestProto3JSON_Marshal(t *testing.T) {
	p := newTestProto3JSON(t)

	m, err := p.UnmarshalFromJSON("shop.Order", []byte(`{"orderId":"o-1","status":"SHIPPED"}`))
	require.NoError(t, err)

	var want []byte
	want = protowire.AppendTag(want, 1, protowire.BytesType)
	want = protowire.AppendString(want, "o-1")
	want = protowire.AppendTag(want, 2, protowire.VarintType)
	want = protowire.AppendVarint(want, 2)

	got, err := p.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	parsed, err := p.Parse(got, "shop.Order")
	require.NoError(t, err)
	id, err := parsed.GetByName("order_id")
	require.NoError(t, err)
	assert.Equal(t, "o-1", id)
}

func TestProto3JSON_Options(t *testing.T) {
	p := newTestProto3JSON(t, func(c *Config) {
		c.NumericEnums = true
		c.UseProtoNames = true
		c.Indent = "  "
	})

	m, err := p.UnmarshalFromJSON("shop.Order", []byte(`{"order_id":"o-2","status":"PLACED"}`))
	require.NoError(t, err)

	out, err := p.MarshalToJSON(m)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"order_id\": \"o-2\",\n  \"status\": 1\n}", string(out))
}

func TestProto3JSON_ReadValue(t *testing.T) {
	p := newTestProto3JSON(t)
	want, err := p.UnmarshalFromJSON("shop.Order", []byte(`{"orderId":"o-3","status":"PLACED","lines":[{"sku":"B","quantity":1}]}`))
	require.NoError(t, err)

	tests := []struct {
		name   string
		format Format
		input  string
	}{
		{
			name:   "jsonc",
			format: FormatJSONC,
			input: `{
				// order header
				"orderId": "o-3",
				"status": "PLACED",
				"lines": [{"sku": "B", "quantity": 1,},],
			}`,
		},
		{
			name:   "yaml",
			format: FormatYAML,
			input:  "orderId: o-3\nstatus: PLACED\nlines:\n  - sku: B\n    quantity: 1\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := p.ReadValue([]byte(tt.input), tt.format)
			require.NoError(t, err)
			got, err := p.FromJSON("shop.Order", v)
			require.NoError(t, err)

			a, err := p.MarshalToJSON(want)
			require.NoError(t, err)
			b, err := p.MarshalToJSON(got)
			require.NoError(t, err)
			assert.JSONEq(t, string(a), string(b))
		})
	}

	_, err = p.ReadValue([]byte(`{}`), Format("toml"))
	require.Error(t, err)
}

func TestProto3JSON_Errors(t *testing.T) {
	p := newTestProto3JSON(t, func(c *Config) { c.MaxDepth = 2 })

	_, err := p.UnmarshalFromJSON("shop.Order", []byte(`{"status":{}}`))
	require.ErrorIs(t, err, transcode.ErrTypeMismatch)

	_, err = p.UnmarshalFromJSON("shop.Order", []byte(`{"createdAt":"yesterday"}`))
	require.ErrorIs(t, err, transcode.ErrFormat)

	_, err = p.UnmarshalFromJSON("shop.Order", []byte(`{"orderId":`))
	require.ErrorIs(t, err, jsonvalue.ErrInvalidJSON)

	_, err = p.UnmarshalFromJSON("shop.Order", []byte(`{"lines":[{}]}`))
	require.ErrorIs(t, err, jsonvalue.ErrMaxDepth)

	_, err = p.UnmarshalFromJSON("shop.Missing", []byte(`{}`))
	require.Error(t, err)

	_, err = p.BinaryToJSON([]byte{0x0a, 0x05, 'a'}, "shop.Order")
	require.Error(t, err)
}

func TestProto3JSON_Null(t *testing.T) {
	p := newTestProto3JSON(t)

	m, err := p.UnmarshalFromJSON("shop.Order", []byte(`null`))
	require.NoError(t, err)
	assert.Nil(t, m)

	bin, err := p.JSONToBinary([]byte(`null`), "shop.Order")
	require.NoError(t, err)
	assert.Empty(t, bin)

	// a wrapper given null stays an explicit null
	m, err = p.UnmarshalFromJSON("shop.Order", []byte(`{"discount":null}`))
	require.NoError(t, err)
	out, err := p.MarshalToJSON(m)
	require.NoError(t, err)
	assert.Equal(t, `{"discount":null}`, string(out))

	// a zero wrapper is written empty and reads back as 0
	bin, err = p.JSONToBinary([]byte(`{"discount":0}`), "shop.Order")
	require.NoError(t, err)
	out, err = p.BinaryToJSON(bin, "shop.Order")
	require.NoError(t, err)
	assert.Equal(t, `{"discount":0}`, string(out))
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "proto3json.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
proto_paths: [protos, /abs/protos]
proto_files: [shop/order.proto]
numeric_enums: true
indent: "\t"
`), 0o644))

	t.Run("file", func(t *testing.T) {
		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, Config{
			ProtoPaths:   []string{filepath.Join(dir, "protos"), "/abs/protos"},
			ProtoFiles:   []string{"shop/order.proto"},
			NumericEnums: true,
			Indent:       "\t",
			MaxDepth:     jsonvalue.DefaultMaxDepth,
		}, cfg)
	})

	t.Run("env_overrides", func(t *testing.T) {
		t.Setenv(EnvNumericEnums, "0")
		t.Setenv(EnvUseProtoNames, "true")
		t.Setenv(EnvProtoFiles, "a.proto, b.proto")
		t.Setenv(EnvMaxDepth, "64")
		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.False(t, cfg.NumericEnums)
		assert.True(t, cfg.UseProtoNames)
		assert.Equal(t, []string{"shop/order.proto", "a.proto", "b.proto"}, cfg.ProtoFiles)
		assert.Equal(t, 64, cfg.MaxDepth)
	})

	t.Run("no_file", func(t *testing.T) {
		cfg, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("bad_env", func(t *testing.T) {
		t.Setenv(EnvMaxDepth, "deep")
		_, err := LoadConfig("")
		require.Error(t, err)
	})

	t.Run("missing_file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(dir, "absent.yaml"))
		require.Error(t, err)
	})
}
