package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/randalmurphal/junction/pkg/junction/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestInt verifies integer extraction across the shapes produced by decoders.
func TestInt(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want int
	}{
		{"int", map[string]any{"size": 64}, 64},
		{"int64", map[string]any{"size": int64(128)}, 128},
		{"whole float", map[string]any{"size": 256.0}, 256},
		{"fractional float", map[string]any{"size": 1.5}, 10},
		{"numeric string", map[string]any{"size": " 512 "}, 512},
		{"bad string", map[string]any{"size": "lots"}, 10},
		{"bool", map[string]any{"size": true}, 10},
		{"missing", map[string]any{}, 10},
		{"nil map", nil, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, config.New(tt.data).Int("size", 10))
		})
	}
}

// TestBool verifies boolean extraction including string forms.
func TestBool(t *testing.T) {
	tests := []struct {
		name string
		val  any
		want bool
	}{
		{"true", true, true},
		{"false", false, false},
		{"string true", "true", true},
		{"string TRUE", "TRUE", true},
		{"string 0", "0", false},
		{"garbage", "maybe", true},
		{"int", 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(map[string]any{"async": tt.val})
			assert.Equal(t, tt.want, cfg.Bool("async", true))
		})
	}
}

func TestCaseInsensitiveLookup(t *testing.T) {
	cfg := config.New(map[string]any{"BufferSize": 32, "name": "app"})

	assert.Equal(t, 32, cfg.Int("buffersize", 0))
	assert.Equal(t, "app", cfg.String("NAME", ""))
	assert.True(t, cfg.Has("BUFFERSIZE"))
	assert.False(t, cfg.Has("other"))
}

func TestStringSlice(t *testing.T) {
	cfg := config.New(map[string]any{
		"direct": []string{"a", "b"},
		"mixed":  []any{"a", 1},
		"anys":   []any{"x", "y"},
	})

	assert.Equal(t, []string{"a", "b"}, cfg.StringSlice("direct", nil))
	assert.Equal(t, []string{"x", "y"}, cfg.StringSlice("anys", nil))
	assert.Equal(t, []string{"def"}, cfg.StringSlice("mixed", []string{"def"}))
}

func TestSubAndList(t *testing.T) {
	cfg := config.New(map[string]any{
		"app": map[string]any{"name": "trading"},
		"legacy": map[any]any{
			"async": true,
		},
		"streams": []any{
			map[string]any{"id": "StockStream"},
			"not a map",
			map[string]any{"id": "Alerts"},
		},
	})

	assert.Equal(t, "trading", cfg.Sub("app").String("name", ""))
	assert.True(t, cfg.Sub("legacy").Bool("async", false))
	assert.Empty(t, cfg.Sub("missing").Raw())

	streams := cfg.List("streams")
	require.Len(t, streams, 2)
	assert.Equal(t, "StockStream", streams[0].String("id", ""))
	assert.Equal(t, "Alerts", streams[1].String("id", ""))
	assert.Nil(t, cfg.List("app"))
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "junction.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
app:
  name: demo
  async: true
  buffer_size: 2048
streams:
  - id: StockStream
    attributes: [symbol, price]
`), 0o644))

	cfg, err := config.FromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.Sub("app").String("name", ""))
	assert.Equal(t, 2048, cfg.Sub("app").Int("buffer_size", 0))
	assert.Equal(t, []string{"symbol", "price"}, cfg.List("streams")[0].StringSlice("attributes", nil))

	jsonPath := filepath.Join(dir, "junction.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"app":{"async":false}}`), 0o644))
	cfg, err = config.FromFile(jsonPath)
	require.NoError(t, err)
	assert.False(t, cfg.Sub("app").Bool("async", true))
}

func TestFromFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := config.FromFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	txt := filepath.Join(dir, "junction.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0o644))
	_, err = config.FromFile(txt)
	assert.ErrorContains(t, err, "unsupported")

	_, err = config.FromYAML([]byte("app: [unclosed"))
	assert.Error(t, err)

	_, err = config.FromJSON([]byte("{"))
	assert.Error(t, err)
}

func TestEmptyYAML(t *testing.T) {
	cfg, err := config.FromYAML(nil)
	require.NoError(t, err)
	assert.NotNil(t, cfg.Raw())
}

func TestFromFileExpandsEnv(t *testing.T) {
	t.Setenv("JUNCTION_TEST_BUFFER", "512")
	path := filepath.Join(t.TempDir(), "junction.yml")
	require.NoError(t, os.WriteFile(path, []byte("app:\n  buffer_size: ${JUNCTION_TEST_BUFFER}\n"), 0o644))

	cfg, err := config.FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 512, cfg.Sub("app").Int("buffer_size", 0))
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path    string
		want    config.Format
		wantErr bool
	}{
		{"a.yaml", config.FormatYAML, false},
		{"a.YML", config.FormatYAML, false},
		{"dir/a.json", config.FormatJSON, false},
		{"a.toml", "", true},
		{"noext", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := config.FormatOf(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := config.Decode([]byte("{}"), config.Format("toml"))
	assert.ErrorContains(t, err, "unsupported config format")
}
