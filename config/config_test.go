package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, c.Input)
	assert.Equal(t, "impl", c.ImplDir)
	assert.Equal(t, "-impl", c.ImplSuffix)
	assert.Equal(t, "generated", c.OutputDir)
	assert.Equal(t, "webidl-conversions", c.ConversionsModule)
	assert.Equal(t, "Window", c.DefaultExposure)
	assert.True(t, c.VerifySyntax)
	assert.False(t, c.EmitConversions)
	assert.Zero(t, c.Workers)
	assert.Equal(t, "info", c.Log.Level)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "webidl2js.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
input = ["idl", "extra.webidl"]
impl_dir = "lib/impl"
output_dir = "lib/gen"
emit_conversions = true
workers = 2

[log]
level = "warn"
`), 0o644))

	t.Setenv("WEBIDL2JS_WORKERS", "5")
	t.Setenv("WEBIDL2JS_LOG_JSON", "true")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"idl", "extra.webidl"}, c.Input)
	assert.Equal(t, "lib/impl", c.ImplDir)
	assert.Equal(t, "lib/gen", c.OutputDir)
	assert.True(t, c.EmitConversions)
	assert.Equal(t, 5, c.Workers)
	assert.Equal(t, "warn", c.Log.Level)
	assert.True(t, c.Log.JSON)
	assert.Equal(t, "-impl", c.ImplSuffix)
	require.NoError(t, c.Validate())
}

func TestInputFromEnv(t *testing.T) {
	t.Setenv("WEBIDL2JS_INPUT", "a.webidl,b.webidl")
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.webidl", "b.webidl"}, c.Input)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Input:      []string{"idl"},
			ImplSuffix: "-impl",
			OutputDir:  "out",
			Log:        LogConfig{Level: "info"},
		}
	}
	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"valid", func(c *Config) {}, ""},
		{"no input", func(c *Config) { c.Input = nil }, "input cannot be empty"},
		{"empty input", func(c *Config) { c.Input = []string{"a", ""} }, "input[1] cannot be empty"},
		{"no suffix", func(c *Config) { c.ImplSuffix = "" }, "impl_suffix cannot be empty"},
		{"no output", func(c *Config) { c.OutputDir = "" }, "output_dir cannot be empty"},
		{"negative workers", func(c *Config) { c.Workers = -1 }, "workers must be >= 0, got -1"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level must be one of"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
