package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the config directory at an empty temp dir and clears the
// environment variables the loader reads.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	for _, k := range []string{"TOOL", "GUI", "EXTCMD", "TMPDIR", "EXCLUDE", "FORMAT", "LOG_LEVEL"} {
		t.Setenv(EnvPrefix+k, "")
		os.Unsetenv(EnvPrefix + k)
	}
	return dir
}

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.StringP("tool", "t", "", "")
	fs.BoolP("gui", "g", false, "")
	fs.StringP("extcmd", "x", "", "")
	fs.StringSlice("exclude", nil, "")
	fs.String("format", "text", "")
	fs.Bool("cached", false, "")
	return fs
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Empty(t, cfg.Tool)
	assert.False(t, cfg.GUI)
}

func TestLoad_DefaultsOnly(t *testing.T) {
	isolate(t)
	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Precedence(t *testing.T) {
	dir := isolate(t)
	cfgDir := filepath.Join(dir, "git-dirdiff")
	require.NoError(t, os.MkdirAll(cfgDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte(`
tool: meld
gui: true
tmpdir: /var/tmp
exclude:
  - vendor/**
log:
  level: info
`), 0o644))

	t.Run("file", func(t *testing.T) {
		cfg, err := Load(newFlags(), "")
		require.NoError(t, err)
		assert.Equal(t, "meld", cfg.Tool)
		assert.True(t, cfg.GUI)
		assert.Equal(t, "/var/tmp", cfg.TmpDir)
		assert.Equal(t, []string{"vendor/**"}, cfg.Exclude)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, "text", cfg.Format)
	})

	t.Run("env over file", func(t *testing.T) {
		t.Setenv("GIT_DIRDIFF_TOOL", "kdiff3")
		t.Setenv("GIT_DIRDIFF_LOG_LEVEL", "debug")
		t.Setenv("GIT_DIRDIFF_EXCLUDE", "*.gen.go, dist/**")

		cfg, err := Load(newFlags(), "")
		require.NoError(t, err)
		assert.Equal(t, "kdiff3", cfg.Tool)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, []string{"*.gen.go", "dist/**"}, cfg.Exclude)
		assert.True(t, cfg.GUI)
	})

	t.Run("flags over env", func(t *testing.T) {
		t.Setenv("GIT_DIRDIFF_TOOL", "kdiff3")
		fs := newFlags()
		require.NoError(t, fs.Parse([]string{"--tool", "bc", "--format", "json"}))

		cfg, err := Load(fs, "")
		require.NoError(t, err)
		assert.Equal(t, "bc", cfg.Tool)
		assert.Equal(t, "json", cfg.Format)
		assert.True(t, cfg.GUI, "unchanged flags must not reset file values")
	})
}

func TestLoad_ExplicitFileFormats(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	files := map[string]string{
		"c.json": `{"tool": "opendiff", "extcmd": "diff -r"}`,
		"c.toml": "tool = \"opendiff\"\nextcmd = \"diff -r\"\n",
		"c.env":  "TOOL=opendiff\nEXTCMD=diff -r\n",
	}
	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			p := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(p, []byte(content), 0o644))

			cfg, err := Load(nil, p)
			require.NoError(t, err)
			assert.Equal(t, "opendiff", cfg.Tool)
			assert.Equal(t, "diff -r", cfg.ExtCmd)
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	_, err := Load(nil, filepath.Join(dir, "config.ini"))
	assert.ErrorContains(t, err, "unknown config file extension")

	_, err = Load(nil, filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("format: xml\n"), 0o644))
	_, err = Load(nil, bad)
	assert.ErrorContains(t, err, "unsupported format")
}

func TestConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	dir, err := ConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", "git-dirdiff"), dir)
}

func TestConfigPath_NoFile(t *testing.T) {
	isolate(t)
	p, err := ConfigPath()
	require.NoError(t, err)
	assert.Empty(t, p)
}

func TestSplitComma(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{" a , b ,, c ", []string{"a", "b", "c"}},
		{",,,", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, splitComma(tt.input), "splitComma(%q)", tt.input)
	}
}
