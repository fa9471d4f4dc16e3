package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix starts every environment variable the loader reads.
const EnvPrefix = "GIT_DIRDIFF_"

// Config represents the git-dirdiff configuration.
type Config struct {
	Tool    string    `koanf:"tool" json:"tool"`
	GUI     bool      `koanf:"gui" json:"gui"`
	ExtCmd  string    `koanf:"extcmd" json:"extcmd"`
	TmpDir  string    `koanf:"tmpdir" json:"tmpdir"`
	Exclude []string  `koanf:"exclude" json:"exclude"`
	Format  string    `koanf:"format" json:"format"`
	Log     LogConfig `koanf:"log" json:"log"`
}

// LogConfig controls diagnostics.
type LogConfig struct {
	Level string `koanf:"level" json:"level"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Format: "text",
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// ConfigDir returns the platform-appropriate config directory for git-dirdiff.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "git-dirdiff"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "git-dirdiff"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "git-dirdiff"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "git-dirdiff"), nil
	default:
		return filepath.Join(home, ".config", "git-dirdiff"), nil
	}
}

// ConfigPath returns the first existing config file in ConfigDir, or "" if
// there is none.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	for _, name := range []string{"config.yaml", "config.yml", "config.json", "config.toml"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", nil
}

// Load builds the effective config by merging: defaults <- file <- env <- flags.
// configFile overrides the default file location; flags may be nil.
func Load(flags *pflag.FlagSet, configFile string) (Config, error) {
	k := koanf.New(".")

	if configFile == "" {
		p, err := ConfigPath()
		if err != nil {
			return Config{}, err
		}
		configFile = p
	}
	if configFile != "" {
		parser, err := parserForFile(configFile)
		if err != nil {
			return Config{}, err
		}
		if err := k.Load(file.Provider(configFile), parser); err != nil {
			return Config{}, fmt.Errorf("loading config file %s: %w", configFile, err)
		}
	}

	// GIT_DIRDIFF_LOG_LEVEL becomes log.level.
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return Config{}, fmt.Errorf("loading environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, fmt.Errorf("loading flags: %w", err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envValue(key, value string) (string, interface{}) {
	key = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), "_", ".")
	if key == "exclude" {
		return key, splitComma(value)
	}
	return key, value
}

// Validate rejects values no component can use.
func (c Config) Validate() error {
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported format %q (want text or json)", c.Format)
	}
	return nil
}

func parserForFile(path string) (koanf.Parser, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	case ".toml":
		return toml.Parser(), nil
	case ".env":
		return dotenv.Parser(), nil
	default:
		return nil, fmt.Errorf("unknown config file extension: %s", ext)
	}
}

func splitComma(s string) []string {
	var result []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
