package appconfig

import (
	"os"
	"path/filepath"

	"pkt.systems/trove/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int           `mapstructure:"config_version" yaml:"config_version"`
	DocumentsRoot string        `mapstructure:"documents_root" yaml:"documents_root"`
	Trove         string        `mapstructure:"trove" yaml:"trove"`
	UserDataDir   string        `mapstructure:"user_data_dir" yaml:"user_data_dir"`
	DefaultTitle  string        `mapstructure:"default_title" yaml:"default_title"`
	DefaultTheme  string        `mapstructure:"default_theme" yaml:"default_theme"`
	Watch         WatchConfig   `mapstructure:"watch" yaml:"watch"`
	HTTP          HTTPConfig    `mapstructure:"http" yaml:"http"`
	Logging       LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// WatchConfig controls the trove directory watcher.
type WatchConfig struct {
	Enable     bool `mapstructure:"enable" yaml:"enable"`
	DebounceMS int  `mapstructure:"debounce_ms" yaml:"debounce_ms"`
}

// HTTPConfig configures the HTTP command boundary.
type HTTPConfig struct {
	Addr    string `mapstructure:"addr" yaml:"addr"`
	History int    `mapstructure:"history" yaml:"history"`
}

// LoggingConfig controls audit logging behavior.
type LoggingConfig struct {
	DisableCommandAudit bool `mapstructure:"disable_command_audit" yaml:"disable_command_audit"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		DocumentsRoot: filepath.Join(home, ".trove", "documents"),
		Trove:         "default",
		UserDataDir:   filepath.Join(home, ".trove", "state"),
		DefaultTitle:  string(schema.DefaultTitle),
		DefaultTheme:  string(schema.DefaultTheme),
		Watch: WatchConfig{
			Enable:     true,
			DebounceMS: 150,
		},
		HTTP: HTTPConfig{
			Addr:    "127.0.0.1:27490",
			History: 64,
		},
		Logging: LoggingConfig{
			DisableCommandAudit: false,
		},
	}, nil
}

// TroveDir returns the directory holding the documents of the configured trove.
func (c Config) TroveDir() string {
	return filepath.Join(c.DocumentsRoot, c.Trove)
}

// ServiceConfig projects the file config onto the workspace service config.
func (c Config) ServiceConfig() schema.ServiceConfig {
	return schema.ServiceConfig{
		TroveDir:            c.TroveDir(),
		UserDataDir:         c.UserDataDir,
		DefaultTitle:        schema.Title(c.DefaultTitle),
		DefaultTheme:        schema.ThemeName(c.DefaultTheme),
		DisableAuditLogging: c.Logging.DisableCommandAudit,
	}
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".trove", "config.yaml"), nil
}
