package schema

import (
	"errors"
	"os"
	"path/filepath"
)

// ServiceConfig defines the directories and defaults for the workspace service.
type ServiceConfig struct {
	// TroveDir holds the document files of the open trove.
	TroveDir string
	// UserDataDir holds the workspace snapshot.
	UserDataDir  string
	DefaultTitle Title
	DefaultTheme ThemeName
	// DisableAuditLogging disables audit trail debug logs for commands.
	DisableAuditLogging bool
}

// NormalizeServiceConfig applies defaults and validates the config.
func NormalizeServiceConfig(cfg ServiceConfig) (ServiceConfig, error) {
	if cfg.TroveDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ServiceConfig{}, err
		}
		cfg.TroveDir = filepath.Join(home, ".trove", "documents", "default")
	}
	if cfg.UserDataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ServiceConfig{}, err
		}
		cfg.UserDataDir = filepath.Join(home, ".trove", "state")
	}
	if cfg.DefaultTitle == "" {
		cfg.DefaultTitle = DefaultTitle
	}
	title, err := NormalizeTitle(cfg.DefaultTitle)
	if err != nil {
		return ServiceConfig{}, errors.New("default title sanitizes to an empty file name")
	}
	cfg.DefaultTitle = title
	if cfg.DefaultTheme == "" {
		cfg.DefaultTheme = DefaultTheme
	}
	return cfg, nil
}
