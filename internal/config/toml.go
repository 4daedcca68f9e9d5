// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Server   ServerConfig   `toml:"server"`
	Practice PracticeConfig `toml:"practice"`
}

// ServerConfig maps server-related settings.
type ServerConfig struct {
	Host   *string `toml:"host"`
	Port   *int    `toml:"port"`
	DBPath *string `toml:"db-path"`
}

// PracticeConfig maps session defaults applied when a client does not
// request its own.
type PracticeConfig struct {
	TimeLimitSeconds *int    `toml:"time-limit"`
	BackspaceMode    *string `toml:"backspace-mode"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
