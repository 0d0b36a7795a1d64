package appconfig

import (
	"os"
	"path/filepath"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int          `mapstructure:"config_version" yaml:"config_version"`
	StateDir      string       `mapstructure:"state_dir" yaml:"state_dir"`
	API           APIConfig    `mapstructure:"api" yaml:"api"`
	Upload        UploadConfig `mapstructure:"upload" yaml:"upload"`
	Photos        PhotosConfig `mapstructure:"photos" yaml:"photos"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// APIConfig configures the backend endpoint.
type APIConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// UploadConfig controls the photo submission pipeline.
type UploadConfig struct {
	// ViewportWidth overrides the detected viewport width for preview
	// paging. Zero means detect from the terminal.
	ViewportWidth int `mapstructure:"viewport_width" yaml:"viewport_width"`
}

// PhotosConfig controls photo listing behavior.
type PhotosConfig struct {
	PageLimit int `mapstructure:"page_limit" yaml:"page_limit"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		StateDir:      filepath.Join(home, ".fotodrop", "state"),
		API: APIConfig{
			BaseURL: "http://localhost:8080",
		},
		Upload: UploadConfig{
			ViewportWidth: 0,
		},
		Photos: PhotosConfig{
			PageLimit: 12,
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".fotodrop", "config.yaml"), nil
}
