// Package conf loads and validates the application settings. Defaults are
// defined in defaults.go and an optional config.yaml on disk overrides them.
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Settings is the root of the application configuration.
type Settings struct {
	Debug bool // true to enable debug level logging

	Main struct {
		Name string // instance name, used in logs and the HTTP user agent
	}

	Database struct {
		Path string // path to the SQLite database file
	}

	Server struct {
		Port int // HTTP API listen port
	}

	Scanner struct {
		FetchTimeout time.Duration // timeout for a single source fetch
	}

	Geocoding struct {
		PostcodesBaseURL string        // postcodes.io compatible provider
		PlacesBaseURL    string        // Nominatim compatible place search provider
		Timeout          time.Duration // per lookup HTTP timeout
	}

	Home struct {
		Latitude  float64 // home coordinates for venue distance computation
		Longitude float64
	}
}

// Load reads and validates the configuration into a new Settings instance.
func Load() (*Settings, error) {
	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	return settings, nil
}

// initViper sets defaults and reads an optional config file from the
// working directory or ~/.config/hoofbeat-go/.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "hoofbeat-go"))
	}

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// No config file is fine, defaults apply
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// SaveYAML writes the settings to the given path as YAML.
func SaveYAML(settings *Settings, path string) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
