// Package conf loads, validates and saves the application settings.
package conf

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/aftermidnight/internal/errors"
	"github.com/tphakala/aftermidnight/internal/logger"
)

//go:embed config.yaml
var configFiles embed.FS

// Settings contains all configuration options for the application.
type Settings struct {
	Debug bool // true to enable debug logging everywhere

	// Runtime values, not stored in config file
	Version    string `yaml:"-"` // Version from build
	BuildDate  string `yaml:"-"` // Build date from build
	ConfigFile string `yaml:"-"` // Path of the file the settings were read from

	Main struct {
		Name string               // name of this catalog, shown in summaries
		Log  logger.LoggingConfig // logging configuration
	}

	Output struct {
		SQLite struct {
			Path      string        // path to sqlite database
			SlowQuery time.Duration // slow statement threshold, 0 disables
		}
	}

	Import ImportSettings // directory import settings

	Observatory ObservatorySettings // observing site used for darkness windows

	Metrics MetricsSettings // Prometheus textfile export
}

// ImportSettings controls which files a directory import picks up.
type ImportSettings struct {
	Extensions     []string // file extensions, matched case-insensitively
	FollowSymlinks bool     // descend into symlinked directories
}

// ObservatorySettings holds the observing site location.
type ObservatorySettings struct {
	Enabled   bool    // true to compute darkness windows in summaries
	Latitude  float64 // decimal degrees, north positive
	Longitude float64 // decimal degrees, east positive
}

// MetricsSettings controls the Prometheus textfile export.
type MetricsSettings struct {
	Enabled  bool   // true to collect metrics
	Textfile string // path of the .prom file written after each command
}

// Load reads configuration from configFile, or from the default locations when
// configFile is empty, then applies environment overrides and validates.
// A missing config file is created from the embedded default.
func Load(configFile string) (*Settings, error) {
	v := viper.New()

	path, err := initViper(v, configFile)
	if err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings := &Settings{ConfigFile: path}
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error unmarshaling config into struct: %w", err)).
			Category(errors.CategoryConfiguration).
			Context("config_file", path).
			Build()
	}

	if settings.Debug {
		settings.Main.Log.DefaultLevel = string(logger.LogLevelDebug)
		if settings.Main.Log.Console != nil {
			settings.Main.Log.Console.Level = string(logger.LogLevelDebug)
		}
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	return settings, nil
}

// initViper sets defaults and environment bindings, then reads the config file.
// It returns the path of the file that was read.
func initViper(v *viper.Viper, configFile string) (string, error) {
	v.SetConfigType("yaml")
	setDefaultConfig(v)

	if err := configureEnvironmentVariables(v); err != nil {
		return "", err
	}

	if configFile != "" {
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			if err := createDefaultConfig(configFile); err != nil {
				return "", err
			}
		}
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return "", fmt.Errorf("fatal error reading config file: %w", err)
		}
		return configFile, nil
	}

	v.SetConfigName("config")
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return "", fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		v.AddConfigPath(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return "", fmt.Errorf("fatal error reading config file: %w", err)
		}

		path := filepath.Join(configPaths[0], "config.yaml")
		if err := createDefaultConfig(path); err != nil {
			return "", err
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return "", fmt.Errorf("fatal error reading config file: %w", err)
		}
	}

	return v.ConfigFileUsed(), nil
}

// createDefaultConfig writes the embedded default config to configPath
func createDefaultConfig(configPath string) error {
	defaultConfig, err := getDefaultConfig()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return errors.New(fmt.Errorf("error creating directories for config file: %w", err)).
			Category(errors.CategoryFileIO).
			Context("config_file", configPath).
			Build()
	}

	if err := os.WriteFile(configPath, defaultConfig, 0o644); err != nil {
		return errors.New(fmt.Errorf("error writing default config file: %w", err)).
			Category(errors.CategoryFileIO).
			Context("config_file", configPath).
			Build()
	}

	logger.Global().Module("configuration").Info("created default config file",
		logger.String("path", configPath))
	return nil
}

// getDefaultConfig reads the default configuration from the embedded config.yaml file.
func getDefaultConfig() ([]byte, error) {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		return nil, fmt.Errorf("error reading embedded config: %w", err)
	}
	return data, nil
}

// SaveYAMLConfig writes settings to configPath.
// It overwrites the existing file, not preserving comments or structure.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	// Write to a temporary file first so the rename is atomic
	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer os.Remove(tempFileName)

	if _, err := tempFile.Write(yamlData); err != nil {
		tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	if err := os.Rename(tempFileName, configPath); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}

	return nil
}
