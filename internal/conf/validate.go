package conf

import (
	"fmt"
	"strings"

	"github.com/tphakala/aftermidnight/internal/logger"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateLogSettings(&settings.Main.Log); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if strings.TrimSpace(settings.Output.SQLite.Path) == "" {
		ve.Errors = append(ve.Errors, "output.sqlite.path must not be empty")
	}

	if settings.Output.SQLite.SlowQuery < 0 {
		ve.Errors = append(ve.Errors, "output.sqlite.slowquery must not be negative")
	}

	if err := validateImportSettings(&settings.Import); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateObservatorySettings(&settings.Observatory); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if settings.Metrics.Enabled && settings.Metrics.Textfile == "" {
		ve.Errors = append(ve.Errors, "metrics.textfile is required when metrics are enabled")
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateLogSettings(cfg *logger.LoggingConfig) error {
	levels := map[string]string{"main.log.default_level": cfg.DefaultLevel}
	if cfg.Console != nil {
		levels["main.log.console.level"] = cfg.Console.Level
	}
	if cfg.FileOutput != nil {
		levels["main.log.file_output.level"] = cfg.FileOutput.Level
		if cfg.FileOutput.Enabled && cfg.FileOutput.Path == "" {
			return fmt.Errorf("main.log.file_output.path is required when file output is enabled")
		}
	}
	for module, level := range cfg.ModuleLevels {
		levels["main.log.module_levels."+module] = level
	}

	for key, level := range levels {
		if level != "" && !isValidLogLevel(level) {
			return fmt.Errorf("%s: invalid log level %q", key, level)
		}
	}
	return nil
}

func validateImportSettings(cfg *ImportSettings) error {
	if len(cfg.Extensions) == 0 {
		return fmt.Errorf("import.extensions must list at least one extension")
	}
	for i, ext := range cfg.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("import.extensions: %q must start with a dot", ext)
		}
		cfg.Extensions[i] = strings.ToLower(ext)
	}
	return nil
}

func validateObservatorySettings(cfg *ObservatorySettings) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Latitude < -90 || cfg.Latitude > 90 {
		return fmt.Errorf("observatory.latitude must be between -90 and 90, got %v", cfg.Latitude)
	}
	if cfg.Longitude < -180 || cfg.Longitude > 180 {
		return fmt.Errorf("observatory.longitude must be between -180 and 180, got %v", cfg.Longitude)
	}
	return nil
}

func isValidLogLevel(level string) bool {
	switch logger.LogLevel(strings.ToLower(level)) {
	case logger.LogLevelTrace, logger.LogLevelDebug, logger.LogLevelInfo, logger.LogLevelWarn, logger.LogLevelError:
		return true
	}
	return false
}
