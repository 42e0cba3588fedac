package conf

import (
	"time"

	"github.com/spf13/viper"

	"github.com/tphakala/aftermidnight/internal/logger"
)

// Default values shared with the embedded config.yaml
const (
	DefaultDatabasePath = "aftermidnight.db"
	DefaultSlowQuery    = 200 * time.Millisecond
)

// DefaultExtensions lists the FITS file extensions picked up by an import.
var DefaultExtensions = []string{".fits", ".fit"}

// setDefaultConfig sets default values for every configuration key
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("main.name", "aftermidnight")
	v.SetDefault("main.log.default_level", logger.DefaultLogLevel)
	v.SetDefault("main.log.timezone", "Local")
	v.SetDefault("main.log.console.enabled", logger.DefaultConsoleEnabled)
	v.SetDefault("main.log.console.level", logger.DefaultLogLevel)
	v.SetDefault("main.log.file_output.enabled", logger.DefaultFileEnabled)
	v.SetDefault("main.log.file_output.path", logger.DefaultLogPath)
	v.SetDefault("main.log.file_output.level", logger.DefaultLogLevel)

	v.SetDefault("output.sqlite.path", DefaultDatabasePath)
	v.SetDefault("output.sqlite.slowquery", DefaultSlowQuery)

	v.SetDefault("import.extensions", DefaultExtensions)
	v.SetDefault("import.followsymlinks", false)

	v.SetDefault("observatory.enabled", false)
	v.SetDefault("observatory.latitude", 0.0)
	v.SetDefault("observatory.longitude", 0.0)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.textfile", "")
}
