// Package cmd assembles the aftermidnight command line
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/aftermidnight/cmd/config"
	"github.com/tphakala/aftermidnight/cmd/directory"
	"github.com/tphakala/aftermidnight/cmd/mapping"
	"github.com/tphakala/aftermidnight/cmd/project"
	"github.com/tphakala/aftermidnight/cmd/reset"
	"github.com/tphakala/aftermidnight/cmd/stats"
	"github.com/tphakala/aftermidnight/cmd/summary"
	"github.com/tphakala/aftermidnight/internal/conf"
	"github.com/tphakala/aftermidnight/internal/logger"
	runtimectx "github.com/tphakala/aftermidnight/internal/runtime"
)

// globalFlags holds the persistent flag values. They are applied after the
// config file is loaded so command-line values take precedence.
type globalFlags struct {
	configFile string
	dbPath     string
	debug      bool
}

// RootCommand creates and returns the root command. settings is filled in
// before any subcommand runs.
func RootCommand(settings *conf.Settings, rt *runtimectx.Context) *cobra.Command {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:          "aftermidnight",
		Short:        "Catalog FITS images by project and summarize observing nights",
		Version:      rt.Version,
		SilenceUsage: true,
	}

	setupFlags(rootCmd, &flags)

	rootCmd.AddCommand(
		project.Command(settings),
		mapping.Command(settings),
		directory.Command(settings),
		summary.Command(settings),
		reset.Command(settings),
		stats.Command(settings),
		config.Command(settings),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return initialize(cmd, settings, rt, &flags)
	}
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return logger.Global().Close()
	}

	return rootCmd
}

// initialize loads configuration, applies flag overrides and sets up logging
func initialize(cmd *cobra.Command, settings *conf.Settings, rt *runtimectx.Context, flags *globalFlags) error {
	loaded, err := conf.Load(flags.configFile)
	if err != nil {
		return err
	}
	*settings = *loaded
	settings.Version = rt.Version
	settings.BuildDate = rt.BuildDate

	if flags.dbPath != "" {
		settings.Output.SQLite.Path = flags.dbPath
	}
	if flags.debug {
		settings.Debug = true
		settings.Main.Log.DefaultLevel = string(logger.LogLevelDebug)
		if settings.Main.Log.Console != nil {
			settings.Main.Log.Console.Level = string(logger.LogLevelDebug)
		}
	}

	cl, err := logger.NewCentralLogger(&settings.Main.Log, logger.WithConsoleWriter(cmd.ErrOrStderr()))
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.SetGlobal(cl)

	cl.Module("main").Debug("configuration loaded",
		logger.String("config_file", settings.ConfigFile),
		logger.String("database", settings.Output.SQLite.Path),
		logger.String("version", rt.Version))
	return nil
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, flags *globalFlags) {
	rootCmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&flags.dbPath, "db", "", "Path to the catalog database, overrides output.sqlite.path")
	rootCmd.PersistentFlags().BoolVarP(&flags.debug, "debug", "d", false, "Enable debug output")
}
