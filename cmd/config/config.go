// Package config provides commands to inspect and edit the configuration file
package config

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/aftermidnight/internal/conf"
)

// Command creates the config parent command
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit the configuration file",
	}

	cmd.AddCommand(showCommand(settings), setLocationCommand(settings))

	return cmd
}

func showCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(settings)
			if err != nil {
				return fmt.Errorf("error marshaling settings: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", settings.ConfigFile, data)
			return nil
		},
	}
}

func setLocationCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "set-location LATITUDE LONGITUDE",
		Short: "Store the observatory location and enable darkness windows in summaries",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, err := strconv.ParseFloat(args[0], 64)
			if err != nil || lat < -90 || lat > 90 {
				return fmt.Errorf("invalid latitude %q: must be between -90 and 90", args[0])
			}
			lon, err := strconv.ParseFloat(args[1], 64)
			if err != nil || lon < -180 || lon > 180 {
				return fmt.Errorf("invalid longitude %q: must be between -180 and 180", args[1])
			}

			// Reload so command-line overrides are not written back
			stored, err := conf.Load(settings.ConfigFile)
			if err != nil {
				return err
			}
			stored.Observatory = conf.ObservatorySettings{Enabled: true, Latitude: lat, Longitude: lon}
			if err := conf.SaveYAMLConfig(settings.ConfigFile, stored); err != nil {
				return err
			}
			settings.Observatory = stored.Observatory
			fmt.Fprintf(cmd.OutOrStdout(), "Observatory set to %.4f, %.4f in %s\n", lat, lon, settings.ConfigFile)
			return nil
		},
	}
}
