// Package reset provides the command that clears the catalog
package reset

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/aftermidnight/internal/conf"
	"github.com/tphakala/aftermidnight/internal/runtime"
)

// Command creates the reset command
func Command(settings *conf.Settings) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "reset --all",
		Short: "Delete every project and image",
		Long:  "Delete every project and image in the catalog. Keyword mappings and image columns are kept.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all {
				return fmt.Errorf("refusing to reset without --all")
			}
			return runtime.With(cmd.Context(), settings, func(s *runtime.Services) error {
				images, projects, err := s.Store.Wipe(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d project(s) and %d image(s)\n", projects, images)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Confirm deleting all projects and images")

	return cmd
}
