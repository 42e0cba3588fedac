// Package stats provides the catalog statistics command
package stats

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/aftermidnight/internal/conf"
	"github.com/tphakala/aftermidnight/internal/runtime"
)

// Command creates the stats command
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog location and row counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runtime.With(cmd.Context(), settings, func(s *runtime.Services) error {
				st, err := s.Store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				snap, err := s.Mappings.Snapshot(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Database:          %s\n", s.Store.Path())
				fmt.Fprintf(out, "Projects:          %d (%d organizations)\n", st.Projects, st.Organizations)
				fmt.Fprintf(out, "Images:            %d\n", st.Images)
				fmt.Fprintf(out, "Mapping entries:   %d\n", st.MappingEntries)
				fmt.Fprintf(out, "Mapping revision:  %d\n", snap.Revision)
				return nil
			})
		},
	}
}
