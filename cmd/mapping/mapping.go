// Package mapping provides the header keyword mapping commands
package mapping

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tphakala/aftermidnight/internal/conf"
	"github.com/tphakala/aftermidnight/internal/mapping"
	"github.com/tphakala/aftermidnight/internal/runtime"
)

// Command creates the mapping parent command
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mapping",
		Short: "Manage which FITS header keywords are stored as image columns",
	}

	cmd.AddCommand(
		listCommand(settings),
		addCommand(settings),
		removeCommand(settings),
		renameCommand(settings),
		resetCommand(settings),
		exportCommand(settings),
		loadCommand(settings),
	)

	return cmd
}

func listCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List keyword mappings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runtime.With(cmd.Context(), settings, func(s *runtime.Services) error {
				entries, err := s.Mappings.List(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%-20s %-20s %s\n", "KEYWORD", "FIELD", "PROTECTED")
				for _, e := range entries {
					protected := ""
					if mapping.IsProtected(e.StoredField) {
						protected = "yes"
					}
					fmt.Fprintf(out, "%-20s %-20s %s\n", e.SourceKeyword, e.StoredField, protected)
				}
				return nil
			})
		},
	}
}

func addCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "add KEYWORD FIELD",
		Short: "Store header KEYWORD in image column FIELD",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runtime.With(cmd.Context(), settings, func(s *runtime.Services) error {
				if err := s.Mappings.Add(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Mapped %s to %s\n", args[0], args[1])
				return nil
			})
		},
	}
}

func removeCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "remove FIELD",
		Short: "Remove every mapping to FIELD",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runtime.With(cmd.Context(), settings, func(s *runtime.Services) error {
				if err := s.Mappings.Remove(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed mappings to %s\n", args[0])
				return nil
			})
		},
	}
}

func renameCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "rename FIELD NEWFIELD",
		Short: "Store the keywords mapped to FIELD in NEWFIELD instead",
		Long:  "Store the keywords mapped to FIELD in NEWFIELD instead. Existing image columns keep their names; NEWFIELD is added on the next import.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runtime.With(cmd.Context(), settings, func(s *runtime.Services) error {
				if err := s.Mappings.Rename(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", args[0], args[1])
				return nil
			})
		},
	}
}

func resetCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the default mappings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runtime.With(cmd.Context(), settings, func(s *runtime.Services) error {
				if err := s.Mappings.ResetToDefaults(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Mappings reset to defaults")
				return nil
			})
		},
	}
}

func exportCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "export [FILE]",
		Short: "Write the mappings as YAML to FILE or standard output",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runtime.With(cmd.Context(), settings, func(s *runtime.Services) error {
				if len(args) == 0 {
					return s.Mappings.Export(cmd.Context(), cmd.OutOrStdout())
				}

				f, err := os.Create(args[0])
				if err != nil {
					return fmt.Errorf("create %s: %w", args[0], err)
				}
				if err := s.Mappings.Export(cmd.Context(), f); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return fmt.Errorf("close %s: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Mappings written to %s\n", args[0])
				return nil
			})
		},
	}
}

func loadCommand(settings *conf.Settings) *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "load FILE",
		Short: "Add the mappings in a YAML document, - reads standard input",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var src io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open %s: %w", args[0], err)
				}
				defer f.Close()
				src = f
			}

			return runtime.With(cmd.Context(), settings, func(s *runtime.Services) error {
				added, err := s.Mappings.Load(cmd.Context(), src, replace)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %d mapping(s)\n", added)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "Remove non-protected mappings before loading")

	return cmd
}
