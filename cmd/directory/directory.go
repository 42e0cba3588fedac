// Package directory provides the import command for directories of FITS files
package directory

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/tphakala/aftermidnight/internal/conf"
	"github.com/tphakala/aftermidnight/internal/importer"
	"github.com/tphakala/aftermidnight/internal/runtime"
)

// Command creates a new cobra.Command for directory import.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		projectID uint
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "import DIR",
		Short: "Import the FITS files in a directory into a project",
		Long: "Recursively read the primary header of every FITS file under DIR and store one image record per file. " +
			"Files already imported into the project are skipped.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runtime.With(cmd.Context(), settings, func(s *runtime.Services) error {
				return runImport(cmd, s, args[0], projectID, verbose)
			})
		},
	}

	cmd.Flags().UintVarP(&projectID, "project", "p", 0, "ID of the project receiving the images")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print the outcome of every file")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}

func runImport(cmd *cobra.Command, s *runtime.Services, dir string, projectID uint, verbose bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	snap, err := s.Mappings.Snapshot(ctx)
	if err != nil {
		return err
	}

	run, err := s.Importer.Start(ctx, dir, projectID, snap)
	if err != nil {
		return err
	}

	var bar *progressbar.ProgressBar
	if !verbose {
		bar = newBar(cmd.ErrOrStderr(), len(run.Files()))
	}

	for outcome := range run.Outcomes() {
		if bar != nil {
			_ = bar.Add(1)
			continue
		}
		if outcome.Err != nil {
			fmt.Fprintf(out, "%-9s %s: %v\n", outcome.Status, outcome.Path, outcome.Err)
		} else {
			fmt.Fprintf(out, "%-9s %s\n", outcome.Status, outcome.Path)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	res := run.Result()
	printResult(out, res)
	if err := run.Err(); err != nil {
		return fmt.Errorf("import stopped after %d inserted image(s): %w", res.Inserted, err)
	}
	return nil
}

func newBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("importing"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func printResult(w io.Writer, res importer.Result) {
	fmt.Fprintf(w, "Scanned %d file(s): %d inserted, %d duplicate(s), %d skipped\n",
		res.Scanned, res.Inserted, res.Duplicates, res.Skipped)
}
