// Package summary provides the observing session summary command
package summary

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/tphakala/aftermidnight/cmd/project"
	"github.com/tphakala/aftermidnight/internal/conf"
	"github.com/tphakala/aftermidnight/internal/runtime"
	"github.com/tphakala/aftermidnight/internal/session"
	"github.com/tphakala/aftermidnight/internal/suncalc"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// Command creates the summary command
func Command(settings *conf.Settings) *cobra.Command {
	var frameType string

	cmd := &cobra.Command{
		Use:   "summary ID",
		Short: "Summarize a project's frames and exposure per night and filter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := project.ParseID(args[0])
			if err != nil {
				return err
			}
			return runtime.With(cmd.Context(), settings, func(s *runtime.Services) error {
				sum, err := s.Sessions.Summarize(cmd.Context(), id, session.Options{FrameType: frameType})
				if err != nil {
					return err
				}
				render(cmd.OutOrStdout(), sum)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&frameType, "type", "t", "", "Only count frames of this image type, e.g. LIGHT")

	return cmd
}

func render(w io.Writer, sum *session.Summary) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s [%d]", sum.ProjectName, sum.ProjectID)))

	if sum.Organization {
		fmt.Fprintln(w, "Organization project, no images")
		return
	}
	if sum.Frames == 0 {
		fmt.Fprintln(w, "No images")
		return
	}

	nights := newTable("NIGHT", "FILTER", "FRAMES", "EXPOSURE")
	for _, n := range sum.Nights {
		date := n.Date.Format(time.DateOnly)
		for _, f := range n.Filters {
			nights.Row(date, filterName(f.Filter), strconv.Itoa(f.Frames), f.Exposure.String())
			date = ""
		}
		if len(n.Filters) > 1 {
			nights.Row("", "all", strconv.Itoa(n.Frames), n.Exposure.String())
		}
	}
	for _, f := range sum.Undated {
		nights.Row("date unknown", filterName(f.Filter), strconv.Itoa(f.Frames), f.Exposure.String())
	}
	fmt.Fprintln(w, nights.String())

	if dark := darkness(sum.Nights); dark != "" {
		fmt.Fprint(w, dark)
	}

	totals := newTable("FILTER", "FRAMES", "EXPOSURE")
	for _, f := range sum.Totals {
		totals.Row(filterName(f.Filter), strconv.Itoa(f.Frames), f.Exposure.String())
	}
	totals.Row("all", strconv.Itoa(sum.Frames), sum.Exposure.String())
	fmt.Fprintln(w, totals.String())
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// darkness lists the astronomical darkness window of each night that has one
func darkness(nights []session.Night) string {
	var out string
	for _, n := range nights {
		if n.Sun == nil {
			continue
		}
		out += fmt.Sprintf("%s %s\n", n.Date.Format(time.DateOnly), window(n.Sun))
	}
	return out
}

func window(sun *suncalc.NightTimes) string {
	if !sun.Dark {
		return "no astronomical darkness"
	}
	d := sun.DarkDuration()
	return fmt.Sprintf("dark %s to %s (%dh %dm)",
		sun.AstronomicalDusk.Format("15:04"), sun.AstronomicalDawn.Format("15:04"),
		int(d.Hours()), int(d.Minutes())%60)
}

func filterName(f string) string {
	if f == "" {
		return "(none)"
	}
	return f
}
