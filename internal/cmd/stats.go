package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tarediiran-industries.com/transit-cancellations/internal/cancellations"
	"tarediiran-industries.com/transit-cancellations/internal/charts"
)

const barWidth = 40

func NewStatsCmd(app *KvvCtlApp) *cobra.Command {
	var selection selectionOptions
	var filters filterOptions
	var chartDir string
	var chartFormat string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Aggregate cancellations by day, line and time of day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseChartFormat(chartFormat)
			if err != nil {
				return err
			}
			filter, err := filters.build(app)
			if err != nil {
				return err
			}
			state, err := app.load(cmd.Context(), selection)
			if err != nil {
				return err
			}

			view := cancellations.BuildView(cancellations.Index(state.Records), filter)
			output := toStatsOutput(state, filter, view)

			formatter := app.output(cmd)
			if chartDir != "" {
				written, err := writeCharts(chartDir, view, format)
				if err != nil {
					return err
				}
				for _, path := range written {
					formatter.VerboseLog("wrote %s", path)
				}
			}

			return formatter.Success(output, func(writer io.Writer) error {
				return writeStats(writer, output)
			})
		},
	}

	selection.register(cmd)
	filters.register(cmd)
	cmd.Flags().StringVar(&chartDir, "charts", "", "Also draw the day, line and time-of-day charts into this directory")
	cmd.Flags().StringVar(&chartFormat, "chart-format", string(charts.SVG), "Chart image format (svg|png)")
	return cmd
}

func parseChartFormat(value string) (charts.Format, error) {
	switch format := charts.Format(strings.ToLower(value)); format {
	case charts.SVG, charts.PNG:
		return format, nil
	}
	return "", NewExitError(ExitCommandError, fmt.Sprintf("invalid --chart-format %q (expected svg or png)", value))
}

// writeCharts draws every chart that has data and returns the written paths.
func writeCharts(dir string, view cancellations.View, format charts.Format) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to create chart directory", err)
	}

	var written []string
	for _, kind := range charts.Kinds {
		var image bytes.Buffer
		err := charts.Render(&image, view, kind, format)
		if errors.Is(err, charts.ErrNoData) {
			continue
		}
		if err != nil {
			return written, WrapExitError(ExitFailure, "failed to draw "+string(kind)+" chart", err)
		}

		path := filepath.Join(dir, charts.FileName(kind, format))
		if err := os.WriteFile(path, image.Bytes(), 0o644); err != nil {
			return written, WrapExitError(ExitCommandError, "failed to write chart", err)
		}
		written = append(written, path)
	}
	return written, nil
}

func writeStats(writer io.Writer, output StatsOutput) error {
	fmt.Fprintf(writer, "%s: %d of %d cancellations", output.Year, output.Matching, output.Loaded)
	if output.ActiveFilterCount > 0 {
		fmt.Fprintf(writer, " (%d active filters)", output.ActiveFilterCount)
	}
	fmt.Fprintln(writer)

	sections := []struct {
		title  string
		counts []CountOutput
	}{
		{"By line", output.Lines},
		{"By time of day", output.TimeOfDay},
		{"By day", output.Daily},
	}
	for _, section := range sections {
		fmt.Fprintf(writer, "\n%s\n", section.title)
		if err := writeBars(writer, section.counts); err != nil {
			return err
		}
	}
	return nil
}

func writeBars(writer io.Writer, counts []CountOutput) error {
	peak := 0
	for _, entry := range counts {
		peak = max(peak, entry.Count)
	}

	table := tabwriter.NewWriter(writer, 0, 4, 2, ' ', tabwriter.AlignRight)
	for _, entry := range counts {
		name := entry.Label
		if name == "" {
			name = entry.Key
		}
		width := 0
		if peak > 0 {
			width = max(1, entry.Count*barWidth/peak)
		}
		fmt.Fprintf(table, "%s\t%d\t%s\t\n", name, entry.Count, strings.Repeat("#", width))
	}
	return table.Flush()
}
