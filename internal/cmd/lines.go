package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tarediiran-industries.com/transit-cancellations/internal/cancellations"
)

func NewLinesCmd(app *KvvCtlApp) *cobra.Command {
	var year string

	cmd := &cobra.Command{
		Use:   "lines",
		Short: "List the line files of a year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := app.fetcher()

			if year == "" {
				root, err := client.FetchRootIndex(ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to load years", err)
				}
				year = cancellations.LatestYear(root.Years)
				if year == "" {
					return NewExitError(ExitFailure, "data source lists no years")
				}
			}

			index, err := client.FetchYearIndex(ctx, year)
			if err != nil {
				return WrapExitError(ExitFailure, fmt.Sprintf("failed to load lines for %s", year), err)
			}
			output := toLinesOutput(year, cancellations.ToLineFiles(index.Files))

			return app.output(cmd).Success(output, func(writer io.Writer) error {
				table := tabwriter.NewWriter(writer, 0, 4, 2, ' ', 0)
				fmt.Fprintln(table, "LINE\tFILE")
				for _, line := range output.Lines {
					fmt.Fprintf(table, "%s\t%s\n", line.Label, line.File)
				}
				return table.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&year, "year", "", "Year to list (default: latest)")
	return cmd
}
