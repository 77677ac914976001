package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tarediiran-industries.com/transit-cancellations/internal/cancellations"
)

func NewCancellationsCmd(app *KvvCtlApp) *cobra.Command {
	var selection selectionOptions
	var filters filterOptions
	var limit int

	cmd := &cobra.Command{
		Use:     "cancellations",
		Aliases: []string{"ls"},
		Short:   "List cancelled trains, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := filters.build(app)
			if err != nil {
				return err
			}
			state, err := app.load(cmd.Context(), selection)
			if err != nil {
				return err
			}

			view := cancellations.BuildView(cancellations.Index(state.Records), filter)
			output := toCancellationsOutput(state, filter, view, limit)

			formatter := app.output(cmd)
			formatter.VerboseLog("%d of %d loaded cancellations match", output.Total, len(state.Records))
			return formatter.Success(output, func(writer io.Writer) error {
				return writeCancellationsTable(writer, output)
			})
		},
	}

	selection.register(cmd)
	filters.register(cmd)
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most n rows (0: all)")
	return cmd
}

func writeCancellationsTable(writer io.Writer, output CancellationsOutput) error {
	table := tabwriter.NewWriter(writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(table, "DATE\tTIME\tLINE\tTRAIN\tFROM\tTO")
	for _, row := range output.Cancellations {
		fmt.Fprintf(table, "%s\t%s\t%s\t%s\t%s\t%s\n",
			row.Date, cancellations.TimeSpan(row.FromTime, row.ToTime), row.Line, row.TrainNumber, row.FromStop, row.ToStop)
	}
	if err := table.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(writer, "\n%d shown, %d matching\n", len(output.Cancellations), output.Total)
	return err
}
