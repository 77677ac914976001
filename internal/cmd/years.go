package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"tarediiran-industries.com/transit-cancellations/internal/cancellations"
)

func NewYearsCmd(app *KvvCtlApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "years",
		Short: "List the years published by the data source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := app.fetcher().FetchRootIndex(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "failed to load years", err)
			}
			years := cancellations.SortYears(root.Years)

			return app.output(cmd).Success(years, func(writer io.Writer) error {
				for _, year := range years {
					if _, err := fmt.Fprintln(writer, year); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	return cmd
}
