package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"tarediiran-industries.com/transit-cancellations/internal/cancellations"
	"tarediiran-industries.com/transit-cancellations/internal/export/gtfsrt"
)

func NewExportCmd(app *KvvCtlApp) *cobra.Command {
	var selection selectionOptions
	var filters filterOptions
	var encoding string
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export matching cancellations as a GTFS-realtime feed of CANCELED trips",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := gtfsrt.ParseFormat(encoding)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --encoding", err)
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
			payload, err := gtfsrt.Marshal(gtfsrt.BuildFeed(view.Filtered, app.now()), format)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to encode feed", err)
			}

			if outputPath == "" || outputPath == "-" {
				_, err = cmd.OutOrStdout().Write(payload)
				return err
			}
			if err := os.WriteFile(outputPath, payload, 0o644); err != nil {
				return WrapExitError(ExitCommandError, "failed to write feed", err)
			}
			app.output(cmd).VerboseLog("wrote %d trips to %s", len(view.Filtered), outputPath)
			return nil
		},
	}

	selection.register(cmd)
	filters.register(cmd)
	cmd.Flags().StringVar(&encoding, "encoding", "protobuf", "Feed encoding (protobuf|json)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the feed to a file instead of stdout")
	return cmd
}
