package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tarediiran-industries.com/transit-cancellations/internal/cancellations"
	"tarediiran-industries.com/transit-cancellations/internal/common"
	"tarediiran-industries.com/transit-cancellations/internal/loader"
)

// selectionOptions are the --year and --line flags shared by the record
// commands.
type selectionOptions struct {
	Year  string
	Lines []string
}

func (options *selectionOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&options.Year, "year", "", "Year to load (default: latest)")
	cmd.Flags().StringSliceVar(&options.Lines, "line", nil, "Line label or file to include, repeatable (default: all)")
}

type filterOptions struct {
	Text      string
	From      string
	To        string
	TimeOfDay string
	Preset    string
}

func (options *filterOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&options.Text, "query", "q", "", "Case-insensitive search over line, train number and stops")
	cmd.Flags().StringVar(&options.From, "from", "", "Earliest date, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&options.To, "to", "", "Latest date, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&options.TimeOfDay, "tod", "all", "Time of day: all|morning|late-morning|afternoon|evening|night|unknown")
	cmd.Flags().StringVar(&options.Preset, "preset", "", fmt.Sprintf("Date preset, one of %v; --from/--to override it", cancellations.PresetNames))
}

// build resolves the flags into a filter. The preset is applied first so that
// explicit bounds win.
func (options *filterOptions) build(app *KvvCtlApp) (cancellations.Filter, error) {
	filter := cancellations.DefaultFilter()

	if options.Preset != "" {
		dateRange, err := cancellations.DatePresetsAt(app.now()).Preset(options.Preset)
		if err != nil {
			return filter, WrapExitError(ExitCommandError, "invalid --preset", err)
		}
		filter = filter.WithRange(dateRange)
	}
	if options.From != "" {
		filter.DateFrom = options.From
	}
	if options.To != "" {
		filter.DateTo = options.To
	}

	timeOfDay, err := cancellations.ParseTimeOfDayFilter(options.TimeOfDay)
	if err != nil {
		return filter, WrapExitError(ExitCommandError, "invalid --tod", err)
	}
	filter.TimeOfDay = timeOfDay
	filter.Text = options.Text
	return filter, nil
}

// load runs the loading pipeline to completion for one selection.
func (app *KvvCtlApp) load(ctx context.Context, selection selectionOptions) (loader.State, error) {
	orchestrator := loader.New(ctx, app.fetcher(), loader.WithLogger(app.logger))
	defer orchestrator.Close()

	// Start first: it clears the error slot, which must not swallow a year
	// failure that lands in between.
	orchestrator.Start()
	if selection.Year != "" {
		orchestrator.SelectYear(selection.Year)
	}

	if len(selection.Lines) > 0 {
		state, err := orchestrator.WaitLineFiles(ctx)
		if err == nil {
			err = state.Err
		}
		if err != nil {
			return state, loadError(err)
		}
		files, err := resolveLineFiles(state.LineFiles, selection.Lines)
		if err != nil {
			return state, err
		}
		orchestrator.SelectFiles(files)
	}

	state, err := common.RuntimeBenchmark(app.logger, "load", func() (loader.State, error) {
		return loader.WaitSettled(ctx, orchestrator, 0)
	})
	if err != nil {
		return state, loadError(err)
	}
	return state, nil
}

// resolveLineFiles maps each requested line to a file of the year. A request
// matches the file name, or the label ignoring case.
func resolveLineFiles(available []cancellations.LineFile, requested []string) ([]string, error) {
	files := make([]string, 0, len(requested))
	for _, want := range requested {
		want = strings.TrimSpace(want)
		file, ok := matchLineFile(available, want)
		if !ok {
			labels := make([]string, 0, len(available))
			for _, lineFile := range available {
				labels = append(labels, lineFile.Label)
			}
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("unknown line %q (available: %s)", want, strings.Join(labels, ", ")))
		}
		files = append(files, file)
	}
	return files, nil
}

func matchLineFile(available []cancellations.LineFile, want string) (string, bool) {
	for _, lineFile := range available {
		if lineFile.File == want {
			return lineFile.File, true
		}
	}
	label := cancellations.FileToLabel(want)
	for _, lineFile := range available {
		if strings.EqualFold(lineFile.Label, label) || strings.EqualFold(lineFile.Label, want) {
			return lineFile.File, true
		}
	}
	return "", false
}

func loadError(err error) error {
	return WrapExitError(ExitFailure, "failed to load cancellations", err)
}
