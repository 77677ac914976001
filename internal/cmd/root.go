package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tarediiran-industries.com/transit-cancellations/internal/common"
	"tarediiran-industries.com/transit-cancellations/internal/feed"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

type KvvCtlApp struct {
	ConfigPath string
	BaseUrl    string
	Format     string
	Verbose    bool

	// Test hooks. Zero values mean the real clock and http.DefaultClient.
	Now        func() time.Time
	HTTPClient *http.Client

	config common.ConfigFile
	logger zerolog.Logger
}

// Execute runs kvv-ctl and returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	app := &KvvCtlApp{}
	rootCmd := NewRootCmd(app)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return GetExitCode(err)
	}
	return ExitSuccess
}

func NewRootCmd(app *KvvCtlApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "kvv-ctl",
		Short:         "CLI tool used to inspect KVV train cancellations",
		Version:       fmt.Sprintf("%s (%s)", common.Version, common.GitCommit),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(
		&app.ConfigPath,
		"toml",
		"",
		"Path to configuration file",
	)
	cmd.PersistentFlags().StringVar(
		&app.BaseUrl,
		"base-url",
		"",
		"Data source base URL (overrides $"+common.BaseUrlEnv+" and the config file)",
	)
	cmd.PersistentFlags().StringVar(&app.Format, "format", "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewYearsCmd(app))
	cmd.AddCommand(NewLinesCmd(app))
	cmd.AddCommand(NewCancellationsCmd(app))
	cmd.AddCommand(NewStatsCmd(app))
	cmd.AddCommand(NewExportCmd(app))

	return cmd
}

func (app *KvvCtlApp) setup(cmd *cobra.Command) error {
	if !slices.Contains(ValidFormats, app.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", app.Format, ValidFormats))
	}

	if app.ConfigPath != "" {
		config, err := common.LoadConfigFromToml(app.ConfigPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load config", err)
		}
		app.config = config
	}

	level := app.config.LogLevel
	if level == "" {
		level = "warn"
	}
	if app.Verbose {
		level = "debug"
	}
	app.logger = common.NewLogger(level, cmd.ErrOrStderr())
	return nil
}

func (app *KvvCtlApp) baseUrl() string {
	return common.ResolveBaseUrl(app.BaseUrl, app.config.BaseUrl)
}

func (app *KvvCtlApp) now() time.Time {
	if app.Now != nil {
		return app.Now()
	}
	return time.Now()
}

func (app *KvvCtlApp) fetcher() *feed.Client {
	options := []feed.ClientOption{feed.WithLogger(app.logger)}
	if app.HTTPClient != nil {
		options = append(options, feed.WithHTTPClient(app.HTTPClient))
	}
	return feed.NewClient(app.baseUrl(), options...)
}

func (app *KvvCtlApp) output(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    app.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   app.Verbose,
	}
}
