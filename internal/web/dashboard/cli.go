package dashboard

import (
	"flag"
	"fmt"
	"io"
	"time"

	"tarediiran-industries.com/transit-cancellations/internal/common"
)

const (
	DefaultListenAddress = ":8080"
	DefaultLoadTimeout   = 20 * time.Second
)

type Config struct {
	Version          bool
	TomlConfigPath   string
	ListenAddress    string
	TelemetryAddress string
	BaseUrl          string
	LogLevel         string
	LoadTimeout      time.Duration
}

func ParseArgs(programName string, args []string, errOut io.Writer) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errOut)

	fs.Usage = func() {
		fmt.Fprintf(errOut, "Usage: %s [options]\n\n", programName)
		fmt.Fprintln(errOut, "Options")
		fs.PrintDefaults()
	}

	fs.BoolVar(&cfg.Version, "version", false, "Prints CLI version")
	fs.StringVar(&cfg.TomlConfigPath, "toml", "", "Configuration file")
	fs.StringVar(&cfg.ListenAddress, "listen", "", "Dashboard listen address (default "+DefaultListenAddress+")")
	fs.StringVar(&cfg.TelemetryAddress, "telemetry", "", "Metrics and pprof listen address, disabled when empty")
	fs.StringVar(&cfg.BaseUrl, "base-url", "", "Data source base URL (overrides $"+common.BaseUrlEnv+" and the config file)")
	fs.StringVar(&cfg.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")
	fs.DurationVar(&cfg.LoadTimeout, "load-timeout", DefaultLoadTimeout, "How long a page request waits for data before rendering the loading state")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.Version {
		fmt.Fprintf(errOut, "%s: version %s (%s)\n", programName, common.Version, common.GitCommit)
		return cfg, flag.ErrHelp
	}

	// Flags win over the config file.
	var tomlCfg common.ConfigFile
	if cfg.TomlConfigPath != "" {
		loaded, err := common.LoadConfigFromToml(cfg.TomlConfigPath)
		if err != nil {
			return Config{}, fmt.Errorf("LoadConfigFromToml: %w", err)
		}
		tomlCfg = loaded
	}

	cfg.ListenAddress = firstNonEmpty(cfg.ListenAddress, tomlCfg.ListenAddress, DefaultListenAddress)
	cfg.TelemetryAddress = firstNonEmpty(cfg.TelemetryAddress, tomlCfg.TelemetryAddress)
	cfg.LogLevel = firstNonEmpty(cfg.LogLevel, tomlCfg.LogLevel, "info")
	cfg.BaseUrl = common.ResolveBaseUrl(cfg.BaseUrl, tomlCfg.BaseUrl)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (cfg Config) Validate() error {
	if cfg.ListenAddress == cfg.TelemetryAddress {
		return fmt.Errorf("listen and telemetry addresses must differ: %s", cfg.ListenAddress)
	}
	if cfg.LoadTimeout <= 0 {
		return fmt.Errorf("load-timeout must be positive, got %s", cfg.LoadTimeout)
	}
	return nil
}

func Main(programName string, args []string, out, errOut io.Writer) int {
	cfg, err := ParseArgs(programName, args, errOut)
	if err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		fmt.Fprintln(errOut, "Error:", err)
		return 2
	}

	return Run(cfg, errOut)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
