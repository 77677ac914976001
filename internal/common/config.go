package common

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Public mirror of the scraper output.
const DefaultBaseUrl = "https://maxliesegang.github.io/kvv-ausfaelle-scraper"

const BaseUrlEnv = "KVV_DATA_BASE_URL"

type ConfigFile struct {
	BaseUrl          string `toml:"base_url"`
	ListenAddress    string `toml:"listen_address"`
	TelemetryAddress string `toml:"telemetry_address"`
	LogLevel         string `toml:"log_level"`
}

func LoadConfigFromToml(path string) (ConfigFile, error) {
	var cfg ConfigFile
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return ConfigFile{}, err
	}

	return cfg, nil
}

// ResolveBaseUrl picks the data source URL. Precedence, lowest first:
// built-in default, config file, KVV_DATA_BASE_URL, flag.
func ResolveBaseUrl(flagValue, fileValue string) string {
	candidates := []string{flagValue, os.Getenv(BaseUrlEnv), fileValue}
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate != "" {
			return strings.TrimRight(candidate, "/")
		}
	}
	return DefaultBaseUrl
}
