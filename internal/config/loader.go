package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".bundlesize"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for bundlesize settings.
const envPrefix = "BUNDLESIZE"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// actionsEnv maps config keys to the variables GitHub Actions sets. They are
// consulted after BUNDLESIZE_* so an explicit setting always wins.
var actionsEnv = map[string]string{
	"sha":               "GITHUB_SHA",
	"root":              "GITHUB_WORKSPACE",
	"github.token":      "GITHUB_TOKEN",
	"github.repository": "GITHUB_REPOSITORY",
	"github.api_url":    "GITHUB_API_URL",
	"github.server_url": "GITHUB_SERVER_URL",
}

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	bindErr := bindActionsEnv(viperCfg)
	if bindErr != nil {
		return nil, bindErr
	}

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func bindActionsEnv(viperCfg *viper.Viper) error {
	for key, actionsVar := range actionsEnv {
		own := envPrefix + envKeySeparator + strings.ToUpper(strings.ReplaceAll(key, ".", envKeySeparator))

		err := viperCfg.BindEnv(key, own, actionsVar)
		if err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}

	return nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("files", []string{})
	viperCfg.SetDefault("key_pattern", "")
	viperCfg.SetDefault("root", DefaultRoot)
	viperCfg.SetDefault("sha", "")
	viperCfg.SetDefault("max_file_size", "")

	viperCfg.SetDefault("store.backend", DefaultStoreBackend)
	viperCfg.SetDefault("store.directory", DefaultStoreDirectory)
	viperCfg.SetDefault("store.dsn", "")

	viperCfg.SetDefault("github.token", "")
	viperCfg.SetDefault("github.repository", "")
	viperCfg.SetDefault("github.api_url", DefaultGitHubAPIURL)
	viperCfg.SetDefault("github.server_url", DefaultGitHubServer)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.json", false)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.otlp_headers", "")
	viperCfg.SetDefault("telemetry.pushgateway_url", "")
}
