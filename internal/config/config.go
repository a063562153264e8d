// Package config loads texproof settings. Precedence, highest first:
// command-line flags (applied by the cmd layer), TEXPROOF_* environment
// variables, a config file, built-in defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the resolved configuration for a run. It is threaded explicitly
// through the pipeline; nothing reads ambient process state after Load.
type Config struct {
	Service     string        `mapstructure:"service"`
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
	PromptFile  string        `mapstructure:"prompt_file"`
	Referer     string        `mapstructure:"referer"`
	Title       string        `mapstructure:"title"`

	Diff    DiffConfig    `mapstructure:"diff"`
	Journal JournalConfig `mapstructure:"journal"`
}

type DiffConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Mode    string `mapstructure:"mode"`
}

type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service", "openrouter")
	v.SetDefault("model", "")
	v.SetDefault("api_key", "")
	// Empty base_url lets each service fill in its own endpoint
	// (openrouter.ai for openrouter, localhost for ollama).
	v.SetDefault("base_url", "")
	v.SetDefault("temperature", 0.1)
	v.SetDefault("max_tokens", 0)
	v.SetDefault("timeout", 120*time.Second)
	v.SetDefault("max_retries", 3)
	v.SetDefault("retry_delay", time.Second)
	v.SetDefault("prompt_file", "")
	v.SetDefault("referer", "")
	v.SetDefault("title", "")
	v.SetDefault("diff.enabled", true)
	v.SetDefault("diff.mode", "CCHANGEBAR")
	v.SetDefault("journal.enabled", true)
	v.SetDefault("journal.path", "./data/texproof.db")
}

// Load resolves the configuration. file may be empty, in which case
// texproof.yaml is searched for in the working directory and
// $HOME/.config/texproof; a missing file is not an error, but a named one
// that cannot be read is.
func Load(v *viper.Viper, file string) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("TEXPROOF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("texproof")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/texproof")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return &cfg, nil
}

// Validate rejects configurations that cannot possibly produce a working
// run. Only the openrouter service needs a key; ollama is local.
func (c *Config) Validate() error {
	switch c.Service {
	case "openrouter":
		if c.APIKey == "" {
			return fmt.Errorf("an API key is required for the openrouter service (set TEXPROOF_API_KEY or api_key in the config file)")
		}
	case "ollama":
	default:
		return fmt.Errorf("unknown service: %s (want openrouter or ollama)", c.Service)
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature %.2f out of range [0, 2]", c.Temperature)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
