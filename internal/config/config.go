// Package config loads the bot configuration from a YAML file, with the
// Telegram token overridable from the environment.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EnvToken overrides the file token when set. The bot can run with no
// config file at all if this is present.
const EnvToken = "TELEGRAM_BOT_TOKEN"

// TelegramConfig holds Telegram-specific settings
type TelegramConfig struct {
	Token string `yaml:"token"` // Bot token from @BotFather
}

// GodboltConfig holds Compiler Explorer API settings
type GodboltConfig struct {
	BaseURL string `yaml:"base_url"` // empty means the public godbolt.org
}

// Config holds the bot configuration
type Config struct {
	Telegram  TelegramConfig `yaml:"telegram"`
	Godbolt   GodboltConfig  `yaml:"godbolt"`
	Allowlist []int64        `yaml:"allowlist"` // user IDs allowed to use the bot; empty means everyone
	LogFile   string         `yaml:"log_file"`  // path to log file
	Debug     bool           `yaml:"debug"`     // enable debug logging
}

// Load reads and parses the config file from the given path. A missing file
// is not an error as long as the token is available from the environment.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case os.IsNotExist(err):
		// Environment-only setup.
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if token := os.Getenv(EnvToken); token != "" {
		cfg.Telegram.Token = token
	}
	if cfg.Telegram.Token == "" {
		return nil, fmt.Errorf("telegram token is required (set telegram.token or %s)", EnvToken)
	}

	return &cfg, nil
}

// IsAllowed checks if the given Telegram user ID may use the bot. An empty
// allowlist allows everyone.
func (c *Config) IsAllowed(userID int64) bool {
	if len(c.Allowlist) == 0 {
		return true
	}
	for _, allowed := range c.Allowlist {
		if allowed == userID {
			return true
		}
	}
	return false
}
