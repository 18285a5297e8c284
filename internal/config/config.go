// Package config provides YAML-based configuration loading for Pulseward.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Pulseward configuration, loaded from config.yaml.
type Config struct {
	Platform  string          `yaml:"platform"` // "discord" or "slack"
	Discord   DiscordConfig   `yaml:"discord"`
	Slack     SlackConfig     `yaml:"slack"`
	Database  DatabaseConfig  `yaml:"database"`
	Advisory  AdvisoryConfig  `yaml:"advisory"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Intake    IntakeConfig    `yaml:"intake"`
	Campaign  CampaignConfig  `yaml:"campaign"`
	Media     MediaConfig     `yaml:"media"`
	Operators []string        `yaml:"operators"` // platform user IDs allowed to run operator commands
}

// DiscordConfig holds Discord gateway settings.
type DiscordConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// SlackConfig holds Slack Socket Mode settings.
type SlackConfig struct {
	BotToken  string `yaml:"bot_token"`
	AppToken  string `yaml:"app_token"`
	ChannelID string `yaml:"channel_id"`
}

// DatabaseConfig selects the backing store. Driver "mysql" for deployments,
// "sqlite" for single-host and development use.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Path     string `yaml:"path"` // sqlite file path
}

// AdvisoryConfig holds settings for the advisory LLM collaborator.
type AdvisoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// DashboardConfig holds the operator dashboard settings.
type DashboardConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// IntakeConfig tunes the intake engine.
type IntakeConfig struct {
	BatchDebounceSeconds int `yaml:"batch_debounce_seconds"`
}

// CampaignConfig tunes the scheduler dispatcher.
type CampaignConfig struct {
	TickSpec    string `yaml:"tick_spec"`   // 5-field cron expression
	Concurrency int    `yaml:"concurrency"` // max parallel participant evaluations
}

// MediaConfig names the object store bucket media keys refer to. The core
// only stores and forwards keys; bytes live with the external store.
type MediaConfig struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Platform == "" {
		c.Platform = "discord"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = "pulseward.db"
	}
	if c.Database.Driver == "mysql" {
		if c.Database.Host == "" {
			c.Database.Host = "127.0.0.1"
		}
		if c.Database.Port == 0 {
			c.Database.Port = 3306
		}
		if c.Database.User == "" {
			c.Database.User = "root"
		}
		if c.Database.Database == "" {
			c.Database.Database = "pulseward"
		}
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8080
	}
	if c.Intake.BatchDebounceSeconds == 0 {
		c.Intake.BatchDebounceSeconds = 3
	}
	if c.Campaign.TickSpec == "" {
		c.Campaign.TickSpec = "* * * * *"
	}
	if c.Campaign.Concurrency == 0 {
		c.Campaign.Concurrency = 16
	}
	if c.Advisory.Model == "" {
		c.Advisory.Model = "gemini-2.0-flash"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Platform {
	case "discord":
		if c.Discord.BotToken == "" {
			errs = append(errs, "discord.bot_token is required")
		}
	case "slack":
		if c.Slack.BotToken == "" {
			errs = append(errs, "slack.bot_token is required")
		}
		if c.Slack.AppToken == "" {
			errs = append(errs, "slack.app_token is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("platform %q is not supported (discord, slack)", c.Platform))
	}
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (mysql, sqlite)", c.Database.Driver))
	}
	if c.Advisory.Enabled && c.Advisory.APIKey == "" {
		errs = append(errs, "advisory.api_key is required when advisory is enabled")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
