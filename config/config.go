// Package config handles server and client configuration from YAML files.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type (
	// Config is the top-level configuration, both commands read their own section.
	Config struct {
		Server ServerConfig `yaml:"server"`
		Client ClientConfig `yaml:"client"`
	}

	// ServerConfig controls the relay and the designs API.
	ServerConfig struct {
		Port     int    `yaml:"port"`
		DBPath   string `yaml:"db_path"`
		Outbound int    `yaml:"outbound_buffer"`
	}

	// ClientConfig controls the replication channel, the session and the editing bot.
	ClientConfig struct {
		ServerUrl      string          `yaml:"server_url"`
		DesignId       string          `yaml:"design_id"`
		HistoryLimit   int             `yaml:"history_limit"`
		Reconnect      ReconnectConfig `yaml:"reconnect"`
		ConnectPolls   int             `yaml:"connect_polls"`
		ConnectPollDur time.Duration   `yaml:"connect_poll_period"`
		OpsSendDur     time.Duration   `yaml:"updates_period"`
		OpsSendMax     int             `yaml:"updates_max"`
	}

	// ReconnectConfig controls the channel automatic reconnection.
	ReconnectConfig struct {
		Attempts int           `yaml:"attempts"`
		Delay    time.Duration `yaml:"delay"`
		MaxDelay time.Duration `yaml:"max_delay"`
	}
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()

	return cfg
}

// LoadFile reads a YAML configuration file, missing values get the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read (%s): %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("yaml (%s): %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%s: must be in (0, 65535]", "server.port")
	}
	if c.Client.HistoryLimit <= 0 {
		return fmt.Errorf("%s: must be GT 0", "client.history_limit")
	}
	if c.Client.Reconnect.Delay > c.Client.Reconnect.MaxDelay {
		return fmt.Errorf("%s: must be LTE %s", "client.reconnect.delay", "client.reconnect.max_delay")
	}
	if c.Client.OpsSendMax < 1 {
		return fmt.Errorf("%s: must be GTE 1", "client.updates_max")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 2412
	}
	if c.Server.DBPath == "" {
		c.Server.DBPath = "./designs.sqlite3"
	}
	if c.Server.Outbound == 0 {
		c.Server.Outbound = 64
	}

	if c.Client.ServerUrl == "" {
		c.Client.ServerUrl = "127.0.0.1:2412"
	}
	if c.Client.HistoryLimit == 0 {
		c.Client.HistoryLimit = 50
	}
	if c.Client.Reconnect.Attempts == 0 {
		c.Client.Reconnect.Attempts = 5
	}
	if c.Client.Reconnect.Delay == 0 {
		c.Client.Reconnect.Delay = 1 * time.Second
	}
	if c.Client.Reconnect.MaxDelay == 0 {
		c.Client.Reconnect.MaxDelay = 5 * time.Second
	}
	if c.Client.ConnectPolls == 0 {
		c.Client.ConnectPolls = 50
	}
	if c.Client.ConnectPollDur == 0 {
		c.Client.ConnectPollDur = 100 * time.Millisecond
	}
	if c.Client.OpsSendDur == 0 {
		c.Client.OpsSendDur = 1 * time.Second
	}
	if c.Client.OpsSendMax == 0 {
		c.Client.OpsSendMax = 5
	}
}
