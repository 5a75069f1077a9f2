package main

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/sauerbraten/jsonfile"
)

type Config struct {
	ListenAddress     string `json:"listen_address" env:"USHER_LISTEN_ADDRESS"`
	LoginPort         int    `json:"login_port" env:"USHER_LOGIN_PORT"`
	BasePort          int    `json:"base_port" env:"USHER_BASE_PORT"`
	PrivateKeyPath    string `json:"private_key_path" env:"USHER_PRIVATE_KEY_PATH"`
	MessageOfTheDay   string `json:"message_of_the_day" env:"USHER_MOTD"`
	HandoffTTLSeconds int    `json:"handoff_ttl_seconds" env:"USHER_HANDOFF_TTL_SECONDS"`
	UpdateFrequency   uint8  `json:"update_frequency" env:"USHER_UPDATE_FREQUENCY"`
}

func DefaultConfig() *Config {
	return &Config{
		ListenAddress:     "0.0.0.0",
		LoginPort:         20016,
		BasePort:          20017,
		PrivateKeyPath:    "login_key.pem",
		HandoffTTLSeconds: 60,
		UpdateFrequency:   10,
	}
}

// LoadConfig layers defaults, the JSON config file (if present), and
// environment variable overrides, in that order.
func LoadConfig(path string) (*Config, error) {
	conf := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := jsonfile.ParseFile(path, conf); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if err := env.Parse(conf); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	return conf, nil
}
