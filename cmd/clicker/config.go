package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	configPath   = "./"
	configName   = "clicker"
	configFormat = "yaml"
)

type Config struct {
	APIBaseURL  string `yaml:"apiBaseUrl"`
	BotUsername string `yaml:"botUsername"`

	// TestTelegramID substitutes a numeric identity when no signed launch
	// payload is available. Non-numeric values are ignored downstream.
	TestTelegramID string `yaml:"testTelegramId"`
	StartParam     string `yaml:"startParam"`

	SessionFile string `yaml:"sessionFile"`
	LogLevel    string `yaml:"logLevel"`
}

// LoadConfig reads clicker.yaml when present; a missing file falls back
// to defaults so the binary runs against a local server out of the box.
func LoadConfig() (*Config, error) {
	viper.SetConfigName(configName)
	viper.AddConfigPath(configPath)
	viper.SetConfigType(configFormat)

	viper.AutomaticEnv()
	viper.SetEnvPrefix("CLICKER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("apiBaseUrl", "http://localhost:8080")
	viper.SetDefault("sessionFile", ".clicker-session.json")
	viper.SetDefault("logLevel", "error")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
