package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	configPath   = "./"
	configName   = "bot"
	configFormat = "yaml"
)

type Config struct {
	BotToken string `yaml:"botToken"`
	Debug    bool   `yaml:"debug"`

	// WebAppURL is where the mini-app frontend is served; the bot attaches
	// it to the /start reply.
	WebAppURL string `yaml:"webAppUrl"`

	LogLevel string `yaml:"logLevel"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(configName)
	viper.AddConfigPath(configPath)
	viper.SetConfigType(configFormat)

	viper.AutomaticEnv()
	viper.SetEnvPrefix("BOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("logLevel", "info")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("botToken is required")
	}

	return &cfg, nil
}
