package main

import (
	"fmt"
	"strings"

	"NM_clicker_miniapp/internal/repository"

	"github.com/spf13/viper"
)

const (
	configPath   = "./"
	configName   = "config"
	configFormat = "yaml"
)

type Config struct {
	Database repository.Config `yaml:"database"`
	Server   ServerConfig      `yaml:"server"`

	TelegramAuth TelegramAuthConfig `yaml:"telegramAuth"`
	Session      SessionConfig      `yaml:"session"`
	Clicker      ClickerConfig      `yaml:"clicker"`

	// Storage selects "postgres" or "memory". Memory mode needs no
	// database and is meant for local development.
	Storage string `yaml:"storage"`
	AppEnv  string `yaml:"appEnv"`

	LogLevel string `yaml:"logLevel"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type TelegramAuthConfig struct {
	TelegramBotToken string `yaml:"telegramBotToken"`
	BotUsername      string `yaml:"botUsername"`
	DebugMode        bool   `yaml:"debugMode"`
}

type SessionConfig struct {
	Secret     string `yaml:"secret"`
	TTLMinutes int    `yaml:"ttlMinutes"`
}

type ClickerConfig struct {
	MaxTapsPerSecond    int    `yaml:"maxTapsPerSecond"`
	DailyBonusPerLevel  int64  `yaml:"dailyBonusPerLevel"`
	ReferralBonusLevels int    `yaml:"referralBonusLevels"`
	AdminToken          string `yaml:"adminToken"`
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(configName)
	viper.AddConfigPath(configPath)
	viper.SetConfigType(configFormat)

	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("storage", "memory")
	viper.SetDefault("appEnv", "dev")
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("session.ttlMinutes", 120)
	viper.SetDefault("clicker.maxTapsPerSecond", 10)
	viper.SetDefault("clicker.dailyBonusPerLevel", 50)
	viper.SetDefault("clicker.referralBonusLevels", 3)

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
