package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	DatabasePath     string `mapstructure:"db_path"`
	DatabaseLog      bool   `mapstructure:"db_log"`
	ExportDir        string `mapstructure:"export_dir"`
	LogLevel         string `mapstructure:"log_level"`
	DiscordBotToken  string `mapstructure:"discord_bot_token"`
	DiscordChannelID string `mapstructure:"discord_channel_id"`
	HealthAddr       string `mapstructure:"health_addr"`
}

var keys = []string{
	"db_path",
	"db_log",
	"export_dir",
	"log_level",
	"discord_bot_token",
	"discord_channel_id",
	"health_addr",
}

// Load reads the optional env files, then EXPENSO_* environment variables.
// A missing env file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("EXPENSO")
	v.SetDefault("db_path", "transaction.db")
	v.SetDefault("db_log", false)
	v.SetDefault("export_dir", "exports")
	v.SetDefault("log_level", "info")
	v.SetDefault("health_addr", ":8080")
	// Unmarshal only sees env values for keys viper knows about.
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.DatabasePath == "" {
		return nil, fmt.Errorf("database path is not set")
	}
	return &cfg, nil
}

// RequireDiscord checks the settings the bot cannot start without.
func (c *Config) RequireDiscord() error {
	if c.DiscordBotToken == "" {
		return fmt.Errorf("bot token is not set")
	}
	if c.DiscordChannelID == "" {
		return fmt.Errorf("channel ID is not set")
	}
	return nil
}
