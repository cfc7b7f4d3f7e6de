// config.go
//
// Configuration for the puzzletrack binary.
// Sources, later ones winning:
//   1. built-in defaults
//   2. YAML config file (puzzletrack.yaml by default)
//   3. environment variables (godotenv loads .env first in main)
//
// The legacy tokens file (line 1: authorization token, line 2: channel id)
// is still honored so long-running setups keep working without edits.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime settings.
type Config struct {
	Discord DiscordConfig `yaml:"discord"`
	DB      DBConfig      `yaml:"db"`
	HTTP    HTTPConfig    `yaml:"http"`
	JWT     JWTConfig     `yaml:"jwt"`
}

// DiscordConfig holds channel / credential settings.
type DiscordConfig struct {
	Token       string `yaml:"token"`
	ChannelID   string `yaml:"channel_id"`
	TokensFile  string `yaml:"tokens_file"` // legacy two-line credential file
	PageLimit   int    `yaml:"page_limit"`
	MaxMessages int    `yaml:"max_messages"`
}

// DBConfig holds SQLite settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// HTTPConfig holds API server settings.
type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	RefreshInterval time.Duration `yaml:"refresh_interval"` // 0 disables background refresh
}

// JWTConfig holds the admin-token secret.
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// LoadConfig reads the YAML file (missing file is fine) and applies
// environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		DB:   DBConfig{Path: "./data/puzzletrack.db"},
		HTTP: HTTPConfig{Addr: ":5180", RefreshInterval: 15 * time.Minute},
		Discord: DiscordConfig{
			PageLimit:   50,
			MaxMessages: 5000,
		},
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// defaults + env only
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if cfg.Discord.Token == "" || cfg.Discord.ChannelID == "" {
		if cfg.Discord.TokensFile != "" {
			if err := loadTokensFile(cfg); err != nil {
				return nil, err
			}
		}
	}
	return cfg, nil
}

// applyEnv overrides config fields from the environment.
func applyEnv(cfg *Config) {
	if v := os.Getenv("DISCORD_TOKEN"); v != "" {
		cfg.Discord.Token = v
	}
	if v := os.Getenv("DISCORD_CHANNEL_ID"); v != "" {
		cfg.Discord.ChannelID = v
	}
	if v := os.Getenv("PUZZLETRACK_DB"); v != "" {
		cfg.DB.Path = v
	}
	if v := os.Getenv("PUZZLETRACK_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
}

// loadTokensFile reads the legacy credential file: first line is the
// authorization token, second line the channel id.
func loadTokensFile(cfg *Config) error {
	f, err := os.Open(cfg.Discord.TokensFile)
	if err != nil {
		return fmt.Errorf("open tokens file: %w", err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, strings.TrimSpace(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read tokens file: %w", err)
	}
	if len(lines) < 2 || lines[0] == "" || lines[1] == "" {
		return fmt.Errorf("tokens file %s: want token on line 1, channel id on line 2", cfg.Discord.TokensFile)
	}
	if cfg.Discord.Token == "" {
		cfg.Discord.Token = lines[0]
	}
	if cfg.Discord.ChannelID == "" {
		cfg.Discord.ChannelID = lines[1]
	}
	return nil
}
