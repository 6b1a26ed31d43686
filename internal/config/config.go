package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Content  ContentConfig  `yaml:"content"`
	NATS     NATSConfig     `yaml:"nats"`
	Store    StoreConfig    `yaml:"store"`
	Web      WebConfig      `yaml:"web"`
	Engine   EngineConfig   `yaml:"engine"`
	Poller   PollerConfig   `yaml:"poller"`
	Replay   ReplayConfig   `yaml:"replay"`
	Telegram TelegramConfig `yaml:"telegram"`
	Reports  ReportsConfig  `yaml:"reports"`
}

type ContentConfig struct {
	Dir string `yaml:"dir"`
}

type NATSConfig struct {
	Port    int    `yaml:"port"`
	DataDir string `yaml:"data_dir"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type WebConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Auth    string `yaml:"auth"`
}

type EngineConfig struct {
	// StageInterval is the delay between deployment script stages.
	StageInterval time.Duration `yaml:"stage_interval"`
}

type PollerConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type ReplayConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

type TelegramConfig struct {
	Token      string  `yaml:"token"`
	ChatID     int64   `yaml:"chat_id"`
	AllowFrom  []int64 `yaml:"allow_from"`
	Passphrase string  `yaml:"passphrase"`
}

type ReportsConfig struct {
	Dir string `yaml:"dir"`
}

func defaults() Config {
	return Config{
		Content: ContentConfig{
			Dir: "content",
		},
		NATS: NATSConfig{
			Port:    4222,
			DataDir: "data/nats",
		},
		Store: StoreConfig{
			Path: "data/missionctl.db",
		},
		Web: WebConfig{
			Enabled: true,
			Port:    8080,
		},
		Engine: EngineConfig{
			StageInterval: time.Second,
		},
		Poller: PollerConfig{
			Interval: 5 * time.Second,
		},
		Replay: ReplayConfig{
			PollInterval: 30 * time.Second,
		},
		Reports: ReportsConfig{
			Dir: "data/reports",
		},
	}
}

func Load() (*Config, error) {
	cfg := defaults()

	path := os.Getenv("MISSIONCTL_CONFIG")
	if path == "" {
		path = "config/missionctl.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found, use defaults + env
	} else {
		// Expand environment variables in YAML
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("MISSIONCTL_CONTENT_DIR"); v != "" {
		cfg.Content.Dir = v
	}
	if v := os.Getenv("MISSIONCTL_WEB_PASSWORD"); v != "" {
		cfg.Web.Auth = v
	}
	if v := os.Getenv("MISSIONCTL_WEB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Web.Port = port
		}
	}
	if v := os.Getenv("MISSIONCTL_NATS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.NATS.Port = port
		}
	}
	if v := os.Getenv("MISSIONCTL_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("MISSIONCTL_TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("MISSIONCTL_TELEGRAM_CHAT"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Telegram.ChatID = id
		}
	}
	if v := os.Getenv("MISSIONCTL_REPORTS_DIR"); v != "" {
		cfg.Reports.Dir = v
	}
}
