package config

import (
	yamlenv "github.com/ifuryst/go-yaml-env"

	"github.com/lumenlabs/brandflow/pkg/logger"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Logger    logger.Config   `yaml:"logger"`
	Auth      AuthConfig      `yaml:"auth"`
	Generator GeneratorConfig `yaml:"generator"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

type ServerConfig struct {
	Port     int    `yaml:"port"`
	Host     string `yaml:"host"`
	Mode     string `yaml:"mode"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

type DatabaseConfig struct {
	Type     string `yaml:"type"` // postgres or memory
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
	TimeZone string `yaml:"timezone"`
}

type AuthConfig struct {
	// TOTPSecret guards the dashboard login. Empty secret enables demo mode:
	// any login request is accepted as the demo user.
	TOTPSecret string `yaml:"totp_secret"`
	SessionTTL string `yaml:"session_ttl"`
	UserID     string `yaml:"user_id"`
	UserName   string `yaml:"user_name"`
	UserEmail  string `yaml:"user_email"`
}

type GeneratorConfig struct {
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url"`
	TextModel    string `yaml:"text_model"`
	ImageModel   string `yaml:"image_model"`
	VideoModel   string `yaml:"video_model"`
	PollInterval string `yaml:"poll_interval"`
}

type SchedulerConfig struct {
	SweepInterval string `yaml:"sweep_interval"`
	// Enabled defaults to true when absent; only an explicit false disables
	// the sweep.
	Enabled *bool `yaml:"enabled"`
}

func (c *SchedulerConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

func LoadConfig(configPath string) (*Config, error) {
	cfg, err := yamlenv.LoadConfig[Config](configPath)
	if err != nil {
		return nil, err
	}

	// Set default values
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5841
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "debug"
	}
	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.TimeZone == "" {
		cfg.Database.TimeZone = "UTC"
	}
	if cfg.Auth.SessionTTL == "" {
		cfg.Auth.SessionTTL = "24h"
	}
	if cfg.Auth.UserID == "" {
		cfg.Auth.UserID = "demo-user-123"
	}
	if cfg.Auth.UserName == "" {
		cfg.Auth.UserName = "Demo User"
	}
	if cfg.Auth.UserEmail == "" {
		cfg.Auth.UserEmail = "demo@example.com"
	}
	if cfg.Generator.BaseURL == "" {
		cfg.Generator.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Generator.TextModel == "" {
		cfg.Generator.TextModel = "gemini-2.5-pro"
	}
	if cfg.Generator.ImageModel == "" {
		cfg.Generator.ImageModel = "imagen-4.0-generate-001"
	}
	if cfg.Generator.VideoModel == "" {
		cfg.Generator.VideoModel = "veo-3.1-fast-generate-preview"
	}
	if cfg.Generator.PollInterval == "" {
		cfg.Generator.PollInterval = "10s"
	}
	if cfg.Scheduler.SweepInterval == "" {
		cfg.Scheduler.SweepInterval = "30s"
	}

	return cfg, nil
}
