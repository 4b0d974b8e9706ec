// Package config loads the VITAL service configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

// DefaultPath is used when neither --config nor VITAL_CONFIG_PATH is set.
const DefaultPath = "./vital.yaml"

// Environment variables that override file values.
const (
	EnvConfigPath   = "VITAL_CONFIG_PATH"
	EnvCronSecret   = "VITAL_CRON_SECRET"
	EnvJWTSecret    = "VITAL_JWT_SECRET"
	EnvSMTPPassword = "VITAL_SMTP_PASSWORD"
	EnvDBPath       = "VITAL_DB_PATH"
)

type Server struct {
	ListenAddress  string    `yaml:"listenAddress"`
	AllowedOrigins []string  `yaml:"allowedOrigins"`
	RateLimit      RateLimit `yaml:"rateLimit"`
}

// RateLimit is a per-IP token bucket. Zero RequestsPerSecond disables it.
type RateLimit struct {
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
	Burst             int     `yaml:"burst"`
}

type Database struct {
	Path string `yaml:"path"` // Empty means ~/.vital/vital.db
}

type Auth struct {
	JWTSecret string `yaml:"jwtSecret"`
}

type Cron struct {
	// Secret is compared with the x-cron-secret header. Empty disables the check.
	Secret string `yaml:"secret"`
}

type Escalation struct {
	DefaultSLADays int    `yaml:"defaultSLADays"`
	SweepLimit     int    `yaml:"sweepLimit"`
	Cooldown       string `yaml:"cooldown"` // e.g. "24h"
}

type Mail struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	User               string `yaml:"user"`
	Password           string `yaml:"password"`
	SenderAddress      string `yaml:"senderAddress"`
	SenderName         string `yaml:"senderName"`
	MaxAttempts        int    `yaml:"maxAttempts"`
	InsecureSkipVerify bool   `yaml:"insecureSkipVerify"`
}

type Kafka struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type Events struct {
	Kafka Kafka `yaml:"kafka"`
}

type Frontend struct {
	BaseURL string `yaml:"baseURL"`
}

type Config struct {
	Server     Server     `yaml:"server"`
	Database   Database   `yaml:"database"`
	Auth       Auth       `yaml:"auth"`
	Cron       Cron       `yaml:"cron"`
	Escalation Escalation `yaml:"escalation"`
	Mail       Mail       `yaml:"mail"`
	Events     Events     `yaml:"events"`
	Frontend   Frontend   `yaml:"frontend"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Server: Server{
			ListenAddress: ":8080",
			RateLimit:     RateLimit{RequestsPerSecond: 5, Burst: 10},
		},
		Escalation: Escalation{
			DefaultSLADays: 7,
			SweepLimit:     50,
			Cooldown:       "24h",
		},
		Mail: Mail{
			Port:        587,
			SenderName:  "VITAL",
			MaxAttempts: 5,
		},
		Events: Events{
			Kafka: Kafka{Topic: "vital.escalations"},
		},
	}
}

// Load reads the configuration file. The path argument wins, then
// VITAL_CONFIG_PATH, then ./vital.yaml. A missing file yields the defaults.
// Secrets and the database path are then overridden from the environment.
func Load(configPath ...string) (Config, error) {
	path := DefaultPath
	if p := os.Getenv(EnvConfigPath); p != "" {
		path = p
	}
	if len(configPath) > 0 && configPath[0] != "" {
		path = configPath[0]
	}

	cfg := Default()

	content, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// defaults only
	case err != nil:
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvCronSecret); v != "" {
		cfg.Cron.Secret = v
	}
	if v := os.Getenv(EnvJWTSecret); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv(EnvSMTPPassword); v != "" {
		cfg.Mail.Password = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.Database.Path = v
	}
}

// Validate checks values that cannot be defaulted silently.
func (c Config) Validate() error {
	if _, err := c.Escalation.CooldownDuration(); err != nil {
		return err
	}
	if c.Escalation.SweepLimit < 0 {
		return fmt.Errorf("escalation.sweepLimit must not be negative, got %d", c.Escalation.SweepLimit)
	}
	if c.Mail.Port < 0 || c.Mail.Port > 65535 {
		return fmt.Errorf("mail.port out of range: %d", c.Mail.Port)
	}
	return nil
}

// CooldownDuration parses the sweep cooldown. Empty means 24h.
func (e Escalation) CooldownDuration() (time.Duration, error) {
	if e.Cooldown == "" {
		return 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(e.Cooldown)
	if err != nil {
		return 0, fmt.Errorf("invalid escalation.cooldown %q: %w", e.Cooldown, err)
	}
	return d, nil
}

// Address returns host:port for the SMTP server.
func (m Mail) Address() string {
	return m.Host + ":" + strconv.Itoa(m.Port)
}

// Enabled reports whether mail delivery is configured.
func (m Mail) Enabled() bool {
	return m.Host != ""
}

// Enabled reports whether the kafka event stream is configured.
func (k Kafka) Enabled() bool {
	return len(k.Brokers) > 0 && k.Topic != ""
}

// SaveConfig writes cfg as YAML to path, creating parent directories.
func SaveConfig(path string, cfg Config) error {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
