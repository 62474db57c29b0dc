package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"posebvh/internal/bvh"
	"posebvh/internal/pose"
)

const (
	DefaultPath         = "posebvh.yaml"
	DefaultAddr         = ":3000"
	DefaultMaxBodyBytes = 500 << 20
	DefaultMQTTTopic    = "posebvh/exports"
)

type Config struct {
	Project   string           `yaml:"project"`
	Version   int              `yaml:"version"`
	Encoder   EncoderConfig    `yaml:"encoder"`
	Server    ServerConfig     `yaml:"server"`
	Database  DatabaseConfig   `yaml:"database"`
	MQTT      MQTTConfig       `yaml:"mqtt"`
	Capture   CaptureConfig    `yaml:"capture"`
	Landmarks pose.LandmarkMap `yaml:"landmarks"`
}

type EncoderConfig struct {
	FrameRate float64 `yaml:"frame_rate"`
	Scale     float64 `yaml:"scale"`
}

type ServerConfig struct {
	Addr             string `yaml:"addr"`
	StaticDir        string `yaml:"static_dir"`
	TempDir          string `yaml:"temp_dir"`
	MaxBodyBytes     int64  `yaml:"max_body_bytes"`
	ShutdownTimeoutS int    `yaml:"shutdown_timeout_s"`
}

// DatabaseConfig selects the export history backend by DSN scheme
// (sqlite:// or postgres://). An empty DSN disables history.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// MQTTConfig enables export notifications when Broker is set.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	QoS      byte   `yaml:"qos"`
	ClientID string `yaml:"client_id"`
}

// CaptureConfig drives batch conversion of capture files on disk.
type CaptureConfig struct {
	Paths     []string `yaml:"paths"`
	Exclude   []string `yaml:"exclude"`
	OutputDir string   `yaml:"output_dir"`
}

// Default is the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{Project: "posebvh", Version: 1}
	applyDefaults(cfg)
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	return &cfg, nil
}

// LoadOptional behaves like Load but falls back to Default when path does
// not exist.
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// ApplyEnv overrides deployment settings from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("POSEBVH_DATABASE_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("POSEBVH_MQTT_BROKER"); v != "" {
		c.MQTT.Broker = v
	}
	if v := os.Getenv("POSEBVH_ADDR"); v != "" {
		c.Server.Addr = v
	}
}

func (c *Config) BVHEncoder() bvh.Encoder {
	return bvh.Encoder{FrameRate: c.Encoder.FrameRate, Scale: c.Encoder.Scale}
}

func applyDefaults(cfg *Config) {
	if cfg.Encoder.FrameRate == 0 {
		cfg.Encoder.FrameRate = bvh.DefaultFrameRate
	}
	if cfg.Encoder.Scale == 0 {
		cfg.Encoder.Scale = bvh.DefaultScale
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultAddr
	}
	if cfg.Server.TempDir == "" {
		cfg.Server.TempDir = os.TempDir()
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Server.ShutdownTimeoutS == 0 {
		cfg.Server.ShutdownTimeoutS = 5
	}
	if cfg.MQTT.Topic == "" {
		cfg.MQTT.Topic = DefaultMQTTTopic
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "posebvh"
	}
	defaults := pose.DefaultLandmarkMap()
	if cfg.Landmarks == nil {
		cfg.Landmarks = defaults
		return
	}
	for joint, idx := range defaults {
		if _, ok := cfg.Landmarks[joint]; !ok {
			cfg.Landmarks[joint] = idx
		}
	}
}

func validateConfig(cfg *Config) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	if cfg.Encoder.FrameRate < 0 {
		return fmt.Errorf("encoder frame_rate must be positive")
	}
	if cfg.Encoder.Scale < 0 {
		return fmt.Errorf("encoder scale must be positive")
	}
	if cfg.Server.MaxBodyBytes < 0 {
		return fmt.Errorf("server max_body_bytes must be positive")
	}
	if cfg.Server.ShutdownTimeoutS < 0 {
		return fmt.Errorf("server shutdown_timeout_s must be positive")
	}
	if dsn := cfg.Database.DSN; dsn != "" && !hasAnyPrefix(dsn, "sqlite://", "postgres://", "postgresql://") {
		return fmt.Errorf("unsupported database dsn scheme: %s", schemeOf(dsn))
	}
	if cfg.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt qos must be 0, 1 or 2")
	}
	if err := cfg.Landmarks.Validate(); err != nil {
		return err
	}
	return nil
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

func schemeOf(dsn string) string {
	if idx := strings.Index(dsn, "://"); idx >= 0 {
		return dsn[:idx]
	}
	return dsn
}
