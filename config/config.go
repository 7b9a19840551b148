package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	RansomGuard RansomGuardConfig `yaml:"ransomguard"`
}

// RansomGuardConfig is the project configuration.
type RansomGuardConfig struct {
	Server      ServerConfig      `yaml:"server"`
	Input       InputConfig       `yaml:"input"`
	Scoring     ScoringConfig     `yaml:"scoring"`
	Correlation CorrelationConfig `yaml:"correlation"`
	Rules       RulesConfig       `yaml:"rules"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ServerConfig controls the HTTP API listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// InputConfig controls the optional Redis event intake.
type InputConfig struct {
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig controls Redis list consumption.
type RedisConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	Key          string        `yaml:"key"`
	BlockTimeout time.Duration `yaml:"block_timeout"`
	Workers      int           `yaml:"workers"`
}

// ScoringConfig controls the rolling score window.
type ScoringConfig struct {
	Window time.Duration `yaml:"window"`
}

// CorrelationConfig controls burst detection.
type CorrelationConfig struct {
	Window            time.Duration `yaml:"window"`
	Cooldown          time.Duration `yaml:"cooldown"`
	WarnThreshold     int           `yaml:"warn_threshold"`
	HighThreshold     int           `yaml:"high_threshold"`
	CriticalThreshold int           `yaml:"critical_threshold"`
}

// RulesConfig controls optional Sigma severity tagging.
type RulesConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoggingConfig controls logging output.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
