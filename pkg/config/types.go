package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Config is the main configuration struct.
type Config struct {
	REST    RESTConfig    `yaml:"rest"`
	Gateway GatewayConfig `yaml:"gateway"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// RESTConfig holds settings for the pull/write transport.
type RESTConfig struct {
	BaseURL             string    `yaml:"base_url"`
	APIVersion          int       `yaml:"api_version"`
	UserAgent           string    `yaml:"user_agent"`
	Token               string    `yaml:"token"`
	Timeout             Duration  `yaml:"timeout"`
	MaxResponseBodySize SizeBytes `yaml:"max_response_body_size"`
	RateLimit           struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
}

// GatewayConfig holds settings for the push-event intake.
type GatewayConfig struct {
	URL           string    `yaml:"url"`
	QueueCapacity int       `yaml:"queue_capacity"`
	ReadLimit     SizeBytes `yaml:"read_limit"`
}

// CacheConfig holds cache sweeping configuration.
type CacheConfig struct {
	Sweepers []SweeperConfig `yaml:"sweepers"`
}

// SweeperConfig schedules one sweep target. Lifetime is only used by
// targets that evict by age (messages).
type SweeperConfig struct {
	Target   string   `yaml:"target"`
	Cron     string   `yaml:"cron"`
	Lifetime Duration `yaml:"lifetime"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// MetricsConfig holds prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
	// Addr serves /metrics and the health probes when set, e.g. ":9090".
	Addr      string `yaml:"addr"`
}

// SizeBytes represents a number of bytes, unmarshaled from human-friendly strings like "64MB" or plain integers.
type SizeBytes int64

func (s *SizeBytes) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*s = 0
		return nil
	}
	v, err := parseSizeBytes(node.Value)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s SizeBytes) Int64() int64 { return int64(s) }

func parseSizeBytes(raw string) (SizeBytes, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return SizeBytes(i), nil
	}
	if v, err := humanize.ParseBytes(raw); err == nil {
		return SizeBytes(v), nil
	}
	return 0, fmt.Errorf("invalid size value: %q", raw)
}

// Duration is a wrapper around time.Duration that supports YAML parsing from strings like "100ms" or plain numbers (interpreted as seconds).
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*d = Duration(0)
		return nil
	}
	v, err := parseDuration(node.Value)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }

func parseDuration(raw string) (Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if td, err := time.ParseDuration(raw); err == nil {
		return Duration(td), nil
	}
	// allow numeric seconds
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return Duration(time.Duration(f * float64(time.Second))), nil
	}
	return 0, fmt.Errorf("invalid duration value: %q", raw)
}
