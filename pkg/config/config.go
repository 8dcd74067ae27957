package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults
const (
	defaultBaseURL             = "https://api.fosscord.com"
	defaultAPIVersion          = 9
	defaultUserAgent           = "fosscord-go (https://github.com/Mellick-Bot/fosscord, 1)"
	defaultTimeout             = 15 * time.Second
	defaultMaxResponseBodySize = 8 * 1024 * 1024 // 8 MiB
	defaultRateRPS             = 50
	defaultRateBurst           = 10
	defaultGatewayQueue        = 4096
	defaultGatewayReadLimit    = 4 * 1024 * 1024 // 4 MiB
	defaultMetricsNamespace    = "fosscord"
	defaultLogLevel            = "info"
)

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// LoadConfigFile parses a YAML config file.
func LoadConfigFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse parses YAML config bytes; defaults are not applied.
func Parse(b []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// Load builds the effective config: optional YAML file, then .env and
// FOSSCORD_* environment overrides, then defaults, then validation. A
// missing file is not an error.
func Load(path string) (*Config, error) {
	// load .env file if present
	_ = godotenv.Load(".env")

	cfg := &Config{}
	if path != "" {
		fileCfg, err := LoadConfigFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		if fileCfg != nil {
			cfg = fileCfg
		}
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg fields from FOSSCORD_* environment variables.
func ApplyEnv(cfg *Config) error {
	envs := map[string]string{
		"REST_BASE_URL":               os.Getenv("FOSSCORD_REST_BASE_URL"),
		"REST_API_VERSION":            os.Getenv("FOSSCORD_REST_API_VERSION"),
		"REST_USER_AGENT":             os.Getenv("FOSSCORD_REST_USER_AGENT"),
		"TOKEN":                       os.Getenv("FOSSCORD_TOKEN"),
		"REST_TIMEOUT":                os.Getenv("FOSSCORD_REST_TIMEOUT"),
		"REST_MAX_RESPONSE_BODY_SIZE": os.Getenv("FOSSCORD_REST_MAX_RESPONSE_BODY_SIZE"),
		"RATE_RPS":                    os.Getenv("FOSSCORD_RATE_RPS"),
		"RATE_BURST":                  os.Getenv("FOSSCORD_RATE_BURST"),
		"GATEWAY_URL":                 os.Getenv("FOSSCORD_GATEWAY_URL"),
		"GATEWAY_QUEUE_CAPACITY":      os.Getenv("FOSSCORD_GATEWAY_QUEUE_CAPACITY"),
		"GATEWAY_READ_LIMIT":          os.Getenv("FOSSCORD_GATEWAY_READ_LIMIT"),
		"LOG_LEVEL":                   os.Getenv("FOSSCORD_LOG_LEVEL"),
		"METRICS_ENABLED":             os.Getenv("FOSSCORD_METRICS_ENABLED"),
		"METRICS_NAMESPACE":           os.Getenv("FOSSCORD_METRICS_NAMESPACE"),
		"METRICS_ADDR":                os.Getenv("FOSSCORD_METRICS_ADDR"),
	}

	parseBool := func(v string) bool {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes":
			return true
		default:
			return false
		}
	}

	if v := envs["REST_BASE_URL"]; v != "" {
		cfg.REST.BaseURL = v
	}
	if v := envs["REST_API_VERSION"]; v != "" {
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid FOSSCORD_REST_API_VERSION: %w", err)
		}
		cfg.REST.APIVersion = i
	}
	if v := envs["REST_USER_AGENT"]; v != "" {
		cfg.REST.UserAgent = v
	}
	if v := envs["TOKEN"]; v != "" {
		cfg.REST.Token = v
	}
	if v := envs["REST_TIMEOUT"]; v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid FOSSCORD_REST_TIMEOUT: %w", err)
		}
		cfg.REST.Timeout = d
	}
	if v := envs["REST_MAX_RESPONSE_BODY_SIZE"]; v != "" {
		s, err := parseSizeBytes(v)
		if err != nil {
			return fmt.Errorf("invalid FOSSCORD_REST_MAX_RESPONSE_BODY_SIZE: %w", err)
		}
		cfg.REST.MaxResponseBodySize = s
	}
	if v := envs["RATE_RPS"]; v != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("invalid FOSSCORD_RATE_RPS: %w", err)
		}
		cfg.REST.RateLimit.RPS = f
	}
	if v := envs["RATE_BURST"]; v != "" {
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid FOSSCORD_RATE_BURST: %w", err)
		}
		cfg.REST.RateLimit.Burst = i
	}
	if v := envs["GATEWAY_URL"]; v != "" {
		cfg.Gateway.URL = v
	}
	if v := envs["GATEWAY_QUEUE_CAPACITY"]; v != "" {
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid FOSSCORD_GATEWAY_QUEUE_CAPACITY: %w", err)
		}
		cfg.Gateway.QueueCapacity = i
	}
	if v := envs["GATEWAY_READ_LIMIT"]; v != "" {
		s, err := parseSizeBytes(v)
		if err != nil {
			return fmt.Errorf("invalid FOSSCORD_GATEWAY_READ_LIMIT: %w", err)
		}
		cfg.Gateway.ReadLimit = s
	}
	if v := envs["LOG_LEVEL"]; v != "" {
		cfg.Logging.Level = v
	}
	if v := envs["METRICS_ENABLED"]; v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := envs["METRICS_NAMESPACE"]; v != "" {
		cfg.Metrics.Namespace = v
	}
	if v := envs["METRICS_ADDR"]; v != "" {
		cfg.Metrics.Addr = v
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.REST.BaseURL == "" {
		cfg.REST.BaseURL = defaultBaseURL
	}
	if cfg.REST.APIVersion == 0 {
		cfg.REST.APIVersion = defaultAPIVersion
	}
	if cfg.REST.UserAgent == "" {
		cfg.REST.UserAgent = defaultUserAgent
	}
	if cfg.REST.Timeout == 0 {
		cfg.REST.Timeout = Duration(defaultTimeout)
	}
	if cfg.REST.MaxResponseBodySize == 0 {
		cfg.REST.MaxResponseBodySize = SizeBytes(defaultMaxResponseBodySize)
	}
	if cfg.REST.RateLimit.RPS == 0 {
		cfg.REST.RateLimit.RPS = defaultRateRPS
	}
	if cfg.REST.RateLimit.Burst == 0 {
		cfg.REST.RateLimit.Burst = defaultRateBurst
	}
	if cfg.Gateway.QueueCapacity == 0 {
		cfg.Gateway.QueueCapacity = defaultGatewayQueue
	}
	if cfg.Gateway.ReadLimit == 0 {
		cfg.Gateway.ReadLimit = SizeBytes(defaultGatewayReadLimit)
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaultLogLevel
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = defaultMetricsNamespace
	}
}
