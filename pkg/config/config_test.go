package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
rest:
  base_url: https://api.example.test
  api_version: 9
  timeout: 5s
  max_response_body_size: 2MB
  rate_limit:
    rps: 5
    burst: 2
gateway:
  url: wss://gateway.example.test
  queue_capacity: 128
  read_limit: 1MiB
cache:
  sweepers:
    - target: messages
      cron: "*/5 * * * *"
      lifetime: 30m
    - target: users
      cron: "@hourly"
logging:
  level: debug
`

func TestParseYAML(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	applyDefaults(cfg)
	require.NoError(t, Validate(cfg))

	assert.Equal(t, "https://api.example.test", cfg.REST.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.REST.Timeout.Duration())
	assert.Equal(t, int64(2000000), cfg.REST.MaxResponseBodySize.Int64())
	assert.Equal(t, int64(1<<20), cfg.Gateway.ReadLimit.Int64())
	assert.Equal(t, 128, cfg.Gateway.QueueCapacity)
	require.Len(t, cfg.Cache.Sweepers, 2)
	assert.Equal(t, 30*time.Minute, cfg.Cache.Sweepers[0].Lifetime.Duration())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, defaultMetricsNamespace, cfg.Metrics.Namespace)
}

func TestDurationNumericSeconds(t *testing.T) {
	cfg, err := Parse([]byte("rest:\n  timeout: 1.5\n"))
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, cfg.REST.Timeout.Duration())

	_, err = Parse([]byte("rest:\n  timeout: soon\n"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FOSSCORD_REST_BASE_URL", "http://127.0.0.1:9999")
	t.Setenv("FOSSCORD_RATE_BURST", "7")
	t.Setenv("FOSSCORD_REST_TIMEOUT", "250ms")
	t.Setenv("FOSSCORD_METRICS_ENABLED", "yes")

	cfg := &Config{}
	require.NoError(t, ApplyEnv(cfg))
	assert.Equal(t, "http://127.0.0.1:9999", cfg.REST.BaseURL)
	assert.Equal(t, 7, cfg.REST.RateLimit.Burst)
	assert.Equal(t, 250*time.Millisecond, cfg.REST.Timeout.Duration())
	assert.True(t, cfg.Metrics.Enabled)

	t.Setenv("FOSSCORD_RATE_BURST", "lots")
	assert.Error(t, ApplyEnv(&Config{}))
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, defaultBaseURL, cfg.REST.BaseURL)
	assert.Equal(t, defaultGatewayQueue, cfg.Gateway.QueueCapacity)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "wss://gateway.example.test", cfg.Gateway.URL)
}

func TestValidate(t *testing.T) {
	base := func() *Config { return Default() }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"bad base url", func(c *Config) { c.REST.BaseURL = "not a url" }, true},
		{"http gateway", func(c *Config) { c.Gateway.URL = "http://x" }, true},
		{"bad cron", func(c *Config) {
			c.Cache.Sweepers = []SweeperConfig{{Target: SweepUsers, Cron: "every day"}}
		}, true},
		{"unknown target", func(c *Config) {
			c.Cache.Sweepers = []SweeperConfig{{Target: "guilds", Cron: "@daily"}}
		}, true},
		{"messages without lifetime", func(c *Config) {
			c.Cache.Sweepers = []SweeperConfig{{Target: SweepMessages, Cron: "@daily"}}
		}, true},
		{"duplicate target", func(c *Config) {
			c.Cache.Sweepers = []SweeperConfig{{Target: SweepUsers, Cron: "@daily"}, {Target: SweepUsers, Cron: "@hourly"}}
		}, true},
		{"reactions sweeper", func(c *Config) {
			c.Cache.Sweepers = []SweeperConfig{{Target: SweepReactions, Cron: "0 * * * *"}}
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
