package config

import (
	"fmt"
	"net/url"

	"github.com/adhocore/gronx"
)

// Sweep targets understood by the client.
const (
	SweepMessages  = "messages"
	SweepUsers     = "users"
	SweepReactions = "reactions"
)

// Validate fails fast on settings the client cannot run with. Defaults are
// expected to have been applied.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	u, err := url.Parse(cfg.REST.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid rest.base_url: %q", cfg.REST.BaseURL)
	}
	if cfg.REST.APIVersion < 0 {
		return fmt.Errorf("invalid rest.api_version: %d", cfg.REST.APIVersion)
	}
	if cfg.REST.RateLimit.RPS < 0 || cfg.REST.RateLimit.Burst < 0 {
		return fmt.Errorf("invalid rest.rate_limit: rps and burst must be >= 0")
	}
	if cfg.Gateway.URL != "" {
		gu, err := url.Parse(cfg.Gateway.URL)
		if err != nil || (gu.Scheme != "ws" && gu.Scheme != "wss") {
			return fmt.Errorf("invalid gateway.url: %q must be ws:// or wss://", cfg.Gateway.URL)
		}
	}
	if cfg.Gateway.QueueCapacity < 0 {
		return fmt.Errorf("invalid gateway.queue_capacity: %d", cfg.Gateway.QueueCapacity)
	}

	gron := gronx.New()
	seen := make(map[string]bool)
	for i, sw := range cfg.Cache.Sweepers {
		switch sw.Target {
		case SweepMessages, SweepUsers, SweepReactions:
		default:
			return fmt.Errorf("invalid cache.sweepers[%d].target: %q", i, sw.Target)
		}
		if seen[sw.Target] {
			return fmt.Errorf("duplicate cache.sweepers target: %q", sw.Target)
		}
		seen[sw.Target] = true
		if !gron.IsValid(sw.Cron) {
			return fmt.Errorf("invalid cache.sweepers[%d].cron: not a valid cron expression", i)
		}
		if sw.Target == SweepMessages && sw.Lifetime.Duration() <= 0 {
			return fmt.Errorf("cache.sweepers[%d]: messages sweeper requires a positive lifetime", i)
		}
	}
	return nil
}
