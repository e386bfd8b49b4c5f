package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.ServerPort != "8080" {
		t.Errorf("server port = %q", cfg.ServerPort)
	}
	if cfg.RequestTimeout != 30 {
		t.Errorf("request timeout = %d", cfg.RequestTimeout)
	}
	if cfg.ProxyStrategy != "round_robin" {
		t.Errorf("proxy strategy = %q", cfg.ProxyStrategy)
	}
	if cfg.DispatchTimeout != 30 {
		t.Errorf("dispatch timeout = %d", cfg.DispatchTimeout)
	}
	if cfg.OutputFormat != "json" {
		t.Errorf("output format = %q", cfg.OutputFormat)
	}
	if cfg.MaxSearchResults != 20 {
		t.Errorf("max search results = %d", cfg.MaxSearchResults)
	}
	if cfg.PostgresURL != "" || cfg.RedisAddr != "" {
		t.Error("storage backends should default to disabled")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("PROXY_STRATEGY", "weighted_random")
	t.Setenv("SEARCH_DELAY_MIN_MS", "50")
	t.Setenv("SEARCH_DELAY_MAX_MS", "100")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.ServerPort != "9999" {
		t.Errorf("server port = %q, want env override", cfg.ServerPort)
	}
	if cfg.ProxyStrategy != "weighted_random" {
		t.Errorf("proxy strategy = %q, want env override", cfg.ProxyStrategy)
	}

	min, max := cfg.SearchDelayRange()
	if min != 50*time.Millisecond || max != 100*time.Millisecond {
		t.Errorf("search delay range = %v, %v", min, max)
	}
}
