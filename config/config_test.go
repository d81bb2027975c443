package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("default host = %q", cfg.Server.Host)
	}
	if cfg.Server.Port != 8087 {
		t.Errorf("default port = %d", cfg.Server.Port)
	}
	if cfg.Browser.Channel != "msedge" {
		t.Errorf("default channel = %q", cfg.Browser.Channel)
	}
	if !cfg.Browser.Preflight {
		t.Error("preflight should default to on")
	}
	if cfg.Extract.ElementTimeout != 15*time.Second {
		t.Errorf("default element timeout = %v", cfg.Extract.ElementTimeout)
	}
	if cfg.Extract.NavigationTimeout != 60*time.Second {
		t.Errorf("default navigation timeout = %v", cfg.Extract.NavigationTimeout)
	}
	if cfg.Auth.Enabled {
		t.Error("auth should default to off for a local operator tool")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TABGATE_PORT", "9999")
	t.Setenv("TABGATE_BROWSER_CHANNEL", "chrome")
	t.Setenv("TABGATE_NO_SANDBOX", "true")
	t.Setenv("TABGATE_ELEMENT_TIMEOUT", "30s")
	t.Setenv("TABGATE_API_KEYS", "key-a, key-b,")
	t.Setenv("TABGATE_RATE_RPS", "2.5")

	cfg := Load()

	if cfg.Server.Port != 9999 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Browser.Channel != "chrome" {
		t.Errorf("channel = %q", cfg.Browser.Channel)
	}
	if !cfg.Browser.NoSandbox {
		t.Error("no-sandbox override ignored")
	}
	if cfg.Extract.ElementTimeout != 30*time.Second {
		t.Errorf("element timeout = %v", cfg.Extract.ElementTimeout)
	}
	if len(cfg.Auth.APIKeys) != 2 || cfg.Auth.APIKeys[0] != "key-a" || cfg.Auth.APIKeys[1] != "key-b" {
		t.Errorf("api keys = %v", cfg.Auth.APIKeys)
	}
	if cfg.RateLimit.RequestsPerSecond != 2.5 {
		t.Errorf("rate rps = %v", cfg.RateLimit.RequestsPerSecond)
	}
}

func TestLoad_MalformedEnvFallsBack(t *testing.T) {
	t.Setenv("TABGATE_PORT", "not-a-number")
	t.Setenv("TABGATE_ELEMENT_TIMEOUT", "soon")

	cfg := Load()

	if cfg.Server.Port != 8087 {
		t.Errorf("malformed port should fall back to default, got %d", cfg.Server.Port)
	}
	if cfg.Extract.ElementTimeout != 15*time.Second {
		t.Errorf("malformed duration should fall back to default, got %v", cfg.Extract.ElementTimeout)
	}
}
