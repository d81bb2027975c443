package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Extract   ExtractConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	Webhook   WebhookConfig
}

// ServerConfig controls the HTTP control API.
type ServerConfig struct {
	Host string // default: "127.0.0.1"
	Port int    // default: 8087
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the operator-visible browser instance.
type BrowserConfig struct {
	// Channel selects the browser variant to launch: "msedge", "chrome",
	// "chrome-beta", "chromium". Ignored when Bin is set.
	Channel string // default: "msedge"

	// Bin overrides channel resolution with an explicit browser binary path.
	Bin string

	// NoSandbox disables Chrome's sandbox (needed in some containers).
	NoSandbox bool // default: false

	// Stealth injects anti-bot-detection JS before navigation.
	Stealth bool // default: false

	// BlockAds blocks requests to well-known ad and tracking domains.
	// Off by default: the operator drives this window and blocking can
	// break the target application.
	BlockAds bool // default: false

	// Preflight probes the login URL over plain HTTP before launching the
	// browser, so an unreachable target fails fast.
	Preflight bool // default: true

	// Proxy is an optional proxy URL for the browser and the preflight.
	Proxy string

	// AcceptLanguage overrides the browser's Accept-Language header.
	AcceptLanguage string
}

// ExtractConfig controls session and extraction behavior.
type ExtractConfig struct {
	// TargetsFile is the path to the JSON file holding login URL, field
	// selectors and table configs.
	TargetsFile string // default: "config.json"

	// OutputDir is where CSV files land when a table config does not name
	// an explicit output path.
	OutputDir string // default: "output"

	// ElementTimeout is the bounded wait for a configured selector to
	// appear (login fields, table roots, step targets).
	ElementTimeout time.Duration // default: 15s

	// NavigationTimeout is the max time for the initial login-page load.
	NavigationTimeout time.Duration // default: 60s
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false (local operator tool)

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per identity.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per identity.
	Burst int // default: 10
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

// WebhookConfig controls extraction-completed notifications.
type WebhookConfig struct {
	// URL receives a POST per completed extraction. Empty disables delivery.
	URL string

	// Secret, when set, signs the payload with HMAC-SHA256.
	Secret string
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("TABGATE_HOST", "127.0.0.1"),
			Port: envIntOr("TABGATE_PORT", 8087),
			Mode: envOr("TABGATE_MODE", "release"),
		},
		Browser: BrowserConfig{
			Channel:        envOr("TABGATE_BROWSER_CHANNEL", "msedge"),
			Bin:            os.Getenv("TABGATE_BROWSER_BIN"),
			NoSandbox:      envBoolOr("TABGATE_NO_SANDBOX", false),
			Stealth:        envBoolOr("TABGATE_STEALTH", false),
			BlockAds:       envBoolOr("TABGATE_BLOCK_ADS", false),
			Preflight:      envBoolOr("TABGATE_PREFLIGHT", true),
			Proxy:          os.Getenv("TABGATE_PROXY"),
			AcceptLanguage: os.Getenv("TABGATE_ACCEPT_LANGUAGE"),
		},
		Extract: ExtractConfig{
			TargetsFile:       envOr("TABGATE_TARGETS", "config.json"),
			OutputDir:         envOr("TABGATE_OUTPUT_DIR", "output"),
			ElementTimeout:    envDurationOr("TABGATE_ELEMENT_TIMEOUT", 15*time.Second),
			NavigationTimeout: envDurationOr("TABGATE_NAV_TIMEOUT", 60*time.Second),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("TABGATE_AUTH_ENABLED", false),
			APIKeys: envSliceOr("TABGATE_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("TABGATE_RATE_RPS", 5.0),
			Burst:             envIntOr("TABGATE_RATE_BURST", 10),
		},
		Log: LogConfig{
			Level:  envOr("TABGATE_LOG_LEVEL", "info"),
			Format: envOr("TABGATE_LOG_FORMAT", "text"),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("TABGATE_WEBHOOK_URL"),
			Secret: os.Getenv("TABGATE_WEBHOOK_SECRET"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
