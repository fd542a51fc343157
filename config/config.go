package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Browser BrowserConfig
	Scraper ScraperConfig
	LLM     LLMConfig
	Cache   CacheConfig
	Log     LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: true

	// Bin overrides the Chromium binary path.
	Bin string
}

// ScraperConfig controls pagination and page-load behavior.
type ScraperConfig struct {
	// NavTimeout is the deadline for navigating one page, network-idle
	// wait included.
	NavTimeout time.Duration // default: 30s

	// SettleDelay is the fixed wait after network idle before the page
	// content is read.
	SettleDelay time.Duration // default: 2s

	// PageDelay is the fixed wait between listing pages.
	PageDelay time.Duration // default: 2s

	// DefaultMaxPages is the page cap applied when a caller passes a
	// non-positive value.
	DefaultMaxPages int // default: 5

	// MaxSessions caps how many scrape calls may run browsers at once.
	MaxSessions int // default: 2

	// BlockedResourceTypes lists page resource types the browser refuses
	// to fetch. Blocking mounts a request interceptor, which replaces the
	// network-idle wait with a DOM stability wait. Fonts and media never
	// carry product data; images and stylesheets stay enabled because
	// lazy-loading listings need them to fill card src attributes.
	BlockedResourceTypes []string // default: ["Font", "Media"]
}

// LLMConfig controls the extraction-service client.
type LLMConfig struct {
	// BaseURL is the OpenAI-compatible API root.
	BaseURL string // default: "https://api.openai.com/v1"

	// APIKey authorizes extraction-service calls. When empty, AI
	// extraction is disabled and every page uses selector fallback.
	APIKey string

	// Model is the chat-completion model name.
	Model string // default: "gpt-4o-mini"

	// RequestsPerSecond is the sustained call rate toward the service.
	RequestsPerSecond float64 // default: 2

	// Burst is the token-bucket burst size.
	Burst int // default: 4
}

// Enabled reports whether AI extraction is configured.
func (c LLMConfig) Enabled() bool {
	return c.APIKey != ""
}

// CacheConfig controls the scrape response cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached responses.
	MaxEntries int // default: 256
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("PRICEWALK_HOST", "0.0.0.0"),
			Port: envIntOr("PRICEWALK_PORT", 8080),
			Mode: envOr("PRICEWALK_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:  envBoolOr("PRICEWALK_BROWSER_HEADLESS", true),
			NoSandbox: envBoolOr("PRICEWALK_BROWSER_NO_SANDBOX", true),
			Bin:       os.Getenv("PRICEWALK_BROWSER_BIN"),
		},
		Scraper: ScraperConfig{
			NavTimeout:           envDurationOr("PRICEWALK_NAV_TIMEOUT", 30*time.Second),
			SettleDelay:          envDurationOr("PRICEWALK_SETTLE_DELAY", 2*time.Second),
			PageDelay:            envDurationOr("PRICEWALK_PAGE_DELAY", 2*time.Second),
			DefaultMaxPages:      envIntOr("PRICEWALK_DEFAULT_MAX_PAGES", 5),
			MaxSessions:          envIntOr("PRICEWALK_MAX_SESSIONS", 2),
			BlockedResourceTypes: envSliceOr("PRICEWALK_BLOCK_RESOURCES", []string{"Font", "Media"}),
		},
		LLM: LLMConfig{
			BaseURL:           envOr("PRICEWALK_LLM_BASE_URL", "https://api.openai.com/v1"),
			APIKey:            os.Getenv("PRICEWALK_LLM_API_KEY"),
			Model:             envOr("PRICEWALK_LLM_MODEL", "gpt-4o-mini"),
			RequestsPerSecond: envFloatOr("PRICEWALK_LLM_RPS", 2.0),
			Burst:             envIntOr("PRICEWALK_LLM_BURST", 4),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("PRICEWALK_CACHE_MAX_ENTRIES", 256),
		},
		Log: LogConfig{
			Level:  envOr("PRICEWALK_LOG_LEVEL", "info"),
			Format: envOr("PRICEWALK_LOG_FORMAT", "json"),
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
		return result
	}
	return fallback
}
