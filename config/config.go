package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Trips   TripsConfig
	Browser BrowserConfig
	Walker  WalkerConfig
	LLM     LLMConfig
	Export  ExportConfig
	Log     LogConfig
}

// TripsConfig controls which trips are walked.
type TripsConfig struct {
	// BaseURL is the itinerary host.
	BaseURL string // default: "https://www.tripit.com"

	// Filter selects the trip list: "past" or "upcoming".
	Filter string // default: "past"

	// StartPage is the 1-based listing page to begin at. Operators set this
	// to resume past a throttling checkpoint reported by an earlier run.
	StartPage int // default: 1
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless. The default is
	// false: the operator logs in by hand in the visible window.
	Headless bool // default: false

	// Stealth enables anti-bot-detection evasions.
	Stealth bool // default: true

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// NavigationTimeout is the max time for a single page load.
	NavigationTimeout time.Duration // default: 15s

	// SettleTimeout bounds the wait for dynamic content after navigation.
	SettleTimeout time.Duration // default: 10s

	// RequestsPerSecond is the sustained navigation rate against the host.
	RequestsPerSecond float64 // default: 1
}

// WalkerConfig controls pagination backoff.
type WalkerConfig struct {
	// MaxRetries is the throttle retry ceiling per listing page. Once
	// exceeded, the run checkpoints and stops.
	MaxRetries int // default: 4

	// BackoffBase is the first throttle backoff delay; each retry doubles it.
	BackoffBase time.Duration // default: 2s

	// BackoffCap bounds a single backoff delay.
	BackoffCap time.Duration // default: 60s
}

// LLMConfig controls the structured-extraction calls.
type LLMConfig struct {
	// APIKey authenticates against the inference provider. Required.
	APIKey string

	// Model is the extraction model. Default: "gpt-4o-mini".
	Model string

	// BaseURL is the provider endpoint; any OpenAI-compatible API works.
	// Default: "https://api.openai.com/v1".
	BaseURL string

	// MaxContentChars caps the page text sent per extraction call.
	MaxContentChars int // default: 10000
}

// ExportConfig controls the CSV output.
type ExportConfig struct {
	// OutputFile is the CSV path, overwritten each run.
	OutputFile string // default: "flights_export.csv"
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Trips: TripsConfig{
			BaseURL:   envOr("TRIPRIP_BASE_URL", "https://www.tripit.com"),
			Filter:    envOr("TRIPRIP_TRIPS_FILTER", "past"),
			StartPage: envIntOr("TRIPRIP_START_PAGE", 1),
		},
		Browser: BrowserConfig{
			Headless:          envBoolOr("TRIPRIP_HEADLESS", false),
			Stealth:           envBoolOr("TRIPRIP_STEALTH", true),
			BrowserBin:        os.Getenv("TRIPRIP_BROWSER_BIN"),
			NavigationTimeout: envDurationOr("TRIPRIP_NAV_TIMEOUT", 15*time.Second),
			SettleTimeout:     envDurationOr("TRIPRIP_SETTLE_TIMEOUT", 10*time.Second),
			RequestsPerSecond: envFloatOr("TRIPRIP_RATE_RPS", 1.0),
		},
		Walker: WalkerConfig{
			MaxRetries:  envIntOr("TRIPRIP_MAX_RETRIES", 4),
			BackoffBase: envDurationOr("TRIPRIP_BACKOFF_BASE", 2*time.Second),
			BackoffCap:  envDurationOr("TRIPRIP_BACKOFF_CAP", 60*time.Second),
		},
		LLM: LLMConfig{
			APIKey:          os.Getenv("TRIPRIP_LLM_API_KEY"),
			Model:           envOr("TRIPRIP_LLM_MODEL", "gpt-4o-mini"),
			BaseURL:         envOr("TRIPRIP_LLM_BASE_URL", "https://api.openai.com/v1"),
			MaxContentChars: envIntOr("TRIPRIP_LLM_MAX_CHARS", 10000),
		},
		Export: ExportConfig{
			OutputFile: envOr("TRIPRIP_OUTPUT_FILE", "flights_export.csv"),
		},
		Log: LogConfig{
			Level:  envOr("TRIPRIP_LOG_LEVEL", "info"),
			Format: envOr("TRIPRIP_LOG_FORMAT", "text"),
		},
	}
}

// ListingURL builds the listing-page URL for the given 1-based page number.
func (c TripsConfig) ListingURL(page int) string {
	return fmt.Sprintf("%s/app/trips?trips_filter=%s&page=%d", c.BaseURL, c.Filter, page)
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("TRIPRIP_LLM_API_KEY is required")
	}
	if c.Trips.Filter != "past" && c.Trips.Filter != "upcoming" {
		return fmt.Errorf("trips filter must be %q or %q, got %q", "past", "upcoming", c.Trips.Filter)
	}
	if c.Trips.StartPage < 1 {
		return fmt.Errorf("start page must be >= 1, got %d", c.Trips.StartPage)
	}
	return nil
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
