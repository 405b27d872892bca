// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, the FAQ/prompt sources, Gemini credentials,
// the booking webhook, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-room-assistant")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// GeminiConfig holds the settings for the hosted generative model.
//
// The API key is resolved from layered sources, first non-empty wins:
//  1. a managed secrets file (GEMINI_API_KEY_FILE, default /run/secrets/gemini_api_key)
//  2. the GEMINI_API_KEY environment variable
//  3. a local secrets file (SECRETS_FILE, default .secrets/gemini_api_key)
//
// An empty key is not a configuration error: the chat endpoint degrades to a
// user-facing "key is missing" message rather than refusing to start.
type GeminiConfig struct {
	APIKey    string // resolved, may be empty
	ModelName string // MODEL_NAME
}

// BookingConfig holds the venue policy and webhook settings for bookings.
type BookingConfig struct {
	WebhookURL     string        // BOOKING_WEBHOOK_URL; empty means "not configured"
	WebhookTimeout time.Duration // BOOKING_WEBHOOK_TIMEOUT
	CleaningFee    int           // CLEANING_FEE, surcharge when cleaning is requested
	OpenTime       string        // VENUE_OPEN, "HH:MM"
	CloseTime      string        // VENUE_CLOSE, "HH:MM"
	MinMinutes     int           // MIN_BOOKING_MINUTES
	Cooldown       time.Duration // SUBMIT_COOLDOWN between submissions per session
}

// FAQConfig holds the grounding-material settings.
type FAQConfig struct {
	PDFPath    string // FAQ_PDF_PATH; absence of the file is not an error
	PromptPath string // SYSTEM_PROMPT_PATH; optional base-prompt override
	MaxChars   int    // MAX_FAQ_CHARS character budget for the prompt
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	DBPath         string // SQLite path; defaults to an in-memory DSN (session state only)
	MaxHistory     int    // MAX_HISTORY_MESSAGES sent to the model per turn
	MaxPromptRunes int    // cap on a single user prompt

	FAQ     FAQConfig
	Gemini  GeminiConfig
	Booking BookingConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// Session state is ephemeral: the default DSN keeps everything in memory and
// the store dies with the process. Point DB_PATH at a file to keep state
// across restarts.
const defaultDBPath = "file::memory:?cache=shared"

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath:         getenv("DB_PATH", defaultDBPath),
		MaxHistory:     getint("MAX_HISTORY_MESSAGES", 12),
		MaxPromptRunes: getint("MAX_PROMPT_RUNES", 2000),

		FAQ: FAQConfig{
			PDFPath:    getenv("FAQ_PDF_PATH", filepath.Join("prompts", "faq.pdf")),
			PromptPath: getenv("SYSTEM_PROMPT_PATH", filepath.Join("prompts", "system_prompt.txt")),
			MaxChars:   getint("MAX_FAQ_CHARS", 30000),
		},

		Gemini: GeminiConfig{
			APIKey:    resolveAPIKey(),
			ModelName: strings.TrimSpace(getenv("MODEL_NAME", "gemini-2.5-flash-lite")),
		},

		Booking: BookingConfig{
			WebhookURL:     strings.TrimSpace(getenv("BOOKING_WEBHOOK_URL", "")),
			WebhookTimeout: getdur("BOOKING_WEBHOOK_TIMEOUT", 10*time.Second),
			CleaningFee:    getint("CLEANING_FEE", 20),
			OpenTime:       getenv("VENUE_OPEN", "07:00"),
			CloseTime:      getenv("VENUE_CLOSE", "22:00"),
			MinMinutes:     getint("MIN_BOOKING_MINUTES", 30),
			Cooldown:       getdur("SUBMIT_COOLDOWN", 5*time.Second),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-room-assistant"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.MaxHistory < 1 {
		return cfg, errors.New("MAX_HISTORY_MESSAGES must be >= 1")
	}
	if cfg.FAQ.MaxChars < 1 {
		return cfg, errors.New("MAX_FAQ_CHARS must be >= 1")
	}
	if cfg.Gemini.ModelName == "" {
		return cfg, errors.New("MODEL_NAME must not be empty")
	}
	if cfg.Booking.WebhookTimeout <= 0 {
		return cfg, errors.New("BOOKING_WEBHOOK_TIMEOUT must be > 0")
	}
	if cfg.Booking.CleaningFee < 0 {
		return cfg, errors.New("CLEANING_FEE must be >= 0")
	}
	if !validClock(cfg.Booking.OpenTime) || !validClock(cfg.Booking.CloseTime) {
		return cfg, errors.New("VENUE_OPEN and VENUE_CLOSE must be HH:MM clock times")
	}
	if cfg.Booking.MinMinutes < 1 {
		return cfg, errors.New("MIN_BOOKING_MINUTES must be >= 1")
	}
	if cfg.Booking.Cooldown < 0 {
		return cfg, errors.New("SUBMIT_COOLDOWN must be >= 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// resolveAPIKey implements the layered Gemini key lookup: managed secrets file,
// then environment, then a local secrets file. Missing or unreadable files
// simply fall through to the next source.
func resolveAPIKey() string {
	if path := getenv("GEMINI_API_KEY_FILE", "/run/secrets/gemini_api_key"); path != "" {
		if b, err := os.ReadFile(path); err == nil {
			if key := strings.TrimSpace(string(b)); key != "" {
				return key
			}
		}
	}
	if key := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); key != "" {
		return key
	}
	if path := getenv("SECRETS_FILE", filepath.Join(".secrets", "gemini_api_key")); path != "" {
		if b, err := os.ReadFile(path); err == nil {
			return strings.TrimSpace(string(b))
		}
	}
	return ""
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// validClock reports whether s parses as a zero-padded 24h clock time.
// time.Parse alone would accept "7:00", so the length check keeps the
// format strict.
func validClock(s string) bool {
	if len(s) != len("15:04") {
		return false
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
