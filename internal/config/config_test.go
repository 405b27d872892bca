package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

// --- MustLoad ---

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose") // invalid -> Load() error
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

// --- Load success + normalization + parsing ---

func TestLoad_Success_DefaultsAndOverrides(t *testing.T) {
	// Server timeouts / sizes (valid)
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("READ_HEADER_TIMEOUT", "1s")
	t.Setenv("WRITE_TIMEOUT", "3s")
	t.Setenv("IDLE_TIMEOUT", "4s")
	t.Setenv("MAX_HEADER_BYTES", "8192")
	t.Setenv("GIN_MODE", "weird") // will normalize to "release"

	// Logging / Docs
	t.Setenv("LOG_LEVEL", "warning") // will normalize to "warn"
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("SWAGGER_ENABLED", "on")
	t.Setenv("API_BASE_PATH", "api/v1/") // no leading slash + trailing slash -> "/api/v1"

	// App
	t.Setenv("DB_PATH", "state.db")
	t.Setenv("MAX_HISTORY_MESSAGES", "6")
	t.Setenv("MAX_PROMPT_RUNES", "500")
	t.Setenv("FAQ_PDF_PATH", "docs/faq.pdf")
	t.Setenv("SYSTEM_PROMPT_PATH", "docs/base.txt")
	t.Setenv("MAX_FAQ_CHARS", "1234")
	t.Setenv("MODEL_NAME", " gemini-2.5-pro ")

	// Booking
	t.Setenv("BOOKING_WEBHOOK_URL", " https://hooks.example.com/sheet ")
	t.Setenv("BOOKING_WEBHOOK_TIMEOUT", "7s")
	t.Setenv("CLEANING_FEE", "35")
	t.Setenv("VENUE_OPEN", "08:00")
	t.Setenv("VENUE_CLOSE", "21:00")
	t.Setenv("MIN_BOOKING_MINUTES", "45")
	t.Setenv("SUBMIT_COOLDOWN", "10s")

	// Rate limiting (use invalids for parse to fall back to defaults)
	t.Setenv("RATE_RPS", "x")      // -> default 5.0
	t.Setenv("RATE_BURST", "nope") // -> default 10

	// Web protection
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")
	t.Setenv("ENABLE_HSTS", "TRUE")
	t.Setenv("HSTS_MAX_AGE", "24h")

	// OTEL
	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "0")
	t.Setenv("OTEL_SERVICE_NAME", "svc")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Server
	if cfg.Port != "8088" ||
		cfg.ReadTimeout != 2*time.Second ||
		cfg.ReadHeaderTimeout != 1*time.Second ||
		cfg.WriteTimeout != 3*time.Second ||
		cfg.IdleTimeout != 4*time.Second ||
		cfg.MaxHeaderBytes != 8192 ||
		cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}

	// Logging / Docs
	if cfg.LogLevel != "warn" || !cfg.LogPretty || !cfg.SwaggerEnabled || cfg.APIBasePath != "/api/v1" {
		t.Fatalf("logging/docs unexpected: %+v", cfg)
	}

	// App
	if cfg.DBPath != "state.db" || cfg.MaxHistory != 6 || cfg.MaxPromptRunes != 500 {
		t.Fatalf("app fields unexpected: %+v", cfg)
	}
	if cfg.FAQ.PDFPath != "docs/faq.pdf" || cfg.FAQ.PromptPath != "docs/base.txt" || cfg.FAQ.MaxChars != 1234 {
		t.Fatalf("faq fields unexpected: %+v", cfg.FAQ)
	}
	if cfg.Gemini.ModelName != "gemini-2.5-pro" {
		t.Fatalf("model name not trimmed: %q", cfg.Gemini.ModelName)
	}

	// Booking
	b := cfg.Booking
	if b.WebhookURL != "https://hooks.example.com/sheet" ||
		b.WebhookTimeout != 7*time.Second ||
		b.CleaningFee != 35 ||
		b.OpenTime != "08:00" || b.CloseTime != "21:00" ||
		b.MinMinutes != 45 || b.Cooldown != 10*time.Second {
		t.Fatalf("booking fields unexpected: %+v", b)
	}

	// Rate limiting (parse fallback to defaults)
	if cfg.RateRPS != 5.0 || cfg.RateBurst != 10 {
		t.Fatalf("rate limiting unexpected: %+v", cfg)
	}

	// Web protection
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
		t.Fatalf("cors origins unexpected: %#v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour {
		t.Fatalf("security unexpected: %+v", cfg.Security)
	}

	// OTEL
	o := cfg.OTEL
	if !o.Enabled || o.Endpoint != "otel:4317" || o.Insecure || o.ServiceName != "svc" || o.SampleRatio != 0.75 {
		t.Fatalf("otel unexpected: %+v", o)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.DBPath != defaultDBPath {
		t.Fatalf("DBPath default = %q", cfg.DBPath)
	}
	if cfg.MaxHistory != 12 || cfg.FAQ.MaxChars != 30000 {
		t.Fatalf("history/faq defaults unexpected: %d %d", cfg.MaxHistory, cfg.FAQ.MaxChars)
	}
	if cfg.Gemini.ModelName != "gemini-2.5-flash-lite" {
		t.Fatalf("model default = %q", cfg.Gemini.ModelName)
	}
	if cfg.Booking.WebhookURL != "" || cfg.Booking.WebhookTimeout != 10*time.Second {
		t.Fatalf("webhook defaults unexpected: %+v", cfg.Booking)
	}
	if cfg.Booking.CleaningFee != 20 || cfg.Booking.OpenTime != "07:00" || cfg.Booking.CloseTime != "22:00" {
		t.Fatalf("venue defaults unexpected: %+v", cfg.Booking)
	}
	if cfg.Booking.MinMinutes != 30 || cfg.Booking.Cooldown != 5*time.Second {
		t.Fatalf("policy defaults unexpected: %+v", cfg.Booking)
	}
}

// --- Validation failures ---

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad log level", map[string]string{"LOG_LEVEL": "chatty"}, "LOG_LEVEL"},
		{"bad timeout", map[string]string{"READ_TIMEOUT": "-2s"}, "timeouts"},
		{"bad header bytes", map[string]string{"MAX_HEADER_BYTES": "-1"}, "MAX_HEADER_BYTES"},
		{"bad history", map[string]string{"MAX_HISTORY_MESSAGES": "0"}, "MAX_HISTORY_MESSAGES"},
		{"bad faq chars", map[string]string{"MAX_FAQ_CHARS": "0"}, "MAX_FAQ_CHARS"},
		{"bad model", map[string]string{"MODEL_NAME": "   "}, "MODEL_NAME"},
		{"bad webhook timeout", map[string]string{"BOOKING_WEBHOOK_TIMEOUT": "-1s"}, "BOOKING_WEBHOOK_TIMEOUT"},
		{"bad cleaning fee", map[string]string{"CLEANING_FEE": "-5"}, "CLEANING_FEE"},
		{"bad venue open", map[string]string{"VENUE_OPEN": "7am"}, "VENUE_OPEN"},
		{"bad min minutes", map[string]string{"MIN_BOOKING_MINUTES": "0"}, "MIN_BOOKING_MINUTES"},
		{"bad cooldown", map[string]string{"SUBMIT_COOLDOWN": "-1s"}, "SUBMIT_COOLDOWN"},
		{"bad rate", map[string]string{"RATE_RPS": "-1"}, "RATE_RPS"},
		{"bad burst", map[string]string{"RATE_BURST": "0"}, "RATE_BURST"},
		{"bad sampler", map[string]string{"OTEL_TRACES_SAMPLER_ARG": "1.5"}, "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Load() err = %v; want mention of %q", err, tc.want)
			}
		})
	}
}

// --- API key layering ---

func TestResolveAPIKey_SecretsFileWins(t *testing.T) {
	dir := t.TempDir()
	managed := filepath.Join(dir, "managed")
	if err := os.WriteFile(managed, []byte("from-managed\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GEMINI_API_KEY_FILE", managed)
	t.Setenv("GEMINI_API_KEY", "from-env")

	if got := resolveAPIKey(); got != "from-managed" {
		t.Fatalf("resolveAPIKey() = %q; want managed secret", got)
	}
}

func TestResolveAPIKey_EnvFallback(t *testing.T) {
	t.Setenv("GEMINI_API_KEY_FILE", filepath.Join(t.TempDir(), "missing"))
	t.Setenv("GEMINI_API_KEY", "  from-env  ")

	if got := resolveAPIKey(); got != "from-env" {
		t.Fatalf("resolveAPIKey() = %q; want trimmed env value", got)
	}
}

func TestResolveAPIKey_LocalSecretsFileLast(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "gemini_api_key")
	if err := os.WriteFile(local, []byte("from-local"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GEMINI_API_KEY_FILE", filepath.Join(dir, "missing"))
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("SECRETS_FILE", local)

	if got := resolveAPIKey(); got != "from-local" {
		t.Fatalf("resolveAPIKey() = %q; want local secret", got)
	}
}

func TestResolveAPIKey_AllMissing(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GEMINI_API_KEY_FILE", filepath.Join(dir, "nope"))
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("SECRETS_FILE", filepath.Join(dir, "also-nope"))

	if got := resolveAPIKey(); got != "" {
		t.Fatalf("resolveAPIKey() = %q; want empty", got)
	}
}

// --- helpers ---

func TestNormalizeBasePath(t *testing.T) {
	cases := map[string]string{
		"":        "/",
		"/":       "/",
		"api":     "/api",
		"/api/":   "/api",
		" /v1/ ":  "/v1",
		"/api/v1": "/api/v1",
	}
	for in, want := range cases {
		if got := normalizeBasePath(in); got != want {
			t.Errorf("normalizeBasePath(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestValidClock(t *testing.T) {
	for s, want := range map[string]bool{
		"07:00": true, "22:00": true, "7:00": false, "24:00": false, "nope": false,
	} {
		if got := validClock(s); got != want {
			t.Errorf("validClock(%q) = %v; want %v", s, got, want)
		}
	}
}
