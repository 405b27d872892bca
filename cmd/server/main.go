// Command server starts the community room assistant API.
//
// The service answers questions grounded in a local FAQ PDF through a
// streaming Gemini chat endpoint and accepts room-booking requests that are
// validated, stored for the session, and forwarded to an optional webhook.
//
// Startup order:
//  1. .env + environment configuration
//  2. structured logging (zerolog)
//  3. OpenTelemetry tracing (optional)
//  4. SQLite store (in-memory by default) + migrations
//  5. FAQ extraction and system prompt assembly
//  6. Gemini client, HTTP router, graceful shutdown
//
// @title           Community Room Assistant API
// @version         1.0
// @description     FAQ-grounded chat and room-booking backend.
// @BasePath        /api/v1
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/averko/go-room-assistant/internal/config"
	"github.com/averko/go-room-assistant/internal/faq"
	httpapi "github.com/averko/go-room-assistant/internal/http"
	"github.com/averko/go-room-assistant/internal/llm"
	"github.com/averko/go-room-assistant/internal/observability"
	"github.com/averko/go-room-assistant/internal/prompt"
	"github.com/averko/go-room-assistant/internal/repo"
	"github.com/averko/go-room-assistant/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// Local development convenience; absence of .env is fine.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(c); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	// Load grounding material once at startup; the loader keeps re-checking
	// the content hash so a swapped file is picked up without a restart.
	loader := &faq.Loader{Path: cfg.FAQ.PDFPath, MaxChars: cfg.FAQ.MaxChars}
	grounding, err := loader.Load()
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.FAQ.PDFPath).Msg("faq extraction failed; answering without grounding")
	}
	if grounding.Truncated {
		log.Warn().Int("chars", grounding.Chars()).Msg("faq content is long; truncated for prompt size")
	}

	system := prompt.Build(prompt.LoadBase(cfg.FAQ.PromptPath), grounding.Text)

	if cfg.Gemini.APIKey == "" {
		log.Warn().Msg("no gemini api key configured; chat will answer with a configuration notice")
	}
	client := llm.NewClient(cfg.Gemini.APIKey, cfg.Gemini.ModelName, system)
	defer func() { _ = client.Close() }()

	gin.SetMode(cfg.GinMode)
	router := gin.New()
	httpapi.RegisterRoutes(router, db, client, loader, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("model", cfg.Gemini.ModelName).
			Bool("faq_loaded", grounding.Available()).
			Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}
