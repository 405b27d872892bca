// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, compression, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/averko/go-room-assistant/internal/config"
	"github.com/averko/go-room-assistant/internal/faq"
	"github.com/averko/go-room-assistant/internal/http/handlers"
	"github.com/averko/go-room-assistant/internal/http/middleware"
	"github.com/averko/go-room-assistant/internal/repo"
	"github.com/averko/go-room-assistant/internal/sequence"
	"github.com/averko/go-room-assistant/internal/services"
	"github.com/averko/go-room-assistant/internal/webhook"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), rate limiting, CORS
// and security headers, health and metrics endpoints, and then mounts the
// public API under the configured base path.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Compression (SSE chat stream excluded; compression would buffer it)
//  8. Rate limiter (per session/IP)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, streamer services.Streamer, faqLoader *faq.Loader, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Response compression. The chat endpoint is excluded: its SSE stream
	//    must reach the client fragment by fragment, not via a gzip buffer.
	apiBase := cfg.APIBasePath
	chatPath := apiBase + "/chat/messages"
	if apiBase == "/" || apiBase == "" {
		chatPath = "/chat/messages"
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{chatPath})))

	// 8) Token-bucket rate limiter per session/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyBySessionOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Session-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Session-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (optional)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← db/streamer/webhook
	chatSvc := services.NewChatService(db, streamer)
	if cfg.MaxHistory > 0 {
		chatSvc.MaxHistory = cfg.MaxHistory
	}
	if cfg.MaxPromptRunes > 0 {
		chatSvc.MaxPromptRunes = cfg.MaxPromptRunes
	}

	hook := webhook.New(cfg.Booking.WebhookURL, cfg.Booking.WebhookTimeout)
	seq := sequence.New()
	// A file-backed store may hold bookings from the previous run; resume the
	// sequencer past them so restarts don't re-issue taken ids.
	if last, err := repo.LastSubmissionID(db); err == nil && last != "" {
		seq.Resume(last)
	}
	bookingSvc := services.NewBookingService(db, seq, hook)
	if cfg.Booking.OpenTime != "" {
		bookingSvc.OpenTime = cfg.Booking.OpenTime
	}
	if cfg.Booking.CloseTime != "" {
		bookingSvc.CloseTime = cfg.Booking.CloseTime
	}
	if cfg.Booking.MinMinutes > 0 {
		bookingSvc.MinMinutes = cfg.Booking.MinMinutes
	}
	if cfg.Booking.CleaningFee > 0 {
		bookingSvc.CleaningFee = cfg.Booking.CleaningFee
	}
	if cfg.Booking.Cooldown > 0 {
		bookingSvc.Cooldown = cfg.Booking.Cooldown
	}

	h := handlers.New(chatSvc, bookingSvc, faqLoader)

	// Public API
	api := groupWithPrefix(r, apiBase)
	{
		// Chat
		api.POST("/chat/messages", h.PostMessage)
		api.GET("/chat/messages", h.ListMessages)

		// Bookings
		api.POST("/bookings", h.PostBooking)
		api.GET("/bookings", h.ListBookings)

		// FAQ status
		api.GET("/faq", h.GetFAQ)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
