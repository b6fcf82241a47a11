package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kvgportal/docs"
	"kvgportal/internal/auth"
	"kvgportal/internal/cache"
	"kvgportal/internal/config"
	"kvgportal/internal/database"
	"kvgportal/internal/database/migration"
	handlers "kvgportal/internal/http/handler"
	"kvgportal/internal/http/middleware"
	"kvgportal/internal/logger"
	"kvgportal/internal/otel"
	"kvgportal/internal/pricing"
	"kvgportal/internal/repository/postgres"
	"kvgportal/internal/service"
	"kvgportal/internal/signature"
	"kvgportal/internal/storage"
)

// @title kvgportal API
// @version 1.0
// @description Premium comparison and onboarding for Swiss basic health insurance.
// @BasePath /
func main() {
	createAdmin := flag.String("create-admin", "", "create a dashboard user as email:password and exit")
	flag.Parse()

	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := cfg.Location()
	log := logger.SetupDefault(os.Stdout, cfg.LogLevel, loc)

	if err := run(cfg, log, *createAdmin); err != nil {
		log.Error("fatal", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, log *slog.Logger, createAdmin string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	// PostgreSQL with pooling via database/sql
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	tokens, err := auth.NewTokens(cfg.Auth.JWTSecret)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	authSvc := service.NewAuthService(postgres.NewAdminPostgres(db), tokens,
		cfg.Auth.AdminTokenTTL, cfg.Auth.ApplicantTokenTTL, log)

	if createAdmin != "" {
		email, password, ok := strings.Cut(createAdmin, ":")
		if !ok {
			return errors.New("-create-admin expects email:password")
		}
		admin, err := authSvc.CreateAdmin(ctx, email, password)
		if err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		log.Info("admin_created", slog.String("admin_id", admin.ID), slog.String("email", admin.Email))
		return nil
	}

	// S3-compatible object storage (MinIO)
	objStore, err := storage.NewMinIO(ctx, cfg.MinIO)
	if err != nil {
		return fmt.Errorf("init object storage: %w", err)
	}

	pingers := []handlers.Pinger{objStore}

	// Redis is optional: quotes go uncached and analytics sessions are not tracked without it.
	var (
		quoteCache service.QuoteCache
		sessions   service.SessionTracker
	)
	redisCache, err := cache.New(ctx, cfg.Redis)
	if err != nil {
		log.Warn("redis_unavailable", slog.String("error", err.Error()))
	} else {
		defer redisCache.Close()
		quoteCache, sessions = redisCache, redisCache
		pingers = append(pingers, redisCache)
	}

	pricingClient, err := pricing.NewClient(cfg.Pricing, log)
	if err != nil {
		return fmt.Errorf("init pricing client: %w", err)
	}
	signatureClient, err := signature.NewClient(cfg.Signature, log)
	if err != nil {
		return fmt.Errorf("init signature client: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := service.NewMetrics(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return fmt.Errorf("register http metrics: %w", err)
	}

	// Repositories and services
	applicantRepo := postgres.NewApplicantPostgres(db)
	docRepo := postgres.NewDocumentPostgres(db)

	docSvc := service.NewDocumentService(objStore, docRepo, applicantRepo, metrics, log)
	deps := handlers.Deps{
		DB:                  db,
		Pingers:             pingers,
		Tokens:              tokens,
		Cookies:             handlers.CookieOptions{Secure: cfg.Auth.CookieSecure, Domain: cfg.Auth.CookieDomain},
		Location:            cfg.Location(),
		MaxUploadBytes:      cfg.Upload.MaxBytes,
		AnalyticsSessionTTL: cfg.Analytics.SessionTTL,
		LoginLimiter:        middleware.NewRateLimiter(cfg.Auth.LoginRatePerMin, cfg.Auth.LoginBurst, 5*time.Minute),

		Applicants: service.NewApplicantService(applicantRepo, docRepo, objStore, log),
		Documents:  docSvc,
		Quotes:     service.NewQuoteService(pricingClient, quoteCache, cfg.Pricing.CacheTTL, metrics, log),
		Signatures: service.NewSignatureService(applicantRepo, postgres.NewSignaturePostgres(db), docSvc, objStore,
			signatureClient, cfg.Signature.WebhookSecret, cfg.Signature.CallbackURL, log),
		Analytics: service.NewAnalyticsService(postgres.NewPageViewPostgres(db), sessions, cfg.Analytics.SessionTTL, metrics, log),
		Auth:      authSvc,
	}
	defer deps.LoginLimiter.Stop()

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		// Data URLs are base64, a third larger than the file they carry.
		BodyLimit:             int(cfg.Upload.MaxBytes*4/3) + 64<<10,
		DisableStartupMessage: cfg.IsProduction(),
	})

	// Register global middleware
	app.Use(recover.New())
	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == "/metrics" || c.Path() == "/healthz"
	})))
	if len(cfg.CORSOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     strings.Join(cfg.CORSOrigins, ","),
			AllowCredentials: true,
			AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		}))
	}
	// RequestID adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(middleware.LoggerWithWriter(os.Stdout, cfg.Location()))
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	handlers.RegisterRoutes(app, deps)

	if !cfg.IsProduction() {
		// Swagger UI with dynamic host and scheme
		app.Get("/swagger/*", func(c *fiber.Ctx) error {
			scheme := c.Protocol()
			if proto := c.Get("X-Forwarded-Proto"); proto != "" {
				scheme = strings.Split(proto, ",")[0]
			}

			docs.SwaggerInfo.Host = c.Get("Host")
			docs.SwaggerInfo.Schemes = []string{scheme}

			return swagger.HandlerDefault(c)
		})
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(":" + cfg.Port)
	}()
	log.Info("server_started", slog.String("addr", ":"+cfg.Port), slog.String("env", cfg.Env))

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info("server_stopping")
	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return app.ShutdownWithContext(sctx)
}
