package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	rediscache "github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/adapter/cache/redis"
	natsadapter "github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/adapter/nats"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/config"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/handler"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/mailer"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/middleware"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/platform/logger"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/platform/metrics"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/platform/tracer"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/repository"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/router"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/session"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/usecase"
)

const (
	serviceName     = "relief_auth"
	connectTimeout  = 10 * time.Second
	shutdownTimeout = 15 * time.Second
)

type App struct {
	cfg     *config.Config
	log     *zap.Logger
	server  *http.Server
	metrics *metrics.MetricsManager
	closers *closers
}

// New wires every dependency. When a step fails, the resources opened before
// it are closed before the error is returned.
func New(cfg *config.Config) (_ *App, err error) {
	ctx := context.Background()

	appLogger := logger.New(logger.Config{
		Level:      cfg.LogLevel,
		Encoding:   cfg.LogEncoding,
		TimeFormat: cfg.LogTimeFormat,
	})
	appLogger.Info("Logger initialized", zap.Int("port", cfg.Port), zap.String("mailProvider", cfg.MailProvider))

	cleanup := &closers{log: appLogger}
	defer func() {
		if err == nil {
			return
		}
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = cleanup.closeAll(closeCtx)
	}()

	shutdownTracer, err := tracer.InitTracer(ctx, serviceName, cfg.OTLPEndpoint, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	cleanup.add("tracer", shutdownTracer)

	location, err := time.LoadLocation(cfg.DisplayTimezone)
	if err != nil {
		appLogger.Warn("Unknown display timezone, using UTC", zap.String("timezone", cfg.DisplayTimezone), zap.Error(err))
		location = time.UTC
	}

	mm := metrics.NewMetricsManager(serviceName)

	appLogger.Info("Initializing MongoDB client...")
	mongoClient, err := repository.NewMongoDBConnection(cfg.MongoURI, connectTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MongoDB client: %w", err)
	}
	cleanup.add("mongo", mongoClient.Disconnect)
	userRepo := repository.NewUserRepository(mongoClient.Database(cfg.MongoDatabase), appLogger)
	indexCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := userRepo.EnsureIndexes(indexCtx); err != nil {
		return nil, fmt.Errorf("failed to ensure user indexes: %w", err)
	}
	appLogger.Info("MongoDB client initialized successfully", zap.String("database", cfg.MongoDatabase))

	appLogger.Info("Initializing Redis client...")
	redisClient, err := rediscache.NewRedisClient(rediscache.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis client: %w", err)
	}
	cleanup.add("redis", func(context.Context) error { return redisClient.Close() })
	sessionCache := rediscache.NewRedisCache(redisClient, appLogger)

	var events usecase.EventPublisher = usecase.NopPublisher{}
	if cfg.NATSURL != "" {
		publisher, err := natsadapter.NewNATSPublisher(cfg.NATSURL, connectTimeout, appLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize NATS publisher: %w", err)
		}
		cleanup.add("nats", func(context.Context) error {
			publisher.Close()
			return nil
		})
		events = publisher
	} else {
		appLogger.Info("NATS_URL not set, domain events disabled")
	}

	sender, err := newSender(cfg, mm, appLogger)
	if err != nil {
		return nil, err
	}

	sessionManager := session.NewManager(
		session.NewCacheStore(sessionCache, cfg.SessionTTL, appLogger),
		cfg.SessionIdleTimeout,
		mm,
		appLogger,
	)
	sessions := middleware.NewSessions(
		sessionManager,
		session.NewCookieCodec(cfg.SessionSecret, cfg.SessionTTL),
		cfg.SecureCookies,
		appLogger,
	)

	auth := usecase.NewAuthUsecase(userRepo, sender, usecase.CryptoCodes{}, events, usecase.AuthConfig{
		SignupCodeTTL:   cfg.SignupCodeTTL,
		ResetTokenTTL:   cfg.ResetTokenTTL,
		MaxCodeAttempts: cfg.MaxCodeAttempts,
	}, mm, appLogger)
	orchestrator := usecase.NewOrchestrator(auth, sessionManager, appLogger)

	mux := router.New(router.Handlers{
		Auth:    handler.NewAuthHandler(orchestrator, sessions, appLogger),
		Profile: handler.NewProfileHandler(userRepo, sessions, location, appLogger),
		Health: handler.NewHealthHandler(appLogger,
			handler.HealthCheck{Name: "mongo", Pinger: userRepo},
			handler.HealthCheck{Name: "redis", Pinger: sessionCache},
		),
	}, sessions, mm, appLogger, router.Options{AuthRateLimit: cfg.AuthRateLimit})

	return &App{
		cfg: cfg,
		log: appLogger,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		metrics: mm,
		closers: cleanup,
	}, nil
}

func newSender(cfg *config.Config, mm *metrics.MetricsManager, log *zap.Logger) (mailer.Sender, error) {
	if cfg.MailProvider == "mailersend" {
		log.Info("Using MailerSend API for outbound email")
		return mailer.NewMailerSendService(cfg.MailerSendAPIKey, cfg.EmailAddress, cfg.EmailSenderName, mm, log), nil
	}
	sender, err := mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:         cfg.SMTPHost,
		SSLPort:      cfg.SMTPSSLPort,
		StartTLSPort: cfg.SMTPStartTLSPort,
		Username:     cfg.EmailAddress,
		Password:     cfg.EmailPassword,
		SenderEmail:  cfg.EmailAddress,
		SenderName:   cfg.EmailSenderName,
	}, mm, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SMTP mailer: %w", err)
	}
	return sender, nil
}

// Run serves HTTP and metrics until SIGINT or SIGTERM, then shuts everything
// down in reverse order of construction.
func (a *App) Run() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := metrics.StartMetricsServer(ctx, a.cfg.MetricsPort, a.log, a.metrics.Registry); err != nil {
			a.log.Error("Metrics server failed", zap.Error(err))
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		a.log.Info("Starting HTTP server", zap.String("address", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("Received shutdown signal, shutting down application...")
	case err := <-serverErr:
		a.log.Error("HTTP server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.log.Error("Error during HTTP server graceful shutdown", zap.Error(err))
	} else {
		a.log.Info("HTTP server stopped successfully")
	}

	if err := a.closers.closeAll(shutdownCtx); err != nil {
		a.log.Error("Some resources failed to close", zap.Error(err))
	}

	a.log.Info("Application shut down successfully")
	_ = a.log.Sync()
	if ctx.Err() == nil {
		os.Exit(1)
	}
}
