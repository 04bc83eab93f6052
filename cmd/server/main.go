package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tailorly/tailor-server-go/internal/ai"
	"github.com/tailorly/tailor-server-go/internal/config"
	"github.com/tailorly/tailor-server-go/internal/database"
	"github.com/tailorly/tailor-server-go/internal/handler"
	"github.com/tailorly/tailor-server-go/internal/jobs"
	"github.com/tailorly/tailor-server-go/internal/middleware"
	"github.com/tailorly/tailor-server-go/internal/redis"
	"github.com/tailorly/tailor-server-go/internal/repository"
	"github.com/tailorly/tailor-server-go/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	accountRepo := repository.NewAccountRepository(db.DB)
	usageEventRepo := repository.NewUsageEventRepository(db.DB)
	transactionRepo := repository.NewTransactionRepository(db.DB)
	purchaseOrderRepo := repository.NewPurchaseOrderRepository(db.DB)
	applicationRepo := repository.NewApplicationRepository(db.DB)
	conversationRepo := repository.NewConversationRepository(db.DB)

	aiClient := ai.NewClient(ai.Config{
		BaseURL: cfg.AIBaseURL,
		APIKey:  cfg.AIAPIKey,
		Model:   cfg.AIModel,
		Timeout: cfg.AITimeout(),
	})

	freeTierService := service.NewFreeTierService(accountRepo, config.DefaultFreeTierPolicy())
	ledgerService := service.NewLedgerService(accountRepo, transactionRepo, config.DefaultCostTable(), freeTierService)
	actionLimiter := service.NewActionLimiter(redisClient.Client, config.DefaultRateLimitPolicy(), service.FailOpen)
	windowLimiter := service.NewWindowLimiter(redisClient.Client)
	gateway := service.NewGateway(ledgerService, actionLimiter, usageEventRepo, accountRepo)
	billingService := service.NewBillingService(db, accountRepo, purchaseOrderRepo, transactionRepo, config.DefaultFreeTierPolicy())
	appService := service.NewApplicationService(gateway, aiClient, applicationRepo)
	convService := service.NewConversationService(gateway, aiClient, conversationRepo)

	authMiddleware := middleware.NewAuthMiddleware(accountRepo)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	signatureMiddleware := middleware.NewBillingSignatureMiddleware(cfg.BillingWebhookSecret)
	webhookRateLimit := middleware.NewIPRateLimitMiddleware(
		windowLimiter, config.WebhookRateLimitPerMin, time.Minute, "webhook",
	)

	tailorHandler := handler.NewTailorHandler(appService)
	refineHandler := handler.NewRefineHandler(appService)
	replyHandler := handler.NewReplyHandler(convService)
	creditsHandler := handler.NewCreditsHandler(ledgerService, freeTierService, actionLimiter)
	applicationsHandler := handler.NewApplicationsHandler(appService, convService)
	webhookHandler := handler.NewWebhookHandler(billingService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(authMiddleware.Handler)
		r.Mount("/tailor", tailorHandler.Routes())
		r.Mount("/refine", refineHandler.Routes())
		r.Mount("/reply", replyHandler.Routes())
		r.Mount("/credits", creditsHandler.Routes())
		r.Mount("/", applicationsHandler.Routes())
	})

	r.Route("/webhooks", func(r chi.Router) {
		r.Use(webhookRateLimit.Handler)
		r.Use(signatureMiddleware.Handler)
		r.Post("/billing", webhookHandler.Billing)
	})

	cleanupJob := jobs.NewCleanupJob(usageEventRepo, config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
