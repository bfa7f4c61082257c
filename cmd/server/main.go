package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/textbooksaver/textbooksaver/internal"
	"github.com/textbooksaver/textbooksaver/internal/billing"
	"github.com/textbooksaver/textbooksaver/internal/handler"
	"github.com/textbooksaver/textbooksaver/internal/marketplace"
	"github.com/textbooksaver/textbooksaver/internal/metrics"
	"github.com/textbooksaver/textbooksaver/internal/middleware"
	"github.com/textbooksaver/textbooksaver/internal/repository"
	"github.com/textbooksaver/textbooksaver/internal/service"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	// Initialize repository
	repo := repository.New(db)

	// Initialize services
	userService := service.NewUserService(repo, logger)
	quotaService := service.NewQuotaService(repo, logger)

	// Marketplace clients and aggregator
	aggregator := marketplace.NewAggregator(
		[]marketplace.Client{
			marketplace.NewEbayClient(cfg.EbayAppID, logger),
			marketplace.NewAmazonClient(cfg.AmazonAssociateTag),
		},
		metrics.MarketplaceRecorder{},
		logger,
	)
	if cfg.EbayAppID == "" {
		logger.Warn("EBAY_APP_ID not set; eBay searches will return no offers")
	}

	searchService := service.NewSearchService(aggregator, quotaService, repo, logger)

	// Billing (optional)
	var billingService billing.Service
	if cfg.StripeSecretKey != "" {
		billingService = billing.NewStripeService(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.StripePriceID)
		logger.Info("Stripe billing enabled")
	} else {
		logger.Warn("Stripe billing not configured; premium upgrades unavailable")
	}

	// Clear out stale sessions from previous runs
	if err := userService.DeleteExpiredSessions(ctx); err != nil {
		logger.Warn("failed to clean expired sessions", "error", err)
	}

	// Initialize middleware
	isSecure := cfg.Env != "development"
	authMw := middleware.NewAuthMiddleware(userService, logger, isSecure)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	securityMw := middleware.NewSecurityHeadersMiddleware(isSecure)
	metricsAuthMw := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(userService, logger, isSecure)
	searchHandler := handler.NewSearchHandler(searchService, logger)
	billingHandler := handler.NewBillingHandler(billingService, userService, logger, cfg.BaseURL)
	webhookHandler := handler.NewWebhookHandler(billingService, userService, logger)
	siteHandler := handler.NewSiteHandler(quotaService, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	public := middleware.Stack(securityMw.Handler, metrics.Middleware, loggingMw.Handler, authMw.WithUser)
	requireUser := middleware.Stack(securityMw.Handler, metrics.Middleware, loggingMw.Handler, authMw.WithUser, authMw.RequireUser)

	// Health check (no middleware beyond security headers)
	mux.Handle("GET /health", securityMw.Handler(http.HandlerFunc(siteHandler.Health)))

	// Public routes
	mux.Handle("GET /{$}", public(http.HandlerFunc(siteHandler.Home)))
	mux.Handle("POST /signup", public(http.HandlerFunc(authHandler.Signup)))
	mux.Handle("POST /login", public(http.HandlerFunc(authHandler.Login)))
	mux.Handle("POST /logout", public(http.HandlerFunc(authHandler.Logout)))

	// Authenticated routes
	mux.Handle("GET /dashboard", requireUser(http.HandlerFunc(siteHandler.Dashboard)))
	mux.Handle("POST /search", requireUser(http.HandlerFunc(searchHandler.Search)))
	mux.Handle("POST /create-checkout-session", requireUser(http.HandlerFunc(billingHandler.CreateCheckoutSession)))
	mux.Handle("GET /payment-success", requireUser(http.HandlerFunc(billingHandler.PaymentSuccess)))

	// Stripe webhook (verified by signature, not by session)
	mux.Handle("POST /webhook", http.HandlerFunc(webhookHandler.HandleWebhook))

	// Prometheus metrics (basic auth when configured)
	mux.Handle("GET /metrics", metricsAuthMw.Handler(promhttp.Handler()))

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
