package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/fiestaliquor/storefront/internal/auth"
	"github.com/fiestaliquor/storefront/internal/cache"
	"github.com/fiestaliquor/storefront/internal/config"
	"github.com/fiestaliquor/storefront/internal/handlers"
	"github.com/fiestaliquor/storefront/internal/middleware"
	"github.com/fiestaliquor/storefront/internal/notify"
	"github.com/fiestaliquor/storefront/internal/payment"
	"github.com/fiestaliquor/storefront/internal/promo"
	"github.com/fiestaliquor/storefront/internal/repository"
	"github.com/fiestaliquor/storefront/internal/service"
	"github.com/fiestaliquor/storefront/pkg/logger"
)

func main() {
	// Load .env if present; real deployments set env vars directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	log.Info("starting storefront api server",
		"port", cfg.Server.Port,
		"host", cfg.Server.Host,
		"log_level", cfg.LogLevel,
	)

	// Initialize repositories
	productRepo := repository.NewFileProductRepository(cfg.Data.Dir)
	userRepo := repository.NewFileUserRepository(cfg.Data.Dir)
	orderRepo := repository.NewFileOrderRepository(cfg.Data.Dir)
	promoRepo := repository.NewFilePromoRepository(cfg.Data.Dir)
	settingsRepo := repository.NewFileSettingsRepository(cfg.Data.Dir)

	// Optional Redis-backed cart cache
	var cartCache cache.CartCache
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := client.Ping(context.Background()).Err(); err != nil {
			log.Warn("redis unreachable, cart cache disabled", "addr", cfg.Redis.Addr, "error", err)
		} else {
			cartCache = cache.NewRedisCache(client)
			log.Info("cart cache enabled", "addr", cfg.Redis.Addr)
		}
	}

	// Promo validator with its code prefilter
	promoValidator := promo.NewValidator(promoRepo)
	if err := promoValidator.Reload(context.Background()); err != nil {
		log.Error("failed to load promo codes", "error", err)
		os.Exit(1)
	}

	// Payment gateway
	var gateway payment.Gateway
	if cfg.Stripe.SecretKey != "" {
		gateway = payment.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, cfg.Server.SiteURL, log)
	} else {
		log.Warn("stripe not configured, checkout disabled")
	}

	// Owner SMS notifications
	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.Twilio.AccountSID != "" {
		notifier = notify.NewTwilioNotifier(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.From, cfg.Twilio.OwnerPhone, log)
	}

	tokens := auth.NewTokens(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)

	// Initialize services
	cartService := service.NewCartService(userRepo, cartCache, log)
	orderService := service.NewOrderService(orderRepo, userRepo, productRepo, promoValidator, notifier, log)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(log)
	productHandler := handlers.NewProductHandler(productRepo, log)
	authHandler := handlers.NewAuthHandler(userRepo, cartService, tokens, log)
	cartHandler := handlers.NewCartHandler(cartService, log)
	promoHandler := handlers.NewPromoHandler(promoRepo, promoValidator, log)
	orderHandler := handlers.NewOrderHandler(orderService, log)
	settingsHandler := handlers.NewSettingsHandler(settingsRepo, log)

	// Create router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Register health check endpoint
	r.Get("/health", healthHandler.ServeHTTP)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Public catalog
		r.Get("/products", productHandler.List)
		r.Get("/products/{id}", productHandler.Get)

		// Auth
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		// Authenticated customer surface
		r.Group(func(r chi.Router) {
			r.Use(middleware.BearerAuth(tokens))

			r.Get("/cart", cartHandler.Get)
			r.Post("/cart/sync", cartHandler.Sync)

			r.Post("/promo-codes/validate", promoHandler.Validate)
			r.Post("/promo-codes/redeem", promoHandler.Redeem)

			r.Post("/orders", orderHandler.Create)
			r.Get("/orders/{id}", orderHandler.Get)
			r.Post("/orders/{id}/cancel", orderHandler.Cancel)
			r.Post("/orders/{id}/confirm-received", orderHandler.ConfirmReceived)
			r.With(middleware.RequireAdmin).Put("/orders/{id}/status", orderHandler.UpdateStatus)
		})

		// Admin surface
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.BearerAuth(tokens))
			r.Use(middleware.RequireAdmin)

			r.Get("/orders", orderHandler.List)
			r.Post("/orders/{id}/refund", orderHandler.Refund)

			r.Get("/settings", settingsHandler.Get)
			r.Put("/settings", settingsHandler.Update)

			r.Get("/promo-codes", promoHandler.List)
			r.Post("/promo-codes", promoHandler.Create)
			r.Put("/promo-codes/{id}", promoHandler.Update)
			r.Delete("/promo-codes/{id}", promoHandler.Delete)
		})
	})

	// Payment routes live at the root. The checkout session endpoint is
	// called by the storefront before login is required, and the webhook
	// authenticates with the processor's signature instead of a bearer token.
	if gateway != nil {
		checkoutHandler := handlers.NewCheckoutHandler(gateway, log)
		r.Post("/create-checkout-session", checkoutHandler.Create)

		webhookHandler := handlers.NewWebhookHandler(gateway, orderService, log)
		r.Post("/webhook/stripe", webhookHandler.HandleStripe)
	}

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("server exited gracefully")
}
