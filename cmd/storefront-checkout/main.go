package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/handlers"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/cache"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/config"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/credentials"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/events"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/health"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/metrics"
	repository "github.com/aaravmahajanofficial/storefront-checkout/internal/repositories"
	service "github.com/aaravmahajanofficial/storefront-checkout/internal/services"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/session"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/telemetry"
	"github.com/aaravmahajanofficial/storefront-checkout/pkg/sendGrid"
	"github.com/aaravmahajanofficial/storefront-checkout/pkg/stripe"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {

	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load config
	cfg := config.MustLoad()

	ctx := context.Background()

	// Tracing setup
	shutdownTracing, err := telemetry.Setup(ctx, cfg.Otel, cfg.Env)
	if err != nil {
		slog.Error("❌ Error setting up tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Database setup
	db, repos, err := repository.New(ctx, cfg)
	if err != nil {
		slog.Error("❌ Error accessing the database", "error", err.Error())
		os.Exit(1)
	}

	if err := db.RunMigrations(); err != nil {
		slog.Error("❌ Error applying database migrations", "error", err.Error())
		os.Exit(1)
	}

	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("⚠️ Error closing database connection", slog.String("error", err.Error()))
		} else {
			slog.Info("✅ Database connection closed")
		}
	}()

	// Redis setup
	redisClient, err := repository.NewRedisClient(cfg)
	if err != nil {
		slog.Error("❌ Error accessing the redis instance", "error", err.Error())
		os.Exit(1)
	}

	defer func() {
		if err := redisClient.Close(); err != nil {
			slog.Error("⚠️ Error closing redis connection", slog.String("error", err.Error()))
		}
	}()

	redisCache := cache.NewRedisCache(redisClient, &cfg.Cache)
	sessionBackend := session.NewRedisBackend(redisCache, cfg.Session.TTL)
	rateLimiter := repository.NewRateLimitRepo(redisClient, cfg.RateLimit)

	// keys in the database win, the environment is the fallback
	gatewayCredentials := credentials.NewChain(
		credentials.NewDatabaseBackend(repos.Credentials),
		credentials.NewStaticBackend(cfg.Stripe.APIKey, cfg.Stripe.PublishableKey, cfg.Stripe.WebhookSecret),
	)

	stripeClient := stripe.NewStripeClient(gatewayCredentials, stripe.Options{
		RequestTimeout:     cfg.Stripe.RequestTimeout,
		BreakerMaxFailures: cfg.Stripe.BreakerMaxFailures,
		BreakerOpenTimeout: cfg.Stripe.BreakerOpenTimeout,
	})
	sendGridClient := sendGrid.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)

	publisher := events.NewNoopPublisher()
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}

	defer func() {
		if err := publisher.Close(); err != nil {
			slog.Error("⚠️ Error closing event publisher", slog.String("error", err.Error()))
		}
	}()

	productService := service.NewProductService(repos.Product, redisCache)
	productHandler := handlers.NewProductHandler(productService)
	cartService := service.NewCartService(repos.Cart, repos.Product)
	cartHandler := handlers.NewCartHandler(cartService)
	notificationService := service.NewNotificationService(repos.Notification, sendGridClient)
	checkoutService := service.NewCheckoutService(service.CheckoutDeps{
		Carts:       repos.Cart,
		Orders:      repos.Order,
		Gateway:     stripeClient,
		Credentials: gatewayCredentials,
		Notifier:    notificationService,
		Publisher:   publisher,
		Currency:    cfg.Stripe.Currency,
	})
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService, rateLimiter)
	paymentService := service.NewPaymentService(repos.Order, stripeClient)
	paymentHandler := handlers.NewPaymentHandler(paymentService)

	sessionMiddleware := middleware.NewSessionMiddleware(sessionBackend, cfg.Session)
	authMiddleware := middleware.NewAuthMiddleware([]byte(cfg.Security.JWTKey))

	healthHandler, err := health.NewHealthHandler(cfg, &health.Endpoints{
		StripeClient: stripeClient,
		KafkaBrokers: cfg.Kafka.Brokers,
	})
	if err != nil {
		slog.Error("❌ Error creating health checks", "error", err.Error())
		os.Exit(1)
	}

	slog.Info("storage initialized", slog.String("env", cfg.Env), slog.String("version", "1.0.0"))

	// shop routes carry a session and an optional signed-in user
	shop := func(h http.HandlerFunc) http.Handler {
		return sessionMiddleware.Handle(authMiddleware.Identify(h))
	}

	// Setup router
	routerMux := http.NewServeMux()
	routerMux.Handle("GET /api/v1/products", shop(productHandler.ListProducts()))
	routerMux.Handle("GET /api/v1/products/{id}", shop(productHandler.GetProduct()))
	routerMux.Handle("GET /api/v1/cart", shop(cartHandler.GetCart()))
	routerMux.Handle("POST /api/v1/cart/items", shop(cartHandler.AddItem()))
	routerMux.Handle("PUT /api/v1/cart/items/{productId}", shop(cartHandler.UpdateQuantity()))
	routerMux.Handle("DELETE /api/v1/cart/items/{productId}", shop(cartHandler.RemoveItem()))
	routerMux.Handle("GET /api/v1/checkout", shop(checkoutHandler.Page()))
	routerMux.Handle("POST /api/v1/checkout", shop(checkoutHandler.Submit()))
	routerMux.Handle("GET /api/v1/checkout/confirmation", shop(checkoutHandler.Confirmation()))
	routerMux.HandleFunc("POST /api/v1/payments/webhook", paymentHandler.HandleStripeWebhook())
	routerMux.Handle("GET /health", healthHandler.Handler())
	routerMux.Handle("GET /metrics", metrics.Handler())

	// Middleware chaining
	var handler http.Handler = routerMux
	handler = middleware.Logging(handler)
	handler = metrics.Middleware(handler)
	handler = otelhttp.NewHandler(handler, "storefront-checkout")

	// Setup http server
	server := http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("🚀 Server is starting...", slog.String("address", cfg.Addr))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("❌ Failed to start server", slog.Any("error", err.Error()))
		}
	}()

	<-done

	slog.Warn("🛑 Shutdown signal received. Preparing to stop the server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("⚠️ Server shutdown encountered an issue", slog.String("error", err.Error()))
	} else {
		slog.Info("✅ Server shut down gracefully. All connections closed.")
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("⚠️ Error flushing traces", slog.String("error", err.Error()))
	}

}
