package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/01moynul/mealdrop-golang/internal/ai"
	"github.com/01moynul/mealdrop-golang/internal/auth"
	"github.com/01moynul/mealdrop-golang/internal/cache"
	"github.com/01moynul/mealdrop-golang/internal/cart"
	"github.com/01moynul/mealdrop-golang/internal/catalog"
	"github.com/01moynul/mealdrop-golang/internal/config"
	"github.com/01moynul/mealdrop-golang/internal/database"
	"github.com/01moynul/mealdrop-golang/internal/email"
	"github.com/01moynul/mealdrop-golang/internal/events"
	"github.com/01moynul/mealdrop-golang/internal/handlers"
	"github.com/01moynul/mealdrop-golang/internal/logger"
	"github.com/01moynul/mealdrop-golang/internal/notify"
	"github.com/01moynul/mealdrop-golang/internal/orders"
	"github.com/01moynul/mealdrop-golang/internal/payment"
	"github.com/01moynul/mealdrop-golang/internal/routes"
	"github.com/01moynul/mealdrop-golang/internal/store"
)

const catalogCacheTTL = 5 * time.Minute

func main() {
	// 0. --- Load Configuration (.env + environment) ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. --- Main Database Connection ---
	db, err := database.OpenDB(ctx, cfg.DSN, logg)
	if err != nil {
		logg.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		logg.Fatal("failed to apply schema", zap.Error(err))
	}
	st := store.NewMySQL(db)

	// 2. --- Optional Integrations ---
	// Each one is skipped when its setting is empty.
	var mealCache catalog.Cache
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			logg.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		mealCache = cache.New(rdb, catalogCacheTTL)
	} else {
		logg.Info("REDIS_ADDR not set, catalog cache disabled")
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := events.NewKafkaPublisher(cfg.KafkaBrokers, logg)
		if err != nil {
			logg.Fatal("failed to connect to kafka", zap.Error(err))
		}
		publisher = kafka
	} else {
		logg.Info("KAFKA_BROKERS not set, order events disabled")
	}
	defer publisher.Close()

	var gateway payment.Gateway = payment.Disabled{}
	if cfg.StripeSecretKey != "" {
		gateway = payment.NewStripe(cfg.StripeSecretKey, nil)
	} else {
		logg.Info("STRIPE_SECRET_KEY not set, card payments disabled")
	}

	// --- Services ---
	catalogSvc := catalog.NewService(st, mealCache, logg)
	carts := cart.NewService(st, cfg.TaxRate, logg)
	dispatcher := notify.NewDispatcher(st, email.LogSender{Log: logg}, publisher, logg)
	orderSvc := orders.NewService(st, carts, gateway, dispatcher, catalogSvc, orders.Config{
		Currency:       cfg.Currency,
		PaymentTimeout: cfg.PaymentTimeout,
		DeliveryETA:    cfg.DeliveryETA,
		PickupETA:      cfg.PickupETA,
	}, logg)

	// 3. --- AI Service Initialization ---
	var assistant *ai.Assistant
	if cfg.GeminiAPIKey != "" {
		gemini, err := ai.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logg.Fatal("failed to initialize gemini", zap.Error(err))
		}
		defer gemini.Close()
		assistant = ai.NewAssistant(gemini, catalogSvc, st, logg)
	} else {
		logg.Info("GEMINI_API_KEY not set, assistant disabled")
	}

	// --- Application Setup ---
	app := &handlers.Handlers{
		Store:     st,
		Tokens:    auth.NewManager(cfg.JWTSecret),
		Catalog:   catalogSvc,
		Carts:     carts,
		Orders:    orderSvc,
		Payments:  gateway,
		Assistant: assistant,
		Log:       logg,
	}
	router := routes.SetupRouter(app, cfg.CORSOrigins)

	// --- Start Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logg.Info("starting MealDrop API server", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("graceful shutdown failed", zap.Error(err))
	}
	// Let in-flight notifications and events finish before the producer closes.
	dispatcher.Wait()
}
