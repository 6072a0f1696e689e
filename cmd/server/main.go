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

	"github.com/anonto42/nano-midea/notifier/internal/events"
	"github.com/anonto42/nano-midea/notifier/internal/metrics"
	"github.com/anonto42/nano-midea/notifier/internal/push"
	"github.com/anonto42/nano-midea/notifier/internal/repositories"
	"github.com/anonto42/nano-midea/notifier/internal/router"
	"github.com/anonto42/nano-midea/notifier/internal/services"
	"github.com/anonto42/nano-midea/notifier/internal/validators"
	"github.com/anonto42/nano-midea/notifier/pkg/config"
	"github.com/anonto42/nano-midea/notifier/pkg/firebase"
	"github.com/anonto42/nano-midea/notifier/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	sugar, err := logger.New(cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer sugar.Sync()

	if err := cfg.Validate(); err != nil {
		sugar.Fatalw("Invalid configuration", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Firebase
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, cfg.FirebaseProjectID)
	if err != nil {
		sugar.Fatalw("Failed to initialize Firebase", "error", err)
	}
	sugar.Info("Firebase app initialized successfully!")

	// Initialize the selected store
	db, err := config.InitDB(ctx, cfg, sugar)
	if err != nil {
		sugar.Fatalw("Failed to initialize databases", "error", err)
	}
	defer db.CloseDB()

	stores, closeStores, err := openStores(ctx, cfg, db, firebaseApp, sugar)
	if err != nil {
		sugar.Fatalw("Failed to open stores", "error", err)
	}
	defer closeStores()

	strategy, err := services.ParsePublishStrategy(cfg.PublishStrategy)
	if err != nil {
		sugar.Fatalw("Invalid PUBLISH_STRATEGY", "error", err)
	}

	opts := []services.Option{
		services.WithLogger(sugar),
		services.WithPublishStrategy(strategy),
		services.WithIdempotentWrites(cfg.IdempotentWrites),
		services.WithReporter(services.MultiReporter{
			services.NewLogReporter(sugar),
			metrics.NewReporter(prometheus.DefaultRegisterer),
		}),
	}
	if cfg.PushEnabled {
		opts = append(opts, services.WithPusher(push.NewFCMPusher(firebaseApp.MessagingClient, stores.Users, sugar)))
	}
	notifier := services.NewNotificationService(stores.Users, stores.Follows, stores.Notifications, opts...)

	// Kafka intake is optional
	consumerDone := make(chan struct{})
	if len(cfg.KafkaBrokers) > 0 {
		consumer := events.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID,
			events.NewDispatcher(notifier, validators.New()), sugar)
		go func() {
			defer close(consumerDone)
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				sugar.Errorw("Kafka consumer stopped", "error", err)
			}
			if err := consumer.Close(); err != nil {
				sugar.Warnw("Error closing Kafka consumer", "error", err)
			}
		}()
		sugar.Infow("Kafka consumer started", "topic", cfg.KafkaTopic)
	} else {
		close(consumerDone)
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()

	router.SetupMiddleware(e, sugar)
	eventHandler := router.SetupRoutes(e, router.Dependencies{
		Notifier:        notifier,
		Notifications:   stores.Notifications,
		TokenVerifier:   firebaseApp.AuthClient,
		EventsJWTSecret: []byte(cfg.EventsJWTSecret),
		Logger:          sugar,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("HTTP server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("HTTP shutdown failed", "error", err)
	}
	if err := eventHandler.Wait(shutdownCtx); err != nil {
		sugar.Errorw("Pending events were not finished", "error", err)
	}
	select {
	case <-consumerDone:
	case <-shutdownCtx.Done():
		sugar.Error("Kafka consumer did not stop in time")
	}
	sugar.Info("Server stopped")
}

func openStores(ctx context.Context, cfg *config.Config, db *config.DB, app *firebase.App, sugar *zap.SugaredLogger) (*repositories.Stores, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		if err := repositories.MigratePostgres(db.Postgres); err != nil {
			return nil, nil, err
		}
		return repositories.NewPostgresStores(db.Postgres), func() {}, nil
	case config.BackendMongo:
		return repositories.NewMongoStores(db.Mongo, cfg.MongoDatabase), func() {}, nil
	default:
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, nil, err
		}
		return repositories.NewFirestoreStores(client), func() {
			if err := client.Close(); err != nil {
				sugar.Warnw("Error closing Firestore client", "error", err)
			}
		}, nil
	}
}
