// main.go
package main

import (
	"context"
	"log"

	"transport-booking/cmd"
	"transport-booking/internal/data/repository"
	"transport-booking/internal/notification"
	"transport-booking/internal/payment"
	"transport-booking/internal/wire"
	"transport-booking/pkg/broker"
	"transport-booking/pkg/cache"
	"transport-booking/pkg/database"
	"transport-booking/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	ctx := context.Background()

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	if config.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
		logger.Info("Database schema up to date")
	}

	redisClient, err := cache.NewClient(ctx, config.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	emailProducer := broker.NewProducer(config.Kafka.Brokers, config.Kafka.NotificationTopic)
	defer emailProducer.Close()
	eventProducer := broker.NewProducer(config.Kafka.Brokers, config.Kafka.BookingTopic)
	defer eventProducer.Close()

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)
	notifier := notification.NewKafkaNotifier(emailProducer, eventProducer, logger)

	// Wire all dependencies
	app := wire.Wiring(wire.Deps{
		Repo:     repos,
		Tx:       database.NewTxManager(db),
		Provider: payment.NewStripeGateway(config.Payment, logger),
		Notifier: notifier,
		Redis:    redisClient,
	}, config, logger)

	if err := app.Scheduler.StartDefaults(); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}

	// Start server
	err = cmd.APIServer(app.Router, config.App.Port, logger,
		func(ctx context.Context) {
			if err := app.Scheduler.Shutdown(ctx); err != nil {
				logger.Warn("Scheduler did not stop cleanly", zap.Error(err))
			}
		},
		func(context.Context) { notifier.Wait() },
	)
	if err != nil {
		logger.Error("Server stopped", zap.Error(err))
	}
}
