package main

import (
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/oakline/mailcamp-backend/internal/config"
	"github.com/oakline/mailcamp-backend/internal/db"
	"github.com/oakline/mailcamp-backend/internal/metrics"
	"github.com/oakline/mailcamp-backend/internal/queue"
	"github.com/oakline/mailcamp-backend/internal/repository"
	"github.com/oakline/mailcamp-backend/internal/service"
)

// The worker drains the delivery event queue and applies each event to the
// tracker. Events arrive out of order relative to each other and to the
// send step; the tracker tolerates both.
func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, relying on OS environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	if cfg.AMQPURL == "" {
		logger.Fatal("AMQP_URL is required for the worker")
	}

	conn, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer conn.Close()

	metrics.Init()

	tracker := &service.DeliveryTracker{
		SendRecordRepo: &repository.SendRecordRepository{DB: conn},
		Logger:         logger,
	}

	amqpQueue, err := queue.NewAMQPQueue(cfg.AMQPURL, logger)
	if err != nil {
		logger.Fatal("amqp connection failed", zap.Error(err))
	}
	defer amqpQueue.Close()

	if err := queue.StartDeliveryEventSubscriber(amqpQueue, cfg.EventQueue, tracker, logger); err != nil {
		logger.Fatal("failed to start delivery event subscriber", zap.Error(err))
	}

	logger.Info("worker running, waiting for delivery events",
		zap.String("queue", cfg.EventQueue),
	)
	select {}
}
