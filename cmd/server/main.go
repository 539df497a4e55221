package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/oakline/mailcamp-backend/internal/config"
	"github.com/oakline/mailcamp-backend/internal/db"
	"github.com/oakline/mailcamp-backend/internal/handler"
	"github.com/oakline/mailcamp-backend/internal/mailer"
	"github.com/oakline/mailcamp-backend/internal/metrics"
	"github.com/oakline/mailcamp-backend/internal/queue"
	"github.com/oakline/mailcamp-backend/internal/repository"
	"github.com/oakline/mailcamp-backend/internal/service"
)

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

	conn, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer conn.Close()

	metrics.Init()

	campaignRepo := &repository.CampaignRepository{DB: conn}
	subscriberRepo := &repository.SubscriberRepository{DB: conn}
	sendRecordRepo := &repository.SendRecordRepository{DB: conn}

	var m mailer.Mailer
	switch cfg.MailerDriver {
	case "smtp":
		m = mailer.NewSMTPMailer(
			cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom,
			cfg.SendRateLimit, cfg.RetryAttempts, logger,
		)
	default:
		m = &mailer.LogMailer{Logger: logger}
	}

	campaignService := &service.CampaignService{
		CampaignRepo:   campaignRepo,
		SubscriberRepo: subscriberRepo,
		SendRecordRepo: sendRecordRepo,
		Logger:         logger,
	}
	segmentation := &service.SegmentationEngine{
		SubscriberRepo: subscriberRepo,
		Logger:         logger,
	}
	orchestrator := &service.SendOrchestrator{
		CampaignRepo:   campaignRepo,
		SendRecordRepo: sendRecordRepo,
		Segmentation:   segmentation,
		Mailer:         m,
		Logger:         logger,
	}
	tracker := &service.DeliveryTracker{
		SendRecordRepo: sendRecordRepo,
		Logger:         logger,
	}
	analytics := &service.AnalyticsService{
		CampaignRepo:   campaignRepo,
		SendRecordRepo: sendRecordRepo,
	}

	// Delivery events flow through AMQP when a broker is configured (a
	// separate worker applies them); otherwise an in-process queue with a
	// local subscriber does the same job.
	var events queue.Queue
	if cfg.AMQPURL != "" {
		amqpQueue, err := queue.NewAMQPQueue(cfg.AMQPURL, logger)
		if err != nil {
			logger.Fatal("amqp connection failed", zap.Error(err))
		}
		defer amqpQueue.Close()
		events = amqpQueue
	} else {
		inmem := queue.NewInMemoryQueue(logger)
		if err := queue.StartDeliveryEventSubscriber(inmem, cfg.EventQueue, tracker, logger); err != nil {
			logger.Fatal("failed to start delivery event subscriber", zap.Error(err))
		}
		events = inmem
	}

	campaignHandler := &handler.CampaignHandler{
		Service:      campaignService,
		Orchestrator: orchestrator,
		Analytics:    analytics,
		Logger:       logger,
	}
	eventHandler := &handler.EventHandler{
		Tracker: tracker,
		Events:  events,
		Topic:   cfg.EventQueue,
		Logger:  logger,
	}

	r := chi.NewRouter()

	// Campaign routes
	r.Post("/campaigns", campaignHandler.CreateCampaign)
	r.Get("/campaigns", campaignHandler.ListCampaigns)
	r.Get("/campaigns/{id}", campaignHandler.GetCampaign)
	r.Put("/campaigns/{id}", campaignHandler.UpdateCampaign)
	r.Delete("/campaigns/{id}", campaignHandler.DeleteCampaign)
	r.Post("/campaigns/{id}/schedule", campaignHandler.ScheduleCampaign)
	r.Post("/campaigns/{id}/unschedule", campaignHandler.UnscheduleCampaign)
	r.Post("/campaigns/{id}/cancel", campaignHandler.CancelCampaign)
	r.Post("/campaigns/{id}/pause", campaignHandler.PauseCampaign)
	r.Post("/campaigns/{id}/resume", campaignHandler.ResumeCampaign)
	r.Post("/campaigns/{id}/send", campaignHandler.SendCampaign)
	r.Get("/campaigns/{id}/metrics", campaignHandler.GetMetrics)
	r.Post("/campaigns/{id}/personalized-preview", campaignHandler.PersonalizedPreview)

	// Delivery events (tracking pixel / redirect collaborators)
	r.Post("/events", eventHandler.SubmitEvent)

	go func() {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		logger.Info("metrics server started", zap.String("port", cfg.MetricsPort))
		if err := http.ListenAndServe(":"+cfg.MetricsPort, metricsMux); err != nil {
			logger.Fatal("metrics server error", zap.Error(err))
		}
	}()

	logger.Info("server running", zap.String("port", cfg.APIPort))
	if err := http.ListenAndServe(":"+cfg.APIPort, r); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
