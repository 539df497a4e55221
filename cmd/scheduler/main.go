package main

import (
	"context"
	"errors"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/oakline/mailcamp-backend/internal/config"
	"github.com/oakline/mailcamp-backend/internal/db"
	appErrors "github.com/oakline/mailcamp-backend/internal/errors"
	"github.com/oakline/mailcamp-backend/internal/mailer"
	"github.com/oakline/mailcamp-backend/internal/metrics"
	"github.com/oakline/mailcamp-backend/internal/repository"
	"github.com/oakline/mailcamp-backend/internal/service"
)

// The scheduler polls for campaigns whose scheduled send time has passed
// and pushes each through the orchestrator. The sending transition is the
// same conditional write the server uses, so a concurrent manual send is
// safe: one of the two wins, the other logs and moves on.
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

	orchestrator := &service.SendOrchestrator{
		CampaignRepo:   campaignRepo,
		SendRecordRepo: sendRecordRepo,
		Segmentation: &service.SegmentationEngine{
			SubscriberRepo: subscriberRepo,
			Logger:         logger,
		},
		Mailer: m,
		Logger: logger,
	}

	logger.Info("scheduler running", zap.Duration("interval", cfg.SchedulerInterval))

	ticker := time.NewTicker(cfg.SchedulerInterval)
	defer ticker.Stop()

	for range ticker.C {
		due, err := campaignRepo.ListDueScheduled(time.Now(), cfg.SchedulerBatch)
		if err != nil {
			logger.Error("failed to list due campaigns", zap.Error(err))
			continue
		}

		for _, c := range due {
			result, err := orchestrator.Send(context.Background(), c.ID)
			if err != nil {
				var already *appErrors.ErrAlreadySending
				var noEligible *appErrors.ErrNoEligibleRecipients
				switch {
				case errors.As(err, &already):
					logger.Info("campaign picked up elsewhere", zap.Int("campaign_id", c.ID))
				case errors.As(err, &noEligible):
					// The campaign stays scheduled so the operator can
					// widen the filter; it will be retried next tick.
					logger.Warn("scheduled campaign matched no subscribers", zap.Int("campaign_id", c.ID))
				default:
					logger.Error("scheduled send failed", zap.Int("campaign_id", c.ID), zap.Error(err))
				}
				continue
			}
			logger.Info("scheduled campaign sent",
				zap.Int("campaign_id", c.ID),
				zap.Int("recipients", result.RecipientCount),
				zap.Int("failed", result.Failed),
			)
		}
	}
}
