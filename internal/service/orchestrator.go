package service

import (
	"context"

	"github.com/samber/lo"
	"go.uber.org/zap"

	appErrors "github.com/oakline/mailcamp-backend/internal/errors"
	"github.com/oakline/mailcamp-backend/internal/mailer"
	"github.com/oakline/mailcamp-backend/internal/metrics"
	"github.com/oakline/mailcamp-backend/internal/model"
	"github.com/oakline/mailcamp-backend/internal/repository"
)

// SendOrchestrator drives a campaign from draft (or scheduled) to sent:
// resolve the recipient set once, win the sending transition, write the
// per-recipient ledger, hand the batch to the mailer, and finish.
type SendOrchestrator struct {
	CampaignRepo   repository.CampaignRepositoryInterface
	SendRecordRepo repository.SendRecordRepositoryInterface
	Segmentation   *SegmentationEngine
	Mailer         mailer.Mailer
	Logger         *zap.Logger
}

// SendResult summarizes a completed send. Failed recipients are also
// visible on their send records.
type SendResult struct {
	CampaignID     int `json:"campaign_id"`
	RecipientCount int `json:"recipient_count"`
	Delivered      int `json:"delivered"`
	Failed         int `json:"failed"`
}

// Send runs the campaign send pipeline. Before the sending transition is
// won nothing is mutated, so validation and segmentation failures leave the
// campaign exactly as it was. Exactly one of two concurrent callers wins
// the transition; the loser gets ErrAlreadySending and touches no
// recipient. Per-recipient mailer failures are recorded on the send records
// and the campaign still completes; only a batch where every delivery
// failed is additionally reported as ErrPartialDelivery.
func (o *SendOrchestrator) Send(ctx context.Context, campaignID int) (*SendResult, error) {
	campaign, err := o.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}

	switch campaign.Status {
	case model.StatusDraft, model.StatusScheduled:
	case model.StatusSending:
		return nil, appErrors.NewAlreadySending(campaignID)
	default:
		return nil, appErrors.NewInvalidStateTransition(campaignID, campaign.Status, "send")
	}

	recipients, err := o.Segmentation.ResolveRecipients(campaignID, campaign.Filter)
	if err != nil {
		return nil, err
	}

	ok, err := o.CampaignRepo.BeginSending(campaignID, len(recipients))
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the conditional write: another caller moved the campaign
		// out of draft/scheduled between our read and this update.
		return nil, appErrors.NewAlreadySending(campaignID)
	}

	exists, err := o.SendRecordRepo.ExistsForCampaign(campaignID)
	if err != nil {
		o.Logger.Error("failed to check for existing send records",
			zap.Int("campaign_id", campaignID),
			zap.Error(err),
		)
	} else if exists {
		o.Logger.Warn("send records already exist, resuming an interrupted send",
			zap.Int("campaign_id", campaignID),
		)
	}

	// Idempotent ledger write. On a retry after a crash mid-send the
	// existing rows are kept, not duplicated.
	subscriberIDs := lo.Map(recipients, func(s model.Subscriber, _ int) int { return s.ID })
	if err := o.SendRecordRepo.BulkCreate(campaignID, subscriberIDs); err != nil {
		return nil, err
	}

	messages := lo.Map(recipients, func(s model.Subscriber, _ int) mailer.Message {
		tokens := SubscriberTokens(s)
		return mailer.Message{
			SubscriberID: s.ID,
			To:           s.Email,
			Subject:      RenderTemplate(campaign.Subject, tokens),
			Body:         RenderTemplate(campaign.Body, tokens),
		}
	})

	outcomes := o.Mailer.SendBatch(ctx, messages)

	delivered, failed := 0, 0
	for _, out := range outcomes {
		if out.Success {
			delivered++
			metrics.EmailsSent.Inc()
			continue
		}
		failed++
		metrics.EmailFailures.Inc()
		if err := o.SendRecordRepo.MarkFailed(campaignID, out.RecipientID, out.Error); err != nil {
			o.Logger.Error("failed to mark send record failed",
				zap.Int("campaign_id", campaignID),
				zap.Int("subscriber_id", out.RecipientID),
				zap.Error(err),
			)
		}
	}

	completed, err := o.CampaignRepo.MarkSent(campaignID, len(recipients))
	if err != nil {
		return nil, err
	}
	if !completed {
		// The campaign was paused (or otherwise moved) while the batch was
		// in flight. The delivered records stand; the status stays where
		// the operator put it.
		o.Logger.Warn("campaign left sending during delivery, final status preserved",
			zap.Int("campaign_id", campaignID),
			zap.Int("delivered", delivered),
			zap.Int("failed", failed),
		)
	} else {
		metrics.CampaignsSent.Inc()
		o.Logger.Info("campaign sent",
			zap.Int("campaign_id", campaignID),
			zap.Int("recipients", len(recipients)),
			zap.Int("delivered", delivered),
			zap.Int("failed", failed),
		)
	}

	result := &SendResult{
		CampaignID:     campaignID,
		RecipientCount: len(recipients),
		Delivered:      delivered,
		Failed:         failed,
	}
	if failed > 0 && delivered == 0 {
		// The campaign is sent either way, but a fully failed batch must
		// not look like success to the caller.
		return result, appErrors.NewPartialDelivery(campaignID, failed, len(recipients))
	}
	return result, nil
}
