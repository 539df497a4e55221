package service

import (
	"go.uber.org/zap"

	appErrors "github.com/oakline/mailcamp-backend/internal/errors"
	"github.com/oakline/mailcamp-backend/internal/model"
	"github.com/oakline/mailcamp-backend/internal/repository"
)

// SegmentationEngine turns a campaign's declarative segment filter into the
// concrete recipient set. It is a pure read against the subscriber
// directory; no state is touched.
type SegmentationEngine struct {
	SubscriberRepo repository.SubscriberRepositoryInterface
	Logger         *zap.Logger
}

// ResolveRecipients evaluates the filter and returns the matching
// subscribers. Only subscribers with status subscribed are ever eligible;
// an empty filter matches that whole base set. An empty result is a hard
// stop, not a retryable condition.
func (e *SegmentationEngine) ResolveRecipients(campaignID int, filter model.SegmentFilter) ([]model.Subscriber, error) {
	subscribers, err := e.SubscriberRepo.ListEligible(filter)
	if err != nil {
		return nil, err
	}
	if len(subscribers) == 0 {
		return nil, appErrors.NewNoEligibleRecipients(campaignID)
	}
	e.Logger.Debug("segment resolved",
		zap.Int("campaign_id", campaignID),
		zap.Int("recipients", len(subscribers)),
	)
	return subscribers, nil
}
