package service

import (
	"github.com/oakline/mailcamp-backend/internal/model"
	"github.com/oakline/mailcamp-backend/internal/repository"
)

// AnalyticsService computes rate metrics on demand. Reads never block
// writers: the campaign counters the tracker maintains are the snapshot.
type AnalyticsService struct {
	CampaignRepo   repository.CampaignRepositoryInterface
	SendRecordRepo repository.SendRecordRepositoryInterface
}

// ComputeRates derives the engagement ratios for one campaign. The
// returned values are unrounded; callers that display them use Rounded.
func (s *AnalyticsService) ComputeRates(campaignID int) (model.RateMetrics, error) {
	c, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return model.RateMetrics{}, err
	}
	return model.ComputeRates(
		c.SentCount, c.OpenedCount, c.ClickedCount, c.BouncedCount, c.UnsubscribedCount,
	), nil
}

// DeliveryStats breaks the campaign's send records down by delivery status
// so operators can see how many recipients were missed.
func (s *AnalyticsService) DeliveryStats(campaignID int) (map[string]int, error) {
	if _, err := s.CampaignRepo.GetByID(campaignID); err != nil {
		return nil, err
	}
	return s.SendRecordRepo.CountByStatus(campaignID)
}
