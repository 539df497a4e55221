package service

import (
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/oakline/mailcamp-backend/internal/errors"
	"github.com/oakline/mailcamp-backend/internal/model"
	"github.com/oakline/mailcamp-backend/internal/repository"
)

// CampaignService owns campaign entities and their status state machine.
// Every transition is validated against the model transition table before
// being persisted, and the persisted write is conditional on the status the
// service observed, so a racing writer cannot sneak an illegal transition
// through.
type CampaignService struct {
	CampaignRepo   repository.CampaignRepositoryInterface
	SubscriberRepo repository.SubscriberRepositoryInterface
	SendRecordRepo repository.SendRecordRepositoryInterface
	Logger         *zap.Logger
}

// CampaignInput carries the draft-editable fields.
type CampaignInput struct {
	Name        string              `json:"name"`
	Subject     string              `json:"subject"`
	Body        string              `json:"body"`
	TemplateID  *int                `json:"template_id,omitempty"`
	Filter      model.SegmentFilter `json:"segment_filter"`
	ScheduledAt *time.Time          `json:"scheduled_at,omitempty"`
}

func (in CampaignInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return appErrors.NewValidation("name", "must not be empty")
	}
	if strings.TrimSpace(in.Subject) == "" {
		return appErrors.NewValidation("subject", "must not be empty")
	}
	if strings.TrimSpace(in.Body) == "" {
		return appErrors.NewValidation("body", "must not be empty")
	}
	if in.ScheduledAt != nil && !in.ScheduledAt.After(time.Now()) {
		return appErrors.NewValidation("scheduled_at", "must be in the future")
	}
	return nil
}

func (s *CampaignService) CreateCampaign(in CampaignInput) (*model.Campaign, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	c := &model.Campaign{
		Name:        in.Name,
		Subject:     in.Subject,
		Body:        in.Body,
		TemplateID:  in.TemplateID,
		Filter:      in.Filter,
		ScheduledAt: in.ScheduledAt,
		Status:      model.StatusDraft,
	}
	if err := s.CampaignRepo.Create(c); err != nil {
		return nil, err
	}
	s.Logger.Info("campaign created", zap.Int("campaign_id", c.ID), zap.String("name", c.Name))
	return c, nil
}

// UpdateCampaign replaces the draft-editable fields. Campaigns that have
// left draft reject edits with no change to the stored row.
func (s *CampaignService) UpdateCampaign(id int, in CampaignInput) (*model.Campaign, error) {
	c, err := s.CampaignRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !c.Status.Editable() {
		return nil, appErrors.NewInvalidStateTransition(id, c.Status, "edit")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	c.Name = in.Name
	c.Subject = in.Subject
	c.Body = in.Body
	c.TemplateID = in.TemplateID
	c.Filter = in.Filter
	c.ScheduledAt = in.ScheduledAt
	if err := s.CampaignRepo.Update(c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCampaign removes a campaign that has not started sending. The send
// ledger of a sending or sent campaign is permanent.
func (s *CampaignService) DeleteCampaign(id int) error {
	c, err := s.CampaignRepo.GetByID(id)
	if err != nil {
		return err
	}
	if !c.Status.Deletable() {
		return appErrors.NewInvalidStateTransition(id, c.Status, "delete")
	}
	return s.CampaignRepo.Delete(id)
}

// transition performs a validated, conditional status move. The conditional
// write re-checks the observed status so a concurrent transition makes this
// one fail rather than overwrite it.
func (s *CampaignService) transition(id int, to model.CampaignStatus, op string) (*model.Campaign, error) {
	c, err := s.CampaignRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !c.Status.CanTransition(to) {
		return nil, appErrors.NewInvalidStateTransition(id, c.Status, op)
	}
	ok, err := s.CampaignRepo.UpdateStatusIf(id, c.Status, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, appErrors.NewInvalidStateTransition(id, c.Status, op)
	}
	s.Logger.Info("campaign status changed",
		zap.Int("campaign_id", id),
		zap.String("from", string(c.Status)),
		zap.String("to", string(to)),
	)
	c.Status = to
	return c, nil
}

// ScheduleCampaign moves a draft to scheduled at the given future time.
func (s *CampaignService) ScheduleCampaign(id int, at time.Time) (*model.Campaign, error) {
	if !at.After(time.Now()) {
		return nil, appErrors.NewValidation("scheduled_at", "must be in the future")
	}
	c, err := s.CampaignRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !c.Status.CanTransition(model.StatusScheduled) {
		return nil, appErrors.NewInvalidStateTransition(id, c.Status, "schedule")
	}
	c.ScheduledAt = &at
	if err := s.CampaignRepo.Update(c); err != nil {
		return nil, err
	}
	return s.transition(id, model.StatusScheduled, "schedule")
}

// UnscheduleCampaign moves a scheduled campaign back to draft and clears
// the send time, so the draft does not carry a stale scheduled_at.
func (s *CampaignService) UnscheduleCampaign(id int) (*model.Campaign, error) {
	c, err := s.transition(id, model.StatusDraft, "unschedule")
	if err != nil {
		return nil, err
	}
	c.ScheduledAt = nil
	if err := s.CampaignRepo.Update(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CampaignService) CancelCampaign(id int) (*model.Campaign, error) {
	return s.transition(id, model.StatusCancelled, "cancel")
}

func (s *CampaignService) PauseCampaign(id int) (*model.Campaign, error) {
	return s.transition(id, model.StatusPaused, "pause")
}

func (s *CampaignService) ResumeCampaign(id int) (*model.Campaign, error) {
	return s.transition(id, model.StatusSending, "resume")
}

func (s *CampaignService) GetCampaign(id int) (*model.Campaign, error) {
	return s.CampaignRepo.GetByID(id)
}

// ListCampaigns fetches campaigns with pagination.
func (s *CampaignService) ListCampaigns(page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.CampaignRepo.ListCampaigns(offset, pageSize, status)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

// CampaignDetails is a campaign plus its per-recipient delivery breakdown.
type CampaignDetails struct {
	model.Campaign
	DeliveryStats map[string]int `json:"delivery_stats"`
}

func (s *CampaignService) GetCampaignDetails(id int) (*CampaignDetails, error) {
	c, err := s.CampaignRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	stats, err := s.SendRecordRepo.CountByStatus(id)
	if err != nil {
		return nil, err
	}
	return &CampaignDetails{Campaign: *c, DeliveryStats: stats}, nil
}

// RenderPreview renders the campaign body for one subscriber so operators
// can check token substitution before sending.
func (s *CampaignService) RenderPreview(campaignID, subscriberID int, overrideBody *string) (string, error) {
	c, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return "", err
	}

	sub, err := s.SubscriberRepo.GetByID(subscriberID)
	if err != nil {
		return "", err
	}
	if sub == nil {
		return "", appErrors.NewValidation("subscriber_id", "unknown subscriber")
	}

	body := c.Body
	if overrideBody != nil && strings.TrimSpace(*overrideBody) != "" {
		body = *overrideBody
	}
	return RenderTemplate(body, SubscriberTokens(*sub)), nil
}
