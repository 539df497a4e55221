package service_test

import (
	"testing"

	appErrors "github.com/oakline/mailcamp-backend/internal/errors"
	"github.com/oakline/mailcamp-backend/internal/model"
	"github.com/oakline/mailcamp-backend/internal/service"
)

func TestComputeRates(t *testing.T) {
	campaigns := newMockCampaignRepo()
	c := &model.Campaign{
		Name: "Launch", Subject: "s", Body: "b", Status: model.StatusSent,
		SentCount: 10, OpenedCount: 4, ClickedCount: 2, BouncedCount: 1, UnsubscribedCount: 0,
	}
	if err := campaigns.Create(c); err != nil {
		t.Fatalf("create campaign: %v", err)
	}

	svc := &service.AnalyticsService{
		CampaignRepo:   campaigns,
		SendRecordRepo: newMockSendRecordRepo(),
	}

	rates, err := svc.ComputeRates(c.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rounded := rates.Rounded()
	if rounded.OpenRate != 0.40 {
		t.Errorf("open rate: got %v, want 0.40", rounded.OpenRate)
	}
	if rounded.ClickRate != 0.20 {
		t.Errorf("click rate: got %v, want 0.20", rounded.ClickRate)
	}
	// Distinct denominator: clicks over opens, not over sends.
	if rounded.ClickToOpenRate != 0.50 {
		t.Errorf("click-to-open rate: got %v, want 0.50", rounded.ClickToOpenRate)
	}
	if rounded.BounceRate != 0.10 {
		t.Errorf("bounce rate: got %v, want 0.10", rounded.BounceRate)
	}
	if rounded.UnsubscribeRate != 0 {
		t.Errorf("unsubscribe rate: got %v, want 0", rounded.UnsubscribeRate)
	}
}

func TestComputeRatesZeroDenominators(t *testing.T) {
	campaigns := newMockCampaignRepo()
	c := &model.Campaign{Name: "Empty", Subject: "s", Body: "b", Status: model.StatusDraft}
	if err := campaigns.Create(c); err != nil {
		t.Fatalf("create campaign: %v", err)
	}

	svc := &service.AnalyticsService{
		CampaignRepo:   campaigns,
		SendRecordRepo: newMockSendRecordRepo(),
	}

	rates, err := svc.ComputeRates(c.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rates.OpenRate != 0 || rates.ClickRate != 0 || rates.ClickToOpenRate != 0 {
		t.Errorf("zero sends must yield zero rates, got %+v", rates)
	}
}

func TestComputeRatesUnknownCampaign(t *testing.T) {
	svc := &service.AnalyticsService{
		CampaignRepo:   newMockCampaignRepo(),
		SendRecordRepo: newMockSendRecordRepo(),
	}
	_, err := svc.ComputeRates(404)
	if !appErrors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
