package service_test

import (
	"errors"
	"testing"

	appErrors "github.com/oakline/mailcamp-backend/internal/errors"
	"github.com/oakline/mailcamp-backend/internal/model"
	"github.com/oakline/mailcamp-backend/internal/service"
)

func newEngine() *service.SegmentationEngine {
	return &service.SegmentationEngine{
		SubscriberRepo: directoryFixture(),
		Logger:         testLogger(),
	}
}

func subscriberIDs(subs []model.Subscriber) []int {
	ids := make([]int, len(subs))
	for i, s := range subs {
		ids[i] = s.ID
	}
	return ids
}

func TestResolveRecipientsEmptyFilter(t *testing.T) {
	engine := newEngine()

	subs, err := engine.ResolveRecipients(1, model.SegmentFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Exactly the subscribed subset: pending and unsubscribed excluded.
	if len(subs) != 3 {
		t.Fatalf("expected 3 recipients, got %d (%v)", len(subs), subscriberIDs(subs))
	}
	for _, s := range subs {
		if s.Status != model.SubscriberSubscribed {
			t.Errorf("subscriber %d has status %s", s.ID, s.Status)
		}
	}
}

func TestResolveRecipientsInterestsOverlap(t *testing.T) {
	engine := newEngine()

	filter := model.SegmentFilter{Interests: []string{"technology", "design"}}
	subs, err := engine.ResolveRecipients(1, filter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := map[int]bool{}
	for _, s := range subs {
		got[s.ID] = true
	}

	// Carol has only {design}: overlap suffices, full containment is not
	// required. Bob has only {marketing}: excluded.
	if !got[1] || !got[3] {
		t.Errorf("expected Alice and Carol, got %v", subscriberIDs(subs))
	}
	if got[2] {
		t.Errorf("Bob matched despite no interest overlap")
	}
	if len(subs) != 2 {
		t.Errorf("expected 2 recipients, got %d", len(subs))
	}
}

func TestResolveRecipientsDateBounds(t *testing.T) {
	engine := newEngine()

	after := daysAgo(75)
	subs, err := engine.ResolveRecipients(1, model.SegmentFilter{SubscribedAfter: &after})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Bob (60d) and Carol (30d); Alice (90d) is before the bound.
	if len(subs) != 2 {
		t.Fatalf("expected 2 recipients, got %v", subscriberIDs(subs))
	}

	before := daysAgo(75)
	subs, err = engine.ResolveRecipients(1, model.SegmentFilter{SubscribedBefore: &before})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(subs) != 1 || subs[0].ID != 1 {
		t.Fatalf("expected only Alice, got %v", subscriberIDs(subs))
	}
}

func TestResolveRecipientsNoMatches(t *testing.T) {
	engine := newEngine()

	filter := model.SegmentFilter{Interests: []string{"gardening"}}
	_, err := engine.ResolveRecipients(7, filter)

	var noEligible *appErrors.ErrNoEligibleRecipients
	if !errors.As(err, &noEligible) {
		t.Fatalf("expected ErrNoEligibleRecipients, got %v", err)
	}
	if noEligible.CampaignID != 7 {
		t.Errorf("expected campaign id 7, got %d", noEligible.CampaignID)
	}
}
