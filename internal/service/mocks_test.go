package service_test

import (
	"sort"
	"sync"
	"time"

	appErrors "github.com/oakline/mailcamp-backend/internal/errors"
	"github.com/oakline/mailcamp-backend/internal/model"
	"github.com/oakline/mailcamp-backend/internal/repository"
	"go.uber.org/zap"
)

// In-memory repositories backing the service tests. BeginSending, MarkSent
// and ApplyEvent reproduce the conditional-write semantics of the SQL
// implementations so the concurrency tests mean something.

type mockCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[int]*model.Campaign
	nextID    int
}

func newMockCampaignRepo() *mockCampaignRepo {
	return &mockCampaignRepo{campaigns: map[int]*model.Campaign{}, nextID: 1}
}

func (m *mockCampaignRepo) Create(c *model.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.nextID
	m.nextID++
	c.CreatedAt = time.Now()
	if c.Status == "" {
		c.Status = model.StatusDraft
	}
	cp := *c
	m.campaigns[c.ID] = &cp
	return nil
}

func (m *mockCampaignRepo) GetByID(id int) (*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	cp := *c
	return &cp, nil
}

func (m *mockCampaignRepo) Update(c *model.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.campaigns[c.ID]
	if !ok {
		return appErrors.NewCampaignNotFound(c.ID)
	}
	stored.Name = c.Name
	stored.Subject = c.Subject
	stored.Body = c.Body
	stored.TemplateID = c.TemplateID
	stored.Filter = c.Filter
	stored.ScheduledAt = c.ScheduledAt
	return nil
}

func (m *mockCampaignRepo) Delete(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.campaigns[id]; !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	delete(m.campaigns, id)
	return nil
}

func (m *mockCampaignRepo) ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := []*model.Campaign{}
	for _, c := range m.campaigns {
		if status != "" && string(c.Status) != status {
			continue
		}
		cp := *c
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	total := len(all)
	if offset >= total {
		return []*model.Campaign{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *mockCampaignRepo) ListDueScheduled(now time.Time, limit int) ([]*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	due := []*model.Campaign{}
	for _, c := range m.campaigns {
		if c.Status == model.StatusScheduled && c.ScheduledAt != nil && !c.ScheduledAt.After(now) {
			cp := *c
			due = append(due, &cp)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (m *mockCampaignRepo) UpdateStatusIf(campaignID int, from, to model.CampaignStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[campaignID]
	if !ok || c.Status != from {
		return false, nil
	}
	c.Status = to
	return true, nil
}

func (m *mockCampaignRepo) BeginSending(campaignID, recipientCount int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[campaignID]
	if !ok {
		return false, nil
	}
	if c.Status != model.StatusDraft && c.Status != model.StatusScheduled {
		return false, nil
	}
	c.Status = model.StatusSending
	c.RecipientCount = recipientCount
	return true, nil
}

func (m *mockCampaignRepo) MarkSent(campaignID, sentCount int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[campaignID]
	if !ok || c.Status != model.StatusSending {
		return false, nil
	}
	c.Status = model.StatusSent
	c.SentCount = sentCount
	return true, nil
}

func (m *mockCampaignRepo) incrementCounter(campaignID int, kind model.EventKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[campaignID]
	if !ok {
		return
	}
	switch kind {
	case model.EventOpened:
		c.OpenedCount++
	case model.EventClicked:
		c.ClickedCount++
	case model.EventBounced:
		c.BouncedCount++
	case model.EventUnsubscribed:
		c.UnsubscribedCount++
	}
}

type mockSubscriberRepo struct {
	subscribers []model.Subscriber
}

func (m *mockSubscriberRepo) GetByID(id int) (*model.Subscriber, error) {
	for _, s := range m.subscribers {
		if s.ID == id {
			cp := s
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockSubscriberRepo) ListEligible(filter model.SegmentFilter) ([]model.Subscriber, error) {
	out := []model.Subscriber{}
	for _, s := range m.subscribers {
		if filter.Matches(s) {
			out = append(out, s)
		}
	}
	return out, nil
}

type mockSendRecordRepo struct {
	mu      sync.Mutex
	records map[int]*model.SendRecord
	byPair  map[[2]int]int
	nextID  int

	// campaigns receives the counter half of ApplyEvent, mirroring the
	// SQL transaction that spans both tables.
	campaigns *mockCampaignRepo
	// applyErr fails the next ApplyEvent, leaving the record untouched.
	applyErr error
	// existsErr fails ExistsForCampaign.
	existsErr error
}

func newMockSendRecordRepo() *mockSendRecordRepo {
	return &mockSendRecordRepo{
		records: map[int]*model.SendRecord{},
		byPair:  map[[2]int]int{},
		nextID:  1,
	}
}

func (m *mockSendRecordRepo) BulkCreate(campaignID int, subscriberIDs []int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, subID := range subscriberIDs {
		key := [2]int{campaignID, subID}
		if _, exists := m.byPair[key]; exists {
			continue
		}
		rec := &model.SendRecord{
			ID:           m.nextID,
			CampaignID:   campaignID,
			SubscriberID: subID,
			Status:       model.DeliverySent,
			CreatedAt:    time.Now(),
		}
		m.records[rec.ID] = rec
		m.byPair[key] = rec.ID
		m.nextID++
	}
	return nil
}

func (m *mockSendRecordRepo) ExistsForCampaign(campaignID int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsErr != nil {
		return false, m.existsErr
	}
	for _, rec := range m.records {
		if rec.CampaignID == campaignID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSendRecordRepo) GetByID(id int) (*model.SendRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, appErrors.NewSendRecordNotFound(id)
	}
	cp := *rec
	return &cp, nil
}

func (m *mockSendRecordRepo) ListByCampaign(campaignID, offset, limit int) ([]*model.SendRecord, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := []*model.SendRecord{}
	for _, rec := range m.records {
		if rec.CampaignID == campaignID {
			cp := *rec
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := len(all)
	if offset >= total {
		return []*model.SendRecord{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *mockSendRecordRepo) MarkFailed(campaignID, subscriberID int, lastError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byPair[[2]int{campaignID, subscriberID}]
	if !ok {
		return nil
	}
	m.records[id].Status = model.DeliveryFailed
	m.records[id].LastError = lastError
	return nil
}

func (m *mockSendRecordRepo) ApplyEvent(id int, kind model.EventKind, ts time.Time) (bool, error) {
	m.mu.Lock()
	rec, ok := m.records[id]
	if !ok {
		m.mu.Unlock()
		return false, nil
	}
	var slot **time.Time
	switch kind {
	case model.EventOpened:
		slot = &rec.OpenedAt
	case model.EventClicked:
		slot = &rec.ClickedAt
	case model.EventBounced:
		slot = &rec.BouncedAt
	case model.EventUnsubscribed:
		slot = &rec.UnsubscribedAt
	default:
		m.mu.Unlock()
		return false, nil
	}
	if *slot != nil {
		m.mu.Unlock()
		return false, nil
	}
	// A failure rolls back like the SQL transaction: neither the timestamp
	// nor the counter moves.
	if m.applyErr != nil {
		err := m.applyErr
		m.applyErr = nil
		m.mu.Unlock()
		return false, err
	}
	tsCopy := ts
	*slot = &tsCopy
	campaignID := rec.CampaignID
	m.mu.Unlock()

	if m.campaigns != nil {
		m.campaigns.incrementCounter(campaignID, kind)
	}
	return true, nil
}

func (m *mockSendRecordRepo) CountByStatus(campaignID int) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := map[string]int{
		string(model.DeliverySent):   0,
		string(model.DeliveryFailed): 0,
	}
	for _, rec := range m.records {
		if rec.CampaignID == campaignID {
			stats[string(rec.Status)]++
		}
	}
	return stats, nil
}

var (
	_ repository.CampaignRepositoryInterface   = (*mockCampaignRepo)(nil)
	_ repository.SubscriberRepositoryInterface = (*mockSubscriberRepo)(nil)
	_ repository.SendRecordRepositoryInterface = (*mockSendRecordRepo)(nil)
)

func daysAgo(n int) time.Time {
	return time.Now().AddDate(0, 0, -n)
}

// directoryFixture is the subscriber set shared across tests: three
// subscribed, one pending, one unsubscribed.
func directoryFixture() *mockSubscriberRepo {
	return &mockSubscriberRepo{subscribers: []model.Subscriber{
		{ID: 1, Email: "alice@example.com", FirstName: "Alice", LastName: "Smith", Status: model.SubscriberSubscribed, Interests: []string{"technology", "design"}, SubscribedAt: daysAgo(90)},
		{ID: 2, Email: "bob@example.com", FirstName: "Bob", LastName: "Jones", Status: model.SubscriberSubscribed, Interests: []string{"marketing"}, SubscribedAt: daysAgo(60)},
		{ID: 3, Email: "carol@example.com", FirstName: "Carol", LastName: "Mwangi", Status: model.SubscriberSubscribed, Interests: []string{"design"}, SubscribedAt: daysAgo(30)},
		{ID: 4, Email: "dan@example.com", FirstName: "Dan", LastName: "Otieno", Status: model.SubscriberPending, Interests: []string{"technology"}, SubscribedAt: daysAgo(10)},
		{ID: 5, Email: "eve@example.com", FirstName: "Eve", LastName: "Kamau", Status: model.SubscriberUnsubscribed, Interests: []string{"technology", "marketing"}, SubscribedAt: daysAgo(200)},
	}}
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
