package model

import "time"

// CampaignStatus is the closed set of lifecycle states a campaign moves
// through. Transitions are validated against the table below before any
// write; ad hoc string comparisons do not happen outside this package.
type CampaignStatus string

const (
	StatusDraft     CampaignStatus = "draft"
	StatusScheduled CampaignStatus = "scheduled"
	StatusSending   CampaignStatus = "sending"
	StatusPaused    CampaignStatus = "paused"
	StatusSent      CampaignStatus = "sent"
	StatusCancelled CampaignStatus = "cancelled"
)

// transitions maps each state to the states it may legally move to.
// sent and cancelled are terminal.
var transitions = map[CampaignStatus][]CampaignStatus{
	StatusDraft:     {StatusScheduled, StatusSending, StatusCancelled},
	StatusScheduled: {StatusSending, StatusCancelled, StatusDraft},
	StatusSending:   {StatusPaused, StatusSent},
	StatusPaused:    {StatusSending, StatusCancelled},
	StatusSent:      {},
	StatusCancelled: {},
}

// CanTransition reports whether moving from s to target is legal.
func (s CampaignStatus) CanTransition(target CampaignStatus) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s CampaignStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// Editable reports whether content/filter/schedule edits are allowed.
// Only draft campaigns accept edits.
func (s CampaignStatus) Editable() bool {
	return s == StatusDraft
}

// Deletable reports whether the campaign may be removed. Campaigns that
// are sending or already sent keep their send records forever.
func (s CampaignStatus) Deletable() bool {
	switch s {
	case StatusDraft, StatusScheduled, StatusPaused, StatusCancelled:
		return true
	}
	return false
}

type Campaign struct {
	ID         int            `db:"id" json:"id"`
	Name       string         `db:"name" json:"name"`
	Subject    string         `db:"subject" json:"subject"`
	Body       string         `db:"body" json:"body"`
	TemplateID *int           `db:"template_id" json:"template_id,omitempty"`
	Filter     SegmentFilter  `db:"segment_filter" json:"segment_filter"`
	Status     CampaignStatus `db:"status" json:"status"`

	ScheduledAt *time.Time `db:"scheduled_at" json:"scheduled_at,omitempty"`

	// RecipientCount is stamped once when sending begins. The counters
	// below are owned by the send orchestrator and delivery tracker;
	// user-facing edits never touch them.
	RecipientCount    int `db:"recipient_count" json:"recipient_count"`
	SentCount         int `db:"sent_count" json:"sent_count"`
	OpenedCount       int `db:"opened_count" json:"opened_count"`
	ClickedCount      int `db:"clicked_count" json:"clicked_count"`
	BouncedCount      int `db:"bounced_count" json:"bounced_count"`
	UnsubscribedCount int `db:"unsubscribed_count" json:"unsubscribed_count"`

	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
