package model

import "time"

// DeliveryStatus is the delivery outcome stored on a send record.
type DeliveryStatus string

const (
	DeliverySent   DeliveryStatus = "sent"
	DeliveryFailed DeliveryStatus = "failed"
)

// EventKind is a recipient engagement event attributed to a send record.
type EventKind string

const (
	EventOpened       EventKind = "opened"
	EventClicked      EventKind = "clicked"
	EventBounced      EventKind = "bounced"
	EventUnsubscribed EventKind = "unsubscribed"
)

// ValidEventKind reports whether k is one of the tracked event kinds.
func ValidEventKind(k EventKind) bool {
	switch k {
	case EventOpened, EventClicked, EventBounced, EventUnsubscribed:
		return true
	}
	return false
}

// SendRecord is the per-recipient ledger entry created when a campaign is
// sent. The row is immutable once created except for the event timestamps,
// each of which is set at most once: the first event of a kind wins and
// later duplicates are no-ops, preserving the time of first engagement.
type SendRecord struct {
	ID           int            `db:"id" json:"id"`
	CampaignID   int            `db:"campaign_id" json:"campaign_id"`
	SubscriberID int            `db:"subscriber_id" json:"subscriber_id"`
	Status       DeliveryStatus `db:"status" json:"status"`
	LastError    string         `db:"last_error" json:"last_error,omitempty"`

	OpenedAt       *time.Time `db:"opened_at" json:"opened_at,omitempty"`
	ClickedAt      *time.Time `db:"clicked_at" json:"clicked_at,omitempty"`
	BouncedAt      *time.Time `db:"bounced_at" json:"bounced_at,omitempty"`
	UnsubscribedAt *time.Time `db:"unsubscribed_at" json:"unsubscribed_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
