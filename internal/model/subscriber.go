package model

import "time"

// SubscriberStatus enumerates the states a subscriber can be in.
type SubscriberStatus string

const (
	SubscriberSubscribed   SubscriberStatus = "subscribed"
	SubscriberUnsubscribed SubscriberStatus = "unsubscribed"
	SubscriberPending      SubscriberStatus = "pending"
)

// Subscriber is read-only from the campaign core's perspective; the
// subscriber directory is maintained elsewhere.
type Subscriber struct {
	ID           int              `db:"id" json:"id"`
	Email        string           `db:"email" json:"email"`
	FirstName    string           `db:"first_name" json:"first_name"`
	LastName     string           `db:"last_name" json:"last_name"`
	Status       SubscriberStatus `db:"status" json:"status"`
	Interests    []string         `db:"interests" json:"interests"`
	SubscribedAt time.Time        `db:"subscribed_at" json:"subscribed_at"`
}
