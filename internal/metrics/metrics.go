package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	EmailsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "campaign_emails_sent_total",
			Help: "Total emails delivered by the mailer",
		},
	)

	EmailFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "campaign_email_failures_total",
			Help: "Total per-recipient delivery failures",
		},
	)

	CampaignsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "campaigns_sent_total",
			Help: "Total campaigns that completed sending",
		},
	)

	DeliveryEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_events_total",
			Help: "Accepted delivery events by kind",
		},
		[]string{"kind"},
	)

	DuplicateEvents = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "delivery_events_duplicate_total",
			Help: "Delivery events ignored because the timestamp was already set",
		},
	)
)

func Init() {
	prometheus.MustRegister(EmailsSent)
	prometheus.MustRegister(EmailFailures)
	prometheus.MustRegister(CampaignsSent)
	prometheus.MustRegister(DeliveryEvents)
	prometheus.MustRegister(DuplicateEvents)
}
