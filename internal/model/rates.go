package model

import "math"

// RateMetrics holds the engagement ratios derived from a campaign's send
// records. The unrounded values are the source of truth for further
// aggregation; use Rounded for display.
type RateMetrics struct {
	SentCount         int     `json:"sent_count"`
	OpenedCount       int     `json:"opened_count"`
	ClickedCount      int     `json:"clicked_count"`
	BouncedCount      int     `json:"bounced_count"`
	UnsubscribedCount int     `json:"unsubscribed_count"`
	OpenRate          float64 `json:"open_rate"`
	ClickRate         float64 `json:"click_rate"`
	ClickToOpenRate   float64 `json:"click_to_open_rate"`
	BounceRate        float64 `json:"bounce_rate"`
	UnsubscribeRate   float64 `json:"unsubscribe_rate"`
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// ComputeRates derives rate metrics from the given counters. Zero
// denominators yield a zero rate rather than NaN.
func ComputeRates(sent, opened, clicked, bounced, unsubscribed int) RateMetrics {
	return RateMetrics{
		SentCount:         sent,
		OpenedCount:       opened,
		ClickedCount:      clicked,
		BouncedCount:      bounced,
		UnsubscribedCount: unsubscribed,
		OpenRate:          ratio(opened, sent),
		ClickRate:         ratio(clicked, sent),
		// click-to-open deliberately uses opens as the denominator,
		// not sends.
		ClickToOpenRate: ratio(clicked, opened),
		BounceRate:      ratio(bounced, sent),
		UnsubscribeRate: ratio(unsubscribed, sent),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Rounded returns a copy with every rate rounded to two decimal places for
// display.
func (m RateMetrics) Rounded() RateMetrics {
	m.OpenRate = round2(m.OpenRate)
	m.ClickRate = round2(m.ClickRate)
	m.ClickToOpenRate = round2(m.ClickToOpenRate)
	m.BounceRate = round2(m.BounceRate)
	m.UnsubscribeRate = round2(m.UnsubscribeRate)
	return m
}
