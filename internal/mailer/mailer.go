package mailer

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Message is one personalized email ready for transport. Subject and body
// already have subscriber tokens substituted.
type Message struct {
	SubscriberID int
	To           string
	Subject      string
	Body         string
}

// Outcome is the per-recipient delivery result. A mailer reports partial
// failures through outcomes instead of an error: the batch as a whole never
// fails because individual recipients did.
type Outcome struct {
	RecipientID int
	Success     bool
	Error       string
}

// Mailer is the transport capability the send orchestrator calls. Timeout
// and retry policy live behind this interface, not in the orchestrator.
type Mailer interface {
	SendBatch(ctx context.Context, messages []Message) []Outcome
}

// LogMailer accepts every message and logs it. Used in development when no
// SMTP relay is configured.
type LogMailer struct {
	Logger *zap.Logger
}

func (m *LogMailer) SendBatch(ctx context.Context, messages []Message) []Outcome {
	outcomes := make([]Outcome, 0, len(messages))
	for _, msg := range messages {
		m.Logger.Info("email delivered (log mailer)",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
		)
		outcomes = append(outcomes, Outcome{RecipientID: msg.SubscriberID, Success: true})
	}
	return outcomes
}

// Mock is a test mailer. FailFor lists subscriber ids whose delivery should
// be reported as failed.
type Mock struct {
	FailFor map[int]bool

	mu   sync.Mutex
	Sent []Message
}

func (m *Mock) SendBatch(ctx context.Context, messages []Message) []Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	outcomes := make([]Outcome, 0, len(messages))
	for _, msg := range messages {
		m.Sent = append(m.Sent, msg)
		if m.FailFor[msg.SubscriberID] {
			outcomes = append(outcomes, Outcome{RecipientID: msg.SubscriberID, Success: false, Error: "mock delivery failure"})
			continue
		}
		outcomes = append(outcomes, Outcome{RecipientID: msg.SubscriberID, Success: true})
	}
	return outcomes
}
