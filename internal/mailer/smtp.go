package mailer

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gopkg.in/gomail.v2"
)

// SMTPMailer delivers through an SMTP relay, one message at a time, rate
// limited across the batch. Each message gets its own retry budget with
// exponential backoff; a message that exhausts it is reported as a failed
// outcome, never as a batch error.
type SMTPMailer struct {
	dialer  *gomail.Dialer
	from    string
	limiter *rate.Limiter
	retries int
	logger  *zap.Logger
}

func NewSMTPMailer(host string, port int, user, password, from string, ratePerSec, retries int, logger *zap.Logger) *SMTPMailer {
	return &SMTPMailer{
		dialer:  gomail.NewDialer(host, port, user, password),
		from:    from,
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec),
		retries: retries,
		logger:  logger,
	}
}

func (m *SMTPMailer) send(msg Message) error {
	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.Body)
	return m.dialer.DialAndSend(gm)
}

func (m *SMTPMailer) sendWithRetry(ctx context.Context, msg Message) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxElapsedTime = time.Duration(m.retries) * time.Second

	return backoff.Retry(func() error {
		return m.send(msg)
	}, backoff.WithContext(b, ctx))
}

func (m *SMTPMailer) SendBatch(ctx context.Context, messages []Message) []Outcome {
	outcomes := make([]Outcome, 0, len(messages))
	for _, msg := range messages {
		if err := m.limiter.Wait(ctx); err != nil {
			outcomes = append(outcomes, Outcome{RecipientID: msg.SubscriberID, Success: false, Error: err.Error()})
			continue
		}

		if err := m.sendWithRetry(ctx, msg); err != nil {
			m.logger.Error("email send failed",
				zap.String("to", msg.To),
				zap.Error(err),
			)
			outcomes = append(outcomes, Outcome{RecipientID: msg.SubscriberID, Success: false, Error: err.Error()})
			continue
		}

		outcomes = append(outcomes, Outcome{RecipientID: msg.SubscriberID, Success: true})
	}
	return outcomes
}
