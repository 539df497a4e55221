package queue

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Queue decouples delivery-event producers from the tracker. The server
// publishes events here; a subscriber (in-process or a separate worker)
// applies them.
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// DeliveryEvent is the queue payload for one engagement event.
type DeliveryEvent struct {
	SendRecordID int       `json:"send_record_id"`
	Kind         string    `json:"kind"`
	Timestamp    time.Time `json:"timestamp"`
}

// DecodeDeliveryEvent accepts either an in-process DeliveryEvent or the
// JSON bytes an AMQP consumer hands over.
func DecodeDeliveryEvent(payload any) (DeliveryEvent, error) {
	switch v := payload.(type) {
	case DeliveryEvent:
		return v, nil
	case []byte:
		var ev DeliveryEvent
		if err := json.Unmarshal(v, &ev); err != nil {
			return DeliveryEvent{}, err
		}
		return ev, nil
	}
	return DeliveryEvent{}, fmt.Errorf("unexpected delivery event payload type %T", payload)
}

// InMemoryQueue is an in-process queue with retry, used when no broker is
// configured.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
	logger   *zap.Logger
}

func NewInMemoryQueue(logger *zap.Logger) *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]func(payload any) error),
		logger:   logger,
	}
}

// jobPayload wraps a message payload with retry info.
type jobPayload struct {
	Payload    any
	RetryCount int
	MaxRetries int
}

// Publish sends a message to all subscribers.
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	job := jobPayload{
		Payload:    payload,
		RetryCount: 0,
		MaxRetries: 3,
	}

	for _, handler := range handlers {
		go q.processJob(topic, handler, job)
	}

	return nil
}

// processJob handles retries with backoff before giving up.
func (q *InMemoryQueue) processJob(topic string, handler func(payload any) error, job jobPayload) {
	for job.RetryCount <= job.MaxRetries {
		err := handler(job.Payload)
		if err == nil {
			return
		}

		job.RetryCount++
		q.logger.Warn("queue job failed",
			zap.String("topic", topic),
			zap.Int("attempt", job.RetryCount),
			zap.Int("max_retries", job.MaxRetries),
			zap.Error(err),
		)

		if job.RetryCount > job.MaxRetries {
			q.logger.Error("queue job permanently failed",
				zap.String("topic", topic),
				zap.Int("attempts", job.RetryCount),
			)
			return
		}

		time.Sleep(time.Duration(job.RetryCount*500) * time.Millisecond)
	}
}

func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

var _ Queue = (*InMemoryQueue)(nil)
