package queue

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// AMQPQueue backs the Queue interface with RabbitMQ. Topics map to durable
// queues; payloads travel as JSON.
type AMQPQueue struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	logger *zap.Logger
}

func NewAMQPQueue(url string, logger *zap.Logger) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	return &AMQPQueue{conn: conn, ch: ch, logger: logger}, nil
}

func (q *AMQPQueue) Close() {
	q.ch.Close()
	q.conn.Close()
}

func (q *AMQPQueue) declare(topic string) (amqp.Queue, error) {
	return q.ch.QueueDeclare(
		topic,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
}

func (q *AMQPQueue) Publish(topic string, payload any) error {
	queue, err := q.declare(topic)
	if err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return q.ch.Publish(
		"",
		queue.Name,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

const maxDeliveryAttempts = 3

// retryCount reads the attempt counter from the message headers. The
// broker may hand the value back as either int32 or int64.
func retryCount(headers amqp.Table) int32 {
	switch v := headers["x-retry-count"].(type) {
	case int32:
		return v
	case int64:
		return int32(v)
	}
	return 0
}

func shouldRequeue(attempt int32) bool {
	return attempt+1 < maxDeliveryAttempts
}

// Subscribe consumes the topic's queue and feeds raw JSON bodies to the
// handler. A handler error republishes the message with an incremented
// x-retry-count header, up to three attempts, then the message is dropped.
// Nack with requeue would not do: the broker redelivers the original
// headers unchanged, so the counter would never move.
func (q *AMQPQueue) Subscribe(topic string, handler func(payload any) error) error {
	queue, err := q.declare(topic)
	if err != nil {
		return err
	}

	msgs, err := q.ch.Consume(
		queue.Name,
		"",
		false, // manual ack for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	go func() {
		for d := range msgs {
			if err := handler(d.Body); err != nil {
				attempt := retryCount(d.Headers)
				if shouldRequeue(attempt) {
					q.logger.Warn("amqp message handling failed, requeueing",
						zap.String("topic", topic),
						zap.Int32("attempt", attempt+1),
						zap.Error(err),
					)
					if pubErr := q.ch.Publish("", queue.Name, false, false, amqp.Publishing{
						ContentType: "application/json",
						Body:        d.Body,
						Headers:     amqp.Table{"x-retry-count": attempt + 1},
					}); pubErr != nil {
						q.logger.Error("failed to requeue message",
							zap.String("topic", topic),
							zap.Error(pubErr),
						)
						d.Nack(false, true)
						continue
					}
				} else {
					q.logger.Error("amqp message dropped after max attempts",
						zap.String("topic", topic),
						zap.Int32("attempts", attempt+1),
						zap.Error(err),
					)
				}
			}
			d.Ack(false)
		}
	}()

	return nil
}

var _ Queue = (*AMQPQueue)(nil)
