package queue

import (
	"testing"

	"github.com/streadway/amqp"
)

func TestRetryCountHeader(t *testing.T) {
	cases := []struct {
		name    string
		headers amqp.Table
		want    int32
	}{
		{"no headers", nil, 0},
		{"missing key", amqp.Table{"other": int32(5)}, 0},
		{"int32 value", amqp.Table{"x-retry-count": int32(2)}, 2},
		{"int64 value", amqp.Table{"x-retry-count": int64(2)}, 2},
		{"unexpected type", amqp.Table{"x-retry-count": "2"}, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := retryCount(tc.headers); got != tc.want {
				t.Errorf("got %d, want %d", got, tc.want)
			}
		})
	}
}

// The cap has to engage on the attempt counter, or a persistently failing
// message loops forever.
func TestRetryCapEngages(t *testing.T) {
	for _, tc := range []struct {
		attempt int32
		requeue bool
	}{
		{0, true},
		{1, true},
		{2, false},
		{5, false},
	} {
		if got := shouldRequeue(tc.attempt); got != tc.requeue {
			t.Errorf("attempt %d: requeue=%v, want %v", tc.attempt, got, tc.requeue)
		}
	}
}
