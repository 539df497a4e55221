package queue

import (
	"go.uber.org/zap"

	appErrors "github.com/oakline/mailcamp-backend/internal/errors"
	"github.com/oakline/mailcamp-backend/internal/model"
	"github.com/oakline/mailcamp-backend/internal/service"
)

// StartDeliveryEventSubscriber applies queued delivery events through the
// tracker. Unknown send records are dropped rather than retried: a webhook
// for a record that does not exist will not start existing later.
func StartDeliveryEventSubscriber(q Queue, topic string, tracker *service.DeliveryTracker, logger *zap.Logger) error {
	return q.Subscribe(topic, func(payload any) error {
		ev, err := DecodeDeliveryEvent(payload)
		if err != nil {
			logger.Warn("invalid delivery event payload", zap.Error(err))
			return nil // malformed, no retry
		}

		err = tracker.RecordEvent(ev.SendRecordID, model.EventKind(ev.Kind), ev.Timestamp)
		if err != nil {
			if appErrors.IsNotFound(err) {
				logger.Warn("delivery event for unknown send record",
					zap.Int("send_record_id", ev.SendRecordID),
				)
				return nil // no retry
			}
			return err // infrastructure error, retry
		}
		return nil
	})
}
