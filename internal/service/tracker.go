package service

import (
	"time"

	"go.uber.org/zap"

	appErrors "github.com/oakline/mailcamp-backend/internal/errors"
	"github.com/oakline/mailcamp-backend/internal/metrics"
	"github.com/oakline/mailcamp-backend/internal/model"
	"github.com/oakline/mailcamp-backend/internal/repository"
)

// DeliveryTracker records per-recipient engagement events against send
// records. Events arrive asynchronously and out of order; no ordering is
// enforced between kinds (a click may land before its open) and nothing is
// inferred from one kind about another.
type DeliveryTracker struct {
	SendRecordRepo repository.SendRecordRepositoryInterface
	Logger         *zap.Logger
}

// RecordEvent applies one engagement event. First write wins per kind per
// record: a duplicate keeps the original timestamp and is a no-op. The
// timestamp and the parent campaign's counter move together in one repo
// write, so a failure touches neither and a retry starts clean.
func (t *DeliveryTracker) RecordEvent(sendRecordID int, kind model.EventKind, ts time.Time) error {
	if !model.ValidEventKind(kind) {
		return appErrors.NewValidation("kind", "unknown event kind "+string(kind))
	}
	if ts.IsZero() {
		ts = time.Now()
	}

	if _, err := t.SendRecordRepo.GetByID(sendRecordID); err != nil {
		return err
	}

	first, err := t.SendRecordRepo.ApplyEvent(sendRecordID, kind, ts)
	if err != nil {
		return err
	}
	if !first {
		metrics.DuplicateEvents.Inc()
		t.Logger.Debug("duplicate delivery event ignored",
			zap.Int("send_record_id", sendRecordID),
			zap.String("kind", string(kind)),
		)
		return nil
	}

	metrics.DeliveryEvents.WithLabelValues(string(kind)).Inc()
	return nil
}
