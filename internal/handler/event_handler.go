package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/oakline/mailcamp-backend/internal/model"
	"github.com/oakline/mailcamp-backend/internal/queue"
	"github.com/oakline/mailcamp-backend/internal/service"
)

// EventHandler accepts delivery events from tracking pixel and
// link-redirect collaborators. When a queue is wired the event is published
// and applied asynchronously; without one it is applied inline.
type EventHandler struct {
	Tracker *service.DeliveryTracker
	Events  queue.Queue
	Topic   string
	Logger  *zap.Logger
}

func (h *EventHandler) SubmitEvent(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SendRecordID int        `json:"send_record_id"`
		Kind         string     `json:"kind"`
		Timestamp    *time.Time `json:"timestamp,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	kind := model.EventKind(body.Kind)
	if !model.ValidEventKind(kind) {
		http.Error(w, "unknown event kind: "+body.Kind, http.StatusBadRequest)
		return
	}

	ts := time.Now()
	if body.Timestamp != nil {
		ts = *body.Timestamp
	}

	if h.Events != nil {
		ev := queue.DeliveryEvent{
			SendRecordID: body.SendRecordID,
			Kind:         body.Kind,
			Timestamp:    ts,
		}
		if err := h.Events.Publish(h.Topic, ev); err != nil {
			h.Logger.Error("failed to enqueue delivery event",
				zap.Int("send_record_id", body.SendRecordID),
				zap.Error(err),
			)
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusAccepted)
		return
	}

	if err := h.Tracker.RecordEvent(body.SendRecordID, kind, ts); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
