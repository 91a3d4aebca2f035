package offline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"

	"github.com/comandaclub/comanda/pkg/event"
)

// SyncSubscriber listens to the sync topic and surfaces operator-facing
// messages: when connectivity returns it logs the pending count so the
// terminal UI can prompt for an explicit drain, and it records drain
// reports. It never triggers a drain itself.
type SyncSubscriber struct {
	subscriber events.Subscriber
	logger     apt.Logger
}

func NewSyncSubscriber(sub events.Subscriber, logger apt.Logger) *SyncSubscriber {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &SyncSubscriber{
		subscriber: sub,
		logger:     logger,
	}
}

func (s *SyncSubscriber) Start(ctx context.Context) error {
	s.logger.Info("starting sync subscriber", "topic", event.SyncTopic)
	if s.subscriber == nil {
		return fmt.Errorf("sync subscriber not configured")
	}
	return s.subscriber.Subscribe(ctx, event.SyncTopic, s.handleEvent)
}

func (s *SyncSubscriber) handleEvent(ctx context.Context, msg []byte) error {
	var evt event.SyncEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		s.logger.Info("invalid sync event", "error", err)
		return nil
	}

	switch evt.EventType {
	case event.EventConnectivityOnline:
		if evt.Pending > 0 {
			s.logger.Info("connectivity regained with pending mutations, drain required",
				"pending", evt.Pending)
		}
	case event.EventSyncDrainCompleted:
		if evt.FailedPath != "" {
			s.logger.Info("drain stopped early",
				"completed", evt.Completed, "total", evt.Total, "failed_path", evt.FailedPath)
		} else {
			s.logger.Info("drain completed", "completed", evt.Completed, "total", evt.Total)
		}
	}
	return nil
}
