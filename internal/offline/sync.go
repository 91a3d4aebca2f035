package offline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/comandaclub/comanda/pkg/event"
)

// DrainCallbacks report granular drain progress to the caller. All
// callbacks are optional.
type DrainCallbacks struct {
	OnApplied func(m PendingMutation, completed, total int)
	OnError   func(m PendingMutation, err error)
	OnDone    func(completed, total int)
}

// DrainResult summarizes a drain attempt. A partial result is by design:
// each mutation is independent, so completed/total is meaningful even when
// the drain stopped early.
type DrainResult struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`

	// Remapped maps offline placeholder ids to the server-assigned ids
	// their adds received during this drain, so in-memory references
	// created while offline can be corrected.
	Remapped map[string]string `json:"remapped,omitempty"`

	// FailedPath identifies the mutation the drain stopped at, if any.
	FailedPath string `json:"failed_path,omitempty"`
}

// Syncer replays queued mutations against the remote store once
// connectivity has returned and the operator has confirmed the drain.
type Syncer struct {
	queue     *Queue
	remote    RemoteStore
	applier   TransactionApplier
	publisher events.Publisher
	logger    apt.Logger
}

func NewSyncer(queue *Queue, remote RemoteStore, applier TransactionApplier, publisher events.Publisher, logger apt.Logger) *Syncer {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Syncer{
		queue:     queue,
		remote:    remote,
		applier:   applier,
		publisher: publisher,
		logger:    logger,
	}
}

// Drain replays all pending mutations in enqueue-timestamp order. Each
// success removes the mutation from the queue; the first failure stops the
// drain and leaves the remainder intact for a future attempt, since later
// mutations may depend on earlier ones. Never invoked automatically: the
// operator confirms every drain.
func (s *Syncer) Drain(ctx context.Context, cb DrainCallbacks) (DrainResult, error) {
	mutations, err := s.queue.List(ctx)
	if err != nil {
		return DrainResult{}, err
	}

	result := DrainResult{Total: len(mutations), Remapped: map[string]string{}}

	for _, m := range mutations {
		applyRemaps(&m, result.Remapped)

		serverID, err := s.apply(ctx, m)
		if err != nil {
			result.FailedPath = m.TargetPath
			s.logger.Errorf("cannot apply queued %s to %s: %v", m.Kind, m.TargetPath, err)
			if cb.OnError != nil {
				cb.OnError(m, err)
			}
			break
		}

		if m.LocalID != "" && serverID != "" && serverID != m.LocalID {
			result.Remapped[m.LocalID] = serverID
			if err := s.queue.Rewrite(ctx, m.LocalID, serverID); err != nil {
				s.logger.Errorf("cannot rewrite placeholder %s: %v", m.LocalID, err)
			}
		}

		if err := s.queue.Remove(ctx, m.ID); err != nil {
			return result, fmt.Errorf("applied mutation %s but cannot dequeue it: %w", m.ID, err)
		}

		result.Completed++
		if cb.OnApplied != nil {
			cb.OnApplied(m, result.Completed, result.Total)
		}
	}

	if cb.OnDone != nil {
		cb.OnDone(result.Completed, result.Total)
	}
	if len(result.Remapped) == 0 {
		result.Remapped = nil
	}

	s.publishReport(ctx, result)
	return result, nil
}

func (s *Syncer) apply(ctx context.Context, m PendingMutation) (string, error) {
	switch m.Kind {
	case KindAdd:
		return s.remote.Add(ctx, m.TargetPath, m.Payload)
	case KindUpdate:
		return "", s.remote.Update(ctx, m.TargetPath, m.Payload)
	case KindDelete:
		return "", s.remote.Delete(ctx, m.TargetPath)
	case KindTransaction:
		if s.applier == nil {
			return "", fmt.Errorf("no transaction applier configured")
		}
		return "", s.applier.ApplyTransaction(ctx, m.TargetPath, m.Payload)
	default:
		return "", fmt.Errorf("unknown mutation kind %q", m.Kind)
	}
}

// applyRemaps substitutes already-reconciled server ids into a mutation
// before it is applied. The durable rewrite in Drain covers future drain
// attempts; this covers mutations already listed in this one.
func applyRemaps(m *PendingMutation, remapped map[string]string) {
	for placeholder, serverID := range remapped {
		m.TargetPath = strings.ReplaceAll(m.TargetPath, placeholder, serverID)
		if m.Payload != nil {
			m.Payload = []byte(strings.ReplaceAll(string(m.Payload), placeholder, serverID))
		}
	}
}

func (s *Syncer) publishReport(ctx context.Context, result DrainResult) {
	if s.publisher == nil {
		return
	}
	body, err := json.Marshal(event.SyncEvent{
		EventType:  event.EventSyncDrainCompleted,
		OccurredAt: time.Now(),
		Completed:  result.Completed,
		Total:      result.Total,
		FailedPath: result.FailedPath,
	})
	if err != nil {
		s.logger.Errorf("cannot marshal drain report: %v", err)
		return
	}
	if err := s.publisher.Publish(ctx, event.SyncTopic, body); err != nil {
		s.logger.Errorf("cannot publish drain report: %v", err)
	}
}
