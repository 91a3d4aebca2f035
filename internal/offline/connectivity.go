package offline

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/comandaclub/comanda/pkg/event"
)

// ConnectivityPort answers whether the remote store is currently
// reachable. Injected into the dispatcher so data-access code never
// consults hidden global state and tests can use a fake port.
type ConnectivityPort interface {
	Online(ctx context.Context) bool
}

// StaticPort is a ConnectivityPort with a settable answer. Used by tests
// and by deployments that manage reachability externally.
type StaticPort struct {
	mu     sync.RWMutex
	online bool
}

func NewStaticPort(online bool) *StaticPort {
	return &StaticPort{online: online}
}

func (p *StaticPort) Online(ctx context.Context) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.online
}

func (p *StaticPort) Set(online bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online = online
}

// Watcher polls a ConnectivityPort and publishes an event when the device
// transitions from offline to online. It never drains the queue itself:
// the surrounding application prompts the operator, who triggers the drain
// explicitly.
type Watcher struct {
	port      ConnectivityPort
	queue     *Queue
	publisher events.Publisher
	logger    apt.Logger
	interval  time.Duration
	cancel    context.CancelFunc
}

func NewWatcher(port ConnectivityPort, queue *Queue, publisher events.Publisher, interval time.Duration, logger apt.Logger) *Watcher {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Watcher{
		port:      port,
		queue:     queue,
		publisher: publisher,
		logger:    logger,
		interval:  interval,
	}
}

func (w *Watcher) Start(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)
	go w.run(ctx)
	w.logger.Infof("Connectivity watcher started, probing every %s", w.interval)
	return nil
}

func (w *Watcher) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	wasOnline := w.port.Online(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			online := w.port.Online(ctx)
			if online && !wasOnline {
				w.announce(ctx)
			}
			wasOnline = online
		}
	}
}

func (w *Watcher) announce(ctx context.Context) {
	pending := 0
	if w.queue != nil {
		n, err := w.queue.Len(ctx)
		if err != nil {
			w.logger.Errorf("cannot count pending mutations: %v", err)
		} else {
			pending = n
		}
	}

	w.logger.Info("connectivity regained", "pending", pending)
	if w.publisher == nil {
		return
	}
	body, err := json.Marshal(event.SyncEvent{
		EventType:  event.EventConnectivityOnline,
		OccurredAt: time.Now(),
		Pending:    pending,
	})
	if err != nil {
		w.logger.Errorf("cannot marshal connectivity event: %v", err)
		return
	}
	if err := w.publisher.Publish(ctx, event.SyncTopic, body); err != nil {
		w.logger.Errorf("cannot publish connectivity event: %v", err)
	}
}
