package offline

import (
	"context"

	"github.com/google/uuid"
)

// RemoteStore is the hierarchical-path document store the dispatcher
// writes through when the device is reachable. Paths look like
// "checks/{id}"; Add targets a collection path and returns the
// server-assigned document id.
type RemoteStore interface {
	Add(ctx context.Context, path string, payload []byte) (string, error)
	Update(ctx context.Context, path string, payload []byte) error
	Delete(ctx context.Context, path string) error
}

// TransactionApplier replays a queued transaction mutation against the
// backend with full reconciliation semantics.
type TransactionApplier interface {
	ApplyTransaction(ctx context.Context, targetPath string, payload []byte) error
}

// WriteResult is returned by every dispatcher entry point so callers are
// indifferent to mode. Local marks a result synthesized while offline; its
// ID is a placeholder that will not survive the reconnect-and-sync cycle,
// and callers must not use it to correlate remote listeners.
type WriteResult struct {
	ID    string `json:"id,omitempty"`
	Local bool   `json:"local,omitempty"`
}

// Dispatcher decides, at the moment a mutation is issued, whether to apply
// it to the remote store or persist it to the local queue.
type Dispatcher struct {
	remote  RemoteStore
	applier TransactionApplier
	queue   *Queue
	port    ConnectivityPort
}

func NewDispatcher(remote RemoteStore, applier TransactionApplier, queue *Queue, port ConnectivityPort) *Dispatcher {
	return &Dispatcher{
		remote:  remote,
		applier: applier,
		queue:   queue,
		port:    port,
	}
}

// Add creates a document under the given collection path. Offline, the
// returned id is a locally-unique placeholder.
func (d *Dispatcher) Add(ctx context.Context, path string, payload []byte) (WriteResult, error) {
	if d.port.Online(ctx) {
		id, err := d.remote.Add(ctx, path, payload)
		if err != nil {
			return WriteResult{}, err
		}
		return WriteResult{ID: id}, nil
	}

	localID := placeholderID()
	if _, err := d.queue.Enqueue(ctx, KindAdd, path, payload, localID); err != nil {
		return WriteResult{}, err
	}
	return WriteResult{ID: localID, Local: true}, nil
}

// Update merges fields into the document at the given path.
func (d *Dispatcher) Update(ctx context.Context, path string, payload []byte) (WriteResult, error) {
	if d.port.Online(ctx) {
		if err := d.remote.Update(ctx, path, payload); err != nil {
			return WriteResult{}, err
		}
		return WriteResult{ID: lastSegment(path)}, nil
	}

	if _, err := d.queue.Enqueue(ctx, KindUpdate, path, payload, ""); err != nil {
		return WriteResult{}, err
	}
	return WriteResult{ID: lastSegment(path), Local: true}, nil
}

// Delete removes the document at the given path.
func (d *Dispatcher) Delete(ctx context.Context, path string) (WriteResult, error) {
	if d.port.Online(ctx) {
		if err := d.remote.Delete(ctx, path); err != nil {
			return WriteResult{}, err
		}
		return WriteResult{ID: lastSegment(path)}, nil
	}

	if _, err := d.queue.Enqueue(ctx, KindDelete, path, nil, ""); err != nil {
		return WriteResult{}, err
	}
	return WriteResult{ID: lastSegment(path), Local: true}, nil
}

// Transaction applies a reconciliation transaction immediately when
// online, or captures it for replay at drain time.
func (d *Dispatcher) Transaction(ctx context.Context, path string, payload []byte) (WriteResult, error) {
	if d.port.Online(ctx) {
		if err := d.applier.ApplyTransaction(ctx, path, payload); err != nil {
			return WriteResult{}, err
		}
		return WriteResult{ID: lastSegment(path)}, nil
	}

	if _, err := d.queue.Enqueue(ctx, KindTransaction, path, payload, ""); err != nil {
		return WriteResult{}, err
	}
	return WriteResult{ID: lastSegment(path), Local: true}, nil
}

func placeholderID() string {
	return "local-" + uuid.NewString()
}

func lastSegment(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}
