package offline

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
)

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	q, err := OpenQueue(filepath.Join(t.TempDir(), "queue.db"))
	if err != nil {
		t.Fatalf("cannot open queue: %v", err)
	}
	t.Cleanup(func() { q.Close() })
	return q
}

type remoteCall struct {
	Op      string
	Path    string
	Payload []byte
}

// fakeRemote records calls and fails on configured paths. Adds hand out
// ids from NextIDs, falling back to a fixed value.
type fakeRemote struct {
	Calls   []remoteCall
	NextIDs []string
	FailOn  map[string]error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{FailOn: map[string]error{}}
}

func (r *fakeRemote) nextID() string {
	if len(r.NextIDs) == 0 {
		return "server-id"
	}
	id := r.NextIDs[0]
	r.NextIDs = r.NextIDs[1:]
	return id
}

func (r *fakeRemote) Add(ctx context.Context, path string, payload []byte) (string, error) {
	r.Calls = append(r.Calls, remoteCall{Op: "add", Path: path, Payload: payload})
	if err := r.FailOn[path]; err != nil {
		return "", err
	}
	return r.nextID(), nil
}

func (r *fakeRemote) Update(ctx context.Context, path string, payload []byte) error {
	r.Calls = append(r.Calls, remoteCall{Op: "update", Path: path, Payload: payload})
	return r.FailOn[path]
}

func (r *fakeRemote) Delete(ctx context.Context, path string) error {
	r.Calls = append(r.Calls, remoteCall{Op: "delete", Path: path})
	return r.FailOn[path]
}

// fakeApplier records transaction replays.
type fakeApplier struct {
	Calls []remoteCall
	Err   error
}

func (a *fakeApplier) ApplyTransaction(ctx context.Context, targetPath string, payload []byte) error {
	a.Calls = append(a.Calls, remoteCall{Op: "transaction", Path: targetPath, Payload: payload})
	return a.Err
}

// mockPublisher is a test mock for events.Publisher. Safe for use from the
// watcher's polling goroutine.
type mockPublisher struct {
	mu        sync.Mutex
	Published []publishedEvent
}

type publishedEvent struct {
	Topic string
	Data  []byte
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Published = append(m.Published, publishedEvent{Topic: topic, Data: data})
	return nil
}

func (m *mockPublisher) Events() []publishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]publishedEvent(nil), m.Published...)
}
