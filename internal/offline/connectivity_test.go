package offline

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comandaclub/comanda/pkg/event"
)

func TestStaticPort(t *testing.T) {
	ctx := context.Background()

	p := NewStaticPort(true)
	assert.True(t, p.Online(ctx))

	p.Set(false)
	assert.False(t, p.Online(ctx))
}

func TestWatcher_AnnouncesOnReconnect(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)
	pub := &mockPublisher{}
	port := NewStaticPort(false)

	_, err := q.Enqueue(ctx, KindUpdate, "checks/x", []byte(`{}`), "")
	require.NoError(t, err)

	w := NewWatcher(port, q, pub, 5*time.Millisecond, nil)
	require.NoError(t, w.Start(ctx))
	defer w.Stop(ctx)

	port.Set(true)

	deadline := time.After(2 * time.Second)
	for len(pub.Events()) == 0 {
		select {
		case <-deadline:
			t.Fatal("watcher never announced the reconnect")
		case <-time.After(5 * time.Millisecond):
		}
	}

	events := pub.Events()
	assert.Equal(t, event.SyncTopic, events[0].Topic)

	var evt event.SyncEvent
	require.NoError(t, json.Unmarshal(events[0].Data, &evt))
	assert.Equal(t, event.EventConnectivityOnline, evt.EventType)
	assert.Equal(t, 1, evt.Pending, "announcement carries the pending count")
}

func TestWatcher_SilentWhileOnline(t *testing.T) {
	ctx := context.Background()
	pub := &mockPublisher{}

	w := NewWatcher(NewStaticPort(true), newTestQueue(t), pub, 5*time.Millisecond, nil)
	require.NoError(t, w.Start(ctx))
	defer w.Stop(ctx)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, pub.Events(), "steady online state is not announced")
}

func TestWatcher_DefaultsInterval(t *testing.T) {
	w := NewWatcher(NewStaticPort(true), nil, nil, 0, nil)
	assert.Equal(t, 15*time.Second, w.interval)
}
