package notifications

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdictaid/notifier/pkg/logger"
)

type fakeConn struct {
	id    string
	err   error
	panic bool
	block bool

	mu       sync.Mutex
	received []Event
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(ctx context.Context, ev Event) error {
	if c.panic {
		panic("socket closed underneath")
	}
	if c.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if c.err != nil {
		return c.err
	}
	c.mu.Lock()
	c.received = append(c.received, ev)
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.received...)
}

func newTestRegistry(opts ...RegistryOption) *Registry {
	return NewRegistry(append([]RegistryOption{WithRegistryLogger(logger.Discard())}, opts...)...)
}

func TestRegistry_BroadcastNoConnections(t *testing.T) {
	t.Parallel()

	r := newTestRegistry()
	assert.Equal(t, 0, r.Broadcast(context.Background(), 3, Event{ID: "3:1"}))
}

func TestRegistry_BroadcastIsolation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		broken *fakeConn
	}{
		{"error", &fakeConn{id: "bad", err: errors.New("broken pipe")}},
		{"panic", &fakeConn{id: "bad", panic: true}},
		{"timeout", &fakeConn{id: "bad", block: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := newTestRegistry(WithConnectionTimeout(50 * time.Millisecond))
			a, b := &fakeConn{id: "a"}, &fakeConn{id: "b"}
			r.Connect(1, a)
			r.Connect(1, tt.broken)
			r.Connect(1, b)

			ev := Event{ID: "1:1", UserID: 1, Type: "task_completed"}
			assert.Equal(t, 2, r.Broadcast(context.Background(), 1, ev))
			assert.Equal(t, []Event{ev}, a.events())
			assert.Equal(t, []Event{ev}, b.events())
			assert.Equal(t, 3, r.Connections(1), "failing connections stay registered")
		})
	}
}

func TestRegistry_BroadcastOnlyReachesOwner(t *testing.T) {
	t.Parallel()

	r := newTestRegistry()
	mine, other := &fakeConn{id: "mine"}, &fakeConn{id: "other"}
	r.Connect(1, mine)
	r.Connect(2, other)

	assert.Equal(t, 1, r.Broadcast(context.Background(), 1, Event{ID: "1:1"}))
	assert.Len(t, mine.events(), 1)
	assert.Empty(t, other.events())
}

func TestRegistry_ConnectDisconnect(t *testing.T) {
	t.Parallel()

	m := NewMetrics(prometheus.NewRegistry())
	r := newTestRegistry(WithRegistryMetrics(m))
	a, b := &fakeConn{id: "a"}, &fakeConn{id: "b"}

	r.Connect(5, a)
	r.Connect(5, a)
	r.Connect(5, b)
	assert.Equal(t, 2, r.Connections(5))
	assert.Equal(t, 1, r.Users())
	assert.Equal(t, 2.0, testutil.ToFloat64(m.liveConnections))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.liveUsers))

	r.Disconnect(5, a)
	r.Disconnect(5, a)
	assert.Equal(t, 1, r.Connections(5))

	r.Disconnect(5, b)
	r.Disconnect(5, b)
	r.Disconnect(6, b)
	assert.Equal(t, 0, r.Connections(5))
	assert.Equal(t, 0, r.Users())
	assert.Equal(t, 0.0, testutil.ToFloat64(m.liveConnections))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.liveUsers))
}

func TestRegistry_ConcurrentUse(t *testing.T) {
	t.Parallel()

	r := newTestRegistry()
	var delivered atomic.Int64
	var wg sync.WaitGroup
	for u := int64(1); u <= 50; u++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := &fakeConn{id: "c"}
			r.Connect(u, c)
			delivered.Add(int64(r.Broadcast(context.Background(), u, Event{ID: "x"})))
			r.Disconnect(u, c)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), delivered.Load())
	require.Equal(t, 0, r.Users())
}
