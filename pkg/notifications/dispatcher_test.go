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
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/verdictaid/notifier/pkg/logger"
)

// recordingSender remembers every device it was asked to deliver to.
type recordingSender struct {
	ok bool

	mu      sync.Mutex
	devices []Device
	ctxErrs []error
}

func (s *recordingSender) Deliver(ctx context.Context, d Device, _ Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices = append(s.devices, d)
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
	return s.ok
}

func (s *recordingSender) calls() []Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Device(nil), s.devices...)
}

type panickingSender struct{}

func (panickingSender) Deliver(context.Context, Device, Event) bool { panic("boom") }

func newTestDispatcher(store Store, dir DeviceDirectory, opts ...DispatcherOption) *Dispatcher {
	return NewDispatcher(store, dir, append([]DispatcherOption{WithDispatcherLogger(logger.Discard())}, opts...)...)
}

func TestDispatcher_SendPersistsAndLists(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	d := newTestDispatcher(store, nil)

	id, err := d.Send(context.Background(), 1, "document_processed", Payload{"document_id": 42})
	require.NoError(t, err)
	require.NotEmpty(t, id)
	d.Wait()

	events, err := d.ListPending(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, id, events[0].ID)
	assert.EqualValues(t, 42, events[0].Payload["document_id"])
}

func TestDispatcher_StoreUnavailable(t *testing.T) {
	t.Parallel()

	store := &MockStore{}
	store.On("Append", mock.Anything, int64(1), mock.Anything).Return(Event{}, ErrStoreUnavailable).Once()
	dir := &MockDirectory{}
	live := &recordingSender{}
	m := NewMetrics(prometheus.NewRegistry())

	d := newTestDispatcher(store, dir, WithLiveSender(live), WithDispatcherMetrics(m))
	id, err := d.Send(context.Background(), 1, "document_processed", nil)
	d.Wait()

	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Empty(t, id)
	assert.Empty(t, live.calls(), "nothing is delivered when persistence fails")
	dir.AssertNotCalled(t, "ActiveDevices", mock.Anything, mock.Anything)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.persistFailures))
}

func TestDispatcher_Validation(t *testing.T) {
	t.Parallel()

	d := newTestDispatcher(NewMemoryStore(), nil)

	_, err := d.Send(context.Background(), 0, "t", nil)
	assert.ErrorIs(t, err, ErrInvalidUserID)
	_, err = d.Send(context.Background(), 1, "  ", nil)
	assert.ErrorIs(t, err, ErrEmptyType)
	_, err = d.ListPending(context.Background(), -1, 10)
	assert.ErrorIs(t, err, ErrInvalidUserID)
}

// gatedSender blocks every delivery until release is closed.
type gatedSender struct {
	release chan struct{}
	count   atomic.Int64
}

func (s *gatedSender) Deliver(ctx context.Context, _ Device, _ Event) bool {
	select {
	case <-s.release:
	case <-ctx.Done():
		return false
	}
	s.count.Add(1)
	return true
}

func TestDispatcher_CloseRejectsLaterSends(t *testing.T) {
	t.Parallel()

	store := &MockStore{}
	store.On("Append", mock.Anything, int64(4), mock.Anything).Return(Event{ID: "4:1", UserID: 4, Type: "task_completed"}, nil).Once()
	d := newTestDispatcher(store, nil)

	_, err := d.Send(context.Background(), 4, "task_completed", nil)
	require.NoError(t, err)

	d.Close()
	d.Close()

	id, err := d.Send(context.Background(), 4, "task_completed", nil)
	assert.ErrorIs(t, err, ErrDispatcherClosed)
	assert.Empty(t, id)
	store.AssertNumberOfCalls(t, "Append", 1)
}

func TestDispatcher_CloseWaitsForAcceptedFanOut(t *testing.T) {
	t.Parallel()

	live := &gatedSender{release: make(chan struct{})}
	d := newTestDispatcher(NewMemoryStore(), nil, WithLiveSender(live), WithFanOutTimeout(5*time.Second))

	_, err := d.Send(context.Background(), 5, "task_completed", nil)
	require.NoError(t, err)

	closed := make(chan struct{})
	go func() {
		d.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned before the accepted fan-out finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(live.release)
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return after the fan-out finished")
	}
	assert.EqualValues(t, 1, live.count.Load())
}

func TestDispatcher_SendRacingClose(t *testing.T) {
	t.Parallel()

	live := &recordingSender{ok: true}
	d := newTestDispatcher(NewMemoryStore(), nil, WithLiveSender(live))

	var (
		wg       sync.WaitGroup
		accepted atomic.Int64
		rejected atomic.Int64
	)
	start := make(chan struct{})
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for range 10 {
				_, err := d.Send(context.Background(), int64(i%4+1), "task_completed", nil)
				switch {
				case err == nil:
					accepted.Add(1)
				case errors.Is(err, ErrDispatcherClosed):
					rejected.Add(1)
				default:
					t.Errorf("unexpected send error: %v", err)
				}
			}
		}()
	}

	close(start)
	d.Close()
	deliveredAtClose := len(live.calls())
	wg.Wait()

	assert.Equal(t, int64(320), accepted.Load()+rejected.Load())
	assert.Equal(t, int(accepted.Load()), deliveredAtClose, "every accepted send is fanned out before Close returns")
	assert.Len(t, live.calls(), deliveredAtClose, "nothing is fanned out after Close returns")
}

func TestDispatcher_FanOutRoutesByChannel(t *testing.T) {
	t.Parallel()

	dir := StaticDirectory{
		4: {
			{ID: 1, UserID: 4, Channel: ChannelEmail, IsActive: true, Email: "a@example.com"},
			{ID: 2, UserID: 4, Channel: ChannelWebPush, IsActive: true, PushSubscription: "{}"},
			{ID: 3, UserID: 4, Channel: ChannelFCM, IsActive: true, FCMToken: "tok"},
			{ID: 4, UserID: 4, Channel: ChannelFCM, IsActive: false, FCMToken: "old"},
			{ID: 5, UserID: 4, Channel: ChannelLive, IsActive: true},
		},
	}
	live, mail, wp, fcm := &recordingSender{ok: true}, &recordingSender{ok: true}, &recordingSender{}, &recordingSender{ok: true}

	d := newTestDispatcher(NewMemoryStore(), dir,
		WithLiveSender(live), WithEmailSender(mail), WithWebPushSender(wp), WithFCMSender(fcm))
	_, err := d.Send(context.Background(), 4, "task_completed", nil)
	require.NoError(t, err)
	d.Wait()

	require.Len(t, live.calls(), 1, "live broadcast runs exactly once")
	assert.Equal(t, int64(4), live.calls()[0].UserID)
	require.Len(t, mail.calls(), 1)
	assert.Equal(t, int64(1), mail.calls()[0].ID)
	require.Len(t, wp.calls(), 1)
	assert.Equal(t, int64(2), wp.calls()[0].ID)
	require.Len(t, fcm.calls(), 1)
	assert.Equal(t, int64(3), fcm.calls()[0].ID)
}

func TestDispatcher_ChannelIndependence(t *testing.T) {
	t.Parallel()

	mailer := &MockMailer{}
	mailer.On("SendEmail", mock.Anything, mock.Anything).Return(nil).Once()
	transport := &MockWebPushTransport{}
	transport.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("subscription expired")).Once()

	dir := StaticDirectory{
		8: {
			{ID: 1, UserID: 8, Channel: ChannelEmail, IsActive: true, Email: "owner@example.com"},
			{ID: 2, UserID: 8, Channel: ChannelWebPush, IsActive: true, PushSubscription: `{"endpoint":"gone"}`},
		},
	}
	m := NewMetrics(prometheus.NewRegistry())
	d := newTestDispatcher(NewMemoryStore(), dir,
		WithEmailSender(NewEmailSender(mailer, nil, quiet, WithSenderMetrics(m))),
		WithWebPushSender(NewWebPushSender(transport, quiet, WithSenderMetrics(m))),
	)

	id, err := d.Send(context.Background(), 8, "document_processed", Payload{"document_id": 1})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	d.Wait()

	mailer.AssertExpectations(t)
	transport.AssertExpectations(t)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deliveries.WithLabelValues("email", outcomeDelivered)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deliveries.WithLabelValues("web_push", outcomeFailed)))
}

func TestDispatcher_FanOutFailureKeepsEvent(t *testing.T) {
	t.Parallel()

	dir := &MockDirectory{}
	dir.On("ActiveDevices", mock.Anything, int64(2)).Return(nil, ErrDirectoryFailure).Once()

	store := NewMemoryStore()
	d := newTestDispatcher(store, dir, WithLiveSender(panickingSender{}))

	id, err := d.Send(context.Background(), 2, "document_processed", nil)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	d.Wait()

	events, err := d.ListPending(context.Background(), 2, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, id, events[0].ID)
	dir.AssertExpectations(t)
}

func TestDispatcher_FanOutDetachedFromCaller(t *testing.T) {
	t.Parallel()

	live := &recordingSender{ok: true}
	d := newTestDispatcher(NewMemoryStore(), nil, WithLiveSender(live), WithFanOutTimeout(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	_, err := d.Send(ctx, 3, "task_completed", nil)
	require.NoError(t, err)
	cancel()
	d.Wait()

	require.Len(t, live.calls(), 1)
	live.mu.Lock()
	defer live.mu.Unlock()
	assert.NoError(t, live.ctxErrs[0], "caller cancellation must not reach the fan-out")
}

func TestDispatcher_LiveDeliveryEndToEnd(t *testing.T) {
	t.Parallel()

	r := newTestRegistry()
	conn := &fakeConn{id: "ws-1"}
	r.Connect(9, conn)

	d := newTestDispatcher(NewMemoryStore(), nil, WithLiveSender(NewLiveSender(r, quiet)))
	id, err := d.Send(context.Background(), 9, "task_completed", Payload{"title": "Done"})
	require.NoError(t, err)
	d.Wait()

	got := conn.events()
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	assert.Equal(t, "task_completed", got[0].Type)
}
