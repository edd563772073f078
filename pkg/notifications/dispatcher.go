package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/verdictaid/notifier/pkg/logger"
)

const tracerName = "github.com/verdictaid/notifier/pkg/notifications"

// Dispatcher persists notifications and fans them out to the user's live
// connections and registered devices.
type Dispatcher struct {
	store     Store
	directory DeviceDirectory

	live    Sender
	email   Sender
	webPush Sender
	fcm     Sender

	fanOutTimeout  time.Duration
	fanOutParallel int

	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer

	// mu orders inflight.Add against Close so Wait never races a new Send.
	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLiveSender enables delivery to open live connections.
func WithLiveSender(s Sender) DispatcherOption { return func(d *Dispatcher) { d.live = s } }

// WithEmailSender enables the email channel. Unset channels are skipped.
func WithEmailSender(s Sender) DispatcherOption { return func(d *Dispatcher) { d.email = s } }

// WithWebPushSender enables the Web Push channel.
func WithWebPushSender(s Sender) DispatcherOption { return func(d *Dispatcher) { d.webPush = s } }

// WithFCMSender enables the FCM channel.
func WithFCMSender(s Sender) DispatcherOption { return func(d *Dispatcher) { d.fcm = s } }

// WithFanOutTimeout bounds the whole fan-out of one notification.
func WithFanOutTimeout(t time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if t > 0 {
			d.fanOutTimeout = t
		}
	}
}

// WithFanOutParallelism caps concurrent channel deliveries per notification.
func WithFanOutParallelism(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.fanOutParallel = n
		}
	}
}

// WithDispatcherLogger sets the dispatcher logger. Nil keeps slog.Default().
func WithDispatcherLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithDispatcherMetrics records persistence outcomes in m.
func WithDispatcherMetrics(m *Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithTracer replaces the global OpenTelemetry tracer.
func WithTracer(t trace.Tracer) DispatcherOption {
	return func(d *Dispatcher) {
		if t != nil {
			d.tracer = t
		}
	}
}

// NewDispatcher creates a dispatcher. A nil directory means no registered
// devices; channels without a sender are skipped.
func NewDispatcher(store Store, directory DeviceDirectory, opts ...DispatcherOption) *Dispatcher {
	if directory == nil {
		directory = StaticDirectory(nil)
	}
	d := &Dispatcher{
		store:          store,
		directory:      directory,
		fanOutTimeout:  DefaultFanOutTimeout,
		fanOutParallel: DefaultFanOutParallel,
		logger:         slog.Default(),
		tracer:         otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Send stores the notification and returns its id once it is persisted.
// Delivery to live connections and devices continues in the background and
// is not affected by cancellation of ctx. If the store rejects the event
// nothing is delivered and the error is returned. After Close, Send returns
// ErrDispatcherClosed without touching the store.
func (d *Dispatcher) Send(ctx context.Context, userID int64, eventType string, payload Payload) (string, error) {
	if userID <= 0 {
		return "", ErrInvalidUserID
	}
	eventType = strings.TrimSpace(eventType)
	if eventType == "" {
		return "", ErrEmptyType
	}
	if !d.acquire() {
		return "", ErrDispatcherClosed
	}
	started := false
	defer func() {
		if !started {
			d.inflight.Done()
		}
	}()

	ctx, span := d.tracer.Start(ctx, "notifications.Send", trace.WithAttributes(
		attribute.Int64("notification.user_id", userID),
		attribute.String("notification.type", eventType),
	))
	defer span.End()

	ev, err := d.store.Append(ctx, userID, Event{Type: eventType, Payload: payload})
	if err != nil {
		d.metrics.persistFailedInc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		d.logger.LogAttrs(ctx, slog.LevelError, "failed to persist notification",
			logger.UserID(userID),
			logger.EventType(eventType),
			logger.Error(err),
		)
		return "", err
	}
	d.metrics.persistedInc()
	span.SetAttributes(attribute.String("notification.id", ev.ID))

	started = true
	go d.fanOut(context.WithoutCancel(ctx), ev)

	return ev.ID, nil
}

// acquire registers one in-flight Send unless the dispatcher is closed.
func (d *Dispatcher) acquire() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	d.inflight.Add(1)
	return true
}

// ListPending returns the user's stored history, most recent first.
func (d *Dispatcher) ListPending(ctx context.Context, userID int64, limit int) ([]Event, error) {
	if userID <= 0 {
		return nil, ErrInvalidUserID
	}
	return d.store.List(ctx, userID, limit)
}

// Wait blocks until every fan-out started so far has finished.
func (d *Dispatcher) Wait() {
	d.inflight.Wait()
}

// Close stops accepting new notifications and waits for every accepted one
// to be persisted and fanned out. It is safe to call more than once.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.inflight.Wait()
}

func (d *Dispatcher) fanOut(ctx context.Context, ev Event) {
	defer d.inflight.Done()
	defer func() {
		if p := recover(); p != nil {
			d.logger.LogAttrs(ctx, slog.LevelError, "notification fan-out panicked",
				logger.UserID(ev.UserID),
				logger.EventID(ev.ID),
				logger.Error(fmt.Errorf("%w: panic: %v", ErrDeliveryFailure, p)),
			)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, d.fanOutTimeout)
	defer cancel()
	ctx, span := d.tracer.Start(ctx, "notifications.FanOut")
	defer span.End()

	start := time.Now()
	var (
		g         errgroup.Group
		attempted int
		delivered atomic.Int64
	)
	g.SetLimit(d.fanOutParallel)

	dispatch := func(s Sender, dev Device) {
		attempted++
		g.Go(func() error {
			defer func() {
				if p := recover(); p != nil {
					d.logger.LogAttrs(ctx, slog.LevelError, "channel delivery panicked",
						logger.Channel(dev.Channel.String()),
						logger.UserID(ev.UserID),
						logger.EventID(ev.ID),
						logger.Error(fmt.Errorf("%w: panic: %v", ErrDeliveryFailure, p)),
					)
				}
			}()
			if s.Deliver(ctx, dev, ev) {
				delivered.Add(1)
			}
			return nil
		})
	}

	if d.live != nil {
		dispatch(d.live, Device{UserID: ev.UserID, Channel: ChannelLive, IsActive: true})
	}

	devices, err := d.directory.ActiveDevices(ctx, ev.UserID)
	if err != nil {
		span.RecordError(err)
		d.logger.LogAttrs(ctx, slog.LevelWarn, "device lookup failed, skipping device channels",
			logger.UserID(ev.UserID),
			logger.EventID(ev.ID),
			logger.Error(err),
		)
	}

	for _, dev := range devices {
		if !dev.IsActive {
			continue
		}
		s, err := d.senderFor(dev.Channel)
		if err != nil {
			d.logger.LogAttrs(ctx, slog.LevelWarn, "skipping device",
				logger.UserID(ev.UserID),
				logger.DeviceID(dev.ID),
				logger.Error(err),
			)
			continue
		}
		if s == nil {
			continue
		}
		dispatch(s, dev)
	}

	_ = g.Wait()

	span.SetAttributes(
		attribute.Int("notification.attempted", attempted),
		attribute.Int64("notification.delivered", delivered.Load()),
	)
	d.logger.LogAttrs(ctx, slog.LevelInfo, "notification fanned out",
		logger.UserID(ev.UserID),
		logger.EventID(ev.ID),
		logger.EventType(ev.Type),
		logger.Count("attempted", attempted),
		logger.Count("delivered", int(delivered.Load())),
		logger.Duration(time.Since(start)),
	)
}

// senderFor maps a device channel to its sender. Live devices get nil: the
// live broadcast already ran for this event. A nil sender for a configured
// channel means that channel is disabled.
func (d *Dispatcher) senderFor(kind ChannelKind) (Sender, error) {
	switch kind {
	case ChannelLive:
		return nil, nil
	case ChannelEmail:
		return d.email, nil
	case ChannelWebPush:
		return d.webPush, nil
	case ChannelFCM:
		return d.fcm, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownChannel, kind)
	}
}
