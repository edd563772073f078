package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/verdictaid/notifier/pkg/logger"
)

// Sender delivers one event to one device over one channel.
//
// Deliver reports whether the message was handed off. It never panics and
// never returns an error: failures are logged and counted. Each sender
// bounds its own work with a timeout; a timeout counts as a failure.
type Sender interface {
	Deliver(ctx context.Context, d Device, ev Event) bool
}

var errNoLiveConnections = errors.New("no live connections")

// senderBase carries the timeout, logging and metrics shared by all senders.
type senderBase struct {
	channel ChannelKind
	timeout time.Duration
	logger  *slog.Logger
	metrics *Metrics
}

// SenderOption configures any of the channel senders.
type SenderOption func(*senderBase)

// WithSenderTimeout bounds a single delivery.
func WithSenderTimeout(d time.Duration) SenderOption {
	return func(b *senderBase) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithSenderLogger sets the sender logger. Nil keeps slog.Default().
func WithSenderLogger(l *slog.Logger) SenderOption {
	return func(b *senderBase) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithSenderMetrics records delivery outcomes in m.
func WithSenderMetrics(m *Metrics) SenderOption {
	return func(b *senderBase) {
		b.metrics = m
	}
}

func newSenderBase(channel ChannelKind, timeout time.Duration, opts []SenderOption) senderBase {
	b := senderBase{
		channel: channel,
		timeout: timeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// run executes deliver under the sender timeout and turns its result into the
// boolean outcome. Missing credentials and absent live connections are skips,
// logged at debug level only.
func (b *senderBase) run(ctx context.Context, d Device, ev Event, deliver func(context.Context) error) (ok bool) {
	start := time.Now()
	attrs := []slog.Attr{
		logger.Channel(b.channel.String()),
		logger.UserID(ev.UserID),
		logger.EventID(ev.ID),
		logger.EventType(ev.Type),
	}
	if d.ID != 0 {
		attrs = append(attrs, logger.DeviceID(d.ID))
	}

	defer func() {
		if p := recover(); p != nil {
			ok = false
			b.metrics.delivery(b.channel, outcomeFailed, time.Since(start))
			b.logger.LogAttrs(ctx, slog.LevelError, "notification sender panicked",
				append(attrs, logger.Error(fmt.Errorf("%w: panic: %v", ErrDeliveryFailure, p)))...)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	err := deliver(ctx)
	took := time.Since(start)

	switch {
	case err == nil:
		b.metrics.delivery(b.channel, outcomeDelivered, took)
		b.logger.LogAttrs(ctx, slog.LevelDebug, "notification delivered", append(attrs, logger.Duration(took))...)
		return true
	case errors.Is(err, ErrMissingCredential), errors.Is(err, errNoLiveConnections):
		b.metrics.delivery(b.channel, outcomeSkipped, took)
		b.logger.LogAttrs(ctx, slog.LevelDebug, "notification not delivered", append(attrs, logger.Error(err))...)
		return false
	default:
		if !errors.Is(err, ErrDeliveryFailure) && !errors.Is(err, ErrUnknownNotificationType) {
			err = errors.Join(ErrDeliveryFailure, err)
		}
		b.metrics.delivery(b.channel, outcomeFailed, took)
		b.logger.LogAttrs(ctx, slog.LevelWarn, "notification delivery failed",
			append(attrs, logger.Duration(took), logger.Error(err))...)
		return false
	}
}
